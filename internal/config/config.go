package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"downloader/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("DOWNLOADER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("DOWNLOADER_HOST"); host != "" {
		config.Server.Host = host
	}

	setDuration("DOWNLOADER_READ_TIMEOUT", &config.Server.ReadTimeout)
	setDuration("DOWNLOADER_WRITE_TIMEOUT", &config.Server.WriteTimeout)
	setDuration("DOWNLOADER_IDLE_TIMEOUT", &config.Server.IdleTimeout)

	setBool("DOWNLOADER_TLS_ENABLED", &config.Server.TLSEnabled)

	if certFile := os.Getenv("DOWNLOADER_TLS_CERT_FILE"); certFile != "" {
		config.Server.TLSCertFile = certFile
	}

	if keyFile := os.Getenv("DOWNLOADER_TLS_KEY_FILE"); keyFile != "" {
		config.Server.TLSKeyFile = keyFile
	}

	setBool("DOWNLOADER_CORS_ENABLED", &config.Server.CORS.Enabled)

	if origins := os.Getenv("DOWNLOADER_CORS_ALLOWED_ORIGINS"); origins != "" {
		config.Server.CORS.AllowedOrigins = splitAndTrim(origins)
	}

	// Rate limit configuration
	setBool("DOWNLOADER_RATE_LIMIT_ENABLED", &config.RateLimit.Enabled)
	setInt("DOWNLOADER_RATE_LIMIT_PER_MINUTE", &config.RateLimit.RequestsPerMinute)
	setInt("DOWNLOADER_RATE_LIMIT_PER_HOUR", &config.RateLimit.RequestsPerHour)
	setInt("DOWNLOADER_RATE_LIMIT_PER_DAY", &config.RateLimit.RequestsPerDay)
	setBool("DOWNLOADER_TRUST_PROXY_HEADERS", &config.RateLimit.TrustProxyHeaders)

	// Download configuration
	if hosts := os.Getenv("DOWNLOADER_ALLOWED_HOSTS"); hosts != "" {
		config.Download.AllowedHosts = splitAndTrim(hosts)
	}

	setDuration("DOWNLOADER_DOWNLOAD_TIMEOUT", &config.Download.Timeout)

	if ua := os.Getenv("DOWNLOADER_USER_AGENT"); ua != "" {
		config.Download.UserAgent = ua
	}

	if rps := os.Getenv("DOWNLOADER_UPSTREAM_RPS"); rps != "" {
		if v, err := strconv.ParseFloat(rps, 64); err == nil {
			config.Download.RequestsPerSecond = v
		}
	}

	setInt("DOWNLOADER_UPSTREAM_BURST", &config.Download.Burst)

	// Cache configuration
	setBool("DOWNLOADER_CACHE_ENABLED", &config.Cache.Enabled)

	if cacheType := os.Getenv("DOWNLOADER_CACHE_TYPE"); cacheType != "" {
		config.Cache.Type = cacheType
	}

	setDuration("DOWNLOADER_CACHE_TTL", &config.Cache.TTL)

	if addr := os.Getenv("DOWNLOADER_REDIS_ADDR"); addr != "" {
		config.Cache.Redis.Addr = addr
	}

	if password := os.Getenv("DOWNLOADER_REDIS_PASSWORD"); password != "" {
		config.Cache.Redis.Password = password
	}

	setInt("DOWNLOADER_REDIS_DB", &config.Cache.Redis.DB)
	setInt("DOWNLOADER_REDIS_POOL_SIZE", &config.Cache.Redis.PoolSize)
	setInt("DOWNLOADER_MEMORY_CACHE_MAX_SIZE", &config.Cache.Memory.MaxSize)
	setDuration("DOWNLOADER_MEMORY_CACHE_CLEANUP_INTERVAL", &config.Cache.Memory.CleanupInterval)

	// Storage configuration
	if storageType := os.Getenv("DOWNLOADER_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if storagePath := os.Getenv("DOWNLOADER_STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}

	if dsn := os.Getenv("DOWNLOADER_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	setInt("DOWNLOADER_DATABASE_MAX_OPEN_CONNS", &config.Storage.Database.MaxOpenConns)
	setInt("DOWNLOADER_DATABASE_MAX_IDLE_CONNS", &config.Storage.Database.MaxIdleConns)

	// Logging configuration
	if level := os.Getenv("DOWNLOADER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("DOWNLOADER_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("DOWNLOADER_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("DOWNLOADER_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	setBool("DOWNLOADER_METRICS_ENABLED", &config.Metrics.Enabled)

	if path := os.Getenv("DOWNLOADER_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	setInt("DOWNLOADER_METRICS_PORT", &config.Metrics.Port)

	// Tracing configuration
	if name := os.Getenv("DOWNLOADER_SERVICE_NAME"); name != "" {
		config.Observability.ServiceName = name
	}

	setBool("DOWNLOADER_TRACING_ENABLED", &config.Observability.Tracing.Enabled)

	if exporter := os.Getenv("DOWNLOADER_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("DOWNLOADER_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}
}

func setInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.ToLower(v) == "true"
	}
}

func setDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func splitAndTrim(s string) []string {
	var parts []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	config := models.NewDefaultConfig()

	// Example persistent setup
	config.Storage.Type = models.StorageTypeSQLite
	config.Storage.Database.DSN = "./data/downloads.db"
	config.Cache.Redis.Addr = "localhost:6379"
	config.Observability.Tracing.OTLPEndpoint = "localhost:4317"

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
