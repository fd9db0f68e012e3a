package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"downloader/internal/download"
	"downloader/internal/models"
	"downloader/internal/ratelimit"
	"downloader/internal/version"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
	maxRequestBody     = 64 << 10
	healthCheckTimeout = 2 * time.Second
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers contains HTTP handlers for the downloader API
type Handlers struct {
	downloads         download.ServiceInterface
	limiter           ratelimit.Limiter
	trustProxyHeaders bool
	components        map[string]Pinger
}

// NewHandlers creates a new handlers instance. components are pinged by the
// health check under their map keys.
func NewHandlers(downloads download.ServiceInterface, limiter ratelimit.Limiter, trustProxyHeaders bool, components map[string]Pinger) *Handlers {
	return &Handlers{
		downloads:         downloads,
		limiter:           limiter,
		trustProxyHeaders: trustProxyHeaders,
		components:        components,
	}
}

// GetLimits reports the caller's remaining quota per window. It never
// consumes quota.
// GET /api/limits
func (h *Handlers) GetLimits(w http.ResponseWriter, r *http.Request) {
	identity := ratelimit.ClientIdentity(r, h.trustProxyHeaders)
	h.writeJSONResponse(w, http.StatusOK, h.limiter.RemainingLimits(identity))
}

// Download resolves a post or story URL. The URL is read from the url query
// parameter or, failing that, from a JSON body {"url": "..."}.
// POST /api/download
func (h *Handlers) Download(w http.ResponseWriter, r *http.Request) {
	req := &models.DownloadRequest{URL: r.URL.Query().Get("url")}
	if req.URL == "" && r.Body != nil {
		if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(req); err != nil && !errors.Is(err, io.EOF) {
			h.writeDetail(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		h.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	clientID := ratelimit.ClientIdentity(r, h.trustProxyHeaders)
	result, err := h.downloads.Download(r.Context(), clientID, req.URL)
	if err != nil {
		if !download.IsDownstream(err) {
			slog.ErrorContext(r.Context(), "Download failed unexpectedly", "error", err, "request_id", RequestIDFromContext(r.Context()))
		}
		h.writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	h.writeJSONResponse(w, http.StatusOK, result)
}

// RecentDownloads lists the newest download history entries.
// GET /api/downloads/recent?limit=N
func (h *Handlers) RecentDownloads(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n < 1 || n > maxRecentLimit {
			h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeInvalidRequest,
				"limit must be an integer between 1 and "+strconv.Itoa(maxRecentLimit))
			return
		}
		limit = n
	}

	records, err := h.downloads.RecentDownloads(r.Context(), limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list downloads", "error", err)
		h.writeErrorResponse(w, r, http.StatusInternalServerError, models.ErrorCodeInternalError, "Failed to list downloads")
		return
	}

	h.writeJSONResponse(w, http.StatusOK, models.NewRecentDownloadsResponse(records))
}

// HealthCheck pings every registered component. Any unhealthy component
// degrades the overall status and turns the response into a 503.
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = version.GetInfo().Version
	response.Uptime = version.Uptime().String()

	names := make([]string, 0, len(h.components))
	for name := range h.components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := h.components[name].Ping(ctx)
		cancel()
		if err != nil {
			slog.WarnContext(r.Context(), "Health check failed", "component", name, "error", err)
			response.AddComponent(name, models.StatusUnhealthy, err.Error())
			continue
		}
		response.AddComponent(name, models.StatusHealthy, "operational")
	}
	response.AddComponent("api", models.StatusHealthy, "operational")

	if h.limiter != nil {
		response.AddMetric("rate_limits", h.limiter.Config())
	}

	status := http.StatusOK
	if response.Status != models.StatusHealthy {
		status = http.StatusServiceUnavailable
	}
	h.writeJSONResponse(w, status, response)
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written; nothing else can be sent.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeDetail writes the {"detail": "..."} body the download contract uses.
func (h *Handlers) writeDetail(w http.ResponseWriter, statusCode int, message string) {
	h.writeJSONResponse(w, statusCode, &models.DetailResponse{Detail: message})
}

// writeErrorResponse writes an error response tagged with the request ID
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, errorCode, message string) {
	errorResp := models.NewErrorResponse(message, errorCode)
	errorResp.RequestID = RequestIDFromContext(r.Context())
	h.writeJSONResponse(w, statusCode, errorResp)
}
