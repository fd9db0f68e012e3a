package ratelimit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// ExceededDetail describes which quota was hit.
type ExceededDetail struct {
	Error      string `json:"error"`
	Limit      Window `json:"limit"`
	RetryAfter string `json:"retry_after"`
}

// ExceededResponse is the 429 body.
type ExceededResponse struct {
	Error           string         `json:"error"`
	Detail          ExceededDetail `json:"detail"`
	RemainingLimits Limits         `json:"remaining_limits"`
}

// NewExceededResponse builds the 429 body for err with the given snapshot.
func NewExceededResponse(err *ExceededError, remaining Limits) *ExceededResponse {
	return &ExceededResponse{
		Error: "Too Many Requests",
		Detail: ExceededDetail{
			Error:      "Rate limit exceeded",
			Limit:      err.Window,
			RetryAfter: err.RetryAfter,
		},
		RemainingLimits: remaining,
	}
}

// Middleware returns HTTP middleware that enforces limiter. Identities are
// resolved with ClientIdentity; trustProxyHeaders controls whether forwarding
// headers are honoured.
func Middleware(limiter Limiter, trustProxyHeaders bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := ClientIdentity(r, trustProxyHeaders)

			err := limiter.CheckAndRecord(identity)
			remaining := limiter.RemainingLimits(identity)
			SetHeaders(w.Header(), limiter.Config(), remaining)

			if err != nil {
				var exceeded *ExceededError
				if !errors.As(err, &exceeded) {
					// CheckAndRecord has no other failure mode.
					panic(err)
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(NewExceededResponse(exceeded, remaining))

				slog.Warn("Rate limit exceeded",
					"identity", identity,
					"window", exceeded.Window,
					"retry_after", exceeded.RetryAfter,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the X-RateLimit-Limit-* and X-RateLimit-Remaining-* pairs.
func SetHeaders(h http.Header, limits, remaining Limits) {
	for _, w := range windows {
		suffix := strings.ToUpper(string(w[:1])) + string(w[1:])
		h.Set("X-RateLimit-Limit-"+suffix, strconv.Itoa(limits.For(w)))
		h.Set("X-RateLimit-Remaining-"+suffix, strconv.Itoa(remaining.For(w)))
	}
}

// ClientIdentity derives the rate limit key for r: the host part of the
// remote address, or the first forwarding header entry when trustProxyHeaders
// is set.
func ClientIdentity(r *http.Request, trustProxyHeaders bool) string {
	if trustProxyHeaders {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
		if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
			return xri
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
