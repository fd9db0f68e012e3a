package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"downloader/internal/models"
	"downloader/internal/ratelimit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, limits ratelimit.Limits) (http.Handler, *MockDownloadService) {
	t.Helper()
	svc := new(MockDownloadService)
	handlers := NewHandlers(svc, newTestLimiter(t, limits), false, nil)
	return SetupRoutes(handlers, models.NewDefaultConfig()), svc
}

func postDownload(router http.Handler) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/download?url=https://www.instagram.com/p/abc/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRoutes_DownloadIsRateLimited(t *testing.T) {
	router, svc := newTestRouter(t, ratelimit.Limits{Minute: 2, Hour: 10, Day: 100})
	svc.On("Download", mock.Anything, "192.0.2.1", "https://www.instagram.com/p/abc/").Return(sampleResult(), nil)

	first := postDownload(router)
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "2", first.Header().Get("X-RateLimit-Limit-Minute"))
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Remaining-Minute"))
	assert.Equal(t, "9", first.Header().Get("X-RateLimit-Remaining-Hour"))
	assert.Equal(t, "99", first.Header().Get("X-RateLimit-Remaining-Day"))

	second := postDownload(router)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining-Minute"))

	third := postDownload(router)
	assert.Equal(t, http.StatusTooManyRequests, third.Code)
	assert.NotEmpty(t, third.Header().Get(RequestIDHeader))

	var body ratelimit.ExceededResponse
	require.NoError(t, json.NewDecoder(third.Body).Decode(&body))
	assert.Equal(t, "Too Many Requests", body.Error)
	assert.Equal(t, ratelimit.WindowMinute, body.Detail.Limit)
	assert.Equal(t, "60 seconds", body.Detail.RetryAfter)
	assert.Equal(t, ratelimit.Limits{Minute: 0, Hour: 8, Day: 98}, body.RemainingLimits)

	svc.AssertNumberOfCalls(t, "Download", 2)
}

func TestRoutes_ReadEndpointsDoNotConsumeQuota(t *testing.T) {
	router, svc := newTestRouter(t, ratelimit.Limits{Minute: 1, Hour: 10, Day: 100})
	svc.On("RecentDownloads", mock.Anything, 20).Return([]*models.DownloadRecord{}, nil)

	for i := 0; i < 5; i++ {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/limits", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"minute":1,"hour":10,"day":100}`, rr.Body.String())

		rr = httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/downloads/recent", nil))
		require.Equal(t, http.StatusOK, rr.Code)
	}
}

func TestRoutes_RateLimitDisabled(t *testing.T) {
	svc := new(MockDownloadService)
	svc.On("Download", mock.Anything, mock.Anything, mock.Anything).Return(sampleResult(), nil)
	cfg := models.NewDefaultConfig()
	cfg.RateLimit.Enabled = false
	router := SetupRoutes(NewHandlers(svc, newTestLimiter(t, ratelimit.Limits{Minute: 1, Hour: 1, Day: 1}), false, nil), cfg)

	for i := 0; i < 3; i++ {
		rr := postDownload(router)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Remaining-Minute"))
	}
}

func TestRoutes_Preflight(t *testing.T) {
	router, svc := newTestRouter(t, ratelimit.Limits{Minute: 1, Hour: 1, Day: 1})

	req := httptest.NewRequest(http.MethodOptions, "/api/download", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	svc.AssertNotCalled(t, "Download", mock.Anything, mock.Anything, mock.Anything)

	// The preflight must not have used the single allowed request.
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/limits", nil))
	assert.JSONEq(t, `{"minute":1,"hour":1,"day":1}`, rr.Body.String())
}

func TestRoutes_NotFoundAndMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Limits{Minute: 1, Hour: 1, Day: 1})

	tests := []struct {
		name   string
		method string
		path   string
		status int
		code   string
	}{
		{"unknown path", http.MethodGet, "/api/nope", http.StatusNotFound, models.ErrorCodeNotFound},
		{"wrong verb on download", http.MethodGet, "/api/download", http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed},
		{"wrong verb on limits", http.MethodDelete, "/api/limits", http.StatusMethodNotAllowed, models.ErrorCodeMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.status, rr.Code)
			var errResp models.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errResp))
			assert.Equal(t, tt.code, errResp.Code)
		})
	}
}

func TestRoutes_Health(t *testing.T) {
	router, _ := newTestRouter(t, ratelimit.Limits{Minute: 1, Hour: 1, Day: 1})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"healthy"`)
}
