package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"triplea/internal/metrics"
)

func newRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestMetricsMiddleware(t *testing.T) {
	router := newRouter(MetricsMiddleware())
	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "/test", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestMetricsMiddleware_UnmatchedRoute(t *testing.T) {
	router := newRouter(MetricsMiddleware())
	counter := metrics.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/nope", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestRequestLoggingMiddleware(t *testing.T) {
	router := newRouter(RequestLoggingMiddleware())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	router := newRouter(RateLimitMiddleware(NewRateLimiter(ctx, 0.001, 2, time.Minute)))

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/test", nil))
		codes[i] = w.Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiter_Evict(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 10, 10, time.Minute)
	rl.Allow("10.0.0.1")
	rl.Allow("10.0.0.2")

	rl.evict(time.Now())
	assert.Equal(t, 2, rl.size())

	rl.evict(time.Now().Add(2 * time.Minute))
	assert.Equal(t, 0, rl.size())
}

func TestCORSMiddleware_AllOrigins(t *testing.T) {
	router := newRouter(CORSMiddleware([]string{"*"}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSMiddleware_ExplicitOrigins(t *testing.T) {
	router := newRouter(CORSMiddleware([]string{"https://app.example"}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	router := newRouter(CORSMiddleware([]string{"*"}))

	req := httptest.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		checks map[string]Check
		want   int
		body   string
	}{
		{"no checks", nil, http.StatusOK, `"status":"ok"`},
		{"all healthy", map[string]Check{
			"database": func(context.Context) error { return nil },
		}, http.StatusOK, `"database":"ok"`},
		{"redis down", map[string]Check{
			"database": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("dial tcp: refused") },
		}, http.StatusServiceUnavailable, `"redis":"unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.GET("/health", Health(tt.checks))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.body)
		})
	}
}

type recordingMailer struct {
	to  string
	err error
}

func (m *recordingMailer) Send(_ context.Context, to, _, _, _ string) error {
	m.to = to
	return m.err
}

func TestTestEmail(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mailer := &recordingMailer{}
	router := gin.New()
	router.POST("/admin/test-email", TestEmail(mailer))

	req := httptest.NewRequest("POST", "/admin/test-email", strings.NewReader(`{"email":"ops@tripleagym.in"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "ops@tripleagym.in", mailer.to)

	req = httptest.NewRequest("POST", "/admin/test-email", strings.NewReader(`{"email":"not-an-email"}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
