package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"equipment-console/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		RateLimitRPS:   1,
		RateLimitBurst: 2,
		RequestTimeout: time.Second,
		EnableCORS:     true,
		AllowedOrigins: []string{"http://console.local"},
		TrustedProxies: []string{"10.0.0.1"},
	}
}

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimitPerClient(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())
	h := sm.RateLimit(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.168.1.5:4000"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "192.168.1.6:4000"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRateLimitEvictsIdleClients(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())
	now := time.Now()
	sm.now = func() time.Time { return now }

	sm.limiterFor("a")
	now = now.Add(idleLimiterTTL + time.Second)
	sm.limiterFor("b")

	assert.NotContains(t, sm.clients, "a")
	assert.Contains(t, sm.clients, "b")
}

func TestGetClientIPTrustedProxy(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", sm.getClientIP(req))

	req.RemoteAddr = "198.51.100.2:5555"
	assert.Equal(t, "198.51.100.2", sm.getClientIP(req))
}

func TestTrustedProxyStoresClientIP(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())
	var got string
	h := sm.TrustedProxy(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:5555"
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "198.51.100.2", got)
}

func TestCORS(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())
	h := sm.CORS(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "http://console.local")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "http://console.local", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "X-Console-Session")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestTimeoutSetsDeadline(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())
	var hasDeadline bool
	h := sm.RequestTimeout(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasDeadline = r.Context().Deadline()
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, hasDeadline)
}

func TestSecurityHeaders(t *testing.T) {
	sm := NewSecurityMiddleware(testSecurityConfig())
	rr := httptest.NewRecorder()
	sm.SecurityHeaders(okHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get(RequestIDHeader)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestLogRequests(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	lm := NewLoggingMiddleware(zap.New(core))

	h := lm.LogRequests(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/v1/equipements", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.EqualValues(t, 429, fields["status"])
	assert.Equal(t, "rid-1", fields["request_id"])
	assert.Equal(t, 1, logs.FilterMessage("rate limit exceeded").Len())
}
