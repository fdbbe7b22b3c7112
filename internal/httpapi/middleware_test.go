package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meridianbank.org/internal/audit"
)

func TestRequestIDGeneratesAndPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = audit.RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	got := rr.Header().Get("X-Request-ID")
	require.NotEmpty(t, got)
	assert.Equal(t, got, seen, "context id must match the response header")
}

func TestRequestIDHonorsInbound(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "upstream-id-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, "upstream-id-123", rr.Header().Get("X-Request-ID"))
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(okHandler())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
}

func TestCORS(t *testing.T) {
	h := CORS(okHandler())

	t.Run("allowed origin reflected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown origin not reflected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("Origin", "https://evil.example")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short-circuits", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/v1/auth/login", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
	})
}

func TestMaxBodyBytes(t *testing.T) {
	h := MaxBodyBytes(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var v map[string]string
		if err := decodeJSON(w, r, &v); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		w.WriteHeader(http.StatusOK)
	}), 64)

	small := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{"a":"b"}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, small)
	assert.Equal(t, http.StatusOK, rr.Code)

	big := httptest.NewRequest(http.MethodPost, "/v1/auth/login",
		strings.NewReader(`{"a":"`+strings.Repeat("x", 256)+`"}`))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, big)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRateLimit(t *testing.T) {
	h := RateLimit(okHandler(), 3, 1)

	req := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		r.RemoteAddr = ip + ":12345"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, r)
		return rr
	}

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, req("10.0.0.1").Code, "request %d within burst", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, req("10.0.0.1").Code)

	// A different client has its own bucket.
	assert.Equal(t, http.StatusOK, req("10.0.0.2").Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 192.0.2.7")
	assert.Equal(t, "203.0.113.9", clientIP(r))
}
