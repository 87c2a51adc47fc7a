package engineadmin

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

// Budgets follow the token subject, not the address it calls from.
func TestRateLimit_PerSubject(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer := NewHS256(testSecret)
	ops, err := signer.Issue("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	oncall, err := signer.Issue("oncall", RoleAdmin, time.Hour)
	require.NoError(t, err)

	limiter := NewCallerLimiter(1.0/3600, 2)
	h := RequireAdmin(signer, logger)(RateLimit(limiter, logger)(okHandler))
	call := func(token, addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call(ops, "10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, call(ops, "10.0.0.2:5000").Code)
	limited := call(ops, "10.0.0.3:5000")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.NotEmpty(t, limited.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusNoContent, call(oncall, "10.0.0.1:5000").Code)
	assert.Equal(t, 2, limiter.Callers())
}

func TestRateLimit_FallsBackToAddress(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RateLimit(NewCallerLimiter(1.0/3600, 1), logger)(okHandler)

	codes := make([]int, 0, 3)
	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.1:6000", "10.0.0.2:5000"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusTooManyRequests, http.StatusNoContent}, codes)
}

func TestCallerLimiter_DropsIdleCallers(t *testing.T) {
	now := time.Date(2026, 3, 19, 12, 0, 0, 0, time.UTC)
	limiter := NewCallerLimiter(1, 1,
		WithIdleTimeout(time.Minute),
		WithLimiterClock(func() time.Time { return now }),
	)

	for i := range 50 {
		ok, _ := limiter.Allow(fmt.Sprintf("sub:user-%d", i))
		require.True(t, ok)
	}
	ok, wait := limiter.Allow("sub:user-0")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	now = now.Add(2 * time.Minute)
	ok, _ = limiter.Allow("sub:fresh")
	assert.True(t, ok)
	assert.Equal(t, 1, limiter.Callers())
}

func TestCallerLimiter_Unlimited(t *testing.T) {
	limiter := NewCallerLimiter(0, 1)
	for range 100 {
		ok, _ := limiter.Allow("sub:ops")
		require.True(t, ok)
	}
}

func TestRequireAdmin(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer := NewHS256(testSecret)
	admin, err := signer.Issue("ops", RoleAdmin, time.Hour)
	require.NoError(t, err)
	player, err := signer.Issue("ops", "player", time.Hour)
	require.NoError(t, err)

	var seen *Claims
	h := RequireAdmin(signer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "admin", header: "Bearer " + admin, want: http.StatusNoContent},
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic " + admin, want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "not admin", header: "Bearer " + player, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/admin/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNoContent {
				require.NotNil(t, seen)
				assert.Equal(t, "ops", seen.Subject)
			}
		})
	}
}
