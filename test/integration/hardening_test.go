//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"user-management-api/internal/config"
)

func TestHealthReportsBackends(t *testing.T) {
	server := newServer(t, testConfig())

	resp, parsed := doJSON(t, http.MethodGet, server.URL+"/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", parsed.Message)
}

func TestGlobalRateLimitReturns429(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 3
	server := newServer(t, cfg)

	payload := map[string]string{"email": "nobody@example.com", "password": "password1"}
	for i := 0; i < 3; i++ {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/login", payload, "")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/login", payload, "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestThrottleReturns429ForAdminActions(t *testing.T) {
	cfg := testConfig()
	cfg.Throttle["create"] = config.ThrottleRule{Count: 2, TimeFrame: cfg.TimeFrame}
	server := newServer(t, cfg)
	adminToken := login(t, server, adminEmail, adminPassword)
	register(t, server, "Ann", "ann@example.com")

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/activate/2", nil, adminToken)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, parsed := doJSON(t, http.MethodPost, server.URL+"/users/activate/2", nil, adminToken)
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, "Action limit reached for: create", parsed.Message)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	server := newServer(t, testConfig())

	resp, _ := doJSON(t, http.MethodGet, server.URL+"/nowhere", nil, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPatch, server.URL+"/users", nil, "")
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
