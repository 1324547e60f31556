//go:build integration

package integration

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterActivateLoginLogout(t *testing.T) {
	server := newServer(t, testConfig())
	adminToken := login(t, server, adminEmail, adminPassword)

	id := register(t, server, "Ann", "ann@example.com")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/login", map[string]string{"email": "ann@example.com", "password": "password1"}, "")
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/users/activate/"+strconv.FormatInt(id, 10), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	token := login(t, server, "ann@example.com", "password1")

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/logout", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPost, server.URL+"/logout", nil, token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterRejectsDuplicateEmailCaseInsensitive(t *testing.T) {
	server := newServer(t, testConfig())
	register(t, server, "Ann", "ann@example.com")

	resp, parsed := doJSON(t, http.MethodPost, server.URL+"/register", map[string]string{
		"full_name": "Ann Again",
		"email":     "ANN@example.com",
		"password":  "password1",
	}, "")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Contains(t, parsed.Data, "email")
}

func TestProfileChangesPersist(t *testing.T) {
	server := newServer(t, testConfig())
	adminToken := login(t, server, adminEmail, adminPassword)
	id := register(t, server, "Ann", "ann@example.com")

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/users/activate/"+strconv.FormatInt(id, 10), nil, adminToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := login(t, server, "ann@example.com", "password1")

	resp, _ = doJSON(t, http.MethodPut, server.URL+"/profile/update", map[string]string{"full_name": "Ann B", "email": "annb@example.com"}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodPut, server.URL+"/profile/password", map[string]string{
		"old_password":     "password1",
		"password":         "password2",
		"confirm_password": "password2",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	login(t, server, "annb@example.com", "password2")
}
