//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user-management-api/internal/app"
	"user-management-api/internal/config"
	"user-management-api/internal/database"
	"user-management-api/internal/kvstore"
	"user-management-api/internal/mailer"
	"user-management-api/internal/model"
	"user-management-api/internal/repository"
	"user-management-api/internal/router"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "adminpass"
)

func testConfig() *config.Config {
	return &config.Config{
		AppSecretKey:   "test-secret",
		JWTIssuer:      "integration",
		JWTTTL:         15 * time.Minute,
		RequestTimeout: 10 * time.Second,
		RateLimit:      1000,
		TimeFrame:      time.Minute,
		Throttle: map[string]config.ThrottleRule{
			"create": {Count: 10, TimeFrame: 30 * time.Second},
			"update": {Count: 5, TimeFrame: time.Minute},
			"delete": {Count: 3, TimeFrame: time.Minute},
		},
		WindowTTL:   time.Hour,
		PaginateNum: 10,
		FirstPage:   1,
		CORSOrigins: []string{"*"},
	}
}

// newServer runs the full HTTP stack against the Postgres named by
// TEST_DATABASE_URL and an in-process Redis. The users table is emptied first.
func newServer(t *testing.T, cfg *config.Config) *httptest.Server {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, database.Options{URL: url, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	_, err = db.Pool.Exec(ctx, "TRUNCATE users RESTART IDENTITY")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	kv, err := kvstore.Connect(ctx, kvstore.Options{Addr: mr.Addr(), DialTimeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	handler, users, err := app.BuildHandler(app.Deps{
		Config: cfg,
		Users:  repository.NewUserRepository(db.Pool),
		KV:     kv,
		Mailer: mailer.NoopSender{},
		Checks: map[string]router.HealthCheck{
			"postgres": db.Ping,
			"redis":    kv.Ping,
		},
		BcryptCost: bcrypt.MinCost,
	})
	require.NoError(t, err)
	require.NoError(t, users.EnsureAdmin(ctx, adminEmail, adminPassword, "Admin"))

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method string, url string, payload any, token string) (*http.Response, model.APIResponse) {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var parsed model.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.Equal(t, resp.StatusCode, parsed.Status)
	return resp, parsed
}

func login(t *testing.T, server *httptest.Server, email string, password string) string {
	t.Helper()

	resp, parsed := doJSON(t, http.MethodPost, server.URL+"/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, parsed.Message)

	token, _ := parsed.Data.(map[string]any)["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func register(t *testing.T, server *httptest.Server, name string, email string) int64 {
	t.Helper()

	resp, parsed := doJSON(t, http.MethodPost, server.URL+"/register", map[string]string{
		"full_name": name,
		"email":     email,
		"password":  "password1",
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode, parsed.Message)

	id, _ := parsed.Data.(map[string]any)["id"].(float64)
	require.NotZero(t, id)
	return int64(id)
}
