package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"user-management-api/internal/auth"
	"user-management-api/internal/kvstore"
	"user-management-api/internal/model"
	"user-management-api/internal/ratelimit"
	"user-management-api/internal/service"
	"user-management-api/pkg/apierror"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

func newCounter(t *testing.T) (*ratelimit.Counter, *stepClock) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	clock := &stepClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	return ratelimit.NewCounter(kvstore.New(client), time.Hour).WithClock(clock.Now), clock
}

func requireStatus(t *testing.T, err error, status int) *apierror.APIError {
	t.Helper()

	var apiErr *apierror.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, status, apiErr.HTTPStatus)
	return apiErr
}

func withIdentity(r *http.Request, id int64, role string) *http.Request {
	return r.WithContext(auth.WithIdentity(r.Context(), model.Identity{ID: id, Email: "u@example.com", Role: role}))
}

func TestRateLimitGate(t *testing.T) {
	counter, clock := newCounter(t)
	gate := NewRateLimitGate(counter, ratelimit.Rule{Limit: 5, TimeFrame: time.Minute})

	newReq := func(path string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.1.1.1:5555"
		return req
	}

	for i := 0; i < 5; i++ {
		_, err := gate.Handle(newReq("/users"))
		require.NoError(t, err)
	}

	_, err := gate.Handle(newReq("/users"))
	apiErr := requireStatus(t, err, http.StatusTooManyRequests)
	assert.Equal(t, "Too many requests, please slow down.", apiErr.Message)

	var limitErr *LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, time.Minute, limitErr.RetryAfter)

	_, err = gate.Handle(newReq("//users/"))
	requireStatus(t, err, http.StatusTooManyRequests)

	_, err = gate.Handle(newReq("/login"))
	require.NoError(t, err, "other paths have their own window")

	clock.now = clock.now.Add(time.Minute)
	_, err = gate.Handle(newReq("/users"))
	require.NoError(t, err)
}

func TestRateLimitGateStoreError(t *testing.T) {
	boom := errors.New("redis down")
	gate := NewRateLimitGate(failingCounter{err: boom}, ratelimit.Rule{Limit: 5, TimeFrame: time.Minute})

	_, err := gate.Handle(httptest.NewRequest(http.MethodGet, "/users", nil))
	require.ErrorIs(t, err, boom)
}

type failingCounter struct {
	err error
}

func (f failingCounter) Hit(context.Context, string, string, *int64, ratelimit.Rule) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, f.err
}

type stubValidator struct {
	identity model.Identity
	err      error
	seen     string
}

func (s *stubValidator) Validate(_ context.Context, token string) (model.Identity, error) {
	s.seen = token
	return s.identity, s.err
}

func TestAuthGate(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		gate := NewAuthGate(&stubValidator{})
		_, err := gate.Handle(httptest.NewRequest(http.MethodGet, "/users", nil))
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		gate := NewAuthGate(&stubValidator{})
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Basic abc")
		_, err := gate.Handle(req)
		requireStatus(t, err, http.StatusBadRequest)
	})

	t.Run("invalid token", func(t *testing.T) {
		gate := NewAuthGate(&stubValidator{err: service.ErrInvalidToken})
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer stale")
		_, err := gate.Handle(req)
		apiErr := requireStatus(t, err, http.StatusUnauthorized)
		assert.Equal(t, "Invalid or expired token.", apiErr.Message)
	})

	t.Run("store failure is not an auth failure", func(t *testing.T) {
		boom := errors.New("db down")
		gate := NewAuthGate(&stubValidator{err: boom})
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer t")
		_, err := gate.Handle(req)
		require.ErrorIs(t, err, boom)
	})

	t.Run("valid token attaches identity", func(t *testing.T) {
		validator := &stubValidator{identity: model.Identity{ID: 9, Email: "a@b.com", Role: model.RoleAdmin}}
		gate := NewAuthGate(validator)
		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "bearer  abc.def.ghi ")

		out, err := gate.Handle(req)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", validator.seen)

		identity, ok := auth.IdentityFromContext(out.Context())
		require.True(t, ok)
		assert.Equal(t, int64(9), identity.ID)
	})
}

func TestRoleGate(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/users", nil)

	_, err := NewRoleGate(nil).Handle(req)
	require.NoError(t, err, "no roles admits everyone")

	_, err = NewRoleGate([]string{"admin"}).Handle(req)
	requireStatus(t, err, 419)

	_, err = NewRoleGate([]string{"admin"}).Handle(withIdentity(req, 1, model.RoleOperator))
	requireStatus(t, err, http.StatusForbidden)

	_, err = NewRoleGate([]string{" Admin "}).Handle(withIdentity(req, 1, model.RoleAdmin))
	require.NoError(t, err)

	_, err = NewRoleGate([]string{"admin", "operator"}).Handle(withIdentity(req, 1, model.RoleOperator))
	require.NoError(t, err)
}

func TestThrottleGate(t *testing.T) {
	counter, clock := newCounter(t)
	gate := NewThrottleGate(counter, map[string]ratelimit.Rule{
		"create": {Limit: 2, TimeFrame: 30 * time.Second},
		"delete": {Limit: 1, TimeFrame: time.Minute},
	})

	post := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/users/activate/4", nil)
		req.Header.Set("X-Forwarded-For", "192.0.2.7, 10.0.0.1")
		return withIdentity(req, 1, model.RoleAdmin)
	}

	for i := 0; i < 2; i++ {
		_, err := gate.Handle(post())
		require.NoError(t, err)
	}

	_, err := gate.Handle(post())
	apiErr := requireStatus(t, err, http.StatusTooManyRequests)
	assert.Equal(t, "Action limit reached for: create", apiErr.Message)

	t.Run("reads bypass", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodGet, "/users", nil), 1, model.RoleAdmin)
		for i := 0; i < 5; i++ {
			_, err := gate.Handle(req)
			require.NoError(t, err)
		}
	})

	t.Run("anonymous bypass", func(t *testing.T) {
		_, err := gate.Handle(httptest.NewRequest(http.MethodPost, "/login", nil))
		require.NoError(t, err)
	})

	t.Run("unconfigured action bypass", func(t *testing.T) {
		req := withIdentity(httptest.NewRequest(http.MethodPut, "/profile/update", nil), 1, model.RoleUser)
		for i := 0; i < 5; i++ {
			_, err := gate.Handle(req)
			require.NoError(t, err)
		}
	})

	t.Run("window resets", func(t *testing.T) {
		clock.now = clock.now.Add(30 * time.Second)
		_, err := gate.Handle(post())
		require.NoError(t, err)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.5:4000"
	assert.Equal(t, "203.0.113.5", ClientIP(req))

	req.Header.Set("X-Forwarded-For", " 198.51.100.1 , 10.0.0.1")
	assert.Equal(t, "198.51.100.1", ClientIP(req))

	req.Header.Set("Client-Ip", "192.0.2.44")
	assert.Equal(t, "192.0.2.44", ClientIP(req))

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	bare.RemoteAddr = ""
	assert.Equal(t, "unknown", ClientIP(bare))
}
