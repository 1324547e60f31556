package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"user-management-api/internal/auth"
	"user-management-api/internal/i18n"
	"user-management-api/internal/model"
	"user-management-api/internal/ratelimit"
	"user-management-api/internal/service"
	"user-management-api/pkg/apierror"
)

type windowCounter interface {
	Hit(ctx context.Context, ip string, action string, userID *int64, rule ratelimit.Rule) (ratelimit.Decision, error)
}

type tokenValidator interface {
	Validate(ctx context.Context, token string) (model.Identity, error)
}

// LimitError is a 429 that carries how long the client should wait.
type LimitError struct {
	*apierror.APIError
	RetryAfter time.Duration
}

func (e *LimitError) Unwrap() error {
	return e.APIError
}

func limitError(message string, retryAfter time.Duration) *LimitError {
	return &LimitError{
		APIError:   apierror.New("RATE_LIMITED", message, "", http.StatusTooManyRequests),
		RetryAfter: retryAfter,
	}
}

// RateLimitGate caps anonymous requests per client IP and normalized path.
type RateLimitGate struct {
	counter windowCounter
	rule    ratelimit.Rule
}

func NewRateLimitGate(counter windowCounter, rule ratelimit.Rule) *RateLimitGate {
	return &RateLimitGate{counter: counter, rule: rule}
}

func (g *RateLimitGate) Handle(r *http.Request) (*http.Request, error) {
	decision, err := g.counter.Hit(r.Context(), ClientIP(r), NormalizePath(r.URL.Path), nil, g.rule)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, limitError(i18n.T("limit_reached"), decision.RetryAfter)
	}
	return r, nil
}

// AuthGate resolves the bearer token into an identity on the request context.
type AuthGate struct {
	tokens tokenValidator
}

func NewAuthGate(tokens tokenValidator) *AuthGate {
	return &AuthGate{tokens: tokens}
}

func (g *AuthGate) Handle(r *http.Request) (*http.Request, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return nil, apierror.New("BAD_REQUEST", i18n.T("missing_authorization"), "", http.StatusBadRequest)
	}

	token := strings.TrimSpace(header[7:])
	if token == "" {
		return nil, apierror.New("BAD_REQUEST", i18n.T("missing_authorization"), "", http.StatusBadRequest)
	}

	identity, err := g.tokens.Validate(r.Context(), token)
	if errors.Is(err, service.ErrInvalidToken) {
		return nil, apierror.New("UNAUTHORIZED", i18n.T("invalid_token"), "", http.StatusUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	return r.WithContext(auth.WithIdentity(r.Context(), identity)), nil
}

// RoleGate admits a request when no roles are required or the session role is one of them.
type RoleGate struct {
	roles []string
}

func NewRoleGate(roles []string) *RoleGate {
	normalized := make([]string, 0, len(roles))
	for _, role := range roles {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(role)))
	}
	return &RoleGate{roles: normalized}
}

func (g *RoleGate) Handle(r *http.Request) (*http.Request, error) {
	if len(g.roles) == 0 {
		return r, nil
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		return nil, apierror.New("SESSION_EXPIRED", i18n.T("session_expired"), "", 419)
	}

	if !slices.Contains(g.roles, strings.ToLower(identity.Role)) {
		return nil, apierror.New("FORBIDDEN", i18n.T("insufficient_permissions"), "", http.StatusForbidden)
	}
	return r, nil
}

var methodActions = map[string]string{
	http.MethodPost:   "create",
	http.MethodPut:    "update",
	http.MethodDelete: "delete",
}

// ThrottleGate caps state-changing requests of an authenticated user per action.
// Reads and anonymous requests pass untouched.
type ThrottleGate struct {
	counter windowCounter
	rules   map[string]ratelimit.Rule
}

func NewThrottleGate(counter windowCounter, rules map[string]ratelimit.Rule) *ThrottleGate {
	return &ThrottleGate{counter: counter, rules: rules}
}

func (g *ThrottleGate) Handle(r *http.Request) (*http.Request, error) {
	action, ok := methodActions[r.Method]
	if !ok {
		return r, nil
	}

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok || identity.ID == 0 {
		return r, nil
	}

	rule, ok := g.rules[action]
	if !ok {
		return r, nil
	}

	userID := identity.ID
	decision, err := g.counter.Hit(r.Context(), ClientIP(r), action, &userID, rule)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return nil, limitError(i18n.T("action_limit_reached_for")+action, decision.RetryAfter)
	}
	return r, nil
}
