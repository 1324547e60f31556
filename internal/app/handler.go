package app

import (
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"user-management-api/internal/config"
	"user-management-api/internal/handler"
	"user-management-api/internal/kvstore"
	"user-management-api/internal/mailer"
	"user-management-api/internal/middleware"
	"user-management-api/internal/ratelimit"
	"user-management-api/internal/router"
	"user-management-api/internal/service"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Config     *config.Config
	Users      service.UserStore
	KV         *kvstore.Store
	Mailer     mailer.Sender
	Checks     map[string]router.HealthCheck
	Now        func() time.Time
	BcryptCost int
}

type services struct {
	users  *service.UserService
	tokens *service.TokenService
}

func buildServices(deps Deps) services {
	cfg := deps.Config
	tokens := service.NewTokenService(cfg.AppSecretKey, cfg.JWTIssuer, cfg.JWTTTL, deps.Users)
	if deps.Now != nil {
		tokens.WithClock(deps.Now)
	}

	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	users := service.NewUserService(deps.Users, tokens, service.NewValidator(), deps.Mailer, service.UserServiceOptions{
		PerPage:    cfg.PaginateNum,
		FirstPage:  cfg.FirstPage,
		BcryptCost: cost,
	})
	return services{users: users, tokens: tokens}
}

// BuildHandler assembles gates, router, controllers and the outer mux.
func BuildHandler(deps Deps) (http.Handler, *service.UserService, error) {
	cfg := deps.Config
	svc := buildServices(deps)

	counter := ratelimit.NewCounter(deps.KV, cfg.WindowTTL)
	if deps.Now != nil {
		counter.WithClock(deps.Now)
	}

	throttleRules := make(map[string]ratelimit.Rule, len(cfg.Throttle))
	for action, rule := range cfg.Throttle {
		throttleRules[action] = ratelimit.Rule{Limit: rule.Count, TimeFrame: rule.TimeFrame}
	}

	pipeline := middleware.NewPipeline(
		[]middleware.Gate{middleware.NewRateLimitGate(counter, ratelimit.Rule{Limit: cfg.RateLimit, TimeFrame: cfg.TimeFrame})},
		middleware.NewAuthGate(svc.tokens),
		[]middleware.Gate{middleware.NewThrottleGate(counter, throttleRules)},
	)

	rt := router.New(pipeline)
	rt.Register("AuthController", handler.NewAuthController(svc.users))
	rt.Register("RegisterController", handler.NewRegisterController(svc.users))
	rt.Register("UserController", handler.NewUserController(svc.users))
	rt.Register("ProfileController", handler.NewProfileController(svc.users))

	if err := registerRoutes(rt); err != nil {
		return nil, nil, err
	}

	mux := router.NewMux(rt, router.MuxOptions{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Checks:         deps.Checks,
	})
	return mux, svc.users, nil
}
