// Package bootstrap assembles the service: config, database, optional Redis
// and RabbitMQ, the session service, and the HTTP surface.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/application/session"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/config"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/db/postgres"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/redis"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/infrastructure/security"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/logger"
	http_handlers "github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/handlers"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/middleware"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/response"
	"github.com/Sara-Samara/HealthAidProj/services/auth-service/internal/transport/http/router"
)

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing.
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB func(addr string) (DBCloser, error)

	RunMigrations func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) RedisClient

	NewPublisher func(rabbitURL string) (session.NotificationPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)
}

type DBCloser interface {
	Close() error
}

type RedisClient interface {
	Ping(ctx context.Context) error
	Close() error
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db
	db, err := deps.NewDB(cfg.DBAddr)
	if err != nil {
		return nil, nil, err
	}

	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	sqlDB, ok := db.(*sql.DB)
	if !ok {
		runCleanup(cleanupFns)
		return nil, nil, errors.New("bootstrap: NewDB did not return *sql.DB")
	}

	// 2) schema
	if deps.RunMigrations != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := deps.RunMigrations(ctx, sqlDB)
		cancel()
		if err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}

	accounts := postgres.NewAccountRepo(sqlDB)

	// 3) redis (best-effort; throttling is disabled without it)
	var redisCli RedisClient
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, "", 0)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		pingErr := c.Ping(ctx)
		cancel()

		if pingErr != nil {
			logger.Logger.Warn().Err(pingErr).Msg("redis unavailable; rate limiting disabled")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}

	// 4) publisher (best-effort; events are logged without a broker)
	var pub session.NotificationPublisher
	if deps.NewPublisher != nil && cfg.RabbitURL != "" {
		p, err := deps.NewPublisher(cfg.RabbitURL)
		if err != nil {
			if cfg.IsProd() {
				runCleanup(cleanupFns)
				return nil, nil, err
			}
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; logging events instead")
		} else {
			pub = p
			if c, ok := p.(interface{ Close() error }); ok {
				cleanupFns = append(cleanupFns, func() { _ = c.Close() })
			}
		}
	}
	if pub == nil {
		pub = memory.NewLogPublisher(logger.Logger)
	}

	// 5) security
	hasher := security.NewBcryptHasher(12)
	signer := security.NewJWTSigner(cfg.JWTSecret, "auth-service")

	// 6) service
	svc := session.NewService(accounts, hasher, signer, pub, session.Config{
		AccessTTL:             cfg.AccessTokenTTL,
		RefreshTTL:            cfg.RefreshTokenTTL,
		VerifyEmailBaseURL:    cfg.VerifyEmailBaseURL,
		PasswordResetBaseURL:  cfg.PasswordResetBaseURL,
		VerifyEmailTokenTTL:   cfg.VerifyEmailTokenTTL,
		PasswordResetTokenTTL: cfg.PasswordResetTokenTTL,
	})

	svc = svc.WithAudit(func(action string, fields map[string]string) {
		evt := logger.Logger.Info().
			Bool("audit", true).
			Str("action", action)
		for k, v := range fields {
			evt = evt.Str(k, v)
		}
		evt.Msg("audit")
	})

	// 7) handlers + middleware
	secureCookies := cfg.IsProd()

	authH := http_handlers.NewAuthHandler(svc, cfg.RefreshTokenTTL, secureCookies)
	healthH := http_handlers.NewHealthHandler(sqlDB)

	authMW := middleware.Auth(signer, response.WriteError)

	var limiter *redis.FixedWindowLimiter
	if redisCli != nil {
		if c, ok := redisCli.(*redis.Client); ok {
			limiter = redis.NewFixedWindowLimiter(c)
		}
	}

	rl := func(key string, limit int, window time.Duration) func(http.Handler) http.Handler {
		if limiter == nil {
			return nil
		}
		return middleware.RateLimitFixedWindow(
			limiter,
			middleware.FixedWindowConfig{RouteKey: key, Limit: limit, Window: window},
			response.WriteError,
		)
	}

	// 8) router
	mux, err := deps.NewRouter(router.Deps{
		Health: healthH,
		Auth:   authH,
		MW: router.Middleware{
			RequestID:    middleware.RequestID,
			Auth:         authMW,
			OptionalAuth: middleware.OptionalAuth(signer),

			LoginLimit:    rl("login", 5, time.Minute),
			RegisterLimit: rl("register", 3, time.Minute),
			ForgotLimit:   rl("forgot_password", 3, 10*time.Minute),
			ResendLimit:   rl("resend_verification", 3, 10*time.Minute),
		},
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 9) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return srv, func() { runCleanup(cleanupFns) }, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB: func(addr string) (DBCloser, error) {
			return config.NewDB(addr)
		},
		RunMigrations: postgres.RunMigrations,
		NewRedis: func(addr, password string, db int) RedisClient {
			return redis.New(addr, password, db)
		},
		NewPublisher: func(url string) (session.NotificationPublisher, error) {
			return rabbitmq_pub.NewPublisher(url)
		},
		NewRouter: router.New,
	}
}

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
