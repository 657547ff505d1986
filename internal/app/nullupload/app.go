package nullupload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/redis/go-redis/v9"

	"github.com/Lordkro/nullupload/internal/cache"
	"github.com/Lordkro/nullupload/internal/config"
	"github.com/Lordkro/nullupload/internal/http/middlewarectx"
	"github.com/Lordkro/nullupload/internal/lib/cookie"
	"github.com/Lordkro/nullupload/internal/lib/jwt"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/paymentprovider"
	"github.com/Lordkro/nullupload/internal/services/entitlement"
	"github.com/Lordkro/nullupload/internal/storage/redisstore"
)

// Бэкенды кэша статуса подписки.
const (
	CacheBackendNone  = ""
	CacheBackendRedis = "redis"
	CacheBackendLRU   = "lru"
)

const redisCachePrefix = "nullupload"

type App struct {
	server *http.Server
	logger *slog.Logger
	redis  *redis.Client
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.nullupload.New"

	stripeClient := paymentprovider.New(cfg.Stripe)
	if !stripeClient.Configured() {
		logger.Warn("stripe secret key not set, billing endpoints will answer 500")
	}
	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	if !tokens.Configured() {
		logger.Warn("session secret not set, session endpoints will answer 500")
	}

	statusCache, redisClient, err := newStatusCache(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if statusCache != nil {
		logger.Info("status cache enabled", slog.String("backend", cfg.StatusCache.Backend), slog.Duration("ttl", cfg.StatusCache.TTL))
	}
	entitlements := entitlement.New(logger, stripeClient, statusCache, cfg.StatusCache.TTL)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{cfg.FrontendURL}
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:         logger,
		Stripe:         stripeClient,
		Tokens:         tokens,
		Cookies:        cookie.NewSession(cfg.CookieName, cfg.TokenTTL),
		Entitlements:   entitlements,
		PublishableKey: cfg.PublishableKey,
		WebhookSecret:  cfg.WebhookSecret,
		Limiter:        middlewarectx.NewLimiter(cfg.RPS, cfg.Burst),
		AllowedOrigins: origins,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		redis:  redisClient,
	}, nil
}

// newStatusCache возвращает nil, если кэш выключен.
func newStatusCache(ctx context.Context, cfg *config.Config) (entitlement.Cache, *redis.Client, error) {
	switch cfg.StatusCache.Backend {
	case CacheBackendNone:
		return nil, nil, nil
	case CacheBackendLRU:
		return cache.NewLRU(cfg.StatusCache.Size, cfg.StatusCache.TTL), nil, nil
	case CacheBackendRedis:
		db, err := redisstore.Connect(ctx, cfg.RedisConnection)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedis(db, redisCachePrefix), db, nil
	default:
		return nil, nil, fmt.Errorf("unknown status cache backend %q", cfg.StatusCache.Backend)
	}
}

// Handler возвращает корневой обработчик сервера.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("failed to close redis", sl.Err(err))
	}
}
