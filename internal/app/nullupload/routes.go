// Package nullupload собирает HTTP-сервер биллинга: маршруты, middleware и зависимости.
package nullupload

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	_ "github.com/Lordkro/nullupload/docs"
	"github.com/Lordkro/nullupload/internal/http/handlers/billing/checkout"
	"github.com/Lordkro/nullupload/internal/http/handlers/billing/portal"
	"github.com/Lordkro/nullupload/internal/http/handlers/billing/status"
	"github.com/Lordkro/nullupload/internal/http/handlers/billing/stripeconfig"
	"github.com/Lordkro/nullupload/internal/http/handlers/billing/webhook"
	"github.com/Lordkro/nullupload/internal/http/handlers/health"
	"github.com/Lordkro/nullupload/internal/http/middlewarectx"
	"github.com/Lordkro/nullupload/internal/http/response"
	"github.com/Lordkro/nullupload/internal/lib/cookie"
	"github.com/Lordkro/nullupload/internal/lib/jwt"
	"github.com/Lordkro/nullupload/internal/lib/metrics"
	"github.com/Lordkro/nullupload/internal/paymentprovider"
	"github.com/Lordkro/nullupload/internal/services/entitlement"
)

// Deps зависимости маршрутов.
type Deps struct {
	Logger         *slog.Logger
	Stripe         *paymentprovider.Client
	Tokens         *jwt.MakerImpl
	Cookies        cookie.Session
	Entitlements   *entitlement.Service
	PublishableKey string
	WebhookSecret  string
	Limiter        *rate.Limiter
	AllowedOrigins []string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)
	r.MethodNotAllowed(methodNotAllowed)

	configured := middlewarectx.RequireConfigured(logger, d.Stripe.Configured, d.Tokens.Configured)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   d.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		// Эндпоинты браузера
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, d.Limiter))

			r.Post("/checkout", checkout.New(logger, d.Stripe).ServeHTTP)
			r.With(configured, middlewarectx.SessionMiddleware(logger, d.Tokens, d.Cookies)).
				Post("/portal", portal.New(logger, d.Stripe).ServeHTTP)
			r.Get("/config", stripeconfig.New(logger, d.PublishableKey).ServeHTTP)
		})

		// Статус запрашивается при каждой загрузке страницы (без ограничения частоты)
		r.With(configured).
			Get("/status", status.New(logger, d.Stripe, d.Entitlements, d.Tokens, d.Cookies).ServeHTTP)

		// Вебхук провайдера (без ограничения частоты)
		r.Post("/webhook", webhook.New(logger, d.WebhookSecret, d.Entitlements).ServeHTTP)
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusMethodNotAllowed)
	render.JSON(w, r, response.Error("method not allowed"))
}
