// Package portal реализует HTTP-обработчик перехода в портал управления подпиской.
package portal

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Lordkro/nullupload/internal/http/middlewarectx"
	"github.com/Lordkro/nullupload/internal/http/response"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
)

// Provider создаёт сессии портала.
type Provider interface {
	CreatePortalSession(ctx context.Context, customerID string) (string, error)
}

// Handler обрабатывает POST /api/portal. Ожидает claims от SessionMiddleware.
type Handler struct {
	log      *slog.Logger
	provider Provider
}

// New создает Handler.
func New(log *slog.Logger, provider Provider) *Handler {
	return &Handler{
		log:      log,
		provider: provider,
	}
}

// ServeHTTP godoc
// @Summary Открыть портал подписки
// @Description Создаёт сессию портала для покупателя из cookie сессии.
// @Tags Billing
// @Produce json
// @Success 200 {object} models.URLResponse
// @Failure 401 {object} response.ErrorResponse "Нет или неверна cookie сессии"
// @Failure 405 {object} response.ErrorResponse "Неверный метод"
// @Failure 500 {object} response.ErrorResponse "Сервер не настроен или ошибка провайдера"
// @Router /api/portal [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.portal"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	claims, ok := middlewarectx.ClaimsFromContext(r.Context())
	if !ok {
		log.Error("session claims not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("not authenticated"))
		return
	}
	log = log.With(slog.String("customer_id", claims.CustomerID))

	url, err := h.provider.CreatePortalSession(r.Context(), claims.CustomerID)
	if err != nil {
		log.Error("failed to create portal session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to create portal session"))
		return
	}

	log.Info("portal session created")
	render.JSON(w, r, models.URLResponse{URL: url})
}
