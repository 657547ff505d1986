// Package checkout реализует HTTP-обработчик создания сессии оплаты подписки.
//
// Обработчик анонимный: покупатель появляется у провайдера только после
// оплаты, а cookie сессии выдаёт обработчик статуса по возвращённому session_id.
package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Lordkro/nullupload/internal/http/response"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/paymentprovider"
)

// Provider создаёт сессии оплаты.
type Provider interface {
	CheckoutConfigured() bool
	CreateCheckoutSession(ctx context.Context) (string, error)
}

// Handler обрабатывает POST /api/checkout.
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
// @Summary Создать сессию оплаты
// @Description Создаёт сессию оплаты подписки pro и возвращает адрес страницы оплаты.
// @Tags Billing
// @Produce json
// @Success 200 {object} models.URLResponse
// @Failure 405 {object} response.ErrorResponse "Неверный метод"
// @Failure 500 {object} response.ErrorResponse "Провайдер не настроен или вернул ошибку"
// @Router /api/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if !h.provider.CheckoutConfigured() {
		log.Error("stripe secret key or price id missing")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("stripe not configured"))
		return
	}

	url, err := h.provider.CreateCheckoutSession(r.Context())
	if err != nil {
		log.Error("failed to create checkout session", sl.Err(err))
		if errors.Is(err, paymentprovider.ErrNotConfigured) {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("stripe not configured"))
			return
		}
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.ErrorWithDetail("failed to create checkout session", paymentprovider.Detail(err)))
		return
	}

	log.Info("checkout session created")
	render.JSON(w, r, models.URLResponse{URL: url})
}
