// Package webhook принимает события платёжного провайдера.
//
// События только логируются: тариф всегда пересчитывается у провайдера.
// Если включён кэш статуса, события подписки сбрасывают запись покупателя.
package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Lordkro/nullupload/internal/http/response"
	"github.com/Lordkro/nullupload/internal/lib/metrics"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/paymentprovider"
)

// MaxBodyBytes предельный размер тела события.
const MaxBodyBytes = 64 << 10

// SignatureHeader заголовок с подписью события.
const SignatureHeader = "Stripe-Signature"

// Invalidator сбрасывает кэшированный статус покупателя.
type Invalidator interface {
	Invalidate(ctx context.Context, customerID string)
}

// Handler обрабатывает POST /api/webhook.
type Handler struct {
	log         *slog.Logger
	secret      string
	invalidator Invalidator
}

// New создает Handler. Пустой secret отключает проверку подписи.
func New(log *slog.Logger, secret string, invalidator Invalidator) *Handler {
	return &Handler{
		log:         log,
		secret:      secret,
		invalidator: invalidator,
	}
}

// ServeHTTP godoc
// @Summary Событие платёжного провайдера
// @Tags Billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string false "Подпись события"
// @Success 200 {object} models.WebhookResponse
// @Failure 400 {object} response.ErrorResponse "Неверная подпись или тело"
// @Router /api/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			render.JSON(w, r, response.Error("payload too large"))
			return
		}
		render.JSON(w, r, response.Error("invalid payload"))
		return
	}

	var ev *paymentprovider.Event
	if h.secret != "" {
		ev, err = paymentprovider.VerifyEvent(body, r.Header.Get(SignatureHeader), h.secret)
		if err != nil {
			log.Error("webhook signature verification failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("webhook signature verification failed"))
			return
		}
	} else {
		log.Warn("webhook secret not set, skipping signature verification")
		ev, err = paymentprovider.DecodeEvent(body)
		if err != nil {
			log.Error("failed to decode webhook body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid JSON body"))
			return
		}
	}

	metrics.RecordWebhookEvent(ev.Type)
	log = log.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	switch {
	case ev.Malformed():
		log.Warn("unhandled event type, body does not match event schema")
	case ev.Type == paymentprovider.EventCheckoutCompleted:
		log.Info("checkout completed",
			slog.String("customer_id", ev.CustomerID),
			slog.String("email", ev.Email),
		)
	case ev.Type == paymentprovider.EventSubscriptionUpdated:
		log.Info("subscription updated",
			slog.String("subscription_id", ev.SubscriptionID),
			slog.String("status", ev.Status),
			slog.String("customer_id", ev.CustomerID),
		)
	case ev.Type == paymentprovider.EventSubscriptionDeleted:
		log.Info("subscription deleted",
			slog.String("subscription_id", ev.SubscriptionID),
			slog.String("customer_id", ev.CustomerID),
		)
	default:
		log.Info("unhandled event type")
	}

	if ev.SubscriptionChanged() && h.invalidator != nil {
		h.invalidator.Invalidate(r.Context(), ev.CustomerID)
	}

	render.JSON(w, r, models.WebhookResponse{Received: true})
}
