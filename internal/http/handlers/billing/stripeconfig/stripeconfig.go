// Package stripeconfig отдаёт фронтенду публичный ключ платёжного провайдера.
package stripeconfig

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/Lordkro/nullupload/internal/http/response"
	"github.com/Lordkro/nullupload/internal/models"
)

type Handler struct {
	log            *slog.Logger
	publishableKey string
}

func New(log *slog.Logger, publishableKey string) *Handler {
	return &Handler{
		log:            log,
		publishableKey: strings.TrimSpace(publishableKey),
	}
}

// ServeHTTP godoc
// @Summary Публичная конфигурация
// @Tags Billing
// @Produce json
// @Success 200 {object} models.ConfigResponse
// @Failure 500 {object} response.ErrorResponse "Ключ не задан"
// @Router /api/config [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.publishableKey == "" {
		h.log.Error("stripe publishable key not configured")
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("stripe publishable key not configured"))
		return
	}
	render.JSON(w, r, models.ConfigResponse{PublishableKey: h.publishableKey})
}
