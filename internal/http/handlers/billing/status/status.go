// Package status реализует HTTP-обработчик, определяющий тариф посетителя.
//
// После оплаты провайдер возвращает посетителя с session_id: обработчик
// читает сессию оплаты, выдаёт cookie сессии и сообщает статус. Без
// session_id статус берётся из cookie. Ошибки провайдера и неверный токен
// никогда не возвращаются клиенту: ответ всегда 200, в худшем случае "не pro".
package status

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/Lordkro/nullupload/internal/lib/jwt"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/paymentprovider"
)

// Provider читает завершённые сессии оплаты.
type Provider interface {
	CheckoutSession(ctx context.Context, sessionID string) (*paymentprovider.CheckoutResult, error)
}

// Resolver определяет тариф покупателя по его подпискам.
type Resolver interface {
	Resolve(ctx context.Context, customerID string) (models.StatusResponse, error)
	Invalidate(ctx context.Context, customerID string)
}

// Tokens выпускает и проверяет токены сессии.
type Tokens interface {
	GenerateToken(customerID, email string) (string, error)
	ParseToken(tokenStr string) (*jwt.SessionClaims, error)
}

// Cookies читает, выставляет и очищает cookie сессии.
type Cookies interface {
	Read(r *http.Request) string
	Set(w http.ResponseWriter, token string)
	Clear(w http.ResponseWriter)
}

// Handler обрабатывает GET /api/status.
type Handler struct {
	log      *slog.Logger
	provider Provider
	resolver Resolver
	tokens   Tokens
	cookies  Cookies
}

// New создает Handler.
func New(log *slog.Logger, provider Provider, resolver Resolver, tokens Tokens, cookies Cookies) *Handler {
	return &Handler{
		log:      log,
		provider: provider,
		resolver: resolver,
		tokens:   tokens,
		cookies:  cookies,
	}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Возвращает тариф посетителя. С session_id выдаёт cookie сессии по завершённой оплате.
// @Tags Billing
// @Produce json
// @Param session_id query string false "Идентификатор сессии оплаты после возврата с провайдера"
// @Success 200 {object} models.StatusResponse
// @Failure 405 {object} response.ErrorResponse "Неверный метод"
// @Failure 500 {object} response.ErrorResponse "Сервер не настроен"
// @Router /api/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.status"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		render.JSON(w, r, h.fromCheckout(r.Context(), log, w, sessionID))
		return
	}
	render.JSON(w, r, h.fromCookie(r, log, w))
}

func (h *Handler) fromCheckout(ctx context.Context, log *slog.Logger, w http.ResponseWriter, sessionID string) models.StatusResponse {
	log = log.With(slog.String("session_id", sessionID))

	res, err := h.provider.CheckoutSession(ctx, sessionID)
	if err != nil {
		log.Error("failed to look up checkout session", sl.Err(err))
		return models.NotPro()
	}
	log = log.With(slog.String("customer_id", res.CustomerID))

	token, err := h.tokens.GenerateToken(res.CustomerID, res.Email)
	if err != nil {
		log.Error("failed to sign session token", sl.Err(err))
		return models.NotPro()
	}
	h.cookies.Set(w, token)
	h.resolver.Invalidate(ctx, res.CustomerID)

	if res.Subscription == nil {
		log.Info("checkout session has no active subscription")
		return models.NotPro()
	}
	log.Info("session issued after checkout")
	return models.Pro(*res.Subscription)
}

func (h *Handler) fromCookie(r *http.Request, log *slog.Logger, w http.ResponseWriter) models.StatusResponse {
	token := h.cookies.Read(r)
	if token == "" {
		return models.NotPro()
	}

	claims, err := h.tokens.ParseToken(token)
	if err != nil {
		log.Warn("invalid session cookie, clearing", sl.Err(err))
		h.cookies.Clear(w)
		return models.NotPro()
	}
	log = log.With(slog.String("customer_id", claims.CustomerID))

	status, err := h.resolver.Resolve(r.Context(), claims.CustomerID)
	if err != nil {
		log.Error("failed to resolve subscription status", sl.Err(err))
		return models.NotPro()
	}
	return status
}
