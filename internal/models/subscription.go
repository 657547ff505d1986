package models

// SubscriptionStatusActive статус подписки, дающий доступ к pro.
const SubscriptionStatusActive = "active"

// SubscriptionInfo сведения о подписке, полученные у платёжного провайдера.
// Никогда не сохраняется, пересчитывается на каждый запрос статуса.
type SubscriptionInfo struct {
	Status           string `json:"status" example:"active"`
	CurrentPeriodEnd int64  `json:"currentPeriodEnd" example:"1735689600"`
}

// StatusResponse ответ эндпоинта статуса.
type StatusResponse struct {
	IsPro        bool              `json:"isPro"`
	Subscription *SubscriptionInfo `json:"subscription"`
}

// NotPro ответ для посетителя без активной подписки.
func NotPro() StatusResponse {
	return StatusResponse{IsPro: false, Subscription: nil}
}

// Pro ответ для посетителя с активной подпиской.
func Pro(sub SubscriptionInfo) StatusResponse {
	return StatusResponse{IsPro: true, Subscription: &sub}
}

// URLResponse ответ с адресом перенаправления на страницу провайдера.
type URLResponse struct {
	URL string `json:"url" example:"https://checkout.stripe.com/c/pay/cs_test_123"`
}

// ConfigResponse публичная конфигурация для фронтенда.
type ConfigResponse struct {
	PublishableKey string `json:"publishableKey" example:"pk_test_123"`
}

// WebhookResponse ответ на принятое событие провайдера.
type WebhookResponse struct {
	Received bool `json:"received"`
}
