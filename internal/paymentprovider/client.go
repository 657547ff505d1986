// Package paymentprovider обращается к Stripe: создаёт сессии оплаты и
// портала, читает подписки и проверяет события вебхука.
package paymentprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"github.com/Lordkro/nullupload/internal/config"
	"github.com/Lordkro/nullupload/internal/lib/metrics"
	"github.com/Lordkro/nullupload/internal/models"
)

// ErrNotConfigured возвращается, если не задан секретный ключ или цена.
var ErrNotConfigured = errors.New("stripe not configured")

// ErrMissingCustomer возвращается, если в сессии оплаты нет покупателя.
var ErrMissingCustomer = errors.New("checkout session has no customer")

// CheckoutResult итог завершённой сессии оплаты.
type CheckoutResult struct {
	CustomerID string
	Email      string
	// Subscription nil, если подписка сессии не активна.
	Subscription *models.SubscriptionInfo
}

// Option настраивает Client.
type Option func(*Client)

// WithBackends подменяет транспорт Stripe, например на тестовый сервер.
func WithBackends(backends *stripe.Backends) Option {
	return func(c *Client) {
		c.backends = backends
	}
}

// Client обёртка над API Stripe. Без секретного ключа все вызовы
// возвращают ErrNotConfigured.
type Client struct {
	api         *client.API
	backends    *stripe.Backends
	priceID     string
	frontendURL string
}

// New создаёт клиента по настройкам Stripe.
func New(cfg config.Stripe, opts ...Option) *Client {
	c := &Client{
		priceID:     strings.TrimSpace(cfg.PriceID),
		frontendURL: strings.TrimRight(cfg.FrontendURL, "/"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if key := strings.TrimSpace(cfg.SecretKey); key != "" {
		c.api = client.New(key, c.backends)
	}
	return c
}

// Configured сообщает, задан ли секретный ключ.
func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// CheckoutConfigured сообщает, можно ли создавать сессии оплаты.
func (c *Client) CheckoutConfigured() bool {
	return c.Configured() && c.priceID != ""
}

// SuccessURL адрес возврата после оплаты; Stripe подставляет id сессии.
func (c *Client) SuccessURL() string {
	return c.frontendURL + "/pro?success=true&session_id={CHECKOUT_SESSION_ID}"
}

// CancelURL адрес возврата при отмене оплаты.
func (c *Client) CancelURL() string {
	return c.frontendURL + "/pro?canceled=true"
}

// ReturnURL адрес возврата из портала управления подпиской.
func (c *Client) ReturnURL() string {
	return c.frontendURL + "/pro"
}

// CreateCheckoutSession создаёт сессию оплаты подписки и возвращает её адрес.
func (c *Client) CreateCheckoutSession(ctx context.Context) (string, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	if !c.CheckoutConfigured() {
		return "", fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.SuccessURL()),
		CancelURL:  stripe.String(c.CancelURL()),
	}
	params.Context = ctx

	sess, err := c.api.CheckoutSessions.New(params)
	metrics.RecordProviderCall("checkout_session_create", err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sess.URL, nil
}

// CreatePortalSession создаёт сессию портала для покупателя и возвращает её адрес.
func (c *Client) CreatePortalSession(ctx context.Context, customerID string) (string, error) {
	const op = "paymentprovider.CreatePortalSession"
	if !c.Configured() {
		return "", fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(c.ReturnURL()),
	}
	params.Context = ctx

	sess, err := c.api.BillingPortalSessions.New(params)
	metrics.RecordProviderCall("portal_session_create", err)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return sess.URL, nil
}

// CheckoutSession читает сессию оплаты вместе с подпиской.
func (c *Client) CheckoutSession(ctx context.Context, sessionID string) (*CheckoutResult, error) {
	const op = "paymentprovider.CheckoutSession"
	if !c.Configured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("subscription")

	sess, err := c.api.CheckoutSessions.Get(sessionID, params)
	metrics.RecordProviderCall("checkout_session_get", err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if sess.Customer == nil || sess.Customer.ID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingCustomer)
	}

	result := &CheckoutResult{CustomerID: sess.Customer.ID}
	if sess.CustomerDetails != nil {
		result.Email = sess.CustomerDetails.Email
	}
	if sess.Subscription != nil && sess.Subscription.Status == stripe.SubscriptionStatusActive {
		result.Subscription = subscriptionInfo(sess.Subscription)
	}
	return result, nil
}

// ActiveSubscription возвращает первую активную подписку покупателя или nil.
func (c *Client) ActiveSubscription(ctx context.Context, customerID string) (*models.SubscriptionInfo, error) {
	const op = "paymentprovider.ActiveSubscription"
	if !c.Configured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(1)
	params.Single = true

	it := c.api.Subscriptions.List(params)
	var sub *models.SubscriptionInfo
	if it.Next() {
		sub = subscriptionInfo(it.Subscription())
	}
	err := it.Err()
	metrics.RecordProviderCall("subscription_list", err)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

func subscriptionInfo(s *stripe.Subscription) *models.SubscriptionInfo {
	return &models.SubscriptionInfo{
		Status:           string(s.Status),
		CurrentPeriodEnd: s.CurrentPeriodEnd,
	}
}

// Detail текст ошибки провайдера для ответа клиенту.
func Detail(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}
	if errors.Is(err, ErrNotConfigured) {
		return ErrNotConfigured.Error()
	}
	return ""
}
