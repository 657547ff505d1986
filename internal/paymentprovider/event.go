package paymentprovider

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Типы событий вебхука, которые сервер разбирает.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// ErrInvalidSignature возвращается, если подпись вебхука не прошла проверку.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// ErrInvalidPayload возвращается, если тело вебхука не является JSON.
var ErrInvalidPayload = errors.New("invalid webhook payload")

// Event сведения из события вебхука, нужные для логов и сброса кэша.
type Event struct {
	ID             string
	Type           string
	CustomerID     string
	SubscriptionID string
	Status         string
	Email          string

	malformed bool
}

// Malformed сообщает, что JSON события не совпал со схемой Stripe.
func (e *Event) Malformed() bool {
	return e.malformed
}

// Known сообщает, относится ли событие к разбираемым типам.
// Событие с нераспознанным телом к ним не относится.
func (e *Event) Known() bool {
	if e.malformed {
		return false
	}
	switch e.Type {
	case EventCheckoutCompleted, EventSubscriptionUpdated, EventSubscriptionDeleted:
		return true
	}
	return false
}

// SubscriptionChanged сообщает, меняет ли событие статус подписки покупателя.
func (e *Event) SubscriptionChanged() bool {
	return e.Known() && e.CustomerID != ""
}

// VerifyEvent проверяет подпись заголовка Stripe-Signature и разбирает событие.
// Несовпадение версии API не считается ошибкой.
func VerifyEvent(payload []byte, header, secret string) (*Event, error) {
	const op = "paymentprovider.VerifyEvent"
	ev, err := webhook.ConstructEventWithOptions(payload, header, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrInvalidSignature, err)
	}
	return fromStripe(ev), nil
}

// DecodeEvent разбирает событие без проверки подписи. Ошибка возвращается
// только для тела, которое не является JSON; остальное становится событием,
// возможно без типа или с пометкой Malformed.
func DecodeEvent(payload []byte) (*Event, error) {
	const op = "paymentprovider.DecodeEvent"
	if !json.Valid(payload) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPayload)
	}
	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return looseEvent(payload), nil
	}
	return fromStripe(ev), nil
}

// looseEvent достаёт id и type из JSON, который не совпал со stripe.Event.
func looseEvent(payload []byte) *Event {
	var head struct {
		ID   any `json:"id"`
		Type any `json:"type"`
	}
	_ = json.Unmarshal(payload, &head)
	out := &Event{malformed: true}
	out.ID, _ = head.ID.(string)
	out.Type, _ = head.Type.(string)
	return out
}

func fromStripe(ev stripe.Event) *Event {
	out := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return out
	}

	switch out.Type {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &sess); err != nil {
			out.malformed = true
			return out
		}
		if sess.Customer != nil {
			out.CustomerID = sess.Customer.ID
		}
		if sess.CustomerDetails != nil {
			out.Email = sess.CustomerDetails.Email
		}
		if sess.Subscription != nil {
			out.SubscriptionID = sess.Subscription.ID
		}
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			out.malformed = true
			return out
		}
		out.SubscriptionID = sub.ID
		out.Status = string(sub.Status)
		if sub.Customer != nil {
			out.CustomerID = sub.Customer.ID
		}
	}
	return out
}
