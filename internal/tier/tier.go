// Package tier хранит тариф текущего посетителя, полученный от сервера биллинга.
package tier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
)

// Backend сервер биллинга.
type Backend interface {
	Status(ctx context.Context, sessionID string) (models.StatusResponse, error)
	Checkout(ctx context.Context) (string, error)
	Portal(ctx context.Context) (string, error)
}

// Session тариф посетителя. До первого Refresh посетитель считается free,
// а Loading возвращает true.
type Session struct {
	log     *slog.Logger
	backend Backend

	mu           sync.RWMutex
	tier         models.Tier
	subscription *models.SubscriptionInfo
	loading      bool
}

// New создаёт Session в состоянии загрузки.
func New(log *slog.Logger, backend Backend) *Session {
	return &Session{
		log:     log,
		backend: backend,
		tier:    models.TierFree,
		loading: true,
	}
}

// Refresh запрашивает статус у сервера. Непустой sessionID передаётся
// после возврата со страницы оплаты. Любая ошибка переводит посетителя на free.
func (s *Session) Refresh(ctx context.Context, sessionID string) models.Tier {
	const op = "tier.Session.Refresh"
	log := s.log.With(sl.Op(op))

	status, err := s.backend.Status(ctx, sessionID)
	if err != nil {
		log.Warn("failed to check subscription status", sl.Err(err))
		status = models.NotPro()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if status.IsPro {
		s.tier = models.TierPro
		s.subscription = status.Subscription
	} else {
		s.tier = models.TierFree
		s.subscription = nil
	}
	return s.tier
}

// Tier возвращает текущий тариф.
func (s *Session) Tier() models.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tier
}

// IsPro сообщает, активна ли подписка.
func (s *Session) IsPro() bool {
	return s.Tier().IsPro()
}

// Subscription возвращает сведения о подписке или nil для free.
func (s *Session) Subscription() *models.SubscriptionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.subscription == nil {
		return nil
	}
	sub := *s.subscription
	return &sub
}

// Loading сообщает, что статус ещё не запрашивался.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Checkout возвращает адрес страницы оплаты.
func (s *Session) Checkout(ctx context.Context) (string, error) {
	const op = "tier.Session.Checkout"
	url, err := s.backend.Checkout(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return url, nil
}

// OpenPortal возвращает адрес портала управления подпиской.
func (s *Session) OpenPortal(ctx context.Context) (string, error) {
	const op = "tier.Session.OpenPortal"
	url, err := s.backend.Portal(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return url, nil
}
