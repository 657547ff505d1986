// Package entitlement определяет тариф покупателя по его подпискам у
// платёжного провайдера, при необходимости через кэш.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Lordkro/nullupload/internal/lib/metrics"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
)

// Provider читает активную подписку покупателя.
type Provider interface {
	ActiveSubscription(ctx context.Context, customerID string) (*models.SubscriptionInfo, error)
}

// Cache кэш ответов о статусе.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service определяет тариф покупателя. Без кэша каждый вызов идёт к провайдеру.
type Service struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	log      *slog.Logger
}

// New создаёт Service; cache может быть nil.
func New(log *slog.Logger, provider Provider, cache Cache, ttl time.Duration) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

func cacheKey(customerID string) string {
	return "status:" + customerID
}

// Resolve возвращает статус покупателя. Ошибки кэша только логируются.
func (s *Service) Resolve(ctx context.Context, customerID string) (models.StatusResponse, error) {
	const op = "entitlement.Resolve"
	key := cacheKey(customerID)

	if s.cache != nil {
		var cached models.StatusResponse
		found, err := s.cache.Get(ctx, key, &cached)
		switch {
		case err != nil:
			metrics.RecordStatusCache("error")
			s.log.Warn("failed to read status cache", slog.String("key", key), sl.Err(err))
		case found:
			metrics.RecordStatusCache("hit")
			return cached, nil
		default:
			metrics.RecordStatusCache("miss")
		}
	}

	sub, err := s.provider.ActiveSubscription(ctx, customerID)
	if err != nil {
		return models.NotPro(), fmt.Errorf("%s: %w", op, err)
	}

	status := models.NotPro()
	if sub != nil {
		status = models.Pro(*sub)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, status, s.ttl); err != nil {
			s.log.Warn("failed to cache status", slog.String("key", key), sl.Err(err))
		}
	}
	return status, nil
}

// Invalidate сбрасывает кэшированный статус покупателя.
func (s *Service) Invalidate(ctx context.Context, customerID string) {
	if s.cache == nil || customerID == "" {
		return
	}
	key := cacheKey(customerID)
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn("failed to invalidate status cache", slog.String("key", key), sl.Err(err))
		return
	}
	s.log.Debug("status cache invalidated", slog.String("customer_id", customerID))
}
