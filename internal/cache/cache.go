// Package cache кэширует ответы платёжного провайдера о статусе подписки.
package cache

import (
	"context"
	"time"
)

// Cache хранит JSON-представления значений по строковым ключам.
type Cache interface {
	// Get заполняет result, если ключ найден.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет value на время ttl.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Invalidate удаляет ключ.
	Invalidate(ctx context.Context, key string) error
}
