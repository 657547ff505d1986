package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRU кэш в памяти процесса с общим временем жизни записей.
// ttl, переданный в Set, игнорируется.
type LRU struct {
	items *expirable.LRU[string, []byte]
}

var _ Cache = (*LRU)(nil)

// NewLRU создаёт кэш на size записей, каждая живёт ttl.
func NewLRU(size int, ttl time.Duration) *LRU {
	if size <= 0 {
		size = 1024
	}
	return &LRU{items: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (c *LRU) Get(_ context.Context, key string, result any) (bool, error) {
	const op = "cache.LRU.Get"
	val, ok := c.items.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(val, result); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func (c *LRU) Set(_ context.Context, key string, value any, _ time.Duration) error {
	const op = "cache.LRU.Set"
	jsonData, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	c.items.Add(key, jsonData)
	return nil
}

func (c *LRU) Invalidate(_ context.Context, key string) error {
	c.items.Remove(key)
	return nil
}

// Len количество записей в кэше.
func (c *LRU) Len() int {
	return c.items.Len()
}
