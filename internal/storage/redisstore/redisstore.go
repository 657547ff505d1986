// Package redisstore реализует хранилище "ключ-значение" в Redis. Ключи
// изолированы пространством имён посетителя, изменения рассылаются через pub/sub.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/Lordkro/nullupload/internal/config"
	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/storage"
)

const maxTxRetries = 25

// ErrTooManyConflicts возвращается, если оптимистичная транзакция не прошла за maxTxRetries попыток.
var ErrTooManyConflicts = errors.New("too many concurrent updates")

// Connect создаёт клиента Redis и проверяет соединение.
func Connect(ctx context.Context, cfg config.RedisConnection) (*redis.Client, error) {
	const op = "redisstore.Connect"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// Store хранилище в Redis для одного посетителя.
type Store struct {
	db        *redis.Client
	namespace string
	log       *slog.Logger
}

var _ storage.KeyValue = (*Store)(nil)

// New создаёт Store; namespace обычно идентификатор посетителя.
func New(db *redis.Client, namespace string, log *slog.Logger) *Store {
	return &Store{db: db, namespace: namespace, log: log}
}

func (s *Store) key(key string) string {
	if s.namespace == "" {
		return key
	}
	return key + ":" + s.namespace
}

func (s *Store) channel(key string) string {
	return s.key(key) + ":changed"
}

// Get возвращает значение ключа.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const op = "redisstore.Get"
	val, err := s.db.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return val, true, nil
}

// Set записывает значение и оповещает подписчиков.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	const op = "redisstore.Set"
	if err := s.db.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.publish(ctx, key)
	return nil
}

// Update выполняет fn в транзакции WATCH/MULTI. При конфликте с другим
// писателем значение перечитывается и fn вызывается снова.
func (s *Store) Update(ctx context.Context, key string, fn storage.UpdateFunc) error {
	const op = "redisstore.Update"
	k := s.key(key)

	txf := func(tx *redis.Tx) error {
		old, err := tx.Get(ctx, k).Bytes()
		ok := true
		if errors.Is(err, redis.Nil) {
			ok, err = false, nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		next, err := fn(old, ok)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, next, 0)
			return nil
		})
		return err
	}

	for iter := 0; iter < maxTxRetries; iter++ {
		err := s.db.Watch(ctx, txf, k)
		if err == nil {
			s.publish(ctx, key)
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("%s: %w", op, ErrTooManyConflicts)
}

// Watch подписывается на изменения ключа через pub/sub.
func (s *Store) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	const op = "redisstore.Watch"
	pubsub := s.db.Subscribe(ctx, s.channel(key))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer pubsub.Close()
		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}

// publish оповещает подписчиков. Запись к этому моменту уже сохранена,
// поэтому ошибка только логируется.
func (s *Store) publish(ctx context.Context, key string) {
	const op = "redisstore.publish"
	if err := s.db.Publish(ctx, s.channel(key), "1").Err(); err != nil {
		s.log.Warn("failed to notify watchers", sl.Op(op), slog.String("key", s.key(key)), sl.Err(err))
	}
}
