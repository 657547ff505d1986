package usage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/storage"
)

// Store постоянное хранилище счётчиков использования.
type Store interface {
	// Load читает текущие счётчики.
	Load(ctx context.Context) (models.UsageData, error)
	// Update перечитывает счётчики, применяет fn и сохраняет результат.
	// Ошибка fn отменяет запись и возвращается как есть.
	Update(ctx context.Context, fn func(models.UsageData) (models.UsageData, error)) (models.UsageData, error)
	// Watch сигнализирует, когда счётчики изменены другим писателем.
	Watch(ctx context.Context) (<-chan struct{}, error)
}

// KVStore хранит счётчики JSON-значением под ключом models.UsageStorageKey.
type KVStore struct {
	kv  storage.KeyValue
	key string
	log *slog.Logger
}

var _ Store = (*KVStore)(nil)

// NewKVStore создаёт Store поверх хранилища "ключ-значение".
func NewKVStore(kv storage.KeyValue, log *slog.Logger) *KVStore {
	return &KVStore{kv: kv, key: models.UsageStorageKey, log: log}
}

// NewMemoryStore создаёт Store в памяти процесса.
func NewMemoryStore(log *slog.Logger) *KVStore {
	return NewKVStore(storage.NewMemory(), log)
}

// Load читает счётчики; повреждённое значение читается как пустое.
func (s *KVStore) Load(ctx context.Context) (models.UsageData, error) {
	const op = "usage.Load"
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return models.UsageData{}, nil
	}
	return s.decode(raw), nil
}

// Update применяет fn к свежепрочитанным счётчикам.
func (s *KVStore) Update(ctx context.Context, fn func(models.UsageData) (models.UsageData, error)) (models.UsageData, error) {
	var result models.UsageData
	err := s.kv.Update(ctx, s.key, func(old []byte, ok bool) ([]byte, error) {
		current := models.UsageData{}
		if ok {
			current = s.decode(old)
		}
		next, err := fn(current)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		result = next
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Watch сигнализирует об изменениях ключа счётчиков.
func (s *KVStore) Watch(ctx context.Context) (<-chan struct{}, error) {
	return s.kv.Watch(ctx, s.key)
}

func (s *KVStore) decode(raw []byte) models.UsageData {
	data := models.UsageData{}
	if len(raw) == 0 {
		return data
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		s.log.Warn("usage data is corrupt, treating as empty", sl.Err(err))
		return models.UsageData{}
	}
	return data
}
