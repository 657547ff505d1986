package storage

import (
	"context"
	"sync"
)

// Memory хранилище в памяти процесса. Watch получает сигналы от всех
// записей в тот же экземпляр.
type Memory struct {
	mu       sync.Mutex
	data     map[string][]byte
	watchers map[string][]chan struct{}
}

// NewMemory создаёт пустое хранилище в памяти.
func NewMemory() *Memory {
	return &Memory{
		data:     make(map[string][]byte),
		watchers: make(map[string][]chan struct{}),
	}
}

// Get возвращает копию значения ключа.
func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set записывает значение ключа.
func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	m.data[key] = append([]byte(nil), value...)
	m.mu.Unlock()
	m.notify(key)
	return nil
}

// Update выполняет fn под блокировкой.
func (m *Memory) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	old, ok := m.data[key]
	next, err := fn(append([]byte(nil), old...), ok)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.data[key] = append([]byte(nil), next...)
	m.mu.Unlock()
	m.notify(key)
	return nil
}

// Watch подписывается на изменения ключа.
func (m *Memory) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	m.mu.Lock()
	m.watchers[key] = append(m.watchers[key], ch)
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		defer m.mu.Unlock()
		list := m.watchers[key]
		for i, c := range list {
			if c == ch {
				m.watchers[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

func (m *Memory) notify(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.watchers[key] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
