// Package local реализует хранилище "ключ-значение" в JSON-файле на диске,
// аналог localStorage браузера. Изменения файла другими процессами
// отслеживаются через fsnotify.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gofrs/flock"

	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/storage"
)

// Store файл со значениями по ключам. Внутри процесса записи
// сериализуются мьютексом, между процессами advisory-блокировкой
// соседнего файла path.lock.
type Store struct {
	path string
	log  *slog.Logger
	mu   sync.Mutex
	lock *flock.Flock
}

var _ storage.KeyValue = (*Store)(nil)

// New открывает хранилище в файле path, создавая каталог при необходимости.
func New(path string, log *slog.Logger) (*Store, error) {
	const op = "storage.local.New"
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{path: abs, log: log, lock: flock.New(abs + ".lock")}, nil
}

// Path возвращает абсолютный путь к файлу хранилища.
func (s *Store) Path() string {
	return s.path
}

// Get возвращает значение ключа.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, err := s.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := items[key]
	if !ok {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

// Set записывает значение ключа.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.Update(ctx, key, func([]byte, bool) ([]byte, error) {
		return value, nil
	})
}

// Update под блокировкой файла перечитывает его, применяет fn и атомарно
// заменяет файл.
func (s *Store) Update(_ context.Context, key string, fn storage.UpdateFunc) error {
	const op = "storage.local.Update"
	unlock, err := s.acquire()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	items, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	old, ok := items[key]
	next, err := fn([]byte(old), ok)
	if err != nil {
		return err
	}
	items[key] = string(next)
	if err := s.write(items); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Delete удаляет ключ. Отсутствующий ключ не ошибка, файл при этом
// не перезаписывается.
func (s *Store) Delete(_ context.Context, key string) error {
	const op = "storage.local.Delete"
	unlock, err := s.acquire()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer unlock()

	items, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	if err := s.write(items); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// acquire берёт мьютекс процесса и эксклюзивную блокировку lock-файла.
func (s *Store) acquire() (func(), error) {
	s.mu.Lock()
	if err := s.lock.Lock(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Warn("failed to release store lock", sl.Err(err))
		}
		s.mu.Unlock()
	}, nil
}

// Watch сигнализирует, когда значение ключа в файле меняется.
func (s *Store) Watch(ctx context.Context, key string) (<-chan struct{}, error) {
	const op = "storage.local.Watch"
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	last, _, _ := s.Get(ctx, key)
	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != s.path || !ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
					continue
				}
				current, _, err := s.Get(ctx, key)
				if err != nil {
					s.log.Warn("failed to re-read store after change", sl.Err(err))
					continue
				}
				if bytes.Equal(current, last) {
					continue
				}
				last = current
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("store watcher error", sl.Err(err))
			}
		}
	}()
	return ch, nil
}

func (s *Store) read() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	items := map[string]string{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		s.log.Warn("store file is corrupt, starting empty", slog.String("path", s.path), sl.Err(err))
		return map[string]string{}, nil
	}
	return items, nil
}

func (s *Store) write(items map[string]string) error {
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".nullupload-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
