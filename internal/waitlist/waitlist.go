// Package waitlist хранит адреса посетителей, ожидающих запуска платного тарифа.
package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator"

	"github.com/Lordkro/nullupload/internal/models"
	"github.com/Lordkro/nullupload/internal/storage"
)

var (
	// ErrInvalidEmail адрес не прошёл проверку.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrAlreadyJoined адрес уже в списке.
	ErrAlreadyJoined = errors.New("email already on waitlist")
)

// Entry запись списка ожидания.
type Entry struct {
	Email    string    `json:"email" validate:"required,email"`
	JoinedAt time.Time `json:"joinedAt"`
}

// List список ожидания поверх хранилища "ключ-значение".
type List struct {
	kv       storage.KeyValue
	validate *validator.Validate
	now      func() time.Time
}

// New создаёт List.
func New(kv storage.KeyValue) *List {
	return &List{
		kv:       kv,
		validate: validator.New(),
		now:      time.Now,
	}
}

// Add добавляет адрес. Регистр и пробелы по краям не учитываются при сравнении.
func (l *List) Add(ctx context.Context, email string) (Entry, error) {
	const op = "waitlist.Add"

	entry := Entry{Email: strings.ToLower(strings.TrimSpace(email)), JoinedAt: l.now().UTC()}
	if err := l.validate.Struct(entry); err != nil {
		return Entry{}, fmt.Errorf("%s: %w", op, ErrInvalidEmail)
	}

	err := l.kv.Update(ctx, models.WaitlistStorageKey, func(old []byte, ok bool) ([]byte, error) {
		entries, err := decode(old, ok)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if strings.EqualFold(e.Email, entry.Email) {
				return nil, ErrAlreadyJoined
			}
		}
		return json.Marshal(append(entries, entry))
	})
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", op, err)
	}
	return entry, nil
}

// All возвращает записи в порядке добавления.
func (l *List) All(ctx context.Context) ([]Entry, error) {
	const op = "waitlist.All"
	raw, ok, err := l.kv.Get(ctx, models.WaitlistStorageKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entries, err := decode(raw, ok)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].JoinedAt.Before(entries[j].JoinedAt)
	})
	return entries, nil
}

func decode(raw []byte, ok bool) ([]Entry, error) {
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("corrupt waitlist: %w", err)
	}
	return entries, nil
}
