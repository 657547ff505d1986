// Package usage реализует дневные лимиты бесплатного тарифа: решает, можно ли
// обработать пачку файлов инструментом, и учитывает использование.
package usage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/Lordkro/nullupload/internal/lib/sl"
	"github.com/Lordkro/nullupload/internal/models"
)

const (
	// FreeDailyLimit сколько файлов в день на инструмент доступно бесплатно.
	FreeDailyLimit = 5
	// FreeBatchLimit сколько файлов можно отправить за одно действие бесплатно.
	FreeBatchLimit = 3
	// Unlimited значение лимитов и остатка для pro.
	Unlimited = math.MaxInt
)

// ErrLimitExceeded возвращается RecordUsage, если запись превысила бы дневной лимит.
var ErrLimitExceeded = errors.New("daily usage limit exceeded")

// LimitError подробности отказа RecordUsage.
type LimitError struct {
	Tool      string
	Limit     int
	Used      int
	Requested int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily usage limit exceeded for %s: used %d of %d, requested %d", e.Tool, e.Used, e.Limit, e.Requested)
}

// Is позволяет сравнивать LimitError с ErrLimitExceeded через errors.Is.
func (e *LimitError) Is(target error) bool {
	return target == ErrLimitExceeded
}

// TierSource сообщает текущий тариф посетителя.
type TierSource interface {
	IsPro() bool
}

// Limits лимиты бесплатного тарифа.
type Limits struct {
	Daily int
	Batch int
}

// DefaultLimits лимиты по умолчанию.
func DefaultLimits() Limits {
	return Limits{Daily: FreeDailyLimit, Batch: FreeBatchLimit}
}

// Options необязательные параметры Gate.
type Options struct {
	Limits   Limits
	Now      func() time.Time
	Location *time.Location
	// OnChange вызывается из Watch после перечитывания изменённых счётчиков.
	OnChange func(models.UsageData)
}

// Gate хранит копию счётчиков в памяти и принимает решения по ней;
// RecordUsage всегда перечитывает постоянное хранилище.
type Gate struct {
	log    *slog.Logger
	store  Store
	tier   TierSource
	limits Limits
	now    func() time.Time
	loc    *time.Location

	onChange func(models.UsageData)

	mu    sync.RWMutex
	usage models.UsageData
}

// New создаёт Gate и загружает счётчики. Ошибка чтения не фатальна:
// счётчики считаются пустыми до следующего Refresh.
func New(ctx context.Context, log *slog.Logger, store Store, tier TierSource, opts Options) *Gate {
	if opts.Limits == (Limits{}) {
		opts.Limits = DefaultLimits()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	g := &Gate{
		log:    log,
		store:  store,
		tier:   tier,
		limits: opts.Limits,
		now:    opts.Now,
		loc:    opts.Location,
		usage:  models.UsageData{},

		onChange: opts.OnChange,
	}
	if err := g.Refresh(ctx); err != nil {
		log.Warn("failed to load usage, starting empty", sl.Err(err))
	}
	return g
}

// Today возвращает текущий календарный день в формате models.DateLayout.
func (g *Gate) Today() string {
	return g.now().In(g.loc).Format(models.DateLayout)
}

func (g *Gate) isPro() bool {
	return g.tier != nil && g.tier.IsPro()
}

// UsedToday счётчик инструмента за сегодня по копии в памяти.
func (g *Gate) UsedToday(toolID string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.usage.UsedOn(toolID, g.Today())
}

// DailyLimit дневной лимит для текущего тарифа.
func (g *Gate) DailyLimit() int {
	if g.isPro() {
		return Unlimited
	}
	return g.limits.Daily
}

// BatchLimit лимит пачки для текущего тарифа.
func (g *Gate) BatchLimit() int {
	if g.isPro() {
		return Unlimited
	}
	return g.limits.Batch
}

// Remaining сколько файлов ещё можно обработать сегодня, не меньше 0.
func (g *Gate) Remaining(toolID string) int {
	if g.isPro() {
		return Unlimited
	}
	return max(0, g.limits.Daily-g.UsedToday(toolID))
}

// LimitReached сообщает, исчерпан ли дневной лимит инструмента.
func (g *Gate) LimitReached(toolID string) bool {
	return !g.isPro() && g.Remaining(toolID) <= 0
}

// CanProcess сообщает, хватает ли остатка на n файлов.
func (g *Gate) CanProcess(toolID string, n int) bool {
	if g.isPro() {
		return true
	}
	return g.Remaining(toolID) >= n
}

// ClampBatch обрезает пачку до лимита бесплатного тарифа.
func (g *Gate) ClampBatch(toolID string, n int) int {
	if g.isPro() {
		return n
	}
	return min(n, g.limits.Batch)
}

// RecordUsage учитывает n обработанных файлов. Счётчик перечитывается из
// хранилища; если сумма превысит дневной лимит, ничего не меняется и
// возвращается ошибка, для которой errors.Is(err, ErrLimitExceeded).
func (g *Gate) RecordUsage(ctx context.Context, toolID string, n int) error {
	const op = "usage.RecordUsage"
	if g.isPro() {
		return nil
	}

	today := g.Today()
	updated, err := g.store.Update(ctx, func(current models.UsageData) (models.UsageData, error) {
		used := current.UsedOn(toolID, today)
		if used+n > g.limits.Daily {
			return nil, &LimitError{Tool: toolID, Limit: g.limits.Daily, Used: used, Requested: n}
		}
		next := current.Clone()
		next[toolID] = models.UsageRecord{Count: used + n, Date: today}
		return next, nil
	})
	if err != nil {
		var limitErr *LimitError
		if errors.As(err, &limitErr) {
			return limitErr
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	g.set(updated)
	g.log.Debug("usage recorded", slog.String("tool", toolID), slog.Int("count", updated[toolID].Count))
	return nil
}

// Refresh перечитывает счётчики из хранилища.
func (g *Gate) Refresh(ctx context.Context) error {
	const op = "usage.Refresh"
	data, err := g.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	g.set(data)
	return nil
}

// Watch обновляет копию в памяти при изменениях от других писателей,
// пока не отменён ctx.
func (g *Gate) Watch(ctx context.Context) error {
	const op = "usage.Watch"
	changes, err := g.store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if err := g.Refresh(ctx); err != nil {
				g.log.Warn("failed to refresh usage after change", sl.Err(err))
				continue
			}
			if g.onChange != nil {
				g.onChange(g.Snapshot())
			}
		}
	}
}

// Snapshot возвращает копию счётчиков в памяти.
func (g *Gate) Snapshot() models.UsageData {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.usage.Clone()
}

func (g *Gate) set(data models.UsageData) {
	g.mu.Lock()
	g.usage = data
	g.mu.Unlock()
}
