package embedding

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/decayscope/internal/domain"
)

// BudgetAction defines behavior when the daily token budget is spent.
type BudgetAction string

const (
	// BudgetActionWarn logs a warning and lets the request through.
	BudgetActionWarn BudgetAction = "warn"
	// BudgetActionReject refuses the request; the analysis falls back to lexical vectors.
	BudgetActionReject BudgetAction = "reject"
)

// ParseBudgetAction maps a config value to a BudgetAction. Empty means warn.
func ParseBudgetAction(s string) (BudgetAction, error) {
	switch a := BudgetAction(s); a {
	case "", BudgetActionWarn:
		return BudgetActionWarn, nil
	case BudgetActionReject:
		return a, nil
	default:
		return "", fmt.Errorf("unknown budget action %q", s)
	}
}

// BudgetStore persists daily counters. IncrBy may be called repeatedly.
type BudgetStore interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Get(ctx context.Context, key string) (int64, error)
}

// BudgetTracker counts provider tokens per UTC day. Check is in-memory only;
// Record updates memory first and then writes behind to the store.
type BudgetTracker struct {
	mu       sync.Mutex
	used     int64
	limit    int64
	day      time.Time
	action   BudgetAction
	provider string
	store    BudgetStore
	clock    func() time.Time
	logger   *zap.Logger
}

// NewBudgetTracker creates a tracker. A zero limit means unlimited.
func NewBudgetTracker(provider string, dailyLimit int64, action BudgetAction, logger *zap.Logger) *BudgetTracker {
	b := &BudgetTracker{
		limit:    dailyLimit,
		action:   action,
		provider: provider,
		clock:    time.Now,
		logger:   logger,
	}
	b.day = b.today()
	return b
}

// WithClock overrides the clock that decides the current day.
func (b *BudgetTracker) WithClock(clock func() time.Time) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = clock
	b.day = b.today()
	return b
}

// WithStore attaches persistence and loads today's counter.
func (b *BudgetTracker) WithStore(ctx context.Context, store BudgetStore) *BudgetTracker {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.store = store
	key := b.key(b.day)
	val, err := store.Get(ctx, key)
	if err != nil {
		b.logger.Warn("Failed to load token budget", zap.String("key", key), zap.Error(err))
		return b
	}
	b.used = val
	b.logger.Info("Token budget loaded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.used),
		zap.Int64("daily_limit", b.limit),
	)
	return b
}

// Check reports whether a new provider call is allowed.
func (b *BudgetTracker) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	if b.limit == 0 || b.used < b.limit {
		return nil
	}
	if b.action == BudgetActionReject {
		return fmt.Errorf("daily limit %d reached: %w", b.limit, domain.ErrEmbeddingQuotaExceeded)
	}
	b.logger.Warn("Token budget exceeded",
		zap.String("provider", b.provider),
		zap.Int64("daily_used", b.used),
		zap.Int64("daily_limit", b.limit),
	)
	return nil
}

// Record adds consumed tokens.
func (b *BudgetTracker) Record(ctx context.Context, tokens int64) {
	b.mu.Lock()
	b.rollover()
	b.used += tokens
	store, key := b.store, b.key(b.day)
	b.mu.Unlock()

	if store == nil {
		return
	}
	// Detached so a canceled request still counts its tokens.
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := store.IncrBy(wctx, key, tokens); err != nil {
		b.logger.Warn("Failed to persist token budget", zap.String("key", key), zap.Error(err))
	}
}

// Remaining returns tokens left today, -1 when unlimited.
func (b *BudgetTracker) Remaining() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.rollover()
	if b.limit == 0 {
		return -1
	}
	return max(b.limit-b.used, 0)
}

// Provider returns the provider the budget applies to.
func (b *BudgetTracker) Provider() string { return b.provider }

// Limit returns the daily token cap, 0 when unlimited.
func (b *BudgetTracker) Limit() int64 { return b.limit }

// Used returns tokens consumed today.
func (b *BudgetTracker) Used() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.used
}

func (b *BudgetTracker) key(day time.Time) string {
	return fmt.Sprintf("%sbudget:%s:daily:%s", domain.KeyPrefix, b.provider, day.Format("2006-01-02"))
}

func (b *BudgetTracker) today() time.Time {
	t := b.clock().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// rollover zeroes the counter when the UTC day changes. Caller holds mu.
func (b *BudgetTracker) rollover() {
	if d := b.today(); d.After(b.day) {
		b.used = 0
		b.day = d
	}
}
