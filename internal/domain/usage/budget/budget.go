package budget

import "time"

// Budget is a snapshot of the daily embedding token budget.
type Budget struct {
	tokensLimit     int64
	tokensRemaining int64
	resetsAt        time.Time
}

// New creates a Budget snapshot. A zero limit means unlimited.
func New(limit, remaining int64, resetsAt time.Time) Budget {
	if limit <= 0 {
		limit, remaining = 0, 0
	}
	return Budget{
		tokensLimit:     limit,
		tokensRemaining: max(remaining, 0),
		resetsAt:        resetsAt.UTC(),
	}
}

// TokensLimit returns the token cap, 0 when unlimited.
func (b Budget) TokensLimit() int64 { return b.tokensLimit }

// TokensRemaining returns tokens left, 0 when unlimited.
func (b Budget) TokensRemaining() int64 { return b.tokensRemaining }

// Unlimited reports whether no cap is configured.
func (b Budget) Unlimited() bool { return b.tokensLimit == 0 }

// IsExhausted reports whether the budget is spent.
func (b Budget) IsExhausted() bool { return !b.Unlimited() && b.tokensRemaining == 0 }

// ResetsAt returns the next UTC midnight.
func (b Budget) ResetsAt() time.Time { return b.resetsAt }
