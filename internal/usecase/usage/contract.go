package usage

// BudgetReader provides read-only access to the daily token budget.
type BudgetReader interface {
	Provider() string
	Limit() int64
	Used() int64
	Remaining() int64
}
