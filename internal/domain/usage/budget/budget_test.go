package budget

import (
	"testing"
	"time"
)

var midnight = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

func TestNew(t *testing.T) {
	b := New(1000000, 615800, midnight)
	if b.TokensLimit() != 1000000 {
		t.Errorf("TokensLimit() = %d", b.TokensLimit())
	}
	if b.TokensRemaining() != 615800 {
		t.Errorf("TokensRemaining() = %d", b.TokensRemaining())
	}
	if b.IsExhausted() || b.Unlimited() {
		t.Errorf("budget = %+v", b)
	}
	if !b.ResetsAt().Equal(midnight) {
		t.Errorf("ResetsAt() = %v", b.ResetsAt())
	}
}

func TestNew_Exhausted(t *testing.T) {
	b := New(1000, -20, midnight)
	if !b.IsExhausted() {
		t.Error("IsExhausted() = false, want true")
	}
	if b.TokensRemaining() != 0 {
		t.Errorf("TokensRemaining() = %d", b.TokensRemaining())
	}
}

func TestNew_Unlimited(t *testing.T) {
	b := New(0, -1, midnight)
	if !b.Unlimited() || b.IsExhausted() {
		t.Errorf("budget = %+v", b)
	}
	if b.TokensRemaining() != 0 {
		t.Errorf("TokensRemaining() = %d", b.TokensRemaining())
	}
}
