package contradiction

import (
	"regexp"
	"sort"
	"strconv"
)

// Polarity is the side of a negation rule a statement falls on.
type Polarity int

// Polarity values.
const (
	PolarityNone Polarity = iota
	PolarityPositive
	PolarityNegative
)

// NegationRule pairs an assertion with its opposite. A statement is negative when
// Negative matches, otherwise positive when Positive matches.
type NegationRule struct {
	Name     string
	Positive *regexp.Regexp
	Negative *regexp.Regexp
}

// Polarity classifies stmt against the rule.
func (r NegationRule) Polarity(stmt string) Polarity {
	switch {
	case r.Negative.MatchString(stmt):
		return PolarityNegative
	case r.Positive.MatchString(stmt):
		return PolarityPositive
	default:
		return PolarityNone
	}
}

// Opposes reports whether a and b fall on opposite sides of the rule.
func (r NegationRule) Opposes(a, b string) bool {
	pa, pb := r.Polarity(a), r.Polarity(b)
	return pa != PolarityNone && pb != PolarityNone && pa != pb
}

// DefaultNegationRules returns the stock opposite-polarity table.
func DefaultNegationRules() []NegationRule {
	return []NegationRule{
		{
			Name:     "obligation",
			Positive: regexp.MustCompile(`(?i)\b(must|shall)\b`),
			Negative: regexp.MustCompile(`(?i)\b(must not|mustn't|shall not|should not|shouldn't|need not|do not need to)\b`),
		},
		{
			Name:     "frequency",
			Positive: regexp.MustCompile(`(?i)\balways\b`),
			Negative: regexp.MustCompile(`(?i)\bnever\b`),
		},
		{
			Name:     "requirement",
			Positive: regexp.MustCompile(`(?i)\b(required|mandatory)\b`),
			Negative: regexp.MustCompile(`(?i)\b(optional|not required|not mandatory)\b`),
		},
		{
			Name:     "toggle",
			Positive: regexp.MustCompile(`(?i)\b(enable|enabled|enabling)\b`),
			Negative: regexp.MustCompile(`(?i)\b(disable|disabled|disabling)\b`),
		},
		{
			Name:     "permission",
			Positive: regexp.MustCompile(`(?i)\b(allowed|permitted)\b`),
			Negative: regexp.MustCompile(`(?i)\b(not allowed|not permitted|forbidden|prohibited)\b`),
		},
	}
}

// UnitRule extracts quantities of one unit. Pattern's first capture group is the value.
type UnitRule struct {
	Unit    string
	Pattern *regexp.Regexp
}

// DefaultUnitRules returns the stock unit table. Singular and plural forms normalize to one unit.
func DefaultUnitRules() []UnitRule {
	return []UnitRule{
		{Unit: "day", Pattern: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*days?\b`)},
		{Unit: "hour", Pattern: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*hours?\b`)},
		{Unit: "minute", Pattern: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*minutes?\b`)},
		{Unit: "week", Pattern: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*weeks?\b`)},
		{Unit: "percent", Pattern: regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:%|percent\b)`)},
	}
}

// Quantity is a numeric value with its normalized unit.
type Quantity struct {
	Unit  string
	Value float64
	pos   int
}

// Quantities returns the first quantity of each unit in stmt, in order of appearance.
func Quantities(units []UnitRule, stmt string) []Quantity {
	var out []Quantity
	for _, u := range units {
		m := u.Pattern.FindStringSubmatchIndex(stmt)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(stmt[m[2]:m[3]], 64)
		if err != nil {
			continue
		}
		out = append(out, Quantity{Unit: u.Unit, Value: v, pos: m[0]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].pos < out[j].pos })
	return out
}

// Conflict returns the first unit (in a's order) that both statements quantify with
// different values.
func Conflict(a, b []Quantity) (unit string, va, vb float64, ok bool) {
	byUnit := make(map[string]float64, len(b))
	for _, q := range b {
		byUnit[q.Unit] = q.Value
	}
	for _, q := range a {
		if v, shared := byUnit[q.Unit]; shared && v != q.Value {
			return q.Unit, q.Value, v, true
		}
	}
	return "", 0, 0, false
}

var numberToken = regexp.MustCompile(`\d+(?:\.\d+)?`)

// StripNumbers removes numeric tokens so statements can be compared on wording alone.
func StripNumbers(stmt string) string {
	return numberToken.ReplaceAllString(stmt, "")
}
