// Package policy holds the thresholds and penalty caps shared by every detector.
// A Policy is built once at startup and passed by value; nothing mutates it afterwards.
package policy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
)

// Window is the (warning, critical) age pair in days for one document type.
type Window struct {
	WarningDays  int
	CriticalDays int
}

// Freshness configures the time-based penalty.
type Freshness struct {
	// MaxPenalty is applied at or past the critical age and caps the age penalty.
	MaxPenalty float64
	// FloorPenalty is applied at exactly the warning age.
	FloorPenalty float64
}

// Contradiction configures statement comparison and its penalty.
type Contradiction struct {
	Cap                   float64
	HighWeight            float64
	MediumWeight          float64
	MinStatementLength    int
	NegationThreshold     float64
	NumericThreshold      float64
	HighSeverityThreshold float64
}

// Drift configures version drift classification and its penalty.
type Drift struct {
	Cap                  float64
	ModerateThreshold    float64
	SignificantThreshold float64
	ModeratePenalty      float64
	SignificantPenalty   float64
}

// Support configures the corroboration penalty.
type Support struct {
	Cap float64
	// Corroboration is the related-document count at which the penalty reaches zero.
	Corroboration int
}

// Risk holds the confidence cut-offs for risk classification.
type Risk struct {
	HighBelow   float64
	MediumBelow float64
}

// Policy is the immutable configuration object passed to each detector.
type Policy struct {
	Freshness        Freshness
	Contradiction    Contradiction
	Drift            Drift
	Support          Support
	Risk             Risk
	RelatedThreshold float64

	windows map[document.Type]Window
}

// Default returns the stock thresholds.
func Default() Policy {
	return Policy{
		Freshness: Freshness{MaxPenalty: 0.3, FloorPenalty: 0.1},
		Contradiction: Contradiction{
			Cap:                   0.4,
			HighWeight:            0.15,
			MediumWeight:          0.08,
			MinStatementLength:    20,
			NegationThreshold:     0.3,
			NumericThreshold:      0.4,
			HighSeverityThreshold: 0.6,
		},
		Drift: Drift{
			Cap:                  0.2,
			ModerateThreshold:    0.25,
			SignificantThreshold: 0.4,
			ModeratePenalty:      0.1,
			SignificantPenalty:   0.2,
		},
		Support:          Support{Cap: 0.1, Corroboration: 3},
		Risk:             Risk{HighBelow: 0.4, MediumBelow: 0.7},
		RelatedThreshold: 0.3,
		windows: map[document.Type]Window{
			document.TypeSOP:    {WarningDays: 30, CriticalDays: 90},
			document.TypePolicy: {WarningDays: 90, CriticalDays: 180},
			document.TypeSpec:   {WarningDays: 60, CriticalDays: 120},
			document.TypeGuide:  {WarningDays: 90, CriticalDays: 180},
			document.TypeNotes:  {WarningDays: 180, CriticalDays: 365},
		},
	}
}

// WithWindow returns a copy with the window for t replaced.
func (p Policy) WithWindow(t document.Type, w Window) Policy {
	windows := make(map[document.Type]Window, len(p.windows)+1)
	for k, v := range p.windows {
		windows[k] = v
	}
	windows[t] = w
	p.windows = windows
	return p
}

// Window returns the freshness window for t. Types without a window get the most
// lenient one (largest critical age).
func (p Policy) Window(t document.Type) Window {
	if w, ok := p.windows[t]; ok {
		return w
	}
	return p.Lenient()
}

// Lenient returns the window with the largest critical age, ties broken by warning age.
func (p Policy) Lenient() Window {
	var best Window
	for _, w := range p.windows {
		if w.CriticalDays > best.CriticalDays ||
			(w.CriticalDays == best.CriticalDays && w.WarningDays > best.WarningDays) {
			best = w
		}
	}
	return best
}

// Types returns the document types that have an explicit window, sorted by name.
func (p Policy) Types() []document.Type {
	types := make([]document.Type, 0, len(p.windows))
	for t := range p.windows {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Validate checks that caps, thresholds and windows are coherent.
func (p Policy) Validate() error {
	var errs []error
	unit := func(name string, v float64) {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s must be in [0,1], got %v", name, v))
		}
	}

	unit("freshness.max_penalty", p.Freshness.MaxPenalty)
	unit("freshness.floor_penalty", p.Freshness.FloorPenalty)
	if p.Freshness.FloorPenalty > p.Freshness.MaxPenalty {
		errs = append(errs, errors.New("freshness.floor_penalty must not exceed freshness.max_penalty"))
	}

	unit("contradiction.cap", p.Contradiction.Cap)
	unit("contradiction.high_weight", p.Contradiction.HighWeight)
	unit("contradiction.medium_weight", p.Contradiction.MediumWeight)
	unit("contradiction.negation_threshold", p.Contradiction.NegationThreshold)
	unit("contradiction.numeric_threshold", p.Contradiction.NumericThreshold)
	unit("contradiction.high_severity_threshold", p.Contradiction.HighSeverityThreshold)
	if p.Contradiction.MinStatementLength < 0 {
		errs = append(errs, errors.New("contradiction.min_statement_length must be >= 0"))
	}

	unit("drift.cap", p.Drift.Cap)
	unit("drift.moderate_threshold", p.Drift.ModerateThreshold)
	unit("drift.significant_threshold", p.Drift.SignificantThreshold)
	unit("drift.moderate_penalty", p.Drift.ModeratePenalty)
	unit("drift.significant_penalty", p.Drift.SignificantPenalty)
	if p.Drift.ModerateThreshold > p.Drift.SignificantThreshold {
		errs = append(errs, errors.New("drift.moderate_threshold must not exceed drift.significant_threshold"))
	}

	unit("support.cap", p.Support.Cap)
	if p.Support.Corroboration < 1 {
		errs = append(errs, errors.New("support.corroboration must be >= 1"))
	}

	unit("risk.high_below", p.Risk.HighBelow)
	unit("risk.medium_below", p.Risk.MediumBelow)
	if p.Risk.HighBelow > p.Risk.MediumBelow {
		errs = append(errs, errors.New("risk.high_below must not exceed risk.medium_below"))
	}

	unit("related_threshold", p.RelatedThreshold)

	if len(p.windows) == 0 {
		errs = append(errs, errors.New("at least one freshness window is required"))
	}
	for _, t := range p.Types() {
		w := p.windows[t]
		if w.WarningDays < 0 || w.CriticalDays <= w.WarningDays {
			errs = append(errs, fmt.Errorf("freshness window for %s: need 0 <= warning < critical, got (%d, %d)",
				t, w.WarningDays, w.CriticalDays))
		}
	}

	return errors.Join(errs...)
}
