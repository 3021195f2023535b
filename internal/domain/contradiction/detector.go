// Package contradiction finds factual conflicts between a document and newer or more
// authoritative related documents.
package contradiction

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Severity grades a contradiction.
type Severity string

// Severity values.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

const excerptLength = 60

// Finding is one conflicting statement pair.
type Finding struct {
	RelatedID        string
	RelatedLabel     string
	Rule             string
	Severity         Severity
	Similarity       float64
	SubjectStatement string
	RelatedStatement string
}

// Result is the outcome of contradiction detection.
type Result struct {
	Findings []Finding
	Penalty  float64
}

// Has reports whether any contradiction was found.
func (r Result) Has() bool { return len(r.Findings) > 0 }

// Detector compares key statements pairwise using declarative rule tables.
type Detector struct {
	policy    policy.Policy
	negations []NegationRule
	units     []UnitRule
}

// NewDetector creates a detector with the stock rule tables.
func NewDetector(p policy.Policy) *Detector {
	return &Detector{policy: p, negations: DefaultNegationRules(), units: DefaultUnitRules()}
}

// WithRules replaces the rule tables.
func (d *Detector) WithRules(negations []NegationRule, units []UnitRule) *Detector {
	d.negations = negations
	d.units = units
	return d
}

// Eligible reports whether related can contradict subject: it must be newer or
// rank higher in authority.
func Eligible(subject, related document.Snapshot) bool {
	if related.UpdatedAt().After(subject.UpdatedAt()) {
		return true
	}
	return document.AuthorityRank(related.Type()) > document.AuthorityRank(subject.Type())
}

// Detect compares every key statement of subject with every key statement of each
// eligible related document, in order.
func (d *Detector) Detect(subject document.Snapshot, related []document.Related) Result {
	cfg := d.policy.Contradiction
	subjectStmts := KeyStatements(subject.Content(), cfg.MinStatementLength)
	if len(subjectStmts) == 0 {
		return Result{}
	}

	var res Result
	for _, rel := range related {
		doc := rel.Document
		if doc.ID() == subject.ID() || !Eligible(subject, doc) {
			continue
		}
		relStmts := KeyStatements(doc.Content(), cfg.MinStatementLength)
		for _, a := range subjectStmts {
			for _, b := range relStmts {
				if f, ok := d.compare(a, b); ok {
					f.RelatedID = doc.ID()
					f.RelatedLabel = doc.Label()
					res.Findings = append(res.Findings, f)
				}
			}
		}
	}

	var high, medium int
	for _, f := range res.Findings {
		if f.Severity == SeverityHigh {
			high++
		} else {
			medium++
		}
	}
	res.Penalty = math.Min(cfg.Cap, float64(high)*cfg.HighWeight+float64(medium)*cfg.MediumWeight)
	return res
}

// compare runs the negation rules, then the numeric rule when no negation flagged.
func (d *Detector) compare(a, b string) (Finding, bool) {
	cfg := d.policy.Contradiction

	for _, rule := range d.negations {
		if !rule.Opposes(a, b) {
			continue
		}
		sim := vector.TextSimilarity(a, b)
		if sim > cfg.NegationThreshold {
			return d.finding(rule.Name, sim, a, b), true
		}
		// Every rule scores the same full-statement similarity.
		break
	}

	if _, _, _, ok := Conflict(Quantities(d.units, a), Quantities(d.units, b)); ok {
		sim := vector.TextSimilarity(StripNumbers(a), StripNumbers(b))
		if sim > cfg.NumericThreshold {
			return d.finding("numeric", sim, a, b), true
		}
	}
	return Finding{}, false
}

func (d *Detector) finding(rule string, sim float64, a, b string) Finding {
	sev := SeverityMedium
	if sim > d.policy.Contradiction.HighSeverityThreshold {
		sev = SeverityHigh
	}
	return Finding{
		Rule:             rule,
		Severity:         sev,
		Similarity:       sim,
		SubjectStatement: a,
		RelatedStatement: b,
	}
}

// Reasons returns one contradiction reason per finding, in discovery order.
func (r Result) Reasons() []verdict.Reason {
	reasons := make([]verdict.Reason, 0, len(r.Findings))
	for _, f := range r.Findings {
		reasons = append(reasons, verdict.Reason{
			Type: verdict.ReasonContradiction,
			Description: fmt.Sprintf("Conflicts with %q (%s severity, %s rule): %q vs %q",
				f.RelatedLabel, f.Severity, f.Rule,
				excerpt(f.SubjectStatement, excerptLength), excerpt(f.RelatedStatement, excerptLength)),
			Sources: []string{f.RelatedID},
		})
	}
	return reasons
}

// Audit returns the raw contradiction list for the audit block.
func (r Result) Audit() []verdict.Contradiction {
	out := make([]verdict.Contradiction, 0, len(r.Findings))
	for _, f := range r.Findings {
		out = append(out, verdict.Contradiction{
			RelatedID:        f.RelatedID,
			Rule:             f.Rule,
			Severity:         string(f.Severity),
			Similarity:       f.Similarity,
			SubjectStatement: f.SubjectStatement,
			RelatedStatement: f.RelatedStatement,
		})
	}
	return out
}
