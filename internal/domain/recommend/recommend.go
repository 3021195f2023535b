// Package recommend turns decay reasons into review suggestions and a change summary.
// Every suggestion is marked for human review; nothing here edits a document.
package recommend

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
)

// Prefixes label suggestion text.
const (
	PrefixReview   = "[REVIEW NEEDED]"
	PrefixConflict = "[CONFLICT DETECTED]"
)

// NoSignals is the summary for a document with nothing flagged.
const NoSignals = "No decay signals detected."

const reviewNotice = "All suggestions require human review before any change is applied."

// Labels resolves document ids to display titles.
type Labels map[string]string

func (l Labels) name(id string) string {
	if t, ok := l[id]; ok && t != "" {
		return t
	}
	return id
}

// Recommendations returns one suggestion per reason, in reason order. Error reasons
// carry no suggestion.
func Recommendations(reasons []verdict.Reason, labels Labels) []verdict.Recommendation {
	out := make([]verdict.Recommendation, 0, len(reasons))
	for _, r := range reasons {
		switch r.Type {
		case verdict.ReasonTime:
			out = append(out, verdict.Recommendation{
				Section: "Entire document",
				SuggestedText: fmt.Sprintf("%s Confirm the document still reflects current practice, "+
					"then update it or record a fresh verification. %s", PrefixReview, r.Description),
				Action:   "verify_or_update",
				Priority: verdict.PriorityMedium,
			})
		case verdict.ReasonContradiction:
			other := "a related document"
			if len(r.Sources) > 0 {
				other = labels.name(r.Sources[0])
			}
			out = append(out, verdict.Recommendation{
				Section: "Statements conflicting with " + other,
				SuggestedText: fmt.Sprintf("%s Reconcile this section with %s and keep whichever statement "+
					"is authoritative. %s", PrefixConflict, other, r.Description),
				Action:   "resolve_conflict",
				Priority: verdict.PriorityHigh,
			})
		case verdict.ReasonVersionDrift:
			out = append(out, verdict.Recommendation{
				Section: "Recently changed sections",
				SuggestedText: fmt.Sprintf("%s Confirm the recent edits were intended and that dependent "+
					"documents reflect them. %s", PrefixReview, r.Description),
				Action:   "confirm_changes",
				Priority: verdict.PriorityLow,
			})
		case verdict.ReasonLowSupport:
			out = append(out, verdict.Recommendation{
				Section: "References",
				SuggestedText: fmt.Sprintf("%s Link corroborating documents so this content can be "+
					"cross-checked. %s", PrefixReview, r.Description),
				Action:   "add_references",
				Priority: verdict.PriorityMedium,
			})
		}
	}
	return out
}

// Summary assembles the "what changed" prose from fixed clauses keyed to the reason
// types present, followed by the review notice.
func Summary(reasons []verdict.Reason, labels Labels) string {
	var hasTime, hasDrift, hasSupport bool
	var conflicting []string
	seen := map[string]struct{}{}

	for _, r := range reasons {
		switch r.Type {
		case verdict.ReasonTime:
			hasTime = true
		case verdict.ReasonVersionDrift:
			hasDrift = true
		case verdict.ReasonLowSupport:
			hasSupport = true
		case verdict.ReasonContradiction:
			for _, id := range r.Sources {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				conflicting = append(conflicting, labels.name(id))
			}
		}
	}

	var clauses []string
	if hasTime {
		clauses = append(clauses, "The document has not been verified within its freshness window.")
	}
	if len(conflicting) > 0 {
		clauses = append(clauses, fmt.Sprintf("It conflicts with newer or more authoritative documents: %s.",
			strings.Join(conflicting, ", ")))
	}
	if hasDrift {
		clauses = append(clauses, "Its content has drifted materially from earlier versions.")
	}
	if hasSupport {
		clauses = append(clauses, "Few related documents corroborate its content.")
	}
	if len(clauses) == 0 {
		return NoSignals
	}
	clauses = append(clauses, reviewNotice)
	return strings.Join(clauses, " ")
}
