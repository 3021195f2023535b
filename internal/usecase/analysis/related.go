package analysis

import (
	"sort"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
)

// FindRelated returns the candidates in the subject's workspace whose similarity to the
// subject is at least the policy threshold, most similar first. Ties sort by id.
func (s *Service) FindRelated(subject document.Snapshot, pool []document.Snapshot) []document.Related {
	return findRelated(subject, pool, s.policy.RelatedThreshold)
}

func findRelated(subject document.Snapshot, pool []document.Snapshot, threshold float64) []document.Related {
	out := make([]document.Related, 0, len(pool))
	for _, c := range pool {
		if c.ID() == subject.ID() || c.WorkspaceID() != subject.WorkspaceID() {
			continue
		}
		sim := vector.Compare(subject.Content(), subject.Embedding(), c.Content(), c.Embedding())
		if sim < threshold {
			continue
		}
		out = append(out, document.Related{Document: c, Similarity: sim})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].Document.ID() < out[j].Document.ID()
	})
	return out
}
