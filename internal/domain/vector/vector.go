// Package vector implements the two embedding shapes the analysis pipeline accepts
// (sparse term weights and dense arrays) and the similarity math over them.
package vector

import (
	"math"
	"sort"
)

// Kind identifies the vector shape.
type Kind string

// Vector shapes.
const (
	KindSparse Kind = "sparse"
	KindDense  Kind = "dense"
)

// Vector is an embedding of either shape. Each variant owns its cosine computation;
// comparing across shapes reports ok=false instead of guessing.
type Vector interface {
	Kind() Kind
	// Len is the number of dimensions (terms for sparse vectors).
	Len() int
	// Cosine returns the raw cosine similarity to other and whether the shapes are comparable.
	Cosine(other Vector) (float64, bool)
}

// Sparse maps terms to weights. The union of keys is the comparison domain.
type Sparse map[string]float64

// Kind implements Vector.
func (s Sparse) Kind() Kind { return KindSparse }

// Len implements Vector.
func (s Sparse) Len() int { return len(s) }

// Cosine implements Vector.
func (s Sparse) Cosine(other Vector) (float64, bool) {
	o, ok := other.(Sparse)
	if !ok {
		return 0, false
	}
	if len(s) == 0 || len(o) == 0 {
		return 0, true
	}

	// Iterate the smaller map for the dot product; terms missing on one side contribute 0.
	small, large := s, o
	if len(large) < len(small) {
		small, large = large, small
	}
	var dot float64
	for _, term := range small.terms() {
		dot += small[term] * large[term]
	}
	denom := s.norm() * o.norm()
	if denom == 0 {
		return 0, true
	}
	return dot / denom, true
}

func (s Sparse) norm() float64 {
	var sum float64
	for _, k := range s.terms() {
		sum += s[k] * s[k]
	}
	return math.Sqrt(sum)
}

// terms returns the keys in sorted order so float summation is stable across runs.
func (s Sparse) terms() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dense is a fixed-length numeric embedding, typically from a hosted provider.
type Dense []float64

// Kind implements Vector.
func (d Dense) Kind() Kind { return KindDense }

// Len implements Vector.
func (d Dense) Len() int { return len(d) }

// Cosine implements Vector. Dense vectors of different lengths are not comparable.
func (d Dense) Cosine(other Vector) (float64, bool) {
	o, ok := other.(Dense)
	if !ok {
		return 0, false
	}
	if len(d) == 0 || len(o) == 0 {
		return 0, true
	}
	if len(d) != len(o) {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range d {
		dot += d[i] * o[i]
		normA += d[i] * d[i]
		normB += o[i] * o[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0, true
	}
	return dot / denom, true
}

// DenseFromFloat32 converts a provider embedding into a Dense vector.
func DenseFromFloat32(v []float32) Dense {
	if v == nil {
		return nil
	}
	d := make(Dense, len(v))
	for i, f := range v {
		d[i] = float64(f)
	}
	return d
}

// IsEmpty reports whether v is nil or has no dimensions.
func IsEmpty(v Vector) bool {
	return v == nil || v.Len() == 0
}

// Similarity returns the cosine similarity of a and b rounded to 3 decimals.
// Empty or zero-norm vectors yield 0. ok is false when the shapes cannot be compared.
func Similarity(a, b Vector) (float64, bool) {
	if a == nil || b == nil {
		return 0, true
	}
	c, ok := a.Cosine(b)
	if !ok {
		return 0, false
	}
	return Round(clamp01(c), 3), true
}

// Difference is the semantic difference 1 - similarity, rounded to 3 decimals.
func Difference(similarity float64) float64 {
	return Round(1-similarity, 3)
}

// Compatible reports whether a and b are both present and of a comparable shape.
func Compatible(a, b Vector) bool {
	if IsEmpty(a) || IsEmpty(b) {
		return false
	}
	_, ok := a.Cosine(b)
	return ok
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}
