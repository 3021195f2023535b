package embcache

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/decayscope/internal/db"
	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
)

func TestEmbed_CacheMiss(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{
		Vector:       vector.Dense{0.1, 0.2, 0.3},
		PromptTokens: 10,
		TotalTokens:  10,
	}}
	ce, ms := newTestCachedEmbedder(t, inner)

	var setKey string
	var setTTL time.Duration
	ms.setFn = func(_ context.Context, key string, _ []byte, ttl time.Duration) error {
		setKey, setTTL = key, ttl
		return nil
	}

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Vector.Len() != 3 {
		t.Fatalf("unexpected vector: %v", result.Vector)
	}
	if result.TotalTokens != 10 {
		t.Fatalf("expected TotalTokens=10, got %d", result.TotalTokens)
	}
	if !strings.HasPrefix(setKey, "decayscope:emb_cache:text-embedding-3-small:") {
		t.Errorf("cache key = %q", setKey)
	}
	if setTTL != time.Hour {
		t.Errorf("ttl = %v", setTTL)
	}
}

func TestEmbed_CacheHit(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: vector.Dense{0.1}}}
	ce, ms := newTestCachedEmbedder(t, inner)

	cached, err := encode(vector.Dense{0.4, 0.5, 0.6})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return cached, nil }

	result, err := ce.Embed(context.Background(), "test text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(result.Vector, vector.Dense{0.4, 0.5, 0.6}) {
		t.Fatalf("expected cached vector, got: %v", result.Vector)
	}
	if result.TotalTokens != 0 {
		t.Fatalf("expected TotalTokens=0 on cache hit, got %d", result.TotalTokens)
	}
	if inner.calls != 0 {
		t.Errorf("inner called %d times on hit", inner.calls)
	}
}

func TestEmbed_CorruptEntryFallsThrough(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: vector.Dense{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return []byte{'d', 1, 2}, nil }

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Errorf("corrupt entry should be treated as miss, inner calls = %d", inner.calls)
	}
}

func TestEmbed_StoreErrorsAreNotFatal(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: vector.Dense{1}}}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, errors.New("conn refused") }
	ms.setFn = func(_ context.Context, _ string, _ []byte, _ time.Duration) error { return errors.New("conn refused") }

	if _, err := ce.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("cache failures must not fail the embed: %v", err)
	}
}

func TestEmbed_InnerError(t *testing.T) {
	inner := &mockEmbedder{err: errors.New("provider down")}
	ce, ms := newTestCachedEmbedder(t, inner)
	ms.getFn = func(_ context.Context, _ string) ([]byte, error) { return nil, db.ErrKeyNotFound }

	if _, err := ce.Embed(context.Background(), "test text"); err == nil {
		t.Fatal("expected error from inner embedder")
	}
}

func TestEmbed_CountsHitsAndMisses(t *testing.T) {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"result"})
	inner := &mockEmbedder{result: domain.EmbeddingResult{Vector: vector.Dense{1}}}
	ms := &mockKVStore{}
	ce := New(inner, ms, "m", time.Hour, counter, zap.NewNop())

	_, _ = ce.Embed(context.Background(), "a")
	if got := testutil.ToFloat64(counter.WithLabelValues("miss")); got != 1 {
		t.Errorf("miss = %v", got)
	}
}

func TestCodec_RoundTripsBothShapes(t *testing.T) {
	for _, v := range []vector.Vector{
		vector.Dense{0.25, -1.5, 3},
		vector.Sparse{"deploy": 0.5, "rollback": 0.25},
		vector.Dense{},
	} {
		data, err := encode(v)
		if err != nil {
			t.Fatalf("encode(%v): %v", v, err)
		}
		got, err := decode(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.Kind() != v.Kind() || got.Len() != v.Len() {
			t.Errorf("round trip %v -> %v", v, got)
		}
		if sim, ok := vector.Similarity(v, got); v.Len() > 0 && (!ok || sim != 1) {
			t.Errorf("round trip changed vector: sim=%v ok=%v", sim, ok)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, data := range [][]byte{nil, {'x', 1}, {'s', '{'}} {
		if _, err := decode(data); err == nil {
			t.Errorf("decode(%q) should fail", data)
		}
	}
}
