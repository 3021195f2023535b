package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/decayscope/internal/db"
	"github.com/kailas-cloud/decayscope/internal/domain"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
)

var cacheKeyPrefix = domain.KeyPrefix + "emb_cache:"

// Encoded vector tags.
const (
	tagDense  byte = 'd'
	tagSparse byte = 's'
)

// store is the consumer interface for the embedding cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder caches provider vectors in a key-value store, keyed by model and text hash.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Embedder,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Embed returns a cached vector or calls the inner embedder.
// A cache hit reports zero tokens since nothing was billed.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.EmbeddingResult{Vector: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed text: %w", err)
	}

	c.putToCache(ctx, key, result.Vector)
	return result, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedEmbedder) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + c.model + ":" + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) (vector.Vector, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	vec, err := decode(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return vec, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, vec vector.Vector) {
	data, err := encode(vec)
	if err != nil {
		c.logger.Warn("Failed to encode embedding", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}

// encode writes a one-byte shape tag followed by the payload: little-endian float64s
// for dense vectors, a JSON object for sparse ones.
func encode(v vector.Vector) ([]byte, error) {
	switch vec := v.(type) {
	case vector.Dense:
		buf := make([]byte, 1+len(vec)*8)
		buf[0] = tagDense
		for i, f := range vec {
			binary.LittleEndian.PutUint64(buf[1+i*8:], math.Float64bits(f))
		}
		return buf, nil
	case vector.Sparse:
		payload, err := json.Marshal(map[string]float64(vec))
		if err != nil {
			return nil, fmt.Errorf("marshal sparse vector: %w", err)
		}
		return append([]byte{tagSparse}, payload...), nil
	default:
		return nil, fmt.Errorf("unsupported vector type %T", v)
	}
}

func decode(data []byte) (vector.Vector, error) {
	if len(data) == 0 {
		return nil, errors.New("empty cache entry")
	}
	payload := data[1:]
	switch data[0] {
	case tagDense:
		if len(payload)%8 != 0 {
			return nil, fmt.Errorf("invalid dense cache data: len=%d (not multiple of 8)", len(payload))
		}
		vec := make(vector.Dense, len(payload)/8)
		for i := range vec {
			vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
		}
		return vec, nil
	case tagSparse:
		var m map[string]float64
		if err := json.Unmarshal(payload, &m); err != nil {
			return nil, fmt.Errorf("unmarshal sparse vector: %w", err)
		}
		return vector.Sparse(m), nil
	default:
		return nil, fmt.Errorf("unknown cache tag %q", data[0])
	}
}
