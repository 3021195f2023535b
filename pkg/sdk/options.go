package decayscope

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type window struct {
	warningDays  int
	criticalDays int
}

type clientConfig struct {
	addrs    []string
	password string

	embedder        Embedder
	dailyTokenLimit int64

	relatedThreshold float64
	windows          map[string]window
	maxConcurrency   int
	historyLimit     int
	maxPeerEmbeds    *int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithRedis configures the client to connect to a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithEmbedder sets the text embedding provider.
// Provider failures degrade to lexical vectors instead of failing the analysis.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithDailyTokenLimit caps embedding tokens per UTC day. Past the cap the
// analysis uses lexical vectors. Default: unlimited.
func WithDailyTokenLimit(tokens int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.dailyTokenLimit = tokens
	})
}

// WithRelatedThreshold sets the minimum similarity for a pool candidate to count
// as related. Default: 0.3.
func WithRelatedThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.relatedThreshold = t
	})
}

// WithFreshnessWindow overrides the freshness window of a document type.
func WithFreshnessWindow(docType string, warningDays, criticalDays int) Option {
	return optionFunc(func(c *clientConfig) {
		if c.windows == nil {
			c.windows = make(map[string]window)
		}
		c.windows[docType] = window{warningDays: warningDays, criticalDays: criticalDays}
	})
}

// WithMaxConcurrency sets how many batch items are analyzed in parallel.
// Default: 4.
func WithMaxConcurrency(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxConcurrency = n
	})
}

// WithMaxPeerEmbeds bounds how many candidates and prior versions without a stored
// vector are embedded per analysis, so they compare in the embedder's space.
// Zero disables it. Default: 32.
func WithMaxPeerEmbeds(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxPeerEmbeds = &n
	})
}

// WithHistoryLimit caps the stored analysis history per document.
// Default: 50.
func WithHistoryLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.historyLimit = n
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
