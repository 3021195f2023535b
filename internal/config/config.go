// Package config loads the per-environment YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
)

// Embedding providers.
const (
	ProviderOpenAI  = "openai"
	ProviderLexical = "lexical"
)

// Config holds the decayscope configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds Redis connection settings for the audit store and caches.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	HistoryLimit     int      `yaml:"history_limit"`
}

// EmbeddingConfig holds the hosted provider settings. Disabled means lexical vectors only.
type EmbeddingConfig struct {
	Enabled           bool         `yaml:"enabled"`
	Provider          string       `yaml:"provider"`
	APIKey            string       `yaml:"api_key"`
	BaseURL           string       `yaml:"base_url"`
	Model             string       `yaml:"model"`
	Dimensions        int          `yaml:"dimensions"`
	Instruction       string       `yaml:"instruction"`
	TimeoutMS         int          `yaml:"timeout_ms"`
	RequestsPerSecond float64      `yaml:"requests_per_second"` // 0 = unthrottled
	Burst             int          `yaml:"burst"`
	CacheTTLHours     int          `yaml:"cache_ttl_hours"`
	Budget            BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit int64  `yaml:"daily_token_limit"` // 0 = unlimited
	Action          string `yaml:"action"`            // "reject" | "warn" (default)
}

// AnalysisConfig holds scoring thresholds. Zero values keep the stock policy.
type AnalysisConfig struct {
	RelatedThreshold float64                 `yaml:"related_threshold"`
	MaxConcurrency   int                     `yaml:"max_concurrency"`
	MaxBatchSize     int                     `yaml:"max_batch_size"`
	MaxPeerEmbeds    *int                    `yaml:"max_peer_embeds"` // nil = default, 0 = off
	Penalties        PenaltyConfig           `yaml:"penalties"`
	Freshness        map[string]WindowConfig `yaml:"freshness"`
}

// PenaltyConfig overrides the per-signal penalty caps. An omitted cap keeps the stock
// value; an explicit 0 switches the signal's penalty off.
type PenaltyConfig struct {
	MaxAge           *float64 `yaml:"max_age"`
	MaxContradiction *float64 `yaml:"max_contradiction"`
	MaxDrift         *float64 `yaml:"max_drift"`
	MaxSupport       *float64 `yaml:"max_support"`
}

// WindowConfig is a freshness window for one document type.
type WindowConfig struct {
	WarningDays  int `yaml:"warning_days"`
	CriticalDays int `yaml:"critical_days"`
}

// Policy builds the immutable scoring policy from the stock defaults and overrides.
func (a AnalysisConfig) Policy() (policy.Policy, error) {
	p := policy.Default()
	if a.RelatedThreshold > 0 {
		p.RelatedThreshold = a.RelatedThreshold
	}
	if v := a.Penalties.MaxAge; v != nil {
		p.Freshness.MaxPenalty = *v
		p.Freshness.FloorPenalty = min(p.Freshness.FloorPenalty, *v)
	}
	if v := a.Penalties.MaxContradiction; v != nil {
		p.Contradiction.Cap = *v
	}
	if v := a.Penalties.MaxDrift; v != nil {
		p.Drift.Cap = *v
		p.Drift.SignificantPenalty = min(p.Drift.SignificantPenalty, *v)
		p.Drift.ModeratePenalty = min(p.Drift.ModeratePenalty, *v)
	}
	if v := a.Penalties.MaxSupport; v != nil {
		p.Support.Cap = *v
	}
	for name, w := range a.Freshness {
		p = p.WithWindow(document.ParseType(name), policy.Window{
			WarningDays:  w.WarningDays,
			CriticalDays: w.CriticalDays,
		})
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, fmt.Errorf("analysis policy: %w", err)
	}
	return p, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands environment variables in data, decodes it and validates the result.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 16 << 20
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.HistoryLimit <= 0 {
		c.Database.HistoryLimit = 50
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOpenAI
	}
	if c.Embedding.TimeoutMS <= 0 {
		c.Embedding.TimeoutMS = 5000
	}
	if c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 24 * 7
	}
	if c.Analysis.MaxConcurrency <= 0 {
		c.Analysis.MaxConcurrency = 4
	}
	if c.Analysis.MaxBatchSize <= 0 {
		c.Analysis.MaxBatchSize = 100
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return errors.New("database.addrs is required")
	}
	if c.Embedding.Enabled {
		switch c.Embedding.Provider {
		case ProviderOpenAI, ProviderLexical:
		default:
			return fmt.Errorf(`embedding.provider must be "openai" or "lexical", got %q`, c.Embedding.Provider)
		}
		if c.Embedding.Provider == ProviderOpenAI && c.Embedding.Model == "" {
			return errors.New("embedding.model is required when embedding is enabled")
		}
		if c.Embedding.RequestsPerSecond < 0 {
			return fmt.Errorf("embedding.requests_per_second must be >= 0, got %v", c.Embedding.RequestsPerSecond)
		}
	}
	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
	default:
		return fmt.Errorf(`embedding.budget.action must be "warn" or "reject", got %q`, c.Embedding.Budget.Action)
	}
	for name, w := range c.Analysis.Freshness {
		if w.WarningDays < 0 || w.CriticalDays <= w.WarningDays {
			return fmt.Errorf("analysis.freshness.%s: need 0 <= warning_days < critical_days, got %d/%d",
				name, w.WarningDays, w.CriticalDays)
		}
	}
	if n := c.Analysis.MaxPeerEmbeds; n != nil && *n < 0 {
		return fmt.Errorf("analysis.max_peer_embeds must be >= 0, got %d", *n)
	}
	if _, err := c.Analysis.Policy(); err != nil {
		return err
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
