package config

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
)

func validConfig() Config {
	return Config{
		HTTP:     HTTPConfig{Port: 8080},
		Database: DatabaseConfig{Addrs: []string{"localhost:6379"}},
	}
}

func TestValidate_InvalidBudgetAction(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Budget = BudgetConfig{DailyTokenLimit: 1_000_000, Action: "invalid_action"}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid budget action")
	}
	expected := `embedding.budget.action must be "warn" or "reject", got "invalid_action"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_ValidBudgetActions(t *testing.T) {
	for _, action := range []string{"", "warn", "reject"} {
		t.Run("action="+action, func(t *testing.T) {
			cfg := validConfig()
			cfg.Embedding.Budget.Action = action
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for valid action %q: %v", action, err)
			}
		})
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Addrs = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing database.addrs")
	}
}

func TestValidate_EnabledEmbeddingNeedsModel(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Enabled = true
	cfg.Embedding.Provider = ProviderOpenAI
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding.model")
	}
	cfg.Embedding.Model = "text-embedding-3-small"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_EmbeddingProvider(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Enabled = true
	cfg.Embedding.Provider = ProviderLexical
	if err := cfg.Validate(); err != nil {
		t.Fatalf("lexical provider needs no model: %v", err)
	}
	cfg.Embedding.Provider = "cohere"
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "embedding.provider") {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestValidate_BadFreshnessWindow(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.Freshness = map[string]WindowConfig{"sop": {WarningDays: 90, CriticalDays: 30}}
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "analysis.freshness.sop") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate_PolicyOutOfRange(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.Penalties.MaxContradiction = ptr(1.5)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for penalty cap above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 || cfg.HTTP.WriteTimeoutSec != 30 || cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("http defaults = %+v", cfg.HTTP)
	}
	if cfg.Database.ReadinessTimeout != 10 || cfg.Database.HistoryLimit != 50 {
		t.Errorf("database defaults = %+v", cfg.Database)
	}
	if cfg.Embedding.TimeoutMS != 5000 || cfg.Embedding.Burst != 1 || cfg.Embedding.Provider != "openai" {
		t.Errorf("embedding defaults = %+v", cfg.Embedding)
	}
	if cfg.Analysis.MaxConcurrency != 4 || cfg.Analysis.MaxBatchSize != 100 {
		t.Errorf("analysis defaults = %+v", cfg.Analysis)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:     HTTPConfig{ReadTimeoutSec: 3},
		Analysis: AnalysisConfig{MaxConcurrency: 16},
	}
	cfg.ApplyDefaults()
	if cfg.HTTP.ReadTimeoutSec != 3 || cfg.Analysis.MaxConcurrency != 16 {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestAnalysisConfig_Policy(t *testing.T) {
	a := AnalysisConfig{
		RelatedThreshold: 0.45,
		Penalties:        PenaltyConfig{MaxAge: ptr(0.05), MaxDrift: ptr(0.15)},
		Freshness: map[string]WindowConfig{
			"sop":     {WarningDays: 7, CriticalDays: 14},
			"runbook": {WarningDays: 10, CriticalDays: 20},
		},
	}
	p, err := a.Policy()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.RelatedThreshold != 0.45 {
		t.Errorf("RelatedThreshold = %v", p.RelatedThreshold)
	}
	if p.Freshness.MaxPenalty != 0.05 || p.Freshness.FloorPenalty != 0.05 {
		t.Errorf("Freshness = %+v", p.Freshness)
	}
	if p.Drift.Cap != 0.15 || p.Drift.SignificantPenalty != 0.15 || p.Drift.ModeratePenalty != 0.1 {
		t.Errorf("Drift = %+v", p.Drift)
	}
	if w := p.Window(document.TypeSOP); w != (policy.Window{WarningDays: 7, CriticalDays: 14}) {
		t.Errorf("SOP window = %+v", w)
	}
	if w := p.Window(document.Type("runbook")); w.CriticalDays != 20 {
		t.Errorf("runbook window = %+v", w)
	}
	if p.Contradiction.Cap != policy.Default().Contradiction.Cap {
		t.Error("unset caps must keep the stock value")
	}
}

func TestAnalysisConfig_ZeroCapDisablesPenalty(t *testing.T) {
	data := []byte(`
http:
  port: 8080
database:
  addrs: ["localhost:6379"]
analysis:
  max_peer_embeds: 0
  penalties:
    max_age: 0
    max_support: 0
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p, err := cfg.Analysis.Policy()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Freshness.MaxPenalty != 0 || p.Freshness.FloorPenalty != 0 {
		t.Errorf("Freshness = %+v, want age penalty off", p.Freshness)
	}
	if p.Support.Cap != 0 {
		t.Errorf("Support.Cap = %v, want 0", p.Support.Cap)
	}
	def := policy.Default()
	if p.Contradiction.Cap != def.Contradiction.Cap || p.Drift.Cap != def.Drift.Cap {
		t.Error("omitted caps must keep the stock values")
	}
	if cfg.Analysis.MaxPeerEmbeds == nil || *cfg.Analysis.MaxPeerEmbeds != 0 {
		t.Errorf("MaxPeerEmbeds = %v, want explicit 0", cfg.Analysis.MaxPeerEmbeds)
	}
}

func TestValidate_NegativePeerEmbeds(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.MaxPeerEmbeds = ptr(-1)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative max_peer_embeds")
	}
}

func TestValidate_NegativeCap(t *testing.T) {
	cfg := validConfig()
	cfg.Analysis.Penalties.MaxDrift = ptr(-0.1)
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative penalty cap")
	}
}

func ptr[T any](v T) *T { return &v }

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("DECAYSCOPE_TEST_PORT", "9090")
	data := []byte(`
http:
  port: ${DECAYSCOPE_TEST_PORT}
database:
  addrs: ["${DECAYSCOPE_TEST_REDIS:-localhost:6379}"]
embedding:
  budget:
    action: reject
analysis:
  freshness:
    notes: {warning_days: 30, critical_days: 60}
`)
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("port = %d", cfg.HTTP.Port)
	}
	if cfg.Database.Addrs[0] != "localhost:6379" {
		t.Errorf("addrs = %v", cfg.Database.Addrs)
	}
	if cfg.Analysis.Freshness["notes"].CriticalDays != 60 {
		t.Errorf("freshness = %+v", cfg.Analysis.Freshness)
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Fatal("expected parse error")
	}
}
