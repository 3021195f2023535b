package decayscope

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	dbRedis "github.com/kailas-cloud/decayscope/internal/db/redis"
	"github.com/kailas-cloud/decayscope/internal/domain"
	dombatch "github.com/kailas-cloud/decayscope/internal/domain/batch"
	"github.com/kailas-cloud/decayscope/internal/domain/document"
	"github.com/kailas-cloud/decayscope/internal/domain/policy"
	"github.com/kailas-cloud/decayscope/internal/domain/review"
	"github.com/kailas-cloud/decayscope/internal/domain/vector"
	"github.com/kailas-cloud/decayscope/internal/domain/verdict"
	analysisrepo "github.com/kailas-cloud/decayscope/internal/repository/analysis"
	budgetrepo "github.com/kailas-cloud/decayscope/internal/repository/budget"
	analysisuc "github.com/kailas-cloud/decayscope/internal/usecase/analysis"
	audituc "github.com/kailas-cloud/decayscope/internal/usecase/audit"
	embeddinguc "github.com/kailas-cloud/decayscope/internal/usecase/embedding"
	healthuc "github.com/kailas-cloud/decayscope/internal/usecase/health"
	usageuc "github.com/kailas-cloud/decayscope/internal/usecase/usage"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	sdkProvider             = "sdk"
)

// Internal interfaces, swapped for mocks in tests.
type analysisUseCase interface {
	Analyze(ctx context.Context, in analysisuc.Input) (verdict.Outcome, error)
	BatchAnalyze(ctx context.Context, items []analysisuc.Item, pool []document.Snapshot, now time.Time) []dombatch.Result
}

type auditUseCase interface {
	Record(ctx context.Context, documentID, workspaceID string, out verdict.Outcome) (review.Record, error)
	Get(ctx context.Context, id string) (review.Record, error)
	Latest(ctx context.Context, documentID string) (review.Record, error)
	History(ctx context.Context, documentID string, limit int) ([]review.Record, error)
	Review(ctx context.Context, id, status string) (review.Record, error)
}

// Client is the decayscope SDK entry point.
type Client struct {
	store       *dbRedis.Store
	analysisSvc analysisUseCase
	auditSvc    auditUseCase
	healthSvc   healthUseCase
	usageSvc    usageUseCase
	obs         *observer
}

// New creates a Client and connects to Redis.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("decayscope: database address required (use WithRedis)")
	}

	p, err := buildPolicy(cfg)
	if err != nil {
		return nil, err
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:      cfg.addrs,
		Password:   cfg.password,
		ClientName: "decayscope-sdk",
	})
	if err != nil {
		return nil, fmt.Errorf("decayscope: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("decayscope: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg, p, obs), nil
}

func buildPolicy(cfg *clientConfig) (policy.Policy, error) {
	p := policy.Default()
	if cfg.relatedThreshold > 0 {
		p.RelatedThreshold = cfg.relatedThreshold
	}
	for t, w := range cfg.windows {
		p = p.WithWindow(document.ParseType(t), policy.Window{
			WarningDays:  w.warningDays,
			CriticalDays: w.criticalDays,
		})
	}
	if err := p.Validate(); err != nil {
		return policy.Policy{}, fmt.Errorf("decayscope: %w", err)
	}
	return p, nil
}

func wireClient(
	ctx context.Context, store *dbRedis.Store, cfg *clientConfig, p policy.Policy, obs *observer,
) *Client {
	// Budget tracking is always on so Usage reports tokens; the limit may be zero.
	budget := embeddinguc.NewBudgetTracker(
		sdkProvider, cfg.dailyTokenLimit, embeddinguc.BudgetActionReject, zap.NewNop(),
	).WithStore(ctx, budgetrepo.New(store, 48*time.Hour))

	var (
		embedder domain.Embedder
		checker  healthuc.EmbeddingChecker
		reader   usageuc.BudgetReader
	)
	if cfg.embedder != nil {
		embedder = embeddinguc.NewInstrumentedEmbedder(
			&embedderAdapter{inner: cfg.embedder}, sdkProvider, "", nil, budget, zap.NewNop(),
		)
		if hc, ok := cfg.embedder.(HealthChecker); ok {
			checker = hc
		}
		reader = budget
	}

	analysisSvc := analysisuc.New(p, embedder)
	if cfg.maxConcurrency > 0 {
		analysisSvc = analysisSvc.WithMaxConcurrency(cfg.maxConcurrency)
	}
	if cfg.maxPeerEmbeds != nil {
		analysisSvc = analysisSvc.WithMaxPeerEmbeds(*cfg.maxPeerEmbeds)
	}

	repo := analysisrepo.New(store)
	if cfg.historyLimit > 0 {
		repo = repo.WithHistoryLimit(cfg.historyLimit)
	}

	return &Client{
		store:       store,
		analysisSvc: analysisSvc,
		auditSvc:    audituc.New(repo),
		healthSvc:   healthuc.New(store, checker),
		usageSvc:    usageuc.New(reader),
		obs:         obs,
	}
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe("ping", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// embedderAdapter wraps public Embedder to satisfy internal domain.Embedder.
type embedderAdapter struct {
	inner Embedder
}

func (a *embedderAdapter) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	r, err := a.inner.Embed(ctx, text)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}
	return domain.EmbeddingResult{
		Vector:       vector.DenseFromFloat32(r.Embedding),
		PromptTokens: r.PromptTokens,
		TotalTokens:  r.TotalTokens,
	}, nil
}
