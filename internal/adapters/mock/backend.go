package mock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/ports"
	"github.com/mikey/site-categorizer/internal/utils"
	"go.uber.org/zap"
)

const (
	historyWindow      = 30 * 24 * time.Hour
	historySuccessRate = 0.9
)

// SimulatedBackend stands in for the categorization service. It owns its
// result cache and history store, injects latency and random failures, and
// generates a fixed history pool at construction.
type SimulatedBackend struct {
	cfg      config.MockConfig
	cacheTTL time.Duration
	cache    ports.CacheRepository
	history  ports.HistoryRepository
	clock    core.Clock
	logger   *zap.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option customizes a SimulatedBackend
type Option func(*SimulatedBackend)

// WithClock replaces the system clock
func WithClock(clock core.Clock) Option {
	return func(b *SimulatedBackend) {
		b.clock = clock
	}
}

// NewSimulatedBackend creates a simulated backend and seeds its history store
// with cfg.HistoryPoolSize generated records.
func NewSimulatedBackend(
	cfg config.MockConfig,
	cacheTTL time.Duration,
	cache ports.CacheRepository,
	history ports.HistoryRepository,
	logger *zap.Logger,
	opts ...Option,
) (*SimulatedBackend, error) {
	if cacheTTL <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %s", cacheTTL)
	}
	if cfg.CSVURLCount < 0 {
		return nil, fmt.Errorf("csv URL count must not be negative, got %d", cfg.CSVURLCount)
	}
	if cfg.HistoryPoolSize < 0 {
		return nil, fmt.Errorf("history pool size must not be negative, got %d", cfg.HistoryPoolSize)
	}

	seed := uint64(cfg.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}

	b := &SimulatedBackend{
		cfg:      cfg,
		cacheTTL: cacheTTL,
		cache:    cache,
		history:  history,
		clock:    core.SystemClock{},
		logger:   logger,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	for _, opt := range opts {
		opt(b)
	}

	if err := b.generateHistory(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to generate history pool: %w", err)
	}

	logger.Info("Simulated backend ready",
		zap.Int("history_pool_size", cfg.HistoryPoolSize),
		zap.Float64("failure_rate", cfg.FailureRate),
		zap.Float64("batch_failure_rate", cfg.BatchFailureRate),
		zap.Duration("cache_ttl", cacheTTL))

	return b, nil
}

// AnalyzeURL categorizes a single URL, serving live cache entries unless forced
func (b *SimulatedBackend) AnalyzeURL(ctx context.Context, url string, forceRefresh bool) (*core.AnalysisResult, error) {
	if err := utils.ValidateURL(url); err != nil {
		return nil, err
	}

	if !forceRefresh {
		if cached, ok := b.lookup(ctx, url); ok {
			return cached, nil
		}
	}

	if err := b.sleep(ctx, b.randomDelay(b.cfg.AnalyzeDelay)); err != nil {
		return nil, err
	}

	result := b.evaluate(ctx, url, b.cfg.FailureRate, analyzeFailureMessage)
	b.record(ctx, result, "")
	return result, nil
}

// AnalyzeBatch categorizes each URL independently, preserving input order
func (b *SimulatedBackend) AnalyzeBatch(ctx context.Context, urls []string, forceRefresh bool) (*core.BatchResult, error) {
	if err := utils.ValidateURLs(urls); err != nil {
		return nil, err
	}

	n := time.Duration(len(urls))
	delay := b.cfg.BatchItemDelay*n + b.randomDelay(config.DelayRange{Max: b.cfg.BatchItemJitter * n})
	if err := b.sleep(ctx, delay); err != nil {
		return nil, err
	}

	batchID := "batch_" + newHexID()
	results := make([]*core.AnalysisResult, 0, len(urls))
	for _, url := range urls {
		if !forceRefresh {
			if cached, ok := b.lookup(ctx, url); ok {
				results = append(results, cached)
				continue
			}
		}

		result := b.evaluate(ctx, url, b.cfg.BatchFailureRate, batchFailureMessage)
		b.record(ctx, result, batchID)
		results = append(results, result)
	}

	batch := core.NewBatchResult(results)
	b.logger.Debug("Batch analyzed",
		zap.String("batch_id", batchID),
		zap.Int("total", batch.Total),
		zap.Int("success", batch.Success),
		zap.Int("failed", batch.Failed))
	return batch, nil
}

// AnalyzeCSV analyzes a fixed list of synthetic URLs; the file content is
// not inspected.
func (b *SimulatedBackend) AnalyzeCSV(ctx context.Context, file []byte, columnName string, forceRefresh bool) (*core.BatchResult, error) {
	if strings.TrimSpace(columnName) == "" {
		columnName = core.DefaultCSVColumn
	}

	if err := b.sleep(ctx, b.randomDelay(b.cfg.CSVDelay)); err != nil {
		return nil, err
	}

	urls := make([]string, b.cfg.CSVURLCount)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://example%d.com", i+1)
	}

	b.logger.Debug("Substituting synthetic URLs for uploaded file",
		zap.Int("file_size", len(file)),
		zap.String("column", columnName),
		zap.Int("url_count", len(urls)))

	return b.AnalyzeBatch(ctx, urls, forceRefresh)
}

// GetCategories returns the reference taxonomy
func (b *SimulatedBackend) GetCategories(ctx context.Context) (core.Categories, error) {
	if err := b.sleep(ctx, b.cfg.ReferenceDelay); err != nil {
		return nil, err
	}
	return copyCategories(referenceTaxonomy), nil
}

// GetMainCategories returns the labels simulated analyses assign
func (b *SimulatedBackend) GetMainCategories(ctx context.Context) ([]string, error) {
	if err := b.sleep(ctx, b.cfg.ReferenceDelay); err != nil {
		return nil, err
	}
	return append([]string(nil), mainCategories...), nil
}

// GetSubCategories returns the sub tree of a reference main category, or a
// placeholder tree for any other name.
func (b *SimulatedBackend) GetSubCategories(ctx context.Context, mainCategory string) (map[string][]string, error) {
	if err := b.sleep(ctx, b.cfg.ReferenceDelay); err != nil {
		return nil, err
	}
	if subs, ok := referenceTaxonomy[mainCategory]; ok {
		return copySubCategories(subs), nil
	}
	return copySubCategories(placeholderSubCategories), nil
}

// GetHistory returns one page of the history pool
func (b *SimulatedBackend) GetHistory(ctx context.Context, query core.HistoryQuery) (*core.HistoryPage, error) {
	if err := b.sleep(ctx, b.randomDelay(b.cfg.HistoryDelay)); err != nil {
		return nil, err
	}
	return b.history.List(ctx, query)
}

// GetHistoryItem returns a single history record
func (b *SimulatedBackend) GetHistoryItem(ctx context.Context, id string) (*core.HistoryRecord, error) {
	if err := b.sleep(ctx, b.cfg.ReferenceDelay); err != nil {
		return nil, err
	}
	return b.history.Get(ctx, id)
}

// GetHistoryCategories returns the distinct main categories in history
func (b *SimulatedBackend) GetHistoryCategories(ctx context.Context) ([]string, error) {
	if err := b.sleep(ctx, b.cfg.ReferenceDelay); err != nil {
		return nil, err
	}
	return b.history.Categories(ctx)
}

// lookup returns a copy of the live cache entry for url, tagged as cached
// and carrying the caller's URL.
func (b *SimulatedBackend) lookup(ctx context.Context, url string) (*core.AnalysisResult, bool) {
	key := utils.NormalizeURL(url)

	entry, err := b.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ports.ErrCacheMiss) {
			b.logger.Warn("Cache lookup failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if entry.Expired(b.clock.Now()) {
		return nil, false
	}

	result := entry.Result.Clone()
	result.URL = url
	fromCache := true
	result.FromCache = &fromCache

	b.logger.Debug("Serving cached analysis", zap.String("url", url), zap.Time("stored_at", entry.StoredAt))
	return result, true
}

// evaluate produces a fresh outcome and caches it when successful
func (b *SimulatedBackend) evaluate(ctx context.Context, url string, failureRate float64, failureMessage string) *core.AnalysisResult {
	if b.chance(failureRate) {
		b.logger.Debug("Injecting analysis failure", zap.String("url", url))
		return core.Failed(url, failureMessage)
	}

	result := core.Succeeded(url, b.generateAnalysis())

	now := b.clock.Now()
	entry := &core.CacheEntry{
		Key:       utils.NormalizeURL(url),
		Result:    result.Clone(),
		StoredAt:  now,
		ExpiresAt: now.Add(b.cacheTTL),
	}
	if err := b.cache.Set(ctx, entry); err != nil {
		b.logger.Warn("Failed to cache analysis", zap.String("url", url), zap.Error(err))
	}

	return result
}

// record appends a fresh outcome to history when recording is enabled
func (b *SimulatedBackend) record(ctx context.Context, result *core.AnalysisResult, batchID string) {
	if !b.cfg.RecordHistory {
		return
	}

	rec := &core.HistoryRecord{
		ID:        newHistoryID(),
		URL:       result.URL,
		Timestamp: b.clock.Now(),
		Status:    result.Status,
		Analysis:  result.Analysis.Clone(),
		Error:     result.Error,
		IsBatch:   batchID != "",
		BatchID:   batchID,
	}
	if result.Analysis != nil {
		rec.MainCategory = result.Analysis.MainCategory
		confidence := result.Analysis.Confidence
		rec.Confidence = &confidence
	}

	if err := b.history.Add(ctx, rec); err != nil {
		b.logger.Warn("Failed to record analysis", zap.String("url", result.URL), zap.Error(err))
	}
}

func (b *SimulatedBackend) generateHistory(ctx context.Context) error {
	now := b.clock.Now()

	for i := 0; i < b.cfg.HistoryPoolSize; i++ {
		rec := &core.HistoryRecord{
			ID:        newHistoryID(),
			URL:       historyURLs[b.intN(len(historyURLs))],
			Timestamp: now.Add(-b.durationN(historyWindow)),
		}

		if b.chance(historySuccessRate) {
			analysis := b.generateAnalysis()
			confidence := analysis.Confidence
			rec.Status = core.StatusSuccess
			rec.MainCategory = analysis.MainCategory
			rec.Confidence = &confidence
			rec.Analysis = analysis
		} else {
			rec.Status = core.StatusFailed
			rec.Error = historyFailureMessage
		}

		if err := b.history.Add(ctx, rec); err != nil {
			return err
		}
	}

	return nil
}

func (b *SimulatedBackend) generateAnalysis() *core.CategoryAnalysis {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()

	count := 3 + b.rng.IntN(3)
	order := b.rng.Perm(len(subCategorySamples))
	subs := make([]core.SubCategory, 0, count)
	for _, idx := range order[:count] {
		subs = append(subs, subCategorySamples[idx])
	}

	return &core.CategoryAnalysis{
		MainCategory:     mainCategories[b.rng.IntN(len(mainCategories))],
		SubCategories:    subs,
		Confidence:       0.7 + b.rng.Float64()*0.3,
		Description:      descriptions[b.rng.IntN(len(descriptions))],
		TargetAudience:   targetAudiences[b.rng.IntN(len(targetAudiences))],
		ValueProposition: valuePropositions[b.rng.IntN(len(valuePropositions))],
	}
}

func (b *SimulatedBackend) chance(p float64) bool {
	if p <= 0 {
		return false
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.Float64() < p
}

func (b *SimulatedBackend) intN(n int) int {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return b.rng.IntN(n)
}

func (b *SimulatedBackend) durationN(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	return time.Duration(b.rng.Int64N(int64(d)))
}

// randomDelay draws uniformly from [Min, Max)
func (b *SimulatedBackend) randomDelay(r config.DelayRange) time.Duration {
	return r.Min + b.durationN(r.Max-r.Min)
}

// sleep waits for d or until ctx is done
func (b *SimulatedBackend) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func newHistoryID() string {
	return "hist_" + newHexID()
}

func newHexID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
