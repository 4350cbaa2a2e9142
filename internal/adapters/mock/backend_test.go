package mock

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mikey/site-categorizer/internal/adapters/cache"
	"github.com/mikey/site-categorizer/internal/adapters/history"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const week = 7 * 24 * time.Hour

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	backend *SimulatedBackend
	cache   *cache.MemoryCache
	history *history.MemoryStore
	clock   *fakeClock
}

// quietConfig has no delays and no injected failures
func quietConfig() config.MockConfig {
	return config.MockConfig{
		CSVURLCount:     5,
		HistoryPoolSize: 50,
		RecordHistory:   true,
		Seed:            42,
	}
}

func newFixture(t *testing.T, cfg config.MockConfig) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := cache.NewMemoryCache(zap.NewNop(), clock, 0)
	t.Cleanup(c.Stop)
	h := history.NewMemoryStore(zap.NewNop())

	b, err := NewSimulatedBackend(cfg, week, c, h, zap.NewNop(), WithClock(clock))
	require.NoError(t, err)

	return &fixture{backend: b, cache: c, history: h, clock: clock}
}

func TestAnalyzeURLServesCacheOnSecondCall(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	first, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)
	assert.Equal(t, core.StatusSuccess, first.Status)
	require.NotNil(t, first.Analysis)
	assert.False(t, first.Cached())

	second, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)
	assert.True(t, second.Cached())
	assert.Equal(t, first.Analysis, second.Analysis)
	assert.Equal(t, "https://example.com", second.URL)
	assert.False(t, first.Cached(), "the first result is not mutated by the cache hit")
}

func TestAnalyzeURLResultsDoNotShareState(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	first, err := f.backend.AnalyzeURL(ctx, "https://isolated.example", false)
	require.NoError(t, err)
	require.NotNil(t, first.Analysis)
	require.NotEmpty(t, first.Analysis.SubCategories)
	original := first.Analysis.Clone()

	first.Analysis.MainCategory = "Edited by caller"
	first.Analysis.SubCategories[0].Name = "Edited by caller"

	second, err := f.backend.AnalyzeURL(ctx, "https://isolated.example", false)
	require.NoError(t, err)
	require.True(t, second.Cached())
	assert.Equal(t, original, second.Analysis)

	second.Analysis.Description = "Edited cached copy"
	third, err := f.backend.AnalyzeURL(ctx, "https://isolated.example", false)
	require.NoError(t, err)
	assert.Equal(t, original, third.Analysis)

	page, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 10, URLContains: "isolated.example"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	rec := page.Items[0]
	assert.Equal(t, original.MainCategory, rec.MainCategory)
	assert.Equal(t, original, rec.Analysis)
}

func TestAnalyzeURLCacheUsesNormalizedKey(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	first, err := f.backend.AnalyzeURL(ctx, "http://example.com/shop/?b=2&a=1#top", false)
	require.NoError(t, err)

	second, err := f.backend.AnalyzeURL(ctx, "https://example.com/shop?a=1&b=2", false)
	require.NoError(t, err)
	assert.True(t, second.Cached())
	assert.Equal(t, first.Analysis, second.Analysis)
	assert.Equal(t, "https://example.com/shop?a=1&b=2", second.URL)
}

func TestAnalyzeURLForceRefreshNeverCached(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	_, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		result, err := f.backend.AnalyzeURL(ctx, "https://example.com", true)
		require.NoError(t, err)
		assert.False(t, result.Cached())
		assert.Nil(t, result.FromCache)
	}
}

func TestAnalyzeURLCacheExpiresAfterSevenDays(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	_, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)

	f.clock.Advance(week - time.Second)
	result, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)
	assert.True(t, result.Cached())

	f.clock.Advance(time.Second)
	result, err = f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)
	assert.False(t, result.Cached())
}

func TestAnalyzeURLValidation(t *testing.T) {
	f := newFixture(t, quietConfig())

	for _, url := range []string{"", "   ", "example.com", "ftp://example.com", "https://"} {
		_, err := f.backend.AnalyzeURL(context.Background(), url, false)
		assert.ErrorIs(t, err, core.ErrValidation, url)
	}
}

func TestAnalyzeURLFailureIsNotCached(t *testing.T) {
	cfg := quietConfig()
	cfg.FailureRate = 1
	f := newFixture(t, cfg)
	ctx := context.Background()

	result, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	require.NoError(t, err)
	assert.Equal(t, core.StatusFailed, result.Status)
	assert.Nil(t, result.Analysis)
	assert.NotEmpty(t, result.Error)
	assert.ErrorIs(t, result.Err(), core.ErrUpstream)
	assert.Equal(t, 0, f.cache.Len())
}

func TestAnalyzeURLHonoursContext(t *testing.T) {
	cfg := quietConfig()
	cfg.AnalyzeDelay = config.DelayRange{Min: time.Hour, Max: 2 * time.Hour}
	f := newFixture(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.backend.AnalyzeURL(ctx, "https://example.com", false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeURLRecordsHistory(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	result, err := f.backend.AnalyzeURL(ctx, "https://recorded.example", false)
	require.NoError(t, err)
	assert.Equal(t, 51, f.history.Len())

	page, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 10, URLContains: "recorded"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	rec := page.Items[0]
	assert.True(t, strings.HasPrefix(rec.ID, "hist_"))
	assert.Equal(t, result.Analysis.MainCategory, rec.MainCategory)
	assert.False(t, rec.IsBatch)

	// cache hits are not new analyses
	_, err = f.backend.AnalyzeURL(ctx, "https://recorded.example", false)
	require.NoError(t, err)
	assert.Equal(t, 51, f.history.Len())
}

func TestAnalyzeURLWithoutRecording(t *testing.T) {
	cfg := quietConfig()
	cfg.RecordHistory = false
	f := newFixture(t, cfg)

	_, err := f.backend.AnalyzeURL(context.Background(), "https://example.com", false)
	require.NoError(t, err)
	assert.Equal(t, 50, f.history.Len())
}

func TestAnalyzeBatch(t *testing.T) {
	cfg := quietConfig()
	cfg.BatchFailureRate = 0.5
	f := newFixture(t, cfg)

	urls := []string{"https://a.com", "https://b.com", "https://c.com", "https://d.com", "https://e.com", "https://f.com"}
	batch, err := f.backend.AnalyzeBatch(context.Background(), urls, false)
	require.NoError(t, err)

	require.Len(t, batch.Results, len(urls))
	assert.Equal(t, len(urls), batch.Total)
	assert.Equal(t, batch.Total, batch.Success+batch.Failed)
	for i, result := range batch.Results {
		assert.Equal(t, urls[i], result.URL)
		if result.Status == core.StatusSuccess {
			assert.NotNil(t, result.Analysis)
		} else {
			assert.NotEmpty(t, result.Error)
		}
	}
}

func TestAnalyzeBatchTwoURLs(t *testing.T) {
	f := newFixture(t, quietConfig())

	batch, err := f.backend.AnalyzeBatch(context.Background(), []string{"https://a.com", "https://b.com"}, false)
	require.NoError(t, err)
	assert.Len(t, batch.Results, 2)
	assert.Equal(t, 2, batch.Total)
	assert.Equal(t, 2, batch.Success+batch.Failed)
}

func TestAnalyzeBatchUsesCache(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	single, err := f.backend.AnalyzeURL(ctx, "https://a.com", false)
	require.NoError(t, err)

	batch, err := f.backend.AnalyzeBatch(ctx, []string{"https://a.com", "https://b.com"}, false)
	require.NoError(t, err)
	assert.True(t, batch.Results[0].Cached())
	assert.Equal(t, single.Analysis, batch.Results[0].Analysis)
	assert.False(t, batch.Results[1].Cached())

	forced, err := f.backend.AnalyzeBatch(ctx, []string{"https://a.com"}, true)
	require.NoError(t, err)
	assert.False(t, forced.Results[0].Cached())
}

func TestAnalyzeBatchRecordsSharedBatchID(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	_, err := f.backend.AnalyzeBatch(ctx, []string{"https://one.batch.example", "https://two.batch.example"}, false)
	require.NoError(t, err)

	page, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 10, URLContains: ".batch."})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.True(t, page.Items[0].IsBatch)
	assert.True(t, strings.HasPrefix(page.Items[0].BatchID, "batch_"))
	assert.Equal(t, page.Items[0].BatchID, page.Items[1].BatchID)
}

func TestAnalyzeBatchValidation(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	_, err := f.backend.AnalyzeBatch(ctx, nil, false)
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = f.backend.AnalyzeBatch(ctx, []string{"https://ok.com", "not a url"}, false)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestAnalyzeCSVUsesSyntheticURLs(t *testing.T) {
	f := newFixture(t, quietConfig())

	batch, err := f.backend.AnalyzeCSV(context.Background(), []byte("irrelevant"), "", false)
	require.NoError(t, err)
	require.Len(t, batch.Results, 5)
	for i, result := range batch.Results {
		assert.Equal(t, "https://example"+string(rune('1'+i))+".com", result.URL)
	}
}

func TestReferenceCategories(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	categories, err := f.backend.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, 3)
	assert.Contains(t, categories["IT & Telecommunications"], "SaaS")

	// callers cannot mutate the shared taxonomy
	categories["IT & Telecommunications"]["SaaS"][0] = "mutated"
	again, err := f.backend.GetCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CRM", again["IT & Telecommunications"]["SaaS"][0])

	mains, err := f.backend.GetMainCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, mains, 23)

	subs, err := f.backend.GetSubCategories(ctx, "Retail & E-commerce")
	require.NoError(t, err)
	assert.Contains(t, subs, "Apparel")

	placeholder, err := f.backend.GetSubCategories(ctx, "Unknown")
	require.NoError(t, err)
	assert.Contains(t, placeholder, "Subcategory 1")
}

func TestGetHistorySecondPage(t *testing.T) {
	cfg := quietConfig()
	cfg.RecordHistory = false
	f := newFixture(t, cfg)
	ctx := context.Background()

	all, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 50, Sort: core.SortTimestampDesc})
	require.NoError(t, err)
	require.Len(t, all.Items, 50)

	page, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 2, Limit: 10, Sort: core.SortTimestampDesc})
	require.NoError(t, err)
	assert.Equal(t, 50, page.Total)
	assert.Equal(t, all.Items[10:20], page.Items)
	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i].Timestamp.After(page.Items[i-1].Timestamp))
	}
}

func TestGetHistoryPoolIsStable(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	first, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	second, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, first.Items, second.Items)
}

func TestGetHistoryPoolShape(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	page, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 100})
	require.NoError(t, err)

	oldest := f.clock.Now().Add(-historyWindow)
	for _, item := range page.Items {
		assert.Contains(t, historyURLs, item.URL)
		assert.True(t, item.Timestamp.After(oldest))
		assert.False(t, item.Timestamp.After(f.clock.Now()))
		if item.Status == core.StatusSuccess {
			require.NotNil(t, item.Analysis)
			require.NotNil(t, item.Confidence)
			assert.Equal(t, item.Analysis.MainCategory, item.MainCategory)
		} else {
			assert.Empty(t, item.MainCategory)
			assert.NotEmpty(t, item.Error)
		}
	}
}

func TestGetHistoryItem(t *testing.T) {
	f := newFixture(t, quietConfig())
	ctx := context.Background()

	page, err := f.backend.GetHistory(ctx, core.HistoryQuery{Page: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	item, err := f.backend.GetHistoryItem(ctx, page.Items[0].ID)
	require.NoError(t, err)
	assert.Equal(t, page.Items[0], item)

	_, err = f.backend.GetHistoryItem(ctx, "hist_does_not_exist")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestGetHistoryCategoriesSortedDistinct(t *testing.T) {
	f := newFixture(t, quietConfig())

	categories, err := f.backend.GetHistoryCategories(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, categories)
	assert.IsIncreasing(t, categories)
	for _, category := range categories {
		assert.Contains(t, mainCategories, category)
	}
}

func TestNewSimulatedBackendRejectsZeroTTL(t *testing.T) {
	c := cache.NewMemoryCache(zap.NewNop(), core.SystemClock{}, 0)
	defer c.Stop()

	_, err := NewSimulatedBackend(quietConfig(), 0, c, history.NewMemoryStore(zap.NewNop()), zap.NewNop())
	assert.Error(t, err)
}

func TestNewSimulatedBackendRejectsNegativeCounts(t *testing.T) {
	c := cache.NewMemoryCache(zap.NewNop(), core.SystemClock{}, 0)
	defer c.Stop()

	csv := quietConfig()
	csv.CSVURLCount = -1
	_, err := NewSimulatedBackend(csv, week, c, history.NewMemoryStore(zap.NewNop()), zap.NewNop())
	assert.ErrorContains(t, err, "csv URL count")

	pool := quietConfig()
	pool.HistoryPoolSize = -1
	_, err = NewSimulatedBackend(pool, week, c, history.NewMemoryStore(zap.NewNop()), zap.NewNop())
	assert.ErrorContains(t, err, "history pool size")
}

func TestRandomDelayBounds(t *testing.T) {
	f := newFixture(t, quietConfig())
	r := config.DelayRange{Min: time.Second, Max: 3 * time.Second}

	for i := 0; i < 200; i++ {
		d := f.backend.randomDelay(r)
		assert.GreaterOrEqual(t, d, time.Second)
		assert.Less(t, d, 3*time.Second)
	}
	assert.Equal(t, time.Second, f.backend.randomDelay(config.DelayRange{Min: time.Second, Max: time.Second}))
}

func TestGenerateAnalysisShape(t *testing.T) {
	f := newFixture(t, quietConfig())

	for i := 0; i < 100; i++ {
		a := f.backend.generateAnalysis()
		assert.Contains(t, mainCategories, a.MainCategory)
		assert.GreaterOrEqual(t, a.Confidence, 0.7)
		assert.LessOrEqual(t, a.Confidence, 1.0)
		assert.GreaterOrEqual(t, len(a.SubCategories), 3)
		assert.LessOrEqual(t, len(a.SubCategories), 5)

		seen := map[string]bool{}
		for _, sub := range a.SubCategories {
			assert.False(t, seen[sub.Name], "duplicate sub category %s", sub.Name)
			seen[sub.Name] = true
		}
	}
}
