package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func record(i int, status core.Status, category, url string) *core.HistoryRecord {
	r := &core.HistoryRecord{
		ID:        fmt.Sprintf("hist_%02d", i),
		URL:       url,
		Timestamp: base.Add(-time.Duration(i) * time.Hour),
		Status:    status,
	}
	if status == core.StatusSuccess {
		r.MainCategory = category
	} else {
		r.Error = "analysis failed"
	}
	return r
}

func seeded(n int) *MemoryStore {
	categories := []string{"Technology", "Finance", "Health"}
	records := make([]*core.HistoryRecord, 0, n)
	for i := 0; i < n; i++ {
		status := core.StatusSuccess
		if i%5 == 4 {
			status = core.StatusFailed
		}
		records = append(records, record(i, status, categories[i%3], fmt.Sprintf("https://Site%d.Example.com", i)))
	}
	return NewMemoryStore(zap.NewNop(), records...)
}

func TestListSecondPageDescending(t *testing.T) {
	store := seeded(50)

	page, err := store.List(context.Background(), core.HistoryQuery{Page: 2, Limit: 10, Sort: core.SortTimestampDesc})
	require.NoError(t, err)

	assert.Equal(t, 50, page.Total)
	assert.Equal(t, 5, page.Pages)
	require.Len(t, page.Items, 10)
	for i, item := range page.Items {
		assert.Equal(t, fmt.Sprintf("hist_%02d", 10+i), item.ID)
	}
}

func TestListPagesReconstructFilteredSet(t *testing.T) {
	store := seeded(47)
	ctx := context.Background()

	for _, sortOrder := range []string{core.SortTimestampAsc, core.SortTimestampDesc} {
		full, err := store.List(ctx, core.HistoryQuery{Page: 1, Limit: 1000, Sort: sortOrder, Status: "success"})
		require.NoError(t, err)

		var collected []*core.HistoryRecord
		for p := 1; ; p++ {
			page, err := store.List(ctx, core.HistoryQuery{Page: p, Limit: 7, Sort: sortOrder, Status: "success"})
			require.NoError(t, err)
			assert.Equal(t, full.Total, page.Total)
			if len(page.Items) == 0 {
				break
			}
			collected = append(collected, page.Items...)
		}
		assert.Equal(t, full.Items, collected)
	}
}

func TestListFilters(t *testing.T) {
	store := seeded(30)
	ctx := context.Background()

	page, err := store.List(ctx, core.HistoryQuery{Page: 1, Limit: 100, Status: "failed"})
	require.NoError(t, err)
	assert.Equal(t, 6, page.Total)
	for _, item := range page.Items {
		assert.Equal(t, core.StatusFailed, item.Status)
	}

	page, err = store.List(ctx, core.HistoryQuery{Page: 1, Limit: 100, MainCategory: "Finance"})
	require.NoError(t, err)
	assert.NotZero(t, page.Total)
	for _, item := range page.Items {
		assert.Equal(t, "Finance", item.MainCategory)
	}

	page, err = store.List(ctx, core.HistoryQuery{Page: 1, Limit: 100, URLContains: "site1"})
	require.NoError(t, err)
	// site1, site10..site19
	assert.Equal(t, 11, page.Total)

	all, err := store.List(ctx, core.HistoryQuery{Page: 1, Limit: 100, Status: StatusAll})
	require.NoError(t, err)
	assert.Equal(t, 30, all.Total)
}

func TestListAscendingBreaksTiesByID(t *testing.T) {
	store := NewMemoryStore(zap.NewNop(),
		&core.HistoryRecord{ID: "hist_b", URL: "https://b.example", Timestamp: base, Status: core.StatusSuccess},
		&core.HistoryRecord{ID: "hist_a", URL: "https://a.example", Timestamp: base, Status: core.StatusSuccess},
		&core.HistoryRecord{ID: "hist_c", URL: "https://c.example", Timestamp: base.Add(-time.Minute), Status: core.StatusSuccess},
	)

	page, err := store.List(context.Background(), core.HistoryQuery{Page: 1, Limit: 10, Sort: core.SortTimestampAsc})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "hist_c", page.Items[0].ID)
	assert.Equal(t, "hist_a", page.Items[1].ID)
	assert.Equal(t, "hist_b", page.Items[2].ID)
}

func TestListBeyondLastPage(t *testing.T) {
	store := seeded(5)

	page, err := store.List(context.Background(), core.HistoryQuery{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestListRejectsBadPaging(t *testing.T) {
	store := seeded(5)
	ctx := context.Background()

	_, err := store.List(ctx, core.HistoryQuery{Page: 0, Limit: 10})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = store.List(ctx, core.HistoryQuery{Page: 1, Limit: 0})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestGet(t *testing.T) {
	store := seeded(5)
	ctx := context.Background()

	got, err := store.Get(ctx, "hist_03")
	require.NoError(t, err)
	assert.Equal(t, "https://Site3.Example.com", got.URL)

	_, err = store.Get(ctx, "hist_missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestAdd(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, record(1, core.StatusSuccess, "Travel", "https://trip.example")))
	assert.Equal(t, 1, store.Len())

	err := store.Add(ctx, record(1, core.StatusSuccess, "Travel", "https://trip.example"))
	assert.ErrorIs(t, err, core.ErrValidation)

	err = store.Add(ctx, &core.HistoryRecord{})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestRecordsAreIsolatedFromCallers(t *testing.T) {
	store := NewMemoryStore(zap.NewNop())
	ctx := context.Background()

	confidence := 0.9
	rec := record(1, core.StatusSuccess, "Travel", "https://trip.example")
	rec.Confidence = &confidence
	rec.Analysis = &core.CategoryAnalysis{
		MainCategory:  "Travel",
		SubCategories: []core.SubCategory{{Name: "Flights", Confidence: 0.7}},
		Confidence:    confidence,
	}
	require.NoError(t, store.Add(ctx, rec))

	rec.MainCategory = "Changed after Add"
	rec.Analysis.SubCategories[0].Name = "Changed after Add"

	got, err := store.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Travel", got.MainCategory)
	assert.Equal(t, "Flights", got.Analysis.SubCategories[0].Name)

	got.Analysis.MainCategory = "Changed after Get"
	*got.Confidence = 0.1

	page, err := store.List(ctx, core.HistoryQuery{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Travel", page.Items[0].Analysis.MainCategory)
	assert.InDelta(t, 0.9, *page.Items[0].Confidence, 1e-9)
}

func TestCategories(t *testing.T) {
	store := seeded(10)

	categories, err := store.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Finance", "Health", "Technology"}, categories)
}
