package ports

import (
	"context"

	"github.com/mikey/site-categorizer/internal/core"
)

// Backend is the categorization service surface. Implementations are the
// simulated backend and the HTTP transport to the real service.
type Backend interface {
	// AnalyzeURL categorizes a single URL
	AnalyzeURL(ctx context.Context, url string, forceRefresh bool) (*core.AnalysisResult, error)

	// AnalyzeBatch categorizes several URLs, isolating per-item failures
	AnalyzeBatch(ctx context.Context, urls []string, forceRefresh bool) (*core.BatchResult, error)

	// AnalyzeCSV categorizes the URLs found in an uploaded spreadsheet column
	AnalyzeCSV(ctx context.Context, file []byte, columnName string, forceRefresh bool) (*core.BatchResult, error)

	// GetCategories returns the full reference taxonomy
	GetCategories(ctx context.Context) (core.Categories, error)

	// GetMainCategories returns the top level of the taxonomy
	GetMainCategories(ctx context.Context) ([]string, error)

	// GetSubCategories returns the sub tree of one main category
	GetSubCategories(ctx context.Context, mainCategory string) (map[string][]string, error)

	// GetHistory returns one filtered, sorted page of past analyses
	GetHistory(ctx context.Context, query core.HistoryQuery) (*core.HistoryPage, error)

	// GetHistoryItem returns a single past analysis
	GetHistoryItem(ctx context.Context, id string) (*core.HistoryRecord, error)

	// GetHistoryCategories returns the sorted distinct main categories in history
	GetHistoryCategories(ctx context.Context) ([]string, error)
}
