package ports

import (
	"context"

	"github.com/mikey/site-categorizer/internal/core"
)

// HistoryRepository stores immutable analysis records
type HistoryRepository interface {
	// Add appends a record
	Add(ctx context.Context, record *core.HistoryRecord) error

	// Get returns the record with the given id or a core.NotFoundError
	Get(ctx context.Context, id string) (*core.HistoryRecord, error)

	// List filters, sorts and paginates the records
	List(ctx context.Context, query core.HistoryQuery) (*core.HistoryPage, error)

	// Categories returns the sorted distinct main categories
	Categories(ctx context.Context) ([]string, error)
}
