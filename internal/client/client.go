// Package client is the single entry point callers use to reach the
// categorization service, whichever backend was selected at startup.
package client

import (
	"context"
	"time"

	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/metrics"
	"github.com/mikey/site-categorizer/internal/ports"
	"go.uber.org/zap"
)

// Client forwards every call unchanged to its backend and returns the
// backend's outcome unchanged.
type Client struct {
	backend ports.Backend
	mode    string
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a client around backend. mode names the selected strategy.
func New(backend ports.Backend, mode string, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		backend: backend,
		mode:    mode,
		metrics: m,
		logger:  logger,
	}
}

// Mode reports which backend the client was built with
func (c *Client) Mode() string {
	return c.mode
}

// Backend returns the underlying backend
func (c *Client) Backend() ports.Backend {
	return c.backend
}

// AnalyzeURL categorizes a single URL
func (c *Client) AnalyzeURL(ctx context.Context, url string, forceRefresh bool) (*core.AnalysisResult, error) {
	start := time.Now()
	result, err := c.backend.AnalyzeURL(ctx, url, forceRefresh)
	c.observe("analyze_url", start, err, zap.String("url", url), zap.Bool("force_refresh", forceRefresh))
	if err == nil {
		c.metrics.ObserveResults(result)
	}
	return result, err
}

// AnalyzeBatch categorizes several URLs
func (c *Client) AnalyzeBatch(ctx context.Context, urls []string, forceRefresh bool) (*core.BatchResult, error) {
	start := time.Now()
	batch, err := c.backend.AnalyzeBatch(ctx, urls, forceRefresh)
	c.observe("analyze_batch", start, err, zap.Int("url_count", len(urls)), zap.Bool("force_refresh", forceRefresh))
	if err == nil {
		c.metrics.ObserveResults(batch.Results...)
	}
	return batch, err
}

// AnalyzeCSV categorizes the URLs in an uploaded spreadsheet
func (c *Client) AnalyzeCSV(ctx context.Context, file []byte, columnName string, forceRefresh bool) (*core.BatchResult, error) {
	start := time.Now()
	batch, err := c.backend.AnalyzeCSV(ctx, file, columnName, forceRefresh)
	c.observe("analyze_csv", start, err, zap.Int("file_size", len(file)), zap.String("column", columnName))
	if err == nil {
		c.metrics.ObserveResults(batch.Results...)
	}
	return batch, err
}

// GetCategories returns the reference taxonomy
func (c *Client) GetCategories(ctx context.Context) (core.Categories, error) {
	start := time.Now()
	categories, err := c.backend.GetCategories(ctx)
	c.observe("get_categories", start, err)
	return categories, err
}

// GetMainCategories returns the top level categories
func (c *Client) GetMainCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	mains, err := c.backend.GetMainCategories(ctx)
	c.observe("get_main_categories", start, err)
	return mains, err
}

// GetSubCategories returns the sub tree of a main category
func (c *Client) GetSubCategories(ctx context.Context, mainCategory string) (map[string][]string, error) {
	start := time.Now()
	subs, err := c.backend.GetSubCategories(ctx, mainCategory)
	c.observe("get_sub_categories", start, err, zap.String("main_category", mainCategory))
	return subs, err
}

// GetHistory returns a page of past analyses
func (c *Client) GetHistory(ctx context.Context, query core.HistoryQuery) (*core.HistoryPage, error) {
	start := time.Now()
	page, err := c.backend.GetHistory(ctx, query)
	c.observe("get_history", start, err,
		zap.Int("page", query.Page),
		zap.Int("limit", query.Limit),
		zap.String("sort", query.Sort))
	return page, err
}

// GetHistoryItem returns one past analysis
func (c *Client) GetHistoryItem(ctx context.Context, id string) (*core.HistoryRecord, error) {
	start := time.Now()
	record, err := c.backend.GetHistoryItem(ctx, id)
	c.observe("get_history_item", start, err, zap.String("id", id))
	return record, err
}

// GetHistoryCategories returns the main categories present in history
func (c *Client) GetHistoryCategories(ctx context.Context) ([]string, error) {
	start := time.Now()
	categories, err := c.backend.GetHistoryCategories(ctx)
	c.observe("get_history_categories", start, err)
	return categories, err
}

func (c *Client) observe(operation string, start time.Time, err error, fields ...zap.Field) {
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(operation, elapsed, err)

	fields = append(fields,
		zap.String("operation", operation),
		zap.String("mode", c.mode),
		zap.Duration("elapsed", elapsed))
	if err != nil {
		c.logger.Debug("Backend call failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Debug("Backend call completed", fields...)
}

var _ ports.Backend = (*Client)(nil)
