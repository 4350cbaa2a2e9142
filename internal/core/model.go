package core

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"
)

// Status is the outcome of a single analysis
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Sort orders accepted by history queries
const (
	SortTimestampDesc = "timestamp_desc"
	SortTimestampAsc  = "timestamp_asc"
)

// DefaultCSVColumn is the column read from uploaded spreadsheets when none is given
const DefaultCSVColumn = "url"

// AnalysisRequest represents a request to categorize one URL
type AnalysisRequest struct {
	URL          string `json:"url"`
	ForceRefresh bool   `json:"force_refresh,omitempty"`
}

// SubCategory is a secondary label with its own confidence
type SubCategory struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// CategoryAnalysis is the categorization of a site
type CategoryAnalysis struct {
	MainCategory     string        `json:"main_category"`
	SubCategories    []SubCategory `json:"sub_categories"`
	Confidence       float64       `json:"confidence"`
	Description      string        `json:"description,omitempty"`
	TargetAudience   string        `json:"target_audience,omitempty"`
	ValueProposition string        `json:"value_proposition,omitempty"`
}

// Clone returns a deep copy of the analysis
func (a *CategoryAnalysis) Clone() *CategoryAnalysis {
	if a == nil {
		return nil
	}
	cloned := *a
	cloned.SubCategories = slices.Clone(a.SubCategories)
	return &cloned
}

// AnalysisResult is the outcome of analyzing one URL. Analysis is set iff
// Status is success, Error iff Status is failed.
type AnalysisResult struct {
	URL       string            `json:"url"`
	Status    Status            `json:"status"`
	Analysis  *CategoryAnalysis `json:"analysis,omitempty"`
	Error     string            `json:"error,omitempty"`
	FromCache *bool             `json:"from_cache,omitempty"`
}

// Succeeded builds a successful result
func Succeeded(url string, analysis *CategoryAnalysis) *AnalysisResult {
	return &AnalysisResult{URL: url, Status: StatusSuccess, Analysis: analysis}
}

// Failed builds a failed result carrying a human readable message
func Failed(url, message string) *AnalysisResult {
	return &AnalysisResult{URL: url, Status: StatusFailed, Error: message}
}

// Cached reports whether the result was served from a stored entry
func (r *AnalysisResult) Cached() bool {
	return r.FromCache != nil && *r.FromCache
}

// Clone returns a deep copy of the result
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.Analysis = r.Analysis.Clone()
	if r.FromCache != nil {
		fromCache := *r.FromCache
		cloned.FromCache = &fromCache
	}
	return &cloned
}

// Err returns an UpstreamError for failed results and nil otherwise
func (r *AnalysisResult) Err() error {
	if r.Status != StatusFailed {
		return nil
	}
	return &UpstreamError{URL: r.URL, Message: r.Error}
}

// BatchResult is the outcome of analyzing several URLs
type BatchResult struct {
	Results []*AnalysisResult `json:"results"`
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
}

// NewBatchResult derives the aggregate counts from the per-item outcomes
func NewBatchResult(results []*AnalysisResult) *BatchResult {
	batch := &BatchResult{Results: results, Total: len(results)}
	for _, r := range results {
		if r.Status == StatusSuccess {
			batch.Success++
		} else {
			batch.Failed++
		}
	}
	return batch
}

// HistoryRecord is an immutable record of a past analysis
type HistoryRecord struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Timestamp    time.Time         `json:"timestamp"`
	Status       Status            `json:"status"`
	MainCategory string            `json:"main_category,omitempty"`
	Confidence   *float64          `json:"confidence,omitempty"`
	Analysis     *CategoryAnalysis `json:"analysis,omitempty"`
	Error        string            `json:"error,omitempty"`
	IsBatch      bool              `json:"is_batch"`
	BatchID      string            `json:"batch_id,omitempty"`
}

// Clone returns a deep copy of the record
func (r *HistoryRecord) Clone() *HistoryRecord {
	if r == nil {
		return nil
	}
	cloned := *r
	cloned.Analysis = r.Analysis.Clone()
	if r.Confidence != nil {
		confidence := *r.Confidence
		cloned.Confidence = &confidence
	}
	return &cloned
}

// UnmarshalJSON accepts RFC 3339 timestamps and the offset-less form some
// services emit for UTC instants.
func (r *HistoryRecord) UnmarshalJSON(data []byte) error {
	type plain HistoryRecord
	aux := struct {
		*plain
		Timestamp string `json:"timestamp"`
	}{plain: (*plain)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Timestamp == "" {
		r.Timestamp = time.Time{}
		return nil
	}

	ts, err := ParseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	r.Timestamp = ts
	return nil
}

// localTimestampLayout is ISO 8601 without an offset, read as UTC
const localTimestampLayout = "2006-01-02T15:04:05.999999999"

// ParseTimestamp parses an RFC 3339 timestamp, or one without an offset as UTC
func ParseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	ts, err := time.ParseInLocation(localTimestampLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", value, err)
	}
	return ts, nil
}

// HistoryQuery selects a page of history records
type HistoryQuery struct {
	Page         int
	Limit        int
	Sort         string
	Status       string
	MainCategory string
	URLContains  string
}

// HistoryPage is one page of filtered history records. Total counts the
// filtered set before pagination.
type HistoryPage struct {
	Items []*HistoryRecord `json:"items"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Pages int              `json:"pages"`
}

// PageCount returns ceil(total/limit), at least 1
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// CacheEntry is a stored analysis keyed by normalized URL
type CacheEntry struct {
	Key       string
	Result    *AnalysisResult
	StoredAt  time.Time
	ExpiresAt time.Time
}

// Clone returns a deep copy of the entry
func (e *CacheEntry) Clone() *CacheEntry {
	if e == nil {
		return nil
	}
	cloned := *e
	cloned.Result = e.Result.Clone()
	return &cloned
}

// Expired reports whether the entry should be treated as absent at now
func (e *CacheEntry) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Categories is the reference taxonomy: main category -> sub category -> details
type Categories map[string]map[string][]string
