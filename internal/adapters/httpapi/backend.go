package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mikey/site-categorizer/internal/core"
	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default timeout for requests to the service
	DefaultTimeout = 30 * time.Second

	defaultMaxIdleConnsPerHost = 10
	defaultIdleConnTimeout     = 90 * time.Second
	maxErrorBodySize           = 4096
)

// HTTPStatusError is a non-2xx response from the service
type HTTPStatusError struct {
	StatusCode int
	Detail     string
}

func (e *HTTPStatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, e.Detail)
}

// Is maps client error statuses onto the core error categories
func (e *HTTPStatusError) Is(target error) bool {
	switch target {
	case core.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case core.ErrValidation:
		return e.StatusCode == http.StatusBadRequest || e.StatusCode == http.StatusUnprocessableEntity
	}
	return false
}

// Backend is the HTTP transport to the real categorization service. It does
// not retry or cache.
type Backend struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewBackend creates a backend for the service rooted at baseURL
func NewBackend(baseURL string, timeout time.Duration, logger *zap.Logger) (*Backend, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConnsPerHost: defaultMaxIdleConnsPerHost,
				IdleConnTimeout:     defaultIdleConnTimeout,
			},
		},
		logger: logger,
	}, nil
}

type analyzeRequest struct {
	URL string `json:"url"`
}

type batchRequest struct {
	URLs []string `json:"urls"`
}

// AnalyzeURL posts one URL for analysis
func (b *Backend) AnalyzeURL(ctx context.Context, rawURL string, forceRefresh bool) (*core.AnalysisResult, error) {
	query := url.Values{"force_refresh": {strconv.FormatBool(forceRefresh)}}

	var result core.AnalysisResult
	if err := b.postJSON(ctx, "analyze url", "/analysis/analyze", query, analyzeRequest{URL: rawURL}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeBatch posts several URLs for analysis
func (b *Backend) AnalyzeBatch(ctx context.Context, urls []string, forceRefresh bool) (*core.BatchResult, error) {
	query := url.Values{"force_refresh": {strconv.FormatBool(forceRefresh)}}

	var result core.BatchResult
	if err := b.postJSON(ctx, "analyze batch", "/analysis/analyze-batch", query, batchRequest{URLs: urls}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnalyzeCSV uploads a spreadsheet as multipart form data
func (b *Backend) AnalyzeCSV(ctx context.Context, file []byte, columnName string, forceRefresh bool) (*core.BatchResult, error) {
	const op = "analyze csv"

	if columnName == "" {
		columnName = core.DefaultCSVColumn
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "upload.csv")
	if err != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("failed to create form file: %w", err)}
	}
	if _, err := part.Write(file); err != nil {
		return nil, &core.TransportError{Op: op, Err: fmt.Errorf("failed to write form file: %w", err)}
	}
	if err := writer.WriteField("column_name", columnName); err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	if err := writer.WriteField("force_refresh", strconv.FormatBool(forceRefresh)); err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}
	if err := writer.Close(); err != nil {
		return nil, &core.TransportError{Op: op, Err: err}
	}

	var result core.BatchResult
	if err := b.do(ctx, op, http.MethodPost, "/analysis/analyze-csv", nil, &body, writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetCategories fetches the reference taxonomy
func (b *Backend) GetCategories(ctx context.Context) (core.Categories, error) {
	var categories core.Categories
	if err := b.get(ctx, "get categories", "/reference/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// GetMainCategories fetches the top level of the taxonomy
func (b *Backend) GetMainCategories(ctx context.Context) ([]string, error) {
	var mains []string
	if err := b.get(ctx, "get main categories", "/reference/categories/main", nil, &mains); err != nil {
		return nil, err
	}
	return mains, nil
}

// GetSubCategories fetches the sub tree of one main category
func (b *Backend) GetSubCategories(ctx context.Context, mainCategory string) (map[string][]string, error) {
	var subs map[string][]string
	path := "/reference/categories/" + url.PathEscape(mainCategory)
	if err := b.get(ctx, "get sub categories", path, nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// GetHistory fetches one page of history
func (b *Backend) GetHistory(ctx context.Context, q core.HistoryQuery) (*core.HistoryPage, error) {
	query := url.Values{
		"page":  {strconv.Itoa(q.Page)},
		"limit": {strconv.Itoa(q.Limit)},
	}
	if q.Sort != "" {
		query.Set("sort", q.Sort)
	}
	if q.Status != "" {
		query.Set("status", q.Status)
	}
	if q.MainCategory != "" {
		query.Set("main_category", q.MainCategory)
	}
	if q.URLContains != "" {
		query.Set("url_contains", q.URLContains)
	}

	var page core.HistoryPage
	if err := b.get(ctx, "get history", "/analysis/history", query, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetHistoryItem fetches a single history record
func (b *Backend) GetHistoryItem(ctx context.Context, id string) (*core.HistoryRecord, error) {
	var record core.HistoryRecord
	if err := b.get(ctx, "get history item", "/analysis/history/"+url.PathEscape(id), nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// GetHistoryCategories fetches the distinct main categories in history
func (b *Backend) GetHistoryCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := b.get(ctx, "get history categories", "/analysis/history/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (b *Backend) get(ctx context.Context, op, path string, query url.Values, out any) error {
	return b.do(ctx, op, http.MethodGet, path, query, nil, "", out)
}

func (b *Backend) postJSON(ctx context.Context, op, path string, query url.Values, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("failed to marshal request: %w", err)}
	}
	return b.do(ctx, op, http.MethodPost, path, query, bytes.NewReader(body), "application/json", out)
}

// do executes one request and decodes a 2xx JSON body into out. Every
// failure is returned as a core.TransportError.
func (b *Backend) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	endpoint := b.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("failed to execute request: %w", err)}
	}
	defer resp.Body.Close()

	b.logger.Debug("Service responded",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return &core.TransportError{Op: op, Err: &HTTPStatusError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
		}}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.TransportError{Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	return nil
}

// errorDetail extracts {"detail": "..."} from an error body, falling back to
// the raw text.
func errorDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			return detail
		}
		return string(payload.Detail)
	}
	return strings.TrimSpace(string(body))
}
