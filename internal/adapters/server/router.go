// Package server serves the categorization wire contract over HTTP from any
// backend.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/mikey/site-categorizer/internal/config"
	"github.com/mikey/site-categorizer/internal/core"
	"github.com/mikey/site-categorizer/internal/csvsource"
	"github.com/mikey/site-categorizer/internal/metrics"
	"github.com/mikey/site-categorizer/internal/ports"
	"go.uber.org/zap"
)

const (
	defaultHistoryLimit = 10
	maxUploadSize       = 32 << 20
)

// Router holds the handlers for the HTTP front end
type Router struct {
	backend ports.Backend
	logger  *zap.Logger
}

// NewRouter builds the HTTP handler. The wire routes live under /api.
func NewRouter(backend ports.Backend, m *metrics.Metrics, cfg config.ServerConfig, logger *zap.Logger) http.Handler {
	r := &Router{backend: backend, logger: logger}
	mux := chi.NewRouter()

	mux.Use(loggingMiddleware(logger))
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	mux.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", m.Handler())

	mux.Route("/api", func(rt chi.Router) {
		rt.Route("/analysis", func(rt chi.Router) {
			rt.Post("/analyze", r.wrap(r.handleAnalyze))
			rt.Post("/analyze-batch", r.wrap(r.handleAnalyzeBatch))
			rt.Post("/analyze-csv", r.wrap(r.handleAnalyzeCSV))
			rt.Get("/history", r.wrap(r.handleHistory))
			rt.Get("/history/categories", r.wrap(r.handleHistoryCategories))
			rt.Get("/history/{id}", r.wrap(r.handleHistoryItem))
		})
		rt.Route("/reference", func(rt chi.Router) {
			rt.Get("/categories", r.wrap(r.handleCategories))
			rt.Get("/categories/main", r.wrap(r.handleMainCategories))
			rt.Get("/categories/{main}", r.wrap(r.handleSubCategories))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, core.ErrValidation):
				status = http.StatusBadRequest
			case errors.Is(err, core.ErrNotFound):
				status = http.StatusNotFound
			default:
				r.logger.Error("Request failed",
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.Error(err))
			}
			writeJSON(w, status, map[string]string{"detail": err.Error()})
		}
	}
}

// writeJSON encodes v before touching w, so an encoding error leaves the
// response unwritten for wrap to report. Write errors mean the client is gone
// and are not returned.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// POST /api/analysis/analyze?force_refresh=
// Body: {"url": "<url>"}
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(req, &body); err != nil {
		return err
	}
	force, err := boolParam(req.URL.Query().Get("force_refresh"), "force_refresh")
	if err != nil {
		return err
	}

	result, err := r.backend.AnalyzeURL(req.Context(), body.URL, force)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// POST /api/analysis/analyze-batch?force_refresh=
// Body: {"urls": ["<url>", ...]}
func (r *Router) handleAnalyzeBatch(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		URLs []string `json:"urls"`
	}
	if err := decodeBody(req, &body); err != nil {
		return err
	}
	force, err := boolParam(req.URL.Query().Get("force_refresh"), "force_refresh")
	if err != nil {
		return err
	}

	batch, err := r.backend.AnalyzeBatch(req.Context(), body.URLs, force)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, batch)
}

// POST /api/analysis/analyze-csv
// Multipart form: file, column_name, force_refresh
func (r *Router) handleAnalyzeCSV(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxUploadSize); err != nil {
		return core.NewValidationError("file", "malformed upload: %v", err)
	}
	file, _, err := req.FormFile("file")
	if err != nil {
		return core.NewValidationError("file", "missing upload: %v", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	force, err := boolParam(req.FormValue("force_refresh"), "force_refresh")
	if err != nil {
		return err
	}

	urls, err := csvsource.ExtractURLs(data, req.FormValue("column_name"))
	if err != nil {
		return err
	}

	batch, err := r.backend.AnalyzeBatch(req.Context(), urls, force)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, batch)
}

// GET /api/analysis/history?page=&limit=&sort=&status=&main_category=&url_contains=
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	params := req.URL.Query()

	page, err := intParam(params.Get("page"), "page", 1)
	if err != nil {
		return err
	}
	limit, err := intParam(params.Get("limit"), "limit", defaultHistoryLimit)
	if err != nil {
		return err
	}

	result, err := r.backend.GetHistory(req.Context(), core.HistoryQuery{
		Page:         page,
		Limit:        limit,
		Sort:         params.Get("sort"),
		Status:       params.Get("status"),
		MainCategory: params.Get("main_category"),
		URLContains:  params.Get("url_contains"),
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, result)
}

// GET /api/analysis/history/categories
func (r *Router) handleHistoryCategories(w http.ResponseWriter, req *http.Request) error {
	categories, err := r.backend.GetHistoryCategories(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, categories)
}

// GET /api/analysis/history/{id}
func (r *Router) handleHistoryItem(w http.ResponseWriter, req *http.Request) error {
	record, err := r.backend.GetHistoryItem(req.Context(), pathParam(req, "id"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, record)
}

// GET /api/reference/categories
func (r *Router) handleCategories(w http.ResponseWriter, req *http.Request) error {
	categories, err := r.backend.GetCategories(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, categories)
}

// GET /api/reference/categories/main
func (r *Router) handleMainCategories(w http.ResponseWriter, req *http.Request) error {
	mains, err := r.backend.GetMainCategories(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, mains)
}

// GET /api/reference/categories/{main}
func (r *Router) handleSubCategories(w http.ResponseWriter, req *http.Request) error {
	subs, err := r.backend.GetSubCategories(req.Context(), pathParam(req, "main"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, subs)
}

// pathParam returns a decoded URL parameter. chi matches against the raw
// path when the request carries escaped separators.
func pathParam(req *http.Request, name string) string {
	value := chi.URLParam(req, name)
	if req.URL.RawPath == "" {
		return value
	}
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func decodeBody(req *http.Request, v any) error {
	if err := json.NewDecoder(req.Body).Decode(v); err != nil {
		return core.NewValidationError("body", "malformed JSON: %v", err)
	}
	return nil
}

func boolParam(raw, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, core.NewValidationError(name, "%q is not a boolean", raw)
	}
	return v, nil
}

func intParam(raw, name string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewValidationError(name, "%q is not an integer", raw)
	}
	return v, nil
}
