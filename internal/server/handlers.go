package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"stocklens/internal"
	"stocklens/internal/pipeline"
	"stocklens/internal/report"
	"stocklens/internal/util"
)

// Handlers serves the pipeline's output surfaces as JSON for the
// presentation layer. The current Result is an immutable snapshot swapped
// atomically on upload; filter parameters re-run only the report stage.
type Handlers struct {
	svc            *pipeline.ProcessingService
	logger         *slog.Logger
	maxUploadBytes int64

	mu      sync.RWMutex
	current *internal.Result
}

func NewHandlers(svc *pipeline.ProcessingService, logger *slog.Logger, maxUploadBytes int64) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{svc: svc, logger: logger, maxUploadBytes: maxUploadBytes}
}

func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", h.handleUpload)
	mux.HandleFunc("GET /api/summary", h.handleSummary)
	mux.HandleFunc("GET /api/filters", h.handleFilters)
	mux.HandleFunc("GET /api/records", h.handleRecords)
	mux.HandleFunc("GET /api/views", h.handleViews)
	mux.HandleFunc("GET /api/timeseries", h.handleTimeSeries)
	mux.HandleFunc("GET /api/top", h.handleTop)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (h *Handlers) result() (*internal.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current, h.current != nil
}

func (h *Handlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_UPLOAD", "expected multipart field \"file\"", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "BAD_UPLOAD", "failed to read upload", err)
		return
	}

	res, err := h.svc.Process(header.Filename, data)
	if err != nil {
		var schemaErr *pipeline.SchemaError
		if errors.As(err, &schemaErr) {
			h.writeJSON(w, http.StatusBadRequest, map[string]any{
				"code":    "SCHEMA_ERROR",
				"message": schemaErr.Error(),
				"role":    schemaErr.Role,
				"missing": schemaErr.Missing,
				"headers": schemaErr.Headers,
			})
			h.logger.Warn("upload rejected", "file", header.Filename, "error", schemaErr)
			return
		}
		h.writeError(w, http.StatusInternalServerError, "PROCESSING_FAILED", "processing failed", err)
		return
	}

	// Only a fully processed result replaces the current snapshot; a
	// failed run leaves the previous state untouched.
	h.mu.Lock()
	h.current = res
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) handleSummary(w http.ResponseWriter, _ *http.Request) {
	res, ok := h.result()
	if !ok {
		h.writeError(w, http.StatusNotFound, "NO_DATA", "no workbook processed yet", nil)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) handleFilters(w http.ResponseWriter, _ *http.Request) {
	res, ok := h.result()
	if !ok {
		h.writeError(w, http.StatusNotFound, "NO_DATA", "no workbook processed yet", nil)
		return
	}
	monthNames := map[int]string{}
	for _, m := range res.Months {
		monthNames[m] = internal.MonthNames[m]
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"years":      res.Years,
		"months":     res.Months,
		"monthNames": monthNames,
	})
}

func (h *Handlers) handleRecords(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result()
	if !ok {
		h.writeError(w, http.StatusNotFound, "NO_DATA", "no workbook processed yet", nil)
		return
	}

	filtered := report.ApplyFilter(res.Table, parseFilter(r))
	cols := parseColumns(r.URL.Query().Get("columns"))
	limit := queryInt(r, "limit", 0)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"total":   len(filtered.Rows),
		"columns": colsOrDefault(cols, filtered),
		"rows":    report.Rows(filtered, cols, limit),
	})
}

func (h *Handlers) handleViews(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result()
	if !ok {
		h.writeError(w, http.StatusNotFound, "NO_DATA", "no workbook processed yet", nil)
		return
	}

	sortKey := report.SortKey(r.URL.Query().Get("sort"))
	views, err := report.BuildViews(r.Context(), res, parseFilter(r), sortKey)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "PROCESSING_FAILED", "failed to build views", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"views": views})
}

func (h *Handlers) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result()
	if !ok {
		h.writeError(w, http.StatusNotFound, "NO_DATA", "no workbook processed yet", nil)
		return
	}
	filtered := report.ApplyFilter(res.Table, parseFilter(r))
	h.writeJSON(w, http.StatusOK, report.TimeSeries(filtered, res.Features.Denominator))
}

func (h *Handlers) handleTop(w http.ResponseWriter, r *http.Request) {
	res, ok := h.result()
	if !ok {
		h.writeError(w, http.StatusNotFound, "NO_DATA", "no workbook processed yet", nil)
		return
	}
	filtered := report.ApplyFilter(res.Table, parseFilter(r))
	limit := queryInt(r, "limit", 10)
	top := internal.Table{Role: filtered.Role, Fields: filtered.Fields, Rows: report.TopProducts(filtered, limit)}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"rows": report.Rows(top, nil, 0),
	})
}

func parseFilter(r *http.Request) report.Filter {
	f := report.Filter{}
	q := r.URL.Query()
	if year, err := strconv.Atoi(q.Get("year")); err == nil {
		f.Year = util.IntPtr(year)
	}
	if month, err := strconv.Atoi(q.Get("month")); err == nil {
		f.Month = util.IntPtr(month)
	}
	if attr := q.Get("attr"); attr != "" {
		f.Attr = internal.Field(strings.ToUpper(attr))
		f.AttrValue = q.Get("value")
	}
	return f
}

func parseColumns(raw string) []internal.Field {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]internal.Field, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, internal.Field(strings.ToUpper(p)))
		}
	}
	return out
}

func colsOrDefault(cols []internal.Field, t internal.Table) []internal.Field {
	if len(cols) > 0 {
		return cols
	}
	return report.DefaultColumns(t)
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(key)); err == nil {
		return v
	}
	return fallback
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, code, message string, cause error) {
	if cause != nil {
		h.logger.Error("request failed", "code", code, "error", cause)
	}
	h.writeJSON(w, status, map[string]any{"code": code, "message": message})
}
