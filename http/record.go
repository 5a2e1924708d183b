package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fwojciec/prgi"
	"github.com/go-chi/chi/v5"
)

// reserved query parameters that are not filter keys.
var reservedParams = map[string]bool{
	"offset": true,
	"limit":  true,
	"format": true,
}

// filterFromQuery builds a filter from URL query parameters. Unknown keys
// and malformed or out-of-range paging values are rejected with EINVALID.
func filterFromQuery(q url.Values, defaultLimit, maxLimit int) (prgi.RecordFilter, error) {
	params := make(map[string]string, len(q))
	for k, vs := range q {
		if reservedParams[k] || len(vs) == 0 {
			continue
		}
		params[k] = vs[0]
	}

	filter, err := prgi.ParseFilter(params)
	if err != nil {
		return prgi.RecordFilter{}, err
	}

	if filter.Offset, err = intParam(q, "offset", 0); err != nil {
		return prgi.RecordFilter{}, err
	}
	if filter.Limit, err = intParam(q, "limit", defaultLimit); err != nil {
		return prgi.RecordFilter{}, err
	}
	if filter.Limit > maxLimit {
		return prgi.RecordFilter{}, prgi.Errorf(prgi.EINVALID, "limit must not exceed %d", maxLimit)
	}
	if filter.Limit < 1 {
		return prgi.RecordFilter{}, prgi.Errorf(prgi.EINVALID, "limit must be positive")
	}
	return filter, filter.Validate()
}

func intParam(q url.Values, key string, def int) (int, error) {
	s := q.Get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, prgi.Errorf(prgi.EINVALID, "invalid %s %q", key, s)
	}
	return n, nil
}

type findRecordsResponse struct {
	Records []*prgi.Record `json:"records"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
}

// handleFindRecords handles "GET /api/records".
func (s *Server) handleFindRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r.URL.Query(), prgi.DefaultLimit, prgi.MaxLimit)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	records, total, err := s.RecordService.FindRecords(r.Context(), filter)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, &findRecordsResponse{
		Records: records,
		Total:   total,
		Offset:  filter.Offset,
		Limit:   filter.Limit,
	})
}

// handleExportRecords handles "GET /api/records/export?format=csv|json".
// The matched set is written as a download, up to MaxExportLimit records.
func (s *Server) handleExportRecords(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	exporter, ok := s.Exporters[format]
	if !ok {
		s.Error(w, r, prgi.Errorf(prgi.EINVALID, "unsupported export format %q", format))
		return
	}

	filter, err := filterFromQuery(r.URL.Query(), prgi.MaxExportLimit, prgi.MaxExportLimit)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	records, _, err := s.RecordService.FindRecords(r.Context(), filter)
	if err != nil {
		s.Error(w, r, err)
		return
	}

	filename := fmt.Sprintf("prgi_search_results_%s%s", time.Now().Format("20060102_150405"), exporter.Extension())
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := exporter.Export(w, records); err != nil {
		// Headers are already sent; the client sees a truncated body.
		s.Logger.Error("export failed", "format", format, "err", err)
	}
}

// handleStats handles "GET /api/stats".
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.RecordService.Stats(r.Context())
	if err != nil {
		s.Error(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type distinctValuesResponse struct {
	Field  prgi.Field `json:"field"`
	Values []string   `json:"values"`
}

// handleDistinctValues handles "GET /api/values/{field}".
func (s *Server) handleDistinctValues(w http.ResponseWriter, r *http.Request) {
	field, err := prgi.ParseField(chi.URLParam(r, "field"))
	if err != nil {
		s.Error(w, r, err)
		return
	}

	values, err := s.RecordService.DistinctValues(r.Context(), field)
	if err != nil {
		s.Error(w, r, err)
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, &distinctValuesResponse{Field: field, Values: values})
}
