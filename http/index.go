package http

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fwojciec/prgi"
)

//go:embed templates/*.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"add": func(a, b int) int { return a + b },
}).ParseFS(templateFS, "templates/index.html"))

// indexLimits are the page sizes offered by the search form.
var indexLimits = []int{50, 100, 500, 1000, 5000}

type indexSelect struct {
	Field   prgi.Field
	Label   string
	Value   string
	Options []string
}

type indexPage struct {
	Error   string
	Filter  prgi.RecordFilter
	Selects []indexSelect
	Limits  []int
	Stats   *prgi.Stats
	Records []*prgi.Record
	Total   int
	First   int
	Last    int
	PrevURL string
	NextURL string
	CSVURL  string
	JSONURL string
}

var selectLabels = map[prgi.Field]string{
	prgi.FieldState:     "State",
	prgi.FieldDistrict:  "District",
	prgi.FieldLanguage:  "Language",
	prgi.FieldClassName: "Class",
}

// handleIndex handles "GET /", the search page. Filter errors are shown on
// the page with a 400 status.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	page := indexPage{Limits: indexLimits}
	status := http.StatusOK

	filter, err := filterFromQuery(q, prgi.DefaultLimit, prgi.MaxLimit)
	if err != nil {
		status = ErrorStatusCode(prgi.ErrorCode(err))
		page.Error = prgi.ErrorMessage(err)
		filter = prgi.RecordFilter{Limit: prgi.DefaultLimit}
	}
	page.Filter = filter

	for _, field := range prgi.Fields {
		if field.MatchKind() != prgi.MatchExact {
			continue
		}
		values, err := s.RecordService.DistinctValues(ctx, field)
		if err != nil {
			s.Error(w, r, err)
			return
		}
		page.Selects = append(page.Selects, indexSelect{
			Field:   field,
			Label:   selectLabels[field],
			Value:   filter.Get(field),
			Options: values,
		})
	}

	if page.Stats, err = s.RecordService.Stats(ctx); err != nil {
		s.Error(w, r, err)
		return
	}

	if page.Error == "" {
		records, total, err := s.RecordService.FindRecords(ctx, filter)
		if err != nil {
			s.Error(w, r, err)
			return
		}
		page.Records, page.Total = records, total
		page.First = filter.Offset + 1
		page.Last = filter.Offset + len(records)

		if filter.Offset > 0 {
			page.PrevURL = "/?" + withOffset(q, max(filter.Offset-filter.Limit, 0))
		}
		if page.Last < total {
			page.NextURL = "/?" + withOffset(q, page.Last)
		}
		page.CSVURL = "/api/records/export?" + exportQuery(q, "csv")
		page.JSONURL = "/api/records/export?" + exportQuery(q, "json")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := indexTemplate.Execute(w, &page); err != nil {
		s.Logger.Error("render index", "err", err)
	}
}

func withOffset(q url.Values, offset int) string {
	v := cloneValues(q)
	v.Set("offset", strconv.Itoa(offset))
	return v.Encode()
}

// exportQuery keeps the filters but drops paging so the whole matched set
// is downloaded.
func exportQuery(q url.Values, format string) string {
	v := cloneValues(q)
	v.Del("offset")
	v.Del("limit")
	v.Set("format", format)
	return v.Encode()
}

func cloneValues(q url.Values) url.Values {
	v := make(url.Values, len(q))
	for k, vs := range q {
		if len(vs) > 0 && vs[0] != "" {
			v[k] = append([]string(nil), vs...)
		}
	}
	return v
}
