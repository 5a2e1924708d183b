// Package scrape collects registration rows from the paginated registry
// listing and exposes them as a prgi.RowReader.
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/prgi"
)

// Listing defaults.
const (
	DefaultBaseURL      = "https://prgi.gov.in/registration-title-details"
	DefaultStartPage    = 1
	DefaultEndPage      = 77
	DefaultItemsPerPage = 1000
	DefaultMinDelay     = 800 * time.Millisecond
	DefaultMaxDelay     = 1800 * time.Millisecond
)

// Options describes which listing pages to collect.
type Options struct {
	BaseURL      string
	StartPage    int
	EndPage      int
	ItemsPerPage int

	// MinDelay and MaxDelay bound the pause between page requests.
	MinDelay time.Duration
	MaxDelay time.Duration

	// KeepDuplicates disables removal of identical rows.
	KeepDuplicates bool
}

// Validate returns an error if the options cannot describe a scrape.
func (o Options) Validate() error {
	if o.StartPage < 1 || o.EndPage < o.StartPage {
		return prgi.Errorf(prgi.EINVALID, "invalid page range %d-%d", o.StartPage, o.EndPage)
	}
	if o.ItemsPerPage < 1 {
		return prgi.Errorf(prgi.EINVALID, "items per page must be positive")
	}
	if o.MinDelay < 0 || o.MaxDelay < o.MinDelay {
		return prgi.Errorf(prgi.EINVALID, "invalid delay range %s-%s", o.MinDelay, o.MaxDelay)
	}
	return nil
}

// PageURL returns the listing URL for one page with all search fields blank.
func PageURL(baseURL string, page, itemsPerPage int) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", prgi.Errorf(prgi.EINVALID, "invalid base URL %q: %v", baseURL, err)
	}
	q := u.Query()
	for _, k := range []string{"title_name", "registration_number", "owner_name", "pub_state_name", "pub_dist_name", "languages"} {
		q.Set(k, "")
	}
	q.Set("items_per_page", strconv.Itoa(itemsPerPage))
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Scraper fetches listing pages one at a time and parses their tables.
type Scraper struct {
	Fetcher prgi.Fetcher
	Parser  prgi.TableParser
	Logger  *slog.Logger

	// RetryDelays are the waits between attempts for one page. Nil means
	// DefaultRetryDelays; an empty slice disables retries.
	RetryDelays []time.Duration
}

// NewScraper returns a Scraper with default retry delays.
func NewScraper(fetcher prgi.Fetcher, parser prgi.TableParser, logger *slog.Logger) *Scraper {
	return &Scraper{
		Fetcher: fetcher,
		Parser:  parser,
		Logger:  logger,
	}
}

// Scrape collects rows from every page in the range. Pages that fail after
// retries or cannot be parsed are logged and skipped. Returns ENOTFOUND if
// no page yielded any rows.
func (s *Scraper) Scrape(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}

	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	delays := s.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}

	res := &Result{}
	p := newPacer(opts.MinDelay, opts.MaxDelay)
	for page := opts.StartPage; page <= opts.EndPage; page++ {
		if page > opts.StartPage {
			if err := p.Wait(ctx); err != nil {
				return nil, err
			}
		}

		pageURL, err := PageURL(opts.BaseURL, page, opts.ItemsPerPage)
		if err != nil {
			return nil, err
		}

		logger.Info("fetching page", "page", page, "last", opts.EndPage)
		html, err := FetchWithRetry(ctx, pageURL, s.Fetcher.Fetch, logger, delays)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("page failed", "page", page, "err", err)
			res.FailedPages++
			continue
		}

		table, err := s.Parser.ParseTable(html)
		if err != nil {
			logger.Warn("page failed", "page", page, "err", err)
			res.FailedPages++
			continue
		}
		res.Pages++

		if len(table.Rows) == 0 {
			logger.Info("no rows found", "page", page)
			continue
		}
		logger.Info("page parsed", "page", page, "rows", len(table.Rows))
		res.add(table)
	}

	if len(res.Rows) == 0 {
		return nil, prgi.Errorf(prgi.ENOTFOUND, "no data collected from %d pages", opts.EndPage-opts.StartPage+1)
	}

	if !opts.KeepDuplicates {
		before := len(res.Rows)
		res.dedupe()
		logger.Info("deduplicated", "before", before, "after", len(res.Rows))
	}

	return res, nil
}

// Ensure Result implements prgi.RowReader at compile time.
var _ prgi.RowReader = (*Result)(nil)

// Result holds scraped rows. Its header is the union of all page columns in
// first-seen order; rows lacking a column read as "".
type Result struct {
	Rows        []prgi.Row
	Pages       int
	FailedPages int
	Duplicates  int

	columns []string
	seen    map[string]bool
	next    int
}

func (r *Result) add(t *prgi.Table) {
	if r.seen == nil {
		r.seen = make(map[string]bool)
	}
	for _, c := range t.Columns {
		if !r.seen[c] {
			r.seen[c] = true
			r.columns = append(r.columns, c)
		}
	}
	r.Rows = append(r.Rows, t.Rows...)
}

// dedupe removes rows identical to an earlier row, keeping the first.
func (r *Result) dedupe() {
	buckets := make(map[uint64][]prgi.Row)
	unique := r.Rows[:0]
	for _, row := range r.Rows {
		h := fingerprint(row)
		if slices.ContainsFunc(buckets[h], func(other prgi.Row) bool { return maps.Equal(row, other) }) {
			r.Duplicates++
			continue
		}
		buckets[h] = append(buckets[h], row)
		unique = append(unique, row)
	}
	clear(r.Rows[len(unique):])
	r.Rows = unique
}

// fingerprint hashes a row's sorted key/value pairs.
func fingerprint(row prgi.Row) uint64 {
	d := xxhash.New()
	for _, k := range slices.Sorted(maps.Keys(row)) {
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(row[k])
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Header returns the union of scraped columns.
func (r *Result) Header() []string {
	return r.columns
}

// Read returns the next row's values in header order, or io.EOF.
func (r *Result) Read() ([]string, error) {
	if r.next >= len(r.Rows) {
		return nil, io.EOF
	}
	row := r.Rows[r.next]
	r.next++

	values := make([]string, len(r.columns))
	for i, c := range r.columns {
		values[i] = row[c]
	}
	return values, nil
}

// String summarizes the result for log and CLI output.
func (r *Result) String() string {
	return fmt.Sprintf("%d rows from %d pages (%d failed, %d duplicates removed)",
		len(r.Rows), r.Pages, r.FailedPages, r.Duplicates)
}
