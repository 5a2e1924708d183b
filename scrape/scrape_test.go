package scrape_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/prgi"
	"github.com/fwojciec/prgi/goquery"
	prgihttp "github.com/fwojciec/prgi/http"
	"github.com/fwojciec/prgi/mock"
	"github.com/fwojciec/prgi/scrape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// listingPage renders a registry page with the given rows of
// (title, registration number, state).
func listingPage(rows ...[3]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><table><thead><tr><th>Title Name</th><th>Registration Number</th><th>State</th></tr></thead><tbody>`)
	for _, r := range rows {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>", r[0], r[1], r[2])
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}

// pagedFetcher serves pages[n] for ?page=n and records the requested URLs.
func pagedFetcher(t *testing.T, pages map[string]func() (string, error)) (*mock.Fetcher, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var urls []string
	f := &mock.Fetcher{
		FetchFn: func(ctx context.Context, rawURL string) (string, error) {
			u, err := url.Parse(rawURL)
			require.NoError(t, err)
			mu.Lock()
			urls = append(urls, rawURL)
			mu.Unlock()
			fn, ok := pages[u.Query().Get("page")]
			if !ok {
				return "<html></html>", nil
			}
			return fn()
		},
		CloseFn: func() error { return nil },
	}
	return f, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), urls...)
	}
}

func static(html string) func() (string, error) {
	return func() (string, error) { return html, nil }
}

func opts(start, end int) scrape.Options {
	return scrape.Options{StartPage: start, EndPage: end, ItemsPerPage: 2}
}

func newScraper(f prgi.Fetcher) *scrape.Scraper {
	s := scrape.NewScraper(f, goquery.NewTableParser(), nil)
	s.RetryDelays = []time.Duration{time.Millisecond, time.Millisecond}
	return s
}

func readAll(t *testing.T, r prgi.RowReader) [][]string {
	t.Helper()
	var out [][]string
	for {
		values, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out
		}
		require.NoError(t, err)
		out = append(out, values)
	}
}

func TestPageURL(t *testing.T) {
	t.Parallel()

	got, err := scrape.PageURL(scrape.DefaultBaseURL, 3, 1000)
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "prgi.gov.in", u.Host)
	assert.Equal(t, "/registration-title-details", u.Path)
	q := u.Query()
	assert.Equal(t, "3", q.Get("page"))
	assert.Equal(t, "1000", q.Get("items_per_page"))
	for _, k := range []string{"title_name", "registration_number", "owner_name", "pub_state_name", "pub_dist_name", "languages"} {
		assert.True(t, q.Has(k), k)
		assert.Empty(t, q.Get(k), k)
	}
}

func TestOptions_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts scrape.Options
		ok   bool
	}{
		{"valid", scrape.Options{StartPage: 1, EndPage: 77, ItemsPerPage: 1000, MinDelay: time.Second, MaxDelay: 2 * time.Second}, true},
		{"single page", scrape.Options{StartPage: 5, EndPage: 5, ItemsPerPage: 1}, true},
		{"zero start", scrape.Options{StartPage: 0, EndPage: 3, ItemsPerPage: 1}, false},
		{"end before start", scrape.Options{StartPage: 4, EndPage: 3, ItemsPerPage: 1}, false},
		{"zero items", scrape.Options{StartPage: 1, EndPage: 1}, false},
		{"inverted delays", scrape.Options{StartPage: 1, EndPage: 1, ItemsPerPage: 1, MinDelay: 2 * time.Second, MaxDelay: time.Second}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.opts.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, prgi.EINVALID, prgi.ErrorCode(err))
		})
	}
}

func TestScraper_Scrape(t *testing.T) {
	t.Parallel()

	t.Run("collects rows from every page in range", func(t *testing.T) {
		t.Parallel()

		f, urls := pagedFetcher(t, map[string]func() (string, error){
			"1": static(listingPage([3]string{"Daily News", "MAHENG/2001/1", "Maharashtra"})),
			"2": static(listingPage([3]string{"Kerala Times", "KERMAL/1999/7", "Kerala"})),
		})

		res, err := newScraper(f).Scrape(context.Background(), opts(1, 2))
		require.NoError(t, err)

		assert.Len(t, urls(), 2)
		assert.Equal(t, 2, res.Pages)
		assert.Equal(t, []string{"Title Name", "Registration Number", "State"}, res.Header())
		assert.Equal(t, [][]string{
			{"Daily News", "MAHENG/2001/1", "Maharashtra"},
			{"Kerala Times", "KERMAL/1999/7", "Kerala"},
		}, readAll(t, res))
	})

	t.Run("removes identical rows across pages", func(t *testing.T) {
		t.Parallel()

		row := [3]string{"Daily News", "MAHENG/2001/1", "Maharashtra"}
		f, _ := pagedFetcher(t, map[string]func() (string, error){
			"1": static(listingPage(row, [3]string{"Goa Herald", "GOAENG/2010/3", "Goa"})),
			"2": static(listingPage(row)),
		})

		res, err := newScraper(f).Scrape(context.Background(), opts(1, 2))
		require.NoError(t, err)

		assert.Len(t, res.Rows, 2)
		assert.Equal(t, 1, res.Duplicates)
	})

	t.Run("keeps duplicates when asked", func(t *testing.T) {
		t.Parallel()

		row := [3]string{"Daily News", "MAHENG/2001/1", "Maharashtra"}
		f, _ := pagedFetcher(t, map[string]func() (string, error){
			"1": static(listingPage(row, row)),
		})
		o := opts(1, 1)
		o.KeepDuplicates = true

		res, err := newScraper(f).Scrape(context.Background(), o)
		require.NoError(t, err)

		assert.Len(t, res.Rows, 2)
		assert.Equal(t, 0, res.Duplicates)
	})

	t.Run("retries temporary failures", func(t *testing.T) {
		t.Parallel()

		calls := 0
		f, _ := pagedFetcher(t, map[string]func() (string, error){
			"1": func() (string, error) {
				calls++
				if calls == 1 {
					return "", &prgihttp.StatusError{StatusCode: http.StatusTooManyRequests}
				}
				return listingPage([3]string{"Goa Herald", "GOAENG/2010/3", "Goa"}), nil
			},
		})

		res, err := newScraper(f).Scrape(context.Background(), opts(1, 1))
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
		assert.Len(t, res.Rows, 1)
		assert.Equal(t, 0, res.FailedPages)
	})

	t.Run("skips pages that keep failing", func(t *testing.T) {
		t.Parallel()

		f, _ := pagedFetcher(t, map[string]func() (string, error){
			"1": func() (string, error) {
				return "", &prgihttp.StatusError{StatusCode: http.StatusBadGateway}
			},
			"2": static(listingPage([3]string{"Goa Herald", "GOAENG/2010/3", "Goa"})),
		})

		res, err := newScraper(f).Scrape(context.Background(), opts(1, 2))
		require.NoError(t, err)

		assert.Equal(t, 1, res.FailedPages)
		assert.Equal(t, 1, res.Pages)
		assert.Len(t, res.Rows, 1)
	})

	t.Run("unions columns across pages", func(t *testing.T) {
		t.Parallel()

		f, _ := pagedFetcher(t, map[string]func() (string, error){
			"1": static(`<table><thead><tr><th>Title Name</th><th>State</th></tr></thead>
				<tbody><tr><td>Goa Herald</td><td>Goa</td></tr></tbody></table>`),
			"2": static(`<table><thead><tr><th>Title Name</th><th>Language</th></tr></thead>
				<tbody><tr><td>Kerala Times</td><td>Malayalam</td></tr></tbody></table>`),
		})

		res, err := newScraper(f).Scrape(context.Background(), opts(1, 2))
		require.NoError(t, err)

		assert.Equal(t, []string{"Title Name", "State", "Language"}, res.Header())
		assert.Equal(t, [][]string{
			{"Goa Herald", "Goa", ""},
			{"Kerala Times", "", "Malayalam"},
		}, readAll(t, res))
	})

	t.Run("returns not found when nothing was collected", func(t *testing.T) {
		t.Parallel()

		f, _ := pagedFetcher(t, nil)

		_, err := newScraper(f).Scrape(context.Background(), opts(1, 3))

		assert.Equal(t, prgi.ENOTFOUND, prgi.ErrorCode(err))
	})

	t.Run("rejects invalid options before fetching", func(t *testing.T) {
		t.Parallel()

		f, urls := pagedFetcher(t, nil)

		_, err := newScraper(f).Scrape(context.Background(), opts(3, 1))

		assert.Equal(t, prgi.EINVALID, prgi.ErrorCode(err))
		assert.Empty(t, urls())
	})

	t.Run("stops on context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		f, _ := pagedFetcher(t, map[string]func() (string, error){
			"1": func() (string, error) {
				cancel()
				return "", context.Canceled
			},
		})

		_, err := newScraper(f).Scrape(ctx, opts(1, 5))

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("waits between pages", func(t *testing.T) {
		t.Parallel()

		page := static(listingPage([3]string{"Goa Herald", "GOAENG/2010/3", "Goa"}))
		f, _ := pagedFetcher(t, map[string]func() (string, error){"1": page, "2": page, "3": page})
		o := opts(1, 3)
		o.MinDelay = 50 * time.Millisecond
		o.MaxDelay = 60 * time.Millisecond

		start := time.Now()
		_, err := newScraper(f).Scrape(context.Background(), o)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})
}

func TestResult_String(t *testing.T) {
	t.Parallel()

	res := &scrape.Result{Rows: make([]prgi.Row, 3), Pages: 2, FailedPages: 1, Duplicates: 4}
	assert.Equal(t, "3 rows from 2 pages (1 failed, 4 duplicates removed)", res.String())
}
