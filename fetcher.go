package prgi

import "context"

// Fetcher retrieves HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the page at url and returns its HTML.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases fetcher resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// Table is a parsed data table. Columns lists every key used by Rows in
// the order it first appears.
type Table struct {
	Columns []string
	Rows    []Row
}

// TableParser extracts tabular rows from an HTML page.
type TableParser interface {
	// ParseTable returns the first data table in html with rows keyed by
	// column header. Returns an empty table and no error when the page
	// holds no table.
	ParseTable(html string) (*Table, error)
}
