package mock

import "github.com/fwojciec/prgi"

var _ prgi.RowReader = (*RowReader)(nil)

// RowReader is a mock implementation of prgi.RowReader.
type RowReader struct {
	HeaderFn func() []string
	ReadFn   func() ([]string, error)
}

func (r *RowReader) Header() []string {
	return r.HeaderFn()
}

func (r *RowReader) Read() ([]string, error) {
	return r.ReadFn()
}

var _ prgi.TableParser = (*TableParser)(nil)

// TableParser is a mock implementation of prgi.TableParser.
type TableParser struct {
	ParseTableFn func(html string) (*prgi.Table, error)
}

func (p *TableParser) ParseTable(html string) (*prgi.Table, error) {
	return p.ParseTableFn(html)
}
