// Package csv reads import sources from and exports records to
// comma-separated files.
package csv

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"unicode/utf8"

	"github.com/fwojciec/prgi"
)

// Ensure Reader implements prgi.RowReader at compile time.
var _ prgi.RowReader = (*Reader)(nil)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader reads rows from a CSV source whose first record is the header.
type Reader struct {
	r      *csv.Reader
	closer io.Closer
	header []string
}

// Open opens the CSV file at path and reads its header.
// Returns ENOTFOUND if the file is missing or unreadable and EINVALID if
// it has no header row.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, prgi.Errorf(prgi.ENOTFOUND, "source %q not found", path)
	} else if err != nil {
		return nil, prgi.Errorf(prgi.ENOTFOUND, "source %q is not readable: %v", path, err)
	}

	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closer = f
	return r, nil
}

// NewReader returns a Reader over r and reads the header.
// Returns EINVALID if r has no header row.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	// Rows must have as many fields as the header.
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err == io.EOF {
		return nil, prgi.Errorf(prgi.EINVALID, "missing header row")
	} else if err != nil {
		return nil, prgi.Errorf(prgi.EINVALID, "invalid header row: %v", err)
	}

	return &Reader{r: cr, header: header}, nil
}

// Header returns the header row.
func (r *Reader) Header() []string {
	return r.header
}

// Read returns the next row. Rows that cannot be parsed or hold invalid
// UTF-8 are reported with EINVALID and reading may continue. Returns io.EOF after the last row.
func (r *Reader) Read() ([]string, error) {
	rec, err := r.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}

	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return nil, prgi.Errorf(prgi.EINVALID, "line %d: %v", perr.Line, perr.Err)
	} else if err != nil {
		return nil, err
	}

	for i, v := range rec {
		if !utf8.ValidString(v) {
			line, _ := r.r.FieldPos(i)
			return nil, prgi.Errorf(prgi.EINVALID, "line %d: invalid UTF-8", line)
		}
	}
	return rec, nil
}

// Close closes the underlying file when the Reader was created by Open.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}
