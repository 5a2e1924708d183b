package csv

import (
	"encoding/csv"
	"io"

	"github.com/fwojciec/prgi"
)

// WriteTable copies every row of src to w as CSV, header first.
// Malformed rows in src abort the copy.
func WriteTable(w io.Writer, src prgi.RowReader) (n int, err error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(src.Header()); err != nil {
		return 0, err
	}

	for {
		row, err := src.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return n, err
		}
		if err := cw.Write(row); err != nil {
			return n, err
		}
		n++
	}

	cw.Flush()
	return n, cw.Error()
}
