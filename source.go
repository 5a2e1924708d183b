package prgi

import "io"

// RowReader is a finite, pull-based sequence of source rows sharing one
// header. Read returns io.EOF after the last row. A row that cannot be
// decoded is reported with an EINVALID error; reading may continue after it.
type RowReader interface {
	Header() []string
	Read() ([]string, error)
}

// ImportReport summarizes an import run.
type ImportReport struct {
	RunID     string `json:"run_id"`
	Inserted  int    `json:"inserted"`
	Skipped   int    `json:"skipped"`
	Malformed int    `json:"malformed"`
	Total     int    `json:"total"`
}

// Exporter serializes records to an output format.
type Exporter interface {
	// Export writes records to w.
	Export(w io.Writer, records []*Record) error

	// ContentType returns the MIME type of the output.
	ContentType() string

	// Extension returns the conventional file extension, including the dot.
	Extension() string
}
