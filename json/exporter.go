// Package json exports records as a JSON array.
package json

import (
	"encoding/json"
	"io"

	"github.com/fwojciec/prgi"
)

// Ensure Exporter implements prgi.Exporter at compile time.
var _ prgi.Exporter = (*Exporter)(nil)

// Exporter writes records as an indented JSON array of objects.
type Exporter struct{}

// NewExporter returns a new Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes records to w. An empty slice is written as [].
func (e *Exporter) Export(w io.Writer, records []*prgi.Record) error {
	if records == nil {
		records = []*prgi.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

// ContentType returns the JSON MIME type.
func (e *Exporter) ContentType() string {
	return "application/json"
}

// Extension returns ".json".
func (e *Exporter) Extension() string {
	return ".json"
}
