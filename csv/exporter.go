package csv

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/fwojciec/prgi"
)

// Ensure Exporter implements prgi.Exporter at compile time.
var _ prgi.Exporter = (*Exporter)(nil)

// Exporter writes records as CSV with a prgi.Columns header. The output
// can be imported again without loss.
type Exporter struct{}

// NewExporter returns a new Exporter.
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export writes the header and one row per record.
func (e *Exporter) Export(w io.Writer, records []*prgi.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(prgi.Columns); err != nil {
		return err
	}

	row := make([]string, len(prgi.Columns))
	for _, rec := range records {
		meta, err := rec.MetadataJSON()
		if err != nil {
			return err
		}

		row[0] = strconv.FormatInt(rec.ID, 10)
		row[1] = rec.SerialNumber
		row[2] = rec.Title
		row[3] = rec.RegistrationNumber
		row[4] = rec.OwnerName
		row[5] = rec.State
		row[6] = rec.District
		row[7] = rec.Language
		row[8] = rec.ClassName
		row[9] = meta

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ContentType returns the CSV MIME type.
func (e *Exporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Extension returns ".csv".
func (e *Exporter) Extension() string {
	return ".csv"
}
