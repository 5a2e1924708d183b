package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fwojciec/prgi"
	"github.com/fwojciec/prgi/fs"
)

// Run executes the query command.
func (c *QueryCmd) Run(deps *Dependencies) error {
	filter := prgi.RecordFilter{
		Title:              c.Title,
		OwnerName:          c.Owner,
		RegistrationNumber: c.RegistrationNumber,
		State:              c.State,
		District:           c.District,
		Language:           c.Language,
		ClassName:          c.ClassName,
		Offset:             c.Offset,
		Limit:              c.Limit,
	}
	if c.Limit < 1 {
		err := prgi.Errorf(prgi.EINVALID, "limit must be positive")
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		return err
	}

	var exporter prgi.Exporter
	if c.Export != "" {
		var err error
		if exporter, err = c.exporter(deps.Exporters); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
			return err
		}
	}

	records, total, err := deps.Records.FindRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		return err
	}

	printRecords(deps, records, total, c.MaxPrint)

	if exporter != nil {
		if err := exportFile(c.Export, exporter, records); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Exported %d rows to %s\n", len(records), c.Export)
	}
	return nil
}

// exporter picks the export format from --format or the file extension.
func (c *QueryCmd) exporter(exporters map[string]prgi.Exporter) (prgi.Exporter, error) {
	format := strings.ToLower(c.Format)
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(c.Export)), ".")
	}
	if format == "" {
		format = "csv"
	}
	e, ok := exporters[format]
	if !ok {
		return nil, prgi.Errorf(prgi.EINVALID, "unsupported export format %q", format)
	}
	return e, nil
}

func printRecords(deps *Dependencies, records []*prgi.Record, total, maxPrint int) {
	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No records found.")
		return
	}

	fmt.Fprintf(deps.Stdout, "Found %d record(s) of %d matching.\n", len(records), total)
	for i, r := range records {
		if i >= maxPrint {
			fmt.Fprintf(deps.Stdout, "... showing first %d. Use --export to save full results.\n", maxPrint)
			break
		}
		fmt.Fprintf(deps.Stdout, "%d. Reg#: %s | Title: %s | Owner: %s | State: %s | District: %s | Language: %s\n",
			i+1, r.RegistrationNumber, r.Title, r.OwnerName, r.State, r.District, r.Language)
	}
}

func exportFile(path string, exporter prgi.Exporter, records []*prgi.Record) error {
	return fs.WriteFile(path, func(w io.Writer) error {
		return exporter.Export(w, records)
	})
}
