package main

import (
	"fmt"

	"github.com/fwojciec/prgi"
	prgicsv "github.com/fwojciec/prgi/csv"
	"github.com/fwojciec/prgi/ingest"
)

// Run executes the import command.
func (c *ImportCmd) Run(deps *Dependencies) error {
	return importFile(deps, c.CSV, c.BatchSize)
}

// importFile loads a CSV file into the record store and prints a summary.
func importFile(deps *Dependencies, path string, batchSize int) error {
	src, err := prgicsv.Open(path)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		return err
	}
	defer src.Close()

	im := ingest.NewImporter(deps.Records)
	im.BatchSize = batchSize
	im.Logger = deps.Logger

	report, err := im.Import(deps.Ctx, src)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		if report != nil {
			printReport(deps, report)
		}
		return err
	}

	printReport(deps, report)
	return nil
}

func printReport(deps *Dependencies, r *prgi.ImportReport) {
	fmt.Fprintf(deps.Stdout, "Import complete. Inserted=%d, Skipped(duplicates)=%d, Malformed=%d, Total in DB=%d\n",
		r.Inserted, r.Skipped, r.Malformed, r.Total)
}
