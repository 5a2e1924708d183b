package main

import (
	"fmt"
	"io"

	"github.com/fwojciec/prgi"
	prgicsv "github.com/fwojciec/prgi/csv"
	"github.com/fwojciec/prgi/fs"
	"github.com/fwojciec/prgi/ingest"
	"github.com/fwojciec/prgi/scrape"
)

// Run executes the scrape command.
func (c *ScrapeCmd) Run(deps *Dependencies) error {
	res, err := deps.Scraper.Scrape(deps.Ctx, scrape.Options{
		BaseURL:        c.BaseURL,
		StartPage:      c.StartPage,
		EndPage:        c.EndPage,
		ItemsPerPage:   c.ItemsPerPage,
		MinDelay:       c.MinDelay,
		MaxDelay:       c.MaxDelay,
		KeepDuplicates: c.NoDedupe,
	})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		return err
	}

	if err := writeCSV(c.Output, res); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Saved %s to %s\n", res, c.Output)

	if c.Import {
		return importFile(deps, c.Output, ingest.DefaultBatchSize)
	}
	return nil
}

func writeCSV(path string, src prgi.RowReader) error {
	return fs.WriteFile(path, func(w io.Writer) error {
		_, err := prgicsv.WriteTable(w, src)
		return err
	})
}
