package main

import (
	"fmt"

	"github.com/fwojciec/prgi"
)

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	stats, err := deps.Records.Stats(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", prgi.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Total records:    %d\n", stats.TotalRecords)
	fmt.Fprintf(deps.Stdout, "Unique states:    %d\n", stats.UniqueStates)
	fmt.Fprintf(deps.Stdout, "Unique languages: %d\n", stats.UniqueLanguages)
	fmt.Fprintf(deps.Stdout, "Unique districts: %d\n", stats.UniqueDistricts)
	return nil
}
