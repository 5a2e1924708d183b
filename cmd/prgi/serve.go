package main

import (
	"fmt"

	prgihttp "github.com/fwojciec/prgi/http"
)

// Run executes the serve command. It blocks until the context is canceled.
func (c *ServeCmd) Run(deps *Dependencies) error {
	s := prgihttp.NewServer()
	s.Addr = c.Addr
	s.RecordService = deps.Records
	s.Exporters = deps.Exporters
	s.MetricsHandler = deps.MetricsHandler
	s.Logger = deps.Logger

	fmt.Fprintf(deps.Stdout, "Serving on http://%s\n", displayAddr(c.Addr))
	return s.ListenAndServe(deps.Ctx)
}

// displayAddr turns ":8080" into "localhost:8080".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
