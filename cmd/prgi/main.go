package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/prgi"
	prgicsv "github.com/fwojciec/prgi/csv"
	"github.com/fwojciec/prgi/goquery"
	prgihttp "github.com/fwojciec/prgi/http"
	"github.com/fwojciec/prgi/ingest"
	prgijson "github.com/fwojciec/prgi/json"
	prgiprom "github.com/fwojciec/prgi/prometheus"
	"github.com/fwojciec/prgi/rod"
	"github.com/fwojciec/prgi/scrape"
	prgislog "github.com/fwojciec/prgi/slog"
	"github.com/fwojciec/prgi/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default database path, used when neither --db nor PRGI_DB is set.
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing. Fetcher replaces the HTTP or
	// browser fetcher used by the scrape command.
	RecordService prgi.RecordService
	Fetcher       prgi.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Exporters: map[string]prgi.Exporter{
			"csv":  prgicsv.NewExporter(),
			"json": prgijson.NewExporter(),
		},
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("prgi"),
		kong.Description("Import, search and export PRGI publication registrations."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
		kong.Vars{
			"db":             m.DBPath,
			"batch_size":     fmt.Sprint(ingest.DefaultBatchSize),
			"limit":          fmt.Sprint(prgi.DefaultLimit),
			"base_url":       scrape.DefaultBaseURL,
			"end_page":       fmt.Sprint(scrape.DefaultEndPage),
			"items_per_page": fmt.Sprint(scrape.DefaultItemsPerPage),
			"start_page":     fmt.Sprint(scrape.DefaultStartPage),
			"min_delay":      scrape.DefaultMinDelay.String(),
			"max_delay":      scrape.DefaultMaxDelay.String(),
			"wait_selector":  rod.DefaultWaitSelector,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'prgi --help' to see available commands")
	}

	if cmd := args[0]; cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	cmd := strings.Fields(kongCtx.Command())[0]

	logger, err := newLogger(stderr, cli.LogLevel, cli.LogFormat)
	if err != nil {
		return err
	}
	deps.Logger = logger

	// Scraping to a file needs no database.
	if cmd == "scrape" {
		fetcher, err := m.newFetcher(cli.Scrape)
		if err != nil {
			return err
		}
		defer fetcher.Close()

		s := scrape.NewScraper(prgislog.NewLoggingFetcher(fetcher, logger), goquery.NewTableParser(), logger)
		deps.Scraper = s
		if !cli.Scrape.Import {
			return kongCtx.Run(deps)
		}
	}

	m.DB = sqlite.NewDB(cli.DB)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set PRGI_DB or --db to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", cli.DB, err)
	}
	defer m.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.MetricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})

	deps.Records = m.RecordService
	if deps.Records == nil {
		var records prgi.RecordService = sqlite.NewRecordService(m.DB)
		records = prgiprom.NewRecordService(records, prgiprom.NewMetrics(reg))
		deps.Records = prgislog.NewLoggingRecordService(records, logger)
	}

	return kongCtx.Run(deps)
}

// newFetcher returns the fetcher for the scrape command.
func (m *Main) newFetcher(c ScrapeCmd) (prgi.Fetcher, error) {
	if m.Fetcher != nil {
		return m.Fetcher, nil
	}
	if c.Browser {
		fetcher, err := rod.NewFetcher(rod.WithTimeout(c.Timeout), rod.WithWaitSelector(c.WaitSelector))
		if err != nil {
			return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
		}
		return fetcher, nil
	}
	return prgihttp.NewFetcher(prgihttp.WithTimeout(c.Timeout)), nil
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "prgi.db"
	}
	return filepath.Join(home, ".prgi", "prgi.db")
}
