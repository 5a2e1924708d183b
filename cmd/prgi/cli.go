package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/prgi"
	"github.com/fwojciec/prgi/scrape"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx            context.Context
	Stdout         io.Writer
	Stderr         io.Writer
	Logger         *slog.Logger
	Records        prgi.RecordService
	Exporters      map[string]prgi.Exporter
	Scraper        *scrape.Scraper
	MetricsHandler http.Handler
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	DB        string `name:"db" env:"PRGI_DB" default:"${db}" help:"SQLite database path"`
	LogLevel  string `name:"log-level" env:"PRGI_LOG_LEVEL" default:"info" enum:"debug,info,warn,error" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" env:"PRGI_LOG_FORMAT" default:"text" enum:"text,json" help:"Log format (text, json)"`

	Import ImportCmd `cmd:"" help:"Import registrations from a CSV file"`
	Query  QueryCmd  `cmd:"" help:"Filter registrations and print or export them"`
	Stats  StatsCmd  `cmd:"" help:"Show database statistics"`
	Scrape ScrapeCmd `cmd:"" help:"Scrape registrations from the PRGI website into a CSV file"`
	Serve  ServeCmd  `cmd:"" help:"Serve the search UI and JSON API"`
}

// ImportCmd is the "import" subcommand.
type ImportCmd struct {
	CSV       string `name:"csv" required:"" help:"Input CSV file"`
	BatchSize int    `name:"batch-size" default:"${batch_size}" help:"Records per insert transaction"`
}

// QueryCmd is the "query" subcommand.
type QueryCmd struct {
	Title              string `help:"Title contains (case-insensitive)"`
	Owner              string `help:"Owner name contains (case-insensitive)"`
	RegistrationNumber string `name:"registration-number" help:"Registration number contains (case-insensitive)"`
	State              string `help:"State exact match (case-insensitive)"`
	District           string `help:"District exact match (case-insensitive)"`
	Language           string `help:"Language exact match (case-insensitive)"`
	ClassName          string `name:"class-name" help:"Class exact match (case-insensitive)"`
	Offset             int    `help:"Number of matching records to skip"`
	Limit              int    `default:"${limit}" help:"Max records to return"`
	MaxPrint           int    `name:"max-print" default:"20" help:"Max records to print to the terminal"`
	Export             string `help:"Write the matched records to this file"`
	Format             string `help:"Export format (csv, json); defaults to the file extension"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}

// ScrapeCmd is the "scrape" subcommand.
type ScrapeCmd struct {
	BaseURL      string        `name:"base-url" default:"${base_url}" help:"Listing URL (default: ${default})"`
	StartPage    int           `name:"start-page" default:"${start_page}" help:"First page to fetch (default: ${default})"`
	EndPage      int           `name:"end-page" default:"${end_page}" help:"Last page to fetch"`
	ItemsPerPage int           `name:"items-per-page" default:"${items_per_page}" help:"Rows requested per page"`
	Output       string        `short:"o" default:"prgi_registration_title_details.csv" help:"Output CSV file"`
	Timeout      time.Duration `default:"60s" help:"Timeout per page request"`
	MinDelay     time.Duration `name:"min-delay" default:"${min_delay}" help:"Minimum delay between page requests (default: ${default})"`
	MaxDelay     time.Duration `name:"max-delay" default:"${max_delay}" help:"Maximum delay between page requests (default: ${default})"`
	NoDedupe     bool          `name:"no-dedupe" help:"Keep duplicate rows"`
	Browser      bool          `help:"Render pages in headless Chrome"`
	WaitSelector string        `name:"wait-selector" default:"${wait_selector}" help:"CSS selector to wait for with --browser"`
	Import       bool          `help:"Import the scraped CSV into the database"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Addr string `env:"PRGI_ADDR" default:":8080" help:"Listen address"`
}
