package main_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	main "github.com/fwojciec/prgi/cmd/prgi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var commands = []string{"import", "query", "stats", "scrape", "serve"}

func TestCLI_HelpShowsAllCommands(t *testing.T) {
	t.Parallel()

	cli := &main.CLI{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	parser, err := kong.New(cli,
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
		kong.Vars{
			"db":             "prgi.db",
			"batch_size":     "1000",
			"limit":          "100",
			"base_url":       "https://example.com",
			"start_page":     "1",
			"end_page":       "1",
			"items_per_page": "10",
			"min_delay":      "0s",
			"max_delay":      "0s",
			"wait_selector":  "table",
		},
	)
	require.NoError(t, err)

	_, _ = parser.Parse([]string{"--help"})

	helpOutput := stdout.String()
	for _, cmd := range commands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
}

func TestMain_Run_HelpShowsKongOutput(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	err := m.Run(context.Background(), []string{"--help"}, stdout, stderr)
	require.NoError(t, err)

	helpOutput := stdout.String()
	for _, cmd := range commands {
		assert.Contains(t, helpOutput, cmd, "Help should mention %s command", cmd)
	}
	assert.Contains(t, helpOutput, "Usage:", "Help should have Kong-style Usage prefix")
	assert.Contains(t, helpOutput, "Flags:", "Help should have Kong-style Flags section")
	assert.Contains(t, helpOutput, "PRGI_DB", "Help should name the database environment variable")
}

func TestMain_Run_ImportHelp(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	_ = m.Run(context.Background(), []string{"import", "--help"}, stdout, stderr)

	assert.Contains(t, stdout.String(), "--csv")
	assert.Contains(t, stdout.String(), "--batch-size")
}

func TestMain_Run_ScrapeHelpShowsListingDefaults(t *testing.T) {
	t.Parallel()

	m := main.NewMain()
	m.DBPath = filepath.Join(t.TempDir(), "test.db")

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	_ = m.Run(context.Background(), []string{"scrape", "--help"}, stdout, stderr)

	help := stdout.String()
	assert.Contains(t, help, "--start-page")
	assert.Contains(t, help, "--wait-selector")
	assert.Contains(t, help, "800ms")
	assert.Contains(t, help, "1.8s")
	assert.Contains(t, help, "prgi.gov.in/registration-title-details")
}
