// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

// Command cinegraph builds, stores and serves movie similarity graphs.
//
// Usage:
//
//	cinegraph build   [-config file] [-catalog movies.json] [-threshold 7] [-mode dense|sparse] [-out graph.json]
//	cinegraph similar [-config file] [-k 5] [-version n | -file graph.json] <id>
//	cinegraph serve   [-config file] [-file graph.json]
//	cinegraph snapshots [-config file]
//
// build scores every pair of catalog movies and saves the resulting graph as
// a new snapshot version (or to -out). similar prints the strongest links of
// one node. serve runs the HTTP query API under a supervisor tree and picks
// up new snapshot versions as they are saved.
//
// # Configuration
//
// Settings are layered with koanf, highest priority last:
//   - Built-in defaults
//   - Config file (-config, $CONFIG_PATH or ./config.yaml)
//   - Environment variables (CINEGRAPH_THRESHOLD, SNAPSHOT_BACKEND, HTTP_PORT, ...)
//   - Command line flags
//
// # Node ids
//
// In dense mode node ids are catalog positions (0..N-1); in sparse mode they
// are the movies' catalog ids.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/cinegraph/internal/config"
	"github.com/tomtom215/cinegraph/internal/logging"
)

// errUsage marks command line mistakes; they exit with status 2.
var errUsage = errors.New("usage error")

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, args []string, stdout io.Writer) error
}

var commands = []command{
	{name: "build", summary: "score the catalog and save a graph snapshot", run: runBuild},
	{name: "similar", summary: "print the most similar movies of one node", run: runSimilar},
	{name: "serve", summary: "serve the graph over HTTP", run: runServe},
	{name: "snapshots", summary: "list stored snapshot versions", run: runSnapshots},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage(stderr)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	for _, cmd := range commands {
		if cmd.name != args[0] {
			continue
		}
		err := cmd.run(ctx, args[1:], stdout)
		switch {
		case err == nil:
			return 0
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			_, _ = fmt.Fprintf(stderr, "cinegraph %s: %v\n", cmd.name, err)
			return 2
		default:
			logging.Error().Err(err).Str("command", cmd.name).Msg("Command failed")
			return 1
		}
	}

	_, _ = fmt.Fprintf(stderr, "cinegraph: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "Usage: cinegraph <command> [flags]")
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Commands:")
	for _, cmd := range commands {
		_, _ = fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, "Run 'cinegraph <command> -h' for command flags.")
}

// newFlagSet returns a flag set carrying the shared -config flag.
func newFlagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	return fs, configPath
}

// parseFlags parses args and reports which flags were given explicitly, so
// that only those override the loaded configuration.
func parseFlags(fs *flag.FlagSet, args []string) (map[string]bool, error) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set, nil
}

// loadConfig loads configuration and initializes the global logger from it.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadWithKoanf()
	}
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})
	return cfg, nil
}
