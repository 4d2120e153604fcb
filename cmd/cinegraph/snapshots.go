// Cinegraph - Movie Similarity Graph Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinegraph

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/tomtom215/cinegraph/internal/logging"
)

func runSnapshots(ctx context.Context, args []string, stdout io.Writer) error {
	fs, configPath := newFlagSet("snapshots")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing snapshot store")
		}
	}()

	list, err := store.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		_, _ = fmt.Fprintln(stdout, "No snapshots stored.")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tMODE\tNODES\tEDGES\tTHRESHOLD\tBYTES\tSAVED\tID")
	for _, m := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			m.Name, m.Version, m.Mode, m.Nodes, m.Edges, m.Threshold, m.SizeBytes,
			m.SavedAt.Format(time.RFC3339), m.ID)
	}
	return tw.Flush()
}
