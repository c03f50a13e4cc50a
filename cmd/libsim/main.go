// Copyright 2026 The Libsim Authors
// SPDX-License-Identifier: Apache-2.0

// Command libsim runs the readers/writers access-coordination
// simulation: a configurable number of reader and writer agents
// contend for one shared library under a starvation-free fairness
// policy, with live status output until interrupted.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/libsim-project/libsim/lib/config"
	"github.com/libsim-project/libsim/lib/simulation"
	"github.com/libsim-project/libsim/lib/statusview"
	"github.com/libsim-project/libsim/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var usageErr *config.UsageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(os.Stderr, "libsim: %s\n%s\n", usageErr.Reason, config.Usage)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load(args)
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Println(version.Info())
		return nil
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	renderer := statusview.New(os.Stdout, cfg.Debug)
	statusMode := simulation.StatusEvents
	if cfg.Debug {
		statusMode = simulation.StatusPeriodic
	}

	sim, err := simulation.New(simulation.Params{
		Writers:    cfg.Writers,
		Readers:    cfg.Readers,
		ReadSpan:   cfg.Read,
		WriteSpan:  cfg.Write,
		WindowSpan: cfg.Window,
		Policy:     cfg.Policy,
		Tick:       cfg.Tick,
		OnStatus:   renderer.Render,
		StatusMode: statusMode,
		Seed:       cfg.Seed,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	logger.Info("starting simulation",
		"policy", string(cfg.Policy),
		"writers", cfg.Writers,
		"readers", cfg.Readers,
		"read", cfg.Read.String(),
		"write", cfg.Write.String(),
		"window", cfg.Window.String())

	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	fmt.Println("\nCleaning up...")
	return nil
}
