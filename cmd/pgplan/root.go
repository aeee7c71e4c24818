// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/logging"
	"github.com/AleutianAI/AleutianPlan/pkg/ux"
	"github.com/AleutianAI/AleutianPlan/services/planner/config"
	"github.com/AleutianAI/AleutianPlan/services/planner/fluent"
	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
	"github.com/AleutianAI/AleutianPlan/services/planner/pgraph"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	"github.com/AleutianAI/AleutianPlan/services/planner/report"
	storage "github.com/AleutianAI/AleutianPlan/services/planner/storage/badger"
	"github.com/AleutianAI/AleutianPlan/services/planner/telemetry"
)

const shutdownTimeout = 10 * time.Second

// app carries state shared by every subcommand of one invocation.
type app struct {
	configPath string
	logLevel   string
	machine    bool

	cfg     config.Config
	logger  *slog.Logger
	out     *ux.Printer
	closers []func(context.Context) error
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if cerr := a.close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgplan",
		Short: "Planning-graph heuristics for classical planning problems",
		Long: `pgplan builds GraphPlan planning graphs for air cargo style problems and
evaluates admissible and inadmissible heuristics over them.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"config file (default $PGPLAN_CONFIG or ~/.pgplan/pgplan.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"override the configured log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.machine, "machine", false,
		"tab-separated output for scripts")

	root.AddCommand(
		a.problemsCmd(),
		a.estimateCmd(),
		a.graphCmd(),
		a.successorsCmd(),
		a.historyCmd(),
		a.watchCmd(),
		a.serveCmd(),
	)
	return root
}

// setup loads configuration and starts logging and telemetry.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, path, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, closeLog, err := logging.New(logging.Config{
		Level:   level,
		JSON:    cfg.Log.JSON,
		File:    cfg.Log.File,
		Service: cfg.Telemetry.ServiceName,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return closeLog() })
	a.logger = logger
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", slog.String("path", path))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdown)

	a.out = ux.NewPrinter(cmd.OutOrStdout(), ux.DetectMode(cmd.OutOrStdout(), a.machine))
	return nil
}

// close runs the closers in reverse order.
func (a *app) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// estimatorOptions maps the planner configuration onto estimator options.
// serial overrides the configured serial-planning flag when non-nil.
func (a *app) estimatorOptions(serial *bool) []heuristic.Option {
	return []heuristic.Option{
		heuristic.WithCacheCapacity(a.cfg.Planner.CacheCapacity),
		heuristic.WithGraphOptions(a.graphOptions(serial)...),
		heuristic.WithLogger(a.logger),
	}
}

func (a *app) graphOptions(serial *bool) []pgraph.Option {
	s := a.cfg.Planner.SerialPlanning
	if serial != nil {
		s = *serial
	}
	return []pgraph.Option{
		pgraph.WithSerialPlanning(s),
		pgraph.WithMaxLevels(a.cfg.Planner.MaxLevels),
		pgraph.WithLogger(a.logger),
	}
}

// loadProblem returns the problem defined in file, or else the catalog
// problem called name, or else the configured default.
func (a *app) loadProblem(name, file string) (problem.Problem, error) {
	if file != "" {
		d, err := problem.LoadDefinition(file)
		if err != nil {
			return nil, err
		}
		return d.Build()
	}
	if name == "" {
		name = a.cfg.Planner.DefaultProblem
	}
	return problem.Lookup(name)
}

// stateOf parses a state flag; empty means the initial state.
func stateOf(p problem.Problem, raw string) (fluent.State, error) {
	if raw == "" {
		return p.Initial(), nil
	}
	s := fluent.State(raw)
	if err := s.Validate(p.Universe()); err != nil {
		return "", err
	}
	return s, nil
}

// kindOf parses a heuristic flag; empty means the configured default.
func (a *app) kindOf(raw string) (heuristic.Kind, error) {
	if raw == "" {
		raw = a.cfg.Planner.DefaultKind
	}
	return heuristic.ParseKind(raw)
}

// openStore opens the estimate history and registers it for closing.
func (a *app) openStore() (*report.Store, error) {
	sc := storage.DefaultConfig(a.cfg.Store.Path)
	if a.cfg.Store.InMemory {
		sc = storage.InMemoryConfig()
	}
	sc.Logger = a.logger
	db, err := storage.Open(sc)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	return report.NewStore(db, a.logger), nil
}
