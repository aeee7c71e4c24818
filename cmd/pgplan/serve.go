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
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/services/planner/api"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	"github.com/AleutianAI/AleutianPlan/services/planner/telemetry"
	"github.com/AleutianAI/AleutianPlan/services/planner/watch"
)

func (a *app) serveCmd() *cobra.Command {
	var (
		addr      string
		files     []string
		watchDefs bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve heuristic estimates over HTTP",
		Long: `Starts the planner API. Problems defined with --file are served next to the
built-in ones; with --watch they are reloaded when their files change.`,
		Example: `  pgplan serve --addr 127.0.0.1:8088 -f problems/two_hops.yaml --watch`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if addr == "" {
				addr = a.cfg.Server.Address
			}
			kind, err := a.kindOf("")
			if err != nil {
				return err
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}

			svc := api.NewService(api.ServiceConfig{
				Store:            store,
				EstimatorOptions: a.estimatorOptions(nil),
				DefaultKind:      kind,
				Workers:          a.cfg.Planner.Workers,
				Logger:           a.logger,
			})

			if watchDefs && len(files) > 0 {
				w, err := watch.New(files,
					func(p *problem.AirCargo, _ string) { svc.Register(p) },
					watch.WithLogger(a.logger),
				)
				if err != nil {
					return err
				}
				go func() {
					if err := w.Run(ctx); err != nil {
						a.logger.Error("definition watcher stopped", slog.String("error", err.Error()))
					}
				}()
			} else {
				for _, f := range files {
					d, err := problem.LoadDefinition(f)
					if err != nil {
						return err
					}
					p, err := d.Build()
					if err != nil {
						return err
					}
					svc.Register(p)
				}
			}

			if a.cfg.Log.Level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			router := api.NewRouter(a.cfg.Telemetry.ServiceName, svc, telemetry.MetricsHandler())
			return a.listen(ctx, addr, router)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "YAML problem definitions to serve, repeatable")
	cmd.Flags().BoolVar(&watchDefs, "watch", false, "reload --file definitions when they change")
	return cmd
}

// listen serves h on addr until ctx is done, then shuts down gracefully.
func (a *app) listen(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	a.logger.Info("planner API listening", slog.String("address", ln.Addr().String()))
	a.out.Success("listening on http://" + ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down planner API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
