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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/ux"
	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
	"github.com/AleutianAI/AleutianPlan/services/planner/watch"
)

func (a *app) watchCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-estimate a problem definition every time it is saved",
		Long: `Loads a YAML problem definition, prints the estimate of its initial state
and repeats whenever the file changes. Runs until interrupted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := a.kindOf(kind)
			if err != nil {
				return err
			}

			var est *heuristic.Estimator
			onReload := func(p *problem.AirCargo, path string) {
				if est == nil {
					est = heuristic.NewEstimator(p, a.estimatorOptions(nil)...)
				} else {
					est.SetProblem(p)
				}
				e, err := est.Evaluate(cmd.Context(), p.Initial(), k)
				if err != nil {
					a.out.Error(path + ": " + err.Error())
					return
				}
				a.out.Success(p.Name() + " " + string(k) + " = " + ux.FormatValue(e.Value) +
					" (" + p.Fingerprint() + ")")
			}
			onError := func(err error, path string) {
				a.out.Error(path + ": " + err.Error())
			}

			w, err := watch.New(args, onReload,
				watch.WithErrorHandler(onError),
				watch.WithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "heuristic (default from config)")
	return cmd
}
