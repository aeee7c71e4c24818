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
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/ux"
	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
)

func (a *app) successorsCmd() *cobra.Command {
	var (
		name    string
		file    string
		state   string
		kind    string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "successors",
		Short: "Estimate every state one action away, best first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProblem(name, file)
			if err != nil {
				return err
			}
			s, err := stateOf(p, state)
			if err != nil {
				return err
			}
			k, err := a.kindOf(kind)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Planner.Workers
			}

			est := heuristic.NewEstimator(p, a.estimatorOptions(nil)...)
			succ, err := est.Successors(cmd.Context(), s, k, workers)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(succ))
			for _, sc := range succ {
				rows = append(rows, []string{
					sc.Action,
					ux.FormatValue(sc.Estimate.Value),
					string(sc.Estimate.State),
					strconv.FormatBool(p.GoalTest(sc.Estimate.State)),
				})
			}
			a.out.Title("Successors of " + string(s) + " (" + string(k) + ")")
			a.out.Table([]string{"ACTION", "VALUE", "STATE", "GOAL"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "problem", "p", "", "built-in problem (default from config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML problem definition")
	cmd.Flags().StringVarP(&state, "state", "s", "", "state as a T/F string (default: initial state)")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "heuristic (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent estimates (default from config)")
	cmd.MarkFlagsMutuallyExclusive("problem", "file")
	return cmd
}
