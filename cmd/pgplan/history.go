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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/ux"
)

func (a *app) historyCmd() *cobra.Command {
	var (
		name  string
		all   bool
		limit int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded estimates of a problem, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch {
			case all:
				name = ""
			case name == "":
				name = a.cfg.Planner.DefaultProblem
			}
			store, err := a.openStore()
			if err != nil {
				return err
			}
			reports, err := store.List(cmd.Context(), name, limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				a.out.Warning("no recorded estimates")
				return nil
			}
			rows := make([][]string, 0, len(reports))
			for _, r := range reports {
				rows = append(rows, []string{
					r.ID.String(),
					r.Problem,
					r.CreatedAt.Format(time.RFC3339),
					string(r.Kind),
					r.State,
					ux.FormatValue(r.Value),
					strconv.Itoa(r.Levels),
				})
			}
			a.out.Title("History")
			a.out.Table([]string{"ID", "PROBLEM", "CREATED", "HEURISTIC", "STATE", "VALUE", "LEVELS"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "problem", "p", "", "problem name (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "list every problem")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "newest entries to show; 0 for all")
	return cmd
}
