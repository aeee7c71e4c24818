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
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/pkg/ux"
	"github.com/AleutianAI/AleutianPlan/services/planner/heuristic"
	"github.com/AleutianAI/AleutianPlan/services/planner/report"
)

func (a *app) estimateCmd() *cobra.Command {
	var (
		name   string
		file   string
		state  string
		kinds  []string
		record bool
	)
	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate the distance from a state to the goal",
		Long: `Evaluates one or more heuristics on a state of a problem. --kind may be
repeated, or set to "all" for every heuristic.`,
		Example: `  pgplan estimate -p air_cargo_p1 -k levelsum -k maxlevel
  pgplan estimate -f problems/two_hops.yaml -s TFFFF -k all --record`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := a.loadProblem(name, file)
			if err != nil {
				return err
			}
			s, err := stateOf(p, state)
			if err != nil {
				return err
			}
			ks, err := a.kindList(kinds)
			if err != nil {
				return err
			}

			var store *report.Store
			if record {
				if store, err = a.openStore(); err != nil {
					return err
				}
			}

			est := heuristic.NewEstimator(p, a.estimatorOptions(nil)...)
			rows := make([][]string, 0, len(ks))
			for _, k := range ks {
				e, err := est.Evaluate(cmd.Context(), s, k)
				if err != nil {
					return err
				}
				id := "-"
				if store != nil {
					saved, err := store.Save(cmd.Context(), report.FromEstimate(p, e))
					if err != nil {
						return err
					}
					id = saved.ID.String()
				}
				rows = append(rows, []string{
					string(e.Kind),
					ux.FormatValue(e.Value),
					strconv.Itoa(e.Levels),
					id,
				})
			}

			a.out.Title("Estimate: " + p.Name())
			a.out.KeyValues([][2]string{
				{"fingerprint", p.Fingerprint()},
				{"state", string(s)},
				{"goal reached", strconv.FormatBool(p.GoalTest(s))},
			})
			a.out.Table([]string{"HEURISTIC", "VALUE", "LEVELS", "REPORT"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "problem", "p", "", "built-in problem (default from config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML problem definition")
	cmd.Flags().StringVarP(&state, "state", "s", "", "state as a T/F string (default: initial state)")
	cmd.Flags().StringSliceVarP(&kinds, "kind", "k", nil, "heuristic, repeatable, or \"all\"")
	cmd.Flags().BoolVar(&record, "record", false, "save each estimate to the history store")
	cmd.MarkFlagsMutuallyExclusive("problem", "file")
	return cmd
}

// kindList resolves --kind values. No value means the configured default.
func (a *app) kindList(raw []string) ([]heuristic.Kind, error) {
	if len(raw) == 0 {
		k, err := a.kindOf("")
		if err != nil {
			return nil, err
		}
		return []heuristic.Kind{k}, nil
	}
	var out []heuristic.Kind
	seen := make(map[heuristic.Kind]bool)
	for _, r := range raw {
		if strings.EqualFold(strings.TrimSpace(r), "all") {
			return heuristic.Kinds(), nil
		}
		k, err := heuristic.ParseKind(r)
		if err != nil {
			return nil, err
		}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out, nil
}
