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
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/AleutianPlan/services/planner/pgraph"
)

func (a *app) graphCmd() *cobra.Command {
	var (
		name   string
		file   string
		state  string
		serial bool
		mutex  int
	)
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Build a planning graph and print its levels",
		Example: `  pgplan graph -p have_cake
  pgplan graph -p air_cargo_p1 --serial=false --mutex 1`,
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
			var override *bool
			if cmd.Flags().Changed("serial") {
				override = &serial
			}
			g, err := pgraph.New(cmd.Context(), p, s, a.graphOptions(override)...)
			if err != nil {
				return err
			}
			if mutex >= g.Levels() {
				return fmt.Errorf("--mutex %d: graph has levels 0..%d", mutex, g.Levels()-1)
			}

			rows := make([][]string, 0, g.Levels())
			for i := 0; i < g.Levels(); i++ {
				fl := g.FactLevel(i)
				row := []string{strconv.Itoa(i), strconv.Itoa(fl.Len()), strconv.Itoa(fl.MutexPairs()), "-", "-"}
				if i < g.Levels()-1 {
					al := g.ActionLevel(i)
					row[3] = strconv.Itoa(al.Len())
					row[4] = strconv.Itoa(al.MutexPairs())
				}
				rows = append(rows, row)
			}

			st := g.Stats()
			a.out.Title("Planning graph: " + p.Name())
			a.out.KeyValues([][2]string{
				{"state", string(s)},
				{"serial", strconv.FormatBool(g.Serial())},
				{"leveled", strconv.FormatBool(g.Leveled())},
				{"build time", st.Duration.String()},
			})
			a.out.Table([]string{"LEVEL", "FACTS", "FACT_MUTEX", "ACTIONS", "ACTION_MUTEX"}, rows)

			if mutex >= 0 {
				a.printMutexes(g, mutex)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "problem", "p", "", "built-in problem (default from config)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML problem definition")
	cmd.Flags().StringVarP(&state, "state", "s", "", "root state as a T/F string (default: initial state)")
	cmd.Flags().BoolVar(&serial, "serial", true, "treat any two non-persistent actions as mutex (default from config)")
	cmd.Flags().IntVar(&mutex, "mutex", -1, "list the mutex pairs of this level")
	cmd.MarkFlagsMutuallyExclusive("problem", "file")
	return cmd
}

// printMutexes lists each unordered mutex pair of fact level i and, if it
// exists, action level i.
func (a *app) printMutexes(g *pgraph.Graph, i int) {
	var rows [][]string
	fl := g.FactLevel(i)
	for _, l := range fl.Literals() {
		for _, m := range fl.MutexOf(l) {
			if l.String() < m.String() {
				rows = append(rows, []string{"S" + strconv.Itoa(i), l.String(), m.String()})
			}
		}
	}
	if i < g.Levels()-1 {
		al := g.ActionLevel(i)
		for _, k := range al.Keys() {
			for _, m := range al.MutexOf(k) {
				if k.String() < m.String() {
					rows = append(rows, []string{"A" + strconv.Itoa(i), k.String(), m.String()})
				}
			}
		}
	}
	a.out.Title(fmt.Sprintf("Mutex pairs at level %d", i))
	a.out.Table([]string{"LEVEL", "FIRST", "SECOND"}, rows)
}
