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

	"github.com/AleutianAI/AleutianPlan/services/planner/problem"
)

func (a *app) problemsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "problems",
		Short: "List and inspect the built-in problems",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List the built-in problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var rows [][]string
			for _, name := range problem.Names() {
				p, err := problem.Lookup(name)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					name,
					strconv.Itoa(p.Universe().Len()),
					strconv.Itoa(len(p.Actions())),
					strconv.Itoa(len(p.Goal())),
				})
			}
			a.out.Title("Problems")
			a.out.Table([]string{"NAME", "FLUENTS", "ACTIONS", "GOALS"}, rows)
			return nil
		},
	}

	var file string
	show := &cobra.Command{
		Use:   "show [name]",
		Short: "Show a problem's fluents, initial state and goal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			p, err := a.loadProblem(name, file)
			if err != nil {
				return err
			}
			goal := make([]string, 0, len(p.Goal()))
			for _, g := range p.Goal() {
				goal = append(goal, string(g))
			}
			a.out.Title(p.Name())
			a.out.KeyValues([][2]string{
				{"fingerprint", p.Fingerprint()},
				{"initial", string(p.Initial())},
				{"goal", strings.Join(goal, ", ")},
				{"actions", strconv.Itoa(len(p.Actions()))},
			})

			rows := make([][]string, 0, p.Universe().Len())
			for i, f := range p.Universe().Fluents() {
				rows = append(rows, []string{
					strconv.Itoa(i),
					string(f),
					strconv.FormatBool(p.Initial().Holds(p.Universe(), f)),
				})
			}
			a.out.Table([]string{"INDEX", "FLUENT", "INITIAL"}, rows)
			return nil
		},
	}
	show.Flags().StringVarP(&file, "file", "f", "", "YAML problem definition instead of a built-in problem")

	cmd.AddCommand(list, show)
	return cmd
}
