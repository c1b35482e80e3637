package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"go-env-manager/internal/model"
)

func (c *cli) varsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "vars",
		Aliases: []string{"var", "v"},
		Short:   "Manage tracked user-scope variables",
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "Reconcile tracked variables with the user scope and list them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			vars, err := s.Variables.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), vars, individualTable(vars))
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "filter on name and value")

	set := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Create or overwrite a user-scope variable; overwrites can be undone from the trash",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			// Adopt untracked OS variables first so an overwrite is recorded.
			if _, err := s.Variables.Reconcile(cmd.Context()); err != nil {
				return err
			}

			isNew := false
			if _, err := s.Variables.Get(cmd.Context(), args[0]); errors.Is(err, model.ErrVariableNotFound) {
				isNew = true
			} else if err != nil {
				return err
			}

			saved, err := s.Variables.Save(cmd.Context(), args[0], args[1], isNew)
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), saved, individualTable([]model.IndividualVariable{saved}))
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a tracked variable from the user scope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			if err := s.Variables.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.render(c.out(cmd), map[string]string{"deleted": args[0]}, table{
				headers: []string{"DELETED"},
				rows:    [][]string{{args[0]}},
			})
		},
	}

	var segments []string
	path := &cobra.Command{
		Use:   "path [name]",
		Short: "Show the segments of a path list variable, or replace them with --segment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := "PATH"
			if len(args) == 1 {
				name = args[0]
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}

			if len(segments) > 0 {
				if _, err := s.Variables.Reconcile(cmd.Context()); err != nil {
					return err
				}
				if _, err := s.Variables.SavePathSegments(cmd.Context(), name, segments); err != nil {
					return err
				}
			}

			current, err := s.Variables.PathSegments(cmd.Context(), name)
			if err != nil {
				return err
			}
			t := table{headers: []string{"#", name}}
			for i, segment := range current {
				t.rows = append(t.rows, []string{strconv.Itoa(i + 1), segment})
			}
			return c.render(c.out(cmd), current, t)
		},
	}
	path.Flags().StringArrayVar(&segments, "segment", nil, "replacement segment, in order (repeatable)")

	cmd.AddCommand(list, set, del, path)
	return cmd
}

func individualTable(vars []model.IndividualVariable) table {
	t := table{headers: []string{"NAME", "VALUE", "ADOPTED", "UPDATED"}}
	for _, v := range vars {
		t.rows = append(t.rows, []string{v.Name, truncate(v.Value, 60), yesNo(v.IsSystemOriginal), shortTime(v.UpdatedAt)})
	}
	return t
}
