package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"go-env-manager/internal/model"
)

func (c *cli) groupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group", "g"},
		Short:   "List, create, toggle and delete variable groups",
	}

	var query string
	list := &cobra.Command{
		Use:   "list",
		Short: "List groups with their activation reconciled against the environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			groups, err := s.Groups.Search(cmd.Context(), query)
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), groups, groupTable(groups))
		},
	}
	list.Flags().StringVarP(&query, "query", "q", "", "filter on name, description and variables")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one group and its variables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			group, err := s.Groups.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), group, variableRows(group.Variables))
		},
	}

	var (
		name        string
		description string
		vars        []string
	)
	create := &cobra.Command{
		Use:   "create --name <name> --var NAME=VALUE...",
		Short: "Create an inactive group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseAssignments(vars)
			if err != nil {
				return err
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			group, err := s.Groups.Save(cmd.Context(), model.GroupInput{
				Name:        name,
				Description: description,
				Variables:   parsed,
			}, model.SaveModeCreate)
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), group, groupTable([]model.VariableGroup{group}))
		},
	}
	create.Flags().StringVar(&name, "name", "", "group name")
	create.Flags().StringVar(&description, "description", "", "group description")
	create.Flags().StringArrayVar(&vars, "var", nil, "variable as NAME=VALUE (repeatable)")
	_ = create.MarkFlagRequired("name")

	toggle := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Activate an inactive group or deactivate an active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			result, err := s.Groups.ToggleActive(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), result, failureTable(result.Failed, result.Applied))
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete groups, deactivating active ones first",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			result := s.Groups.DeleteBatch(cmd.Context(), args)

			t := table{headers: []string{"ID", "RESULT"}}
			for _, id := range result.Deleted {
				t.rows = append(t.rows, []string{id, "deleted"})
			}
			for _, f := range result.Failed {
				t.rows = append(t.rows, []string{f.ID, f.Reason})
			}
			if err := c.render(c.out(cmd), result, t); err != nil {
				return err
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d groups could not be deleted", len(result.Failed), len(args))
			}
			return nil
		},
	}

	cmd.AddCommand(list, show, create, toggle, del)
	return cmd
}

func parseAssignments(raw []string) ([]model.EnvVar, error) {
	vars := make([]model.EnvVar, 0, len(raw))
	for _, item := range raw {
		name, value, ok := strings.Cut(item, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: expected NAME=VALUE, got %q", model.ErrInvalidInput, item)
		}
		vars = append(vars, model.EnvVar{Name: strings.TrimSpace(name), Value: value})
	}
	return vars, nil
}

func groupTable(groups []model.VariableGroup) table {
	t := table{headers: []string{"ID", "NAME", "ACTIVE", "VARIABLES", "UPDATED"}}
	for _, g := range groups {
		t.rows = append(t.rows, []string{g.ID, g.Name, yesNo(g.IsActive), strconv.Itoa(len(g.Variables)), shortTime(g.UpdatedAt)})
	}
	return t
}

func variableRows(vars []model.EnvVar) table {
	t := table{headers: []string{"NAME", "VALUE"}}
	for _, v := range vars {
		t.rows = append(t.rows, []string{v.Name, truncate(v.Value, 80)})
	}
	return t
}

func failureTable(failed []model.VariableFailure, applied []string) table {
	t := table{headers: []string{"VARIABLE", "RESULT"}}
	for _, name := range applied {
		t.rows = append(t.rows, []string{name, "ok"})
	}
	for _, f := range failed {
		t.rows = append(t.rows, []string{f.Name, f.Code + ": " + f.Reason})
	}
	return t
}
