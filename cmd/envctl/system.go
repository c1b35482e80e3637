package main

import (
	"github.com/spf13/cobra"
)

func (c *cli) systemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Read-only view of system-scope variables",
	}

	var asGroups bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List system variables, or the merged system and user view with --groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}

			if asGroups {
				groups, err := s.System.ViewGroups(cmd.Context())
				if err != nil {
					return err
				}
				t := table{headers: []string{"ID", "NAME", "SCOPE", "VALUE"}}
				for _, g := range groups {
					scope := "user"
					if g.IsSystemLevel {
						scope = "system"
					}
					value := ""
					if len(g.Variables) > 0 {
						value = truncate(g.Variables[0].Value, 60)
					}
					t.rows = append(t.rows, []string{g.ID, g.Name, scope, value})
				}
				return c.render(c.out(cmd), groups, t)
			}

			vars, err := s.System.ListSystem(cmd.Context())
			if err != nil {
				return err
			}
			t := table{headers: []string{"NAME", "VALUE"}}
			for _, v := range vars {
				t.rows = append(t.rows, []string{v.Name, truncate(v.Value, 80)})
			}
			return c.render(c.out(cmd), vars, t)
		},
	}
	list.Flags().BoolVar(&asGroups, "groups", false, "show one synthetic group per variable, user values winning")

	cmd.AddCommand(list)
	return cmd
}
