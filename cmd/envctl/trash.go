package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"go-env-manager/internal/model"
)

func (c *cli) trashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trash",
		Short: "Inspect and replay the undo log (tabs: groups, user-vars)",
	}

	list := &cobra.Command{
		Use:   "list <tab>",
		Short: "Prune expired records, then list the tab newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := model.ParseTabType(args[0])
			if err != nil {
				return err
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			if _, err := s.Trash.ClearOld(cmd.Context(), tab); err != nil {
				return err
			}
			records, err := s.Trash.List(cmd.Context(), tab)
			if err != nil {
				return err
			}

			t := table{headers: []string{"ID", "ACTION", "TYPE", "NAME", "WHEN"}}
			for _, r := range records {
				t.rows = append(t.rows, []string{r.ID, string(r.Action), string(r.ItemType), r.Name, shortTime(r.Timestamp)})
			}
			return c.render(c.out(cmd), records, t)
		},
	}

	restore := &cobra.Command{
		Use:   "restore <tab> <id>",
		Short: "Undo the change a record describes and drop the record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := model.ParseTabType(args[0])
			if err != nil {
				return err
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			result, err := s.Restore.Restore(cmd.Context(), tab, args[1])
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), result, table{
				headers: []string{"RESTORED", "ACTION", "NAME"},
				rows:    [][]string{{result.Record.ID, string(result.Record.Action), result.Record.Name}},
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete <tab> <id>",
		Short: "Permanently discard a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := model.ParseTabType(args[0])
			if err != nil {
				return err
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			if err := s.Trash.Delete(cmd.Context(), tab, args[1]); err != nil {
				return err
			}
			return c.render(c.out(cmd), map[string]string{"deleted": args[1]}, table{
				headers: []string{"DELETED"},
				rows:    [][]string{{args[1]}},
			})
		},
	}

	cleanup := &cobra.Command{
		Use:   "cleanup <tab>",
		Short: "Remove records older than the tab's retention window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := model.ParseTabType(args[0])
			if err != nil {
				return err
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			cleaned, err := s.Trash.ClearOld(cmd.Context(), tab)
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), map[string]int{"cleaned": cleaned}, table{
				headers: []string{"TAB", "CLEANED"},
				rows:    [][]string{{string(tab), strconv.Itoa(cleaned)}},
			})
		},
	}

	var days int
	settings := &cobra.Command{
		Use:   "settings <tab>",
		Short: "Show the tab's retention settings, or change them with --days",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := model.ParseTabType(args[0])
			if err != nil {
				return err
			}
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}

			var current model.TrashSettings
			if cmd.Flags().Changed("days") {
				if days < 1 {
					return fmt.Errorf("%w: --days must be at least 1", model.ErrValidation)
				}
				current, err = s.Trash.UpdateSettings(cmd.Context(), tab, model.TrashSettingsPatch{AutoCleanupDays: &days})
			} else {
				current, err = s.Trash.Settings(cmd.Context(), tab)
			}
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), current, table{
				headers: []string{"TAB", "AUTO_CLEANUP_DAYS"},
				rows:    [][]string{{string(tab), strconv.Itoa(current.AutoCleanupDays)}},
			})
		},
	}
	settings.Flags().IntVar(&days, "days", 0, "retention window in days")

	cmd.AddCommand(list, restore, del, cleanup, settings)
	return cmd
}
