package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"go-env-manager/internal/app"
	"go-env-manager/internal/config"
	"go-env-manager/internal/logger"
)

type servicesOpener func(ctx context.Context, verbose bool) (*app.Services, error)

// cli carries the state shared by every subcommand of one invocation.
type cli struct {
	output   string
	verbose  bool
	open     servicesOpener
	services *app.Services
}

func openServices(ctx context.Context, verbose bool) (*app.Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(os.Stderr, cfg.LogFormat, level)
	slog.SetDefault(log)

	return app.NewServices(ctx, cfg, log)
}

func newCLI(open servicesOpener) *cli {
	return &cli{open: open}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "envctl",
		Short: "Manage environment variable groups, tracked variables and the undo log",
		Long: "envctl works directly on the configured document store and environment backend.\n" +
			"It reads the same environment configuration as the server (STORE_DRIVER, ENV_BACKEND, ...).\n" +
			"Stop the server first when both use the same badger directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch c.output {
			case outputTable, outputJSON, outputYAML:
				return nil
			default:
				return fmt.Errorf("unknown output format %q (allowed: table|json|yaml)", c.output)
			}
		},
	}

	root.PersistentFlags().StringVarP(&c.output, "output", "o", outputTable, "output format: table|json|yaml")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		c.groupsCmd(),
		c.varsCmd(),
		c.systemCmd(),
		c.trashCmd(),
		c.tokenCmd(),
	)

	return root
}

// close releases the services if a command opened them.
func (c *cli) close() {
	if c.services != nil {
		c.services.Close()
		c.services = nil
	}
}

// svc opens the services on first use.
func (c *cli) svc(cmd *cobra.Command) (*app.Services, error) {
	if c.services != nil {
		return c.services, nil
	}
	services, err := c.open(cmd.Context(), c.verbose)
	if err != nil {
		return nil, err
	}
	c.services = services
	return services, nil
}

func (c *cli) out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
