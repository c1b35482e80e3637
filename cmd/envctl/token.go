package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func (c *cli) tokenCmd() *cobra.Command {
	var subject string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for the HTTP API from AUTH_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.svc(cmd)
			if err != nil {
				return err
			}
			token, err := s.Auth.IssueToken(subject)
			if err != nil {
				return err
			}
			return c.render(c.out(cmd), token, table{
				headers: []string{"TOKEN", "EXPIRES_IN", "EXPIRES_AT"},
				rows:    [][]string{{token.AccessToken, strconv.FormatInt(token.ExpiresIn, 10) + "s", token.ExpiresAt.Format(time.RFC3339)}},
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "envctl", "token subject")

	return cmd
}
