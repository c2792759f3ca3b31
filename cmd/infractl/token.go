package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/infracache/infrastructure"
)

func newTokenCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "token USER PASSWORD",
		Short: "Issue a bearer token for a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInfra(cmd.Context(), func(inf *infrastructure.Infrastructure) error {
				u, err := inf.Identity.CheckPassword(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				tok, err := inf.Tokens.Issue(u.ID)
				if err != nil {
					return err
				}
				b, err := outJSON.MarshalIndent(tok, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return nil
			})
		},
	}
}
