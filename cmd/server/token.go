package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"defi-hub/internal/auth"
)

func issueTokenCmd() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Print an admin bearer token for a wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			issuer, err := auth.NewIssuer(cfg.Auth)
			if err != nil {
				return err
			}
			token, expires, err := issuer.Issue(wallet)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expires.UTC().Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "admin wallet address")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}
