package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCreditsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "credits",
		Short: "Show the remaining commercial synthesis quota",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, appErr := newApp()
			if appErr != nil {
				return appErr
			}
			defer application.Close()

			commercial := application.engine.Commercial()
			if !commercial.Available() {
				fmt.Fprintln(cmd.OutOrStdout(), "commercial provider: no API key configured")

				return nil
			}

			remaining, limit, creditsErr := commercial.RemainingCredits(cmd.Context())
			if creditsErr != nil {
				return creditsErr
			}

			reserve := application.cfg.Providers.Commercial.MinCreditReserve

			fmt.Fprintf(cmd.OutOrStdout(), "commercial provider: %d used, %d of %d characters remaining\n",
				limit-remaining, remaining, limit)

			if remaining > reserve {
				fmt.Fprintf(cmd.OutOrStdout(), "commercial synthesis available for scripts up to %d characters\n",
					remaining-reserve)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "below the %d character reserve, synthesis will use the free provider\n",
					reserve)
			}

			return nil
		},
	}
}
