package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/narration"
)

func newVoicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "voices",
		Short: "List the curated voice pools per provider and language",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, appErr := newApp()
			if appErr != nil {
				return appErr
			}
			defer application.Close()

			casting := application.cfg.Casting
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, renderVoicePools(narration.ProviderCommercial, casting.CommercialPools, &casting))
			fmt.Fprintln(out, renderVoicePools(narration.ProviderFree, casting.FreePools, &casting))

			return nil
		},
	}
}

func renderVoicePools(provider string, pools map[string][]config.VoiceOption, casting *config.CastingConfig) string {
	languages := make([]string, 0, len(pools))
	for language := range pools {
		languages = append(languages, language)
	}

	sort.Strings(languages)

	rows := make([][]string, 0)

	for _, language := range languages {
		for _, option := range pools[language] {
			status := "ok"
			if casting.IsExcluded(option.ID) {
				status = "excluded"
			}

			name := option.Name
			if name == "" {
				name = option.ID
			}

			rows = append(rows, []string{language, name, option.ID, option.Description, status})
		}
	}

	return provider + "\n" + renderTable(
		[]string{"Lang", "Name", "ID", "Description", "Status"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
