package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timeslices/podcastgen/internal/catalog"
	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/pathutil"
	"github.com/timeslices/podcastgen/internal/pipeline"
)

func newGenerateCommand() *cobra.Command {
	var (
		langFlag       string
		remixFlag      bool
		musicURLFlag   string
		musicStartFlag float64
		voiceFlag      string
		providerFlag   string
	)

	cmd := &cobra.Command{
		Use:   "generate <entry-id>",
		Short: "Generate the podcast asset for a timeline entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, appErr := newApp()
			if appErr != nil {
				return appErr
			}
			defer application.Close()

			entryID := args[0]

			outcome, runErr := application.pipeline.Run(cmd.Context(), pipeline.Job{
				EntryID:    entryID,
				Language:   langFlag,
				Remix:      remixFlag,
				MusicURL:   musicURLFlag,
				MusicStart: musicStartFlag,
				Voice:      voiceFlag,
				Provider:   providerFlag,
			})
			if runErr != nil {
				return runErr
			}

			storePath := application.cfg.EntryStorePath(langFlag)

			updateErr := catalog.Update(storePath, entryID, outcome.OutputURL, outcome.Duration)
			if updateErr != nil {
				return fmt.Errorf("asset generated but catalog update failed: %w", updateErr)
			}

			application.log.System("Published %s: %s (%ds, %s/%s)",
				entryID, outcome.OutputURL, outcome.Duration, outcome.Provider, outcome.Voice)

			fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s (%s, %s/%s)\n",
				entryID, outcome.OutputPath,
				pathutil.FormatDuration(float64(outcome.Duration)),
				outcome.Provider, outcome.Voice)

			return nil
		},
	}

	cmd.Flags().StringVar(&langFlag, "lang", config.DefaultLanguage, "Language of the script and asset")
	cmd.Flags().BoolVar(&remixFlag, "remix", false, "Reuse the existing narration and only redo the music mix")
	cmd.Flags().StringVar(&musicURLFlag, "music-url", "", "Override the music track with a direct URL")
	cmd.Flags().Float64Var(&musicStartFlag, "music-start", 0, "Start offset in seconds for the overridden track")
	cmd.Flags().StringVar(&voiceFlag, "voice", "", "Force a specific voice id")
	cmd.Flags().StringVar(&providerFlag, "provider", "", "Force a provider (elevenlabs or edge)")

	return cmd
}
