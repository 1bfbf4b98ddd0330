package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/timeslices/podcastgen/internal/music"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

func newAnalyzeCommand() *cobra.Command {
	var fileFlag string

	cmd := &cobra.Command{
		Use:   "analyze [pool-key]",
		Short: "Analyze music tracks for a good non-silent start offset",
		Long: "Analyze scans music for the first salient audio and suggests a start\n" +
			"offset for the mix. With a pool key it analyzes that catalog track,\n" +
			"with --file a local file, and with no arguments the whole pool.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, appErr := newApp()
			if appErr != nil {
				return appErr
			}
			defer application.Close()

			if fileFlag != "" {
				analysis, analyzeErr := application.store.AnalyzeStart(cmd.Context(), fileFlag)
				if analyzeErr != nil {
					return analyzeErr
				}

				fmt.Fprintln(cmd.OutOrStdout(), renderAnalyses([]trackAnalysis{
					{key: fileFlag, configured: 0, analysis: analysis},
				}))

				return nil
			}

			keys := poolKeys(application, args)

			analyses := make([]trackAnalysis, 0, len(keys))

			for _, key := range keys {
				pooled, ok := application.cfg.Music.Pool[key]
				if !ok {
					return fmt.Errorf("%w: %q", music.ErrUnknownPoolKey, key)
				}

				track := &music.Track{
					URL:         pooled.URL,
					Filename:    pooled.Filename,
					Description: pooled.Description,
					Start:       pooled.StartTime,
				}

				path, acquireErr := application.store.Acquire(cmd.Context(), track)
				if acquireErr != nil {
					return acquireErr
				}

				analysis, analyzeErr := application.store.AnalyzeStart(cmd.Context(), path)
				if analyzeErr != nil {
					return analyzeErr
				}

				analyses = append(analyses, trackAnalysis{
					key:        key,
					configured: pooled.StartTime,
					analysis:   analysis,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderAnalyses(analyses))

			return nil
		},
	}

	cmd.Flags().StringVar(&fileFlag, "file", "", "Analyze a local audio file instead of a pool track")

	return cmd
}

type trackAnalysis struct {
	key        string
	configured float64
	analysis   *music.StartAnalysis
}

func poolKeys(application *app, args []string) []string {
	if len(args) == 1 {
		return []string{args[0]}
	}

	keys := make([]string, 0, len(application.cfg.Music.Pool))
	for key := range application.cfg.Music.Pool {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}

func renderAnalyses(analyses []trackAnalysis) string {
	rows := make([][]string, 0, len(analyses))

	for _, item := range analyses {
		silenceIntro := "no"
		if item.analysis.HasSilenceIntro {
			silenceIntro = "yes"
		}

		rows = append(rows, []string{
			item.key,
			pathutil.FormatDuration(item.analysis.Duration),
			formatOffset(item.configured),
			formatOffset(item.analysis.FirstAudio),
			formatOffset(item.analysis.SuggestedStart),
			strconv.FormatFloat(item.analysis.VolumeAtStart, 'f', 1, 64) + " dB",
			silenceIntro,
		})
	}

	return renderTable(
		[]string{"Track", "Length", "Configured", "First audio", "Suggested", "Volume", "Silent intro"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
	)
}

func formatOffset(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', 1, 64) + "s"
}
