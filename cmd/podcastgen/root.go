// Package main implements the podcastgen CLI: narrated podcast generation
// for the timeline site, plus supporting tools for voices, credits, and
// music inspection.
package main

import (
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/spf13/cobra"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/media"
	"github.com/timeslices/podcastgen/internal/mixer"
	"github.com/timeslices/podcastgen/internal/music"
	"github.com/timeslices/podcastgen/internal/narration"
	"github.com/timeslices/podcastgen/internal/pipeline"
)

const bootstrapLogFile = "podcastgen-bootstrap.log"

const appLogFile = "podcastgen.log"

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "podcastgen",
		Short:         "Generate narrated podcast assets for timeline entries",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newVoicesCommand())
	rootCmd.AddCommand(newCreditsCommand())
	rootCmd.AddCommand(newAnalyzeCommand())

	return rootCmd
}

// app holds the wired pipeline components for one command invocation.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	runner   core.Runner
	toolset  *media.Toolset
	store    *music.Store
	engine   *narration.Engine
	mixer    *mixer.Mixer
	pipeline *pipeline.Pipeline
}

// newApp bootstraps configuration and logging, then wires the pipeline. A
// temporary logger covers the window before the configured log directory
// is known.
func newApp() (*app, error) {
	bootstrapLog, bootstrapErr := logger.New(os.TempDir(), bootstrapLogFile)
	if bootstrapErr != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", bootstrapErr)
	}

	cfg, cfgErr := config.Load(bootstrapLog)
	if cfgErr != nil {
		bootstrapLog.Error("Failed to load configuration: %v", cfgErr)

		return nil, cfgErr
	}

	log, logErr := logger.New(cfg.Paths.BaseLogsDir, appLogFile)
	if logErr != nil {
		bootstrapLog.Error("Failed to create logger: %v", logErr)

		return nil, fmt.Errorf("failed to create logger: %w", logErr)
	}

	runner := media.ExecRunner{}
	toolset := media.NewToolset(runner, log)
	store := music.NewStore(cfg.Music, cfg.Paths.MusicDir, toolset, log)
	engine := narration.NewEngine(cfg.Providers, cfg.Casting, toolset, runner, log)
	mix := mixer.NewMixer(runner, log)

	return &app{
		cfg:      cfg,
		log:      log,
		runner:   runner,
		toolset:  toolset,
		store:    store,
		engine:   engine,
		mixer:    mix,
		pipeline: pipeline.New(cfg, store, engine, mix, toolset, log),
	}, nil
}

// Close flushes the application logger.
func (a *app) Close() {
	closeErr := a.log.Close()
	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
	}
}
