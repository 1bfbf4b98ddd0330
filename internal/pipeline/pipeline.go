// Package pipeline orchestrates one podcast generation run: script lookup,
// narration synthesis (or reuse), music acquisition, mixing, and the final
// asset description for the catalog.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/book-expert/logger"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/mixer"
	"github.com/timeslices/podcastgen/internal/music"
	"github.com/timeslices/podcastgen/internal/narration"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// legacyPrefixPattern strips the leading year prefix from an entry id to
// form the legacy script filename used before scripts were keyed by full
// entry id.
var legacyPrefixPattern = regexp.MustCompile(`^-?\d+-`)

// Static errors.
var (
	// ErrScriptNotFound is returned when neither the canonical nor the
	// legacy script file exists.
	ErrScriptNotFound = errors.New("script not found")
	// ErrNoNarrationSource is returned when a remix run finds neither a
	// cached narration nor an existing mixed asset to recover from.
	ErrNoNarrationSource = errors.New("no narration source for remix")
)

// Job describes one generation request.
type Job struct {
	EntryID    string
	Language   string
	Remix      bool
	MusicURL   string
	MusicStart float64
	Voice      string
	Provider   string
}

// Outcome describes a finished asset, ready for the catalog.
type Outcome struct {
	OutputPath string
	OutputURL  string
	Duration   int
	Voice      string
	Provider   string
}

// Pipeline wires the narration engine, music store, and mixer together.
type Pipeline struct {
	cfg      *config.Config
	store    *music.Store
	engine   *narration.Engine
	mixer    *mixer.Mixer
	analyzer core.Analyzer
	log      *logger.Logger
}

// New creates a pipeline.
func New(
	cfg *config.Config,
	store *music.Store,
	engine *narration.Engine,
	mix *mixer.Mixer,
	analyzer core.Analyzer,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		mixer:    mix,
		analyzer: analyzer,
		log:      log,
	}
}

// Run generates (or remixes) the podcast asset for one entry.
func (p *Pipeline) Run(ctx context.Context, job Job) (*Outcome, error) {
	if job.Language == "" {
		job.Language = config.DefaultLanguage
	}

	outputPath := p.cfg.OutputPath(job.EntryID, job.Language)

	dirErr := pathutil.EnsureDir(filepath.Dir(outputPath))
	if dirErr != nil {
		return nil, dirErr
	}

	narrationPath, voice, provider, narrateErr := p.obtainNarration(ctx, job)
	if narrateErr != nil {
		return nil, narrateErr
	}

	narrationDuration, durationErr := p.analyzer.Duration(ctx, narrationPath)
	if durationErr != nil {
		return nil, fmt.Errorf("failed to measure narration: %w", durationErr)
	}

	mixErr := p.mixAsset(ctx, job, narrationPath, narrationDuration, outputPath, voice, provider)
	if mixErr != nil {
		return nil, mixErr
	}

	finalDuration, finalErr := p.analyzer.Duration(ctx, outputPath)
	if finalErr != nil {
		return nil, fmt.Errorf("failed to measure final asset: %w", finalErr)
	}

	return &Outcome{
		OutputPath: outputPath,
		OutputURL:  p.cfg.OutputURL(job.EntryID, job.Language),
		Duration:   int(finalDuration),
		Voice:      voice,
		Provider:   provider,
	}, nil
}

// obtainNarration produces (or recovers) the narration and returns its
// path plus the voice and provider that made it.
func (p *Pipeline) obtainNarration(ctx context.Context, job Job) (path, voice, provider string, err error) {
	narrationPath := p.cfg.NarrationPath(job.EntryID, job.Language)

	// The script stays the source of truth for an entry: a missing
	// script is terminal even when the narration itself is reused.
	script, scriptErr := p.readScript(job.EntryID, job.Language)
	if scriptErr != nil {
		return "", "", "", scriptErr
	}

	if job.Remix {
		remixPath, remixErr := p.narrationForRemix(ctx, job, narrationPath)
		if remixErr != nil {
			return "", "", "", remixErr
		}

		return remixPath, "unchanged", "unchanged", nil
	}

	narrationDirErr := pathutil.EnsureDir(filepath.Dir(narrationPath))
	if narrationDirErr != nil {
		return "", "", "", narrationDirErr
	}

	result, synthErr := p.engine.Synthesize(ctx, narration.Job{
		EntryID:    job.EntryID,
		Language:   job.Language,
		Text:       script,
		Voice:      job.Voice,
		Provider:   job.Provider,
		OutputPath: narrationPath,
	})
	if synthErr != nil {
		return "", "", "", synthErr
	}

	return result.Path, result.Voice, result.Provider, nil
}

// narrationForRemix returns a narration without re-synthesizing: the
// cached narration when one exists, otherwise a recovery extracted from
// the previously mixed asset. Remix never spends synthesis quota.
func (p *Pipeline) narrationForRemix(ctx context.Context, job Job, narrationPath string) (string, error) {
	if pathutil.FileSize(narrationPath) > 0 {
		p.log.Info("Remixing %s from cached narration", job.EntryID)

		return narrationPath, nil
	}

	mixedPath := p.cfg.OutputPath(job.EntryID, job.Language)
	if pathutil.FileSize(mixedPath) == 0 {
		return "", fmt.Errorf("%w: entry %s has neither %s nor %s",
			ErrNoNarrationSource, job.EntryID, narrationPath, mixedPath)
	}

	p.log.Warn("No cached narration for %s, extracting from existing mix", job.EntryID)

	extractErr := p.engine.ExtractNarration(ctx, mixedPath, narrationPath, mixer.IntroDuration)
	if extractErr != nil {
		return "", extractErr
	}

	return narrationPath, nil
}

// readScript loads the entry's script, trying the canonical filename
// first and the legacy slug (entry id minus the year prefix) second.
func (p *Pipeline) readScript(entryID, language string) (string, error) {
	canonical := p.cfg.ScriptPath(entryID, language)

	content, readErr := os.ReadFile(canonical)
	if readErr == nil {
		return string(content), nil
	}

	legacyID := legacyPrefixPattern.ReplaceAllString(entryID, "")
	if legacyID != entryID {
		legacy := p.cfg.ScriptPath(legacyID, language)

		content, readErr = os.ReadFile(legacy)
		if readErr == nil {
			p.log.Info("Using legacy script file %s for %s", legacy, entryID)

			return string(content), nil
		}
	}

	return "", fmt.Errorf("%w: expected %s", ErrScriptNotFound, canonical)
}

// mixAsset resolves and acquires music, then renders the final asset. A
// music failure degrades to a narration-only asset instead of failing the
// run.
func (p *Pipeline) mixAsset(
	ctx context.Context,
	job Job,
	narrationPath string,
	narrationDuration float64,
	outputPath, voice, provider string,
) error {
	req := mixer.Request{
		NarrationPath:     narrationPath,
		NarrationDuration: narrationDuration,
		MusicPath:         "",
		MusicStart:        0,
		OutputPath:        outputPath,
		Tags: mixer.Tags{
			EntryID:  job.EntryID,
			Voice:    voice,
			Provider: provider,
		},
	}

	track, resolveErr := p.resolveTrack(job)
	if resolveErr != nil {
		return resolveErr
	}

	if track == nil {
		p.log.Info("No music assigned to %s, publishing narration only", job.EntryID)

		return p.mixer.CopyNarrationOnly(ctx, req)
	}

	musicPath, acquireErr := p.store.Acquire(ctx, track)
	if acquireErr != nil {
		p.log.Error("Music acquisition failed for %s, publishing narration only: %v",
			job.EntryID, acquireErr)

		return p.mixer.CopyNarrationOnly(ctx, req)
	}

	start := track.Start

	ok, suggested, validateErr := p.store.ValidateStart(ctx, musicPath, start)
	if validateErr != nil {
		return validateErr
	}

	if !ok {
		p.log.Warn("Adjusting music start for %s: %.1fs -> %.1fs", job.EntryID, start, suggested)

		start = suggested
	}

	req.MusicPath = musicPath
	req.MusicStart = start

	return p.mixer.Mix(ctx, req)
}

// resolveTrack picks the music source: an explicit URL from the command
// line wins over the catalog assignment.
func (p *Pipeline) resolveTrack(job Job) (*music.Track, error) {
	if job.MusicURL != "" {
		return music.ResolveAdHoc(job.MusicURL, job.MusicStart), nil
	}

	return music.ResolveEntry(&p.cfg.Music, job.EntryID)
}
