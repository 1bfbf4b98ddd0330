package narration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/media"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// chunkNormalizeFilter brings every chunk to podcast-standard integrated
// loudness and restores the natural pause lost at the paragraph boundary.
const chunkNormalizeFilter = "loudnorm=I=-16:TP=-1.5:LRA=11,apad=pad_dur=0.4"

// File name patterns inside the per-run scratch directory.
const (
	narrationFileName   = "narration.mp3"
	chunkFileFormat     = "part_%04d.mp3"
	chunkNormFileFormat = "part_%04d_norm.mp3"
	chunkListFileName   = "parts.txt"
)

const scratchDirPrefix = "podcastgen-"

// Static errors.
var (
	// ErrUnknownProvider is returned when a forced provider name is not
	// recognised.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrProviderUnavailable is returned when the selected provider
	// cannot run (e.g. the free wrapper binary is missing).
	ErrProviderUnavailable = errors.New("provider unavailable")
)

// CommercialProvider is a provider with a metered character quota.
type CommercialProvider interface {
	core.Provider
	Available() bool
	RemainingCredits(ctx context.Context) (remaining, limit int, err error)
}

// FreeProvider is a provider without quota whose availability depends on
// a local installation.
type FreeProvider interface {
	core.Provider
	Available() bool
	BinaryPath() string
}

// Job is one narration request.
type Job struct {
	EntryID    string
	Language   string
	Text       string
	Voice      string // forced voice id, optional
	Provider   string // forced provider name, optional
	OutputPath string
}

// Result describes a produced narration.
type Result struct {
	Path     string
	Duration float64
	Voice    string
	Provider string
}

// Engine synthesizes narrations. Provider and voice are chosen once per
// narration so chunked scripts keep a consistent voice throughout.
type Engine struct {
	cfg        config.ProvidersConfig
	commercial CommercialProvider
	free       FreeProvider
	resolver   *VoiceResolver
	toolset    *media.Toolset
	log        *logger.Logger
}

// NewEngine creates an engine with the standard providers.
func NewEngine(
	cfg config.ProvidersConfig,
	casting config.CastingConfig,
	toolset *media.Toolset,
	runner core.Runner,
	log *logger.Logger,
) *Engine {
	return NewEngineWithProviders(cfg,
		NewElevenLabsProvider(cfg.Commercial, log),
		NewEdgeProvider(cfg.Free, runner, log),
		NewVoiceResolver(casting),
		toolset,
		log,
	)
}

// NewEngineWithProviders creates an engine with injected providers. This
// constructor is primarily for testing.
func NewEngineWithProviders(
	cfg config.ProvidersConfig,
	commercial CommercialProvider,
	free FreeProvider,
	resolver *VoiceResolver,
	toolset *media.Toolset,
	log *logger.Logger,
) *Engine {
	return &Engine{
		cfg:        cfg,
		commercial: commercial,
		free:       free,
		resolver:   resolver,
		toolset:    toolset,
		log:        log,
	}
}

// SelectProvider picks the TTS backend for one narration: a forced choice
// wins; otherwise the commercial provider is preferred when its key is
// configured and its remaining quota covers the script plus the reserve
// buffer, and the free provider is the fallback.
func (e *Engine) SelectProvider(ctx context.Context, scriptLength int, forced string) (core.Provider, string, error) {
	provider, reason, selectErr := e.pickProvider(ctx, scriptLength, forced)
	if selectErr != nil {
		return nil, "", selectErr
	}

	if provider.Name() == ProviderFree && !e.free.Available() {
		return nil, "", fmt.Errorf("%w: free provider binary not found at %s",
			ErrProviderUnavailable, e.free.BinaryPath())
	}

	return provider, reason, nil
}

func (e *Engine) pickProvider(ctx context.Context, scriptLength int, forced string) (core.Provider, string, error) {
	switch forced {
	case ProviderCommercial:
		return e.commercial, "forced", nil
	case ProviderFree:
		return e.free, "forced", nil
	case "":
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownProvider, forced)
	}

	if !e.commercial.Available() {
		return e.free, "no API key configured", nil
	}

	remaining, _, creditsErr := e.commercial.RemainingCredits(ctx)
	if creditsErr != nil {
		e.log.Warn("Could not check credits: %v", creditsErr)

		return e.free, "could not check credits", nil
	}

	needed := scriptLength + e.cfg.Commercial.MinCreditReserve
	if remaining < needed {
		return e.free, fmt.Sprintf("credits low (%d remaining, need %d)", remaining, needed), nil
	}

	return e.commercial, fmt.Sprintf("%d credits remaining", remaining), nil
}

// Synthesize produces a narration for the job and delivers it to the
// job's output path. No partial narration is ever accepted: a chunk that
// exhausts its retries fails the whole synthesis.
func (e *Engine) Synthesize(ctx context.Context, job Job) (*Result, error) {
	if job.Text == "" {
		return nil, ErrTextEmpty
	}

	if job.OutputPath == "" {
		return nil, ErrOutputPathEmpty
	}

	provider, reason, selectErr := e.SelectProvider(ctx, len(job.Text), job.Provider)
	if selectErr != nil {
		return nil, selectErr
	}

	voice, voiceErr := e.resolver.Resolve(job.EntryID, job.Language, provider.Name(), job.Voice)
	if voiceErr != nil {
		return nil, voiceErr
	}

	e.log.Info("Generating narration for %s (%s: %s, %d chars, %s)",
		job.EntryID, provider.Name(), voice.Name, len(job.Text), reason)

	scratchDir := filepath.Join(os.TempDir(), scratchDirPrefix+uuid.NewString())

	dirErr := pathutil.EnsureDir(scratchDir)
	if dirErr != nil {
		return nil, dirErr
	}

	defer func() {
		removeErr := os.RemoveAll(scratchDir)
		if removeErr != nil {
			e.log.Warn("Failed to remove scratch dir %s: %v", scratchDir, removeErr)
		}
	}()

	workPath := filepath.Join(scratchDir, narrationFileName)

	var synthErr error

	if len(job.Text) <= e.cfg.ChunkThreshold {
		synthErr = e.synthesizeChunk(ctx, provider, job.Text, voice, job.Language, workPath)
	} else {
		synthErr = e.synthesizeChunked(ctx, provider, job, voice, scratchDir, workPath)
	}

	if synthErr != nil {
		return nil, synthErr
	}

	copyErr := pathutil.CopyFile(workPath, job.OutputPath)
	if copyErr != nil {
		return nil, copyErr
	}

	duration, durationErr := e.toolset.Duration(ctx, job.OutputPath)
	if durationErr != nil {
		return nil, durationErr
	}

	e.log.Info("Narration ready: %s, %s",
		pathutil.FormatFileSize(pathutil.FileSize(job.OutputPath)),
		pathutil.FormatDuration(duration))

	return &Result{
		Path:     job.OutputPath,
		Duration: duration,
		Voice:    voice.Name,
		Provider: provider.Name(),
	}, nil
}

// synthesizeChunk performs one provider call with bounded exponential
// backoff on failure.
func (e *Engine) synthesizeChunk(
	ctx context.Context,
	provider core.Provider,
	text string,
	voice core.Voice,
	language, outputPath string,
) error {
	operation := func() error {
		return provider.Synthesize(ctx, core.SynthesisRequest{
			Text:       text,
			Voice:      voice,
			Language:   language,
			OutputPath: outputPath,
		})
	}

	retries := uint64(0)
	if e.cfg.Attempts > 1 {
		retries = uint64(e.cfg.Attempts - 1)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), retries), ctx)

	retryErr := backoff.Retry(operation, policy)
	if retryErr != nil {
		return fmt.Errorf("synthesis failed after %d attempts: %w", e.cfg.Attempts, retryErr)
	}

	return nil
}

// synthesizeChunked splits the script into paragraphs, synthesizes each
// with the same provider and voice, normalizes every chunk, and
// concatenates them in original order.
func (e *Engine) synthesizeChunked(
	ctx context.Context,
	provider core.Provider,
	job Job,
	voice core.Voice,
	scratchDir, outputPath string,
) error {
	paragraphs := SplitParagraphs(job.Text)

	e.log.Info("Splitting script into %d chunks", len(paragraphs))

	chunkPaths := make([]string, 0, len(paragraphs))

	for index, paragraph := range paragraphs {
		chunkPath := filepath.Join(scratchDir, fmt.Sprintf(chunkFileFormat, index+1))

		e.log.Info("Chunk %d/%d (%d chars)", index+1, len(paragraphs), len(paragraph))

		chunkErr := e.synthesizeChunk(ctx, provider, paragraph, voice, job.Language, chunkPath)
		if chunkErr != nil {
			return fmt.Errorf("chunk %d failed: %w", index+1, chunkErr)
		}

		chunkPaths = append(chunkPaths, chunkPath)

		if index < len(paragraphs)-1 {
			time.Sleep(time.Duration(e.cfg.ChunkPauseMS) * time.Millisecond)
		}
	}

	listPath, listErr := e.writeConcatList(ctx, scratchDir, chunkPaths)
	if listErr != nil {
		return listErr
	}

	concatErr := e.toolset.Concat(ctx, listPath, outputPath)
	if concatErr != nil {
		return concatErr
	}

	return nil
}

// writeConcatList normalizes each chunk and writes the concat list file.
// A chunk that fails normalization is used raw rather than dropped, so
// the narrative is never truncated.
func (e *Engine) writeConcatList(ctx context.Context, scratchDir string, chunkPaths []string) (string, error) {
	normalizedPaths := make([]string, 0, len(chunkPaths))

	for index, chunkPath := range chunkPaths {
		normPath := filepath.Join(scratchDir, fmt.Sprintf(chunkNormFileFormat, index+1))

		normErr := e.toolset.Encode(ctx, chunkPath, normPath, chunkNormalizeFilter)
		if normErr != nil {
			e.log.Warn("Chunk %d normalization failed, using raw chunk: %v", index+1, normErr)

			normPath = chunkPath
		}

		normalizedPaths = append(normalizedPaths, normPath)
	}

	listPath := filepath.Join(scratchDir, chunkListFileName)

	var list string
	for _, path := range normalizedPaths {
		list += fmt.Sprintf("file '%s'\n", path)
	}

	writeErr := os.WriteFile(listPath, []byte(list), 0o600)
	if writeErr != nil {
		return "", fmt.Errorf("failed to write concat list: %w", writeErr)
	}

	return listPath, nil
}

// ExtractNarration recovers a narration by trimming the fixed intro off an
// existing mixed asset. This is a lossy approximation: it assumes the
// historical intro duration is exactly introSeconds and keeps the music
// bed baked into the voice track.
func (e *Engine) ExtractNarration(ctx context.Context, mixedPath, outputPath string, introSeconds float64) error {
	dirErr := pathutil.EnsureDir(filepath.Dir(outputPath))
	if dirErr != nil {
		return dirErr
	}

	trimErr := e.toolset.TrimHead(ctx, mixedPath, outputPath, introSeconds)
	if trimErr != nil {
		return fmt.Errorf("failed to extract narration from %s: %w", mixedPath, trimErr)
	}

	return nil
}

// Commercial exposes the commercial provider for quota inspection.
func (e *Engine) Commercial() CommercialProvider {
	return e.commercial
}
