package narration

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/book-expert/logger"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// minSynthesisBytes is the smallest output accepted as real speech; the
// providers emit error payloads or empty containers below this.
const minSynthesisBytes = 1000

// Static errors.
var (
	ErrTextEmpty       = errors.New("text cannot be empty")
	ErrOutputPathEmpty = errors.New("output path cannot be empty")
	// ErrSynthesisTruncated is returned when a provider produced a file
	// too small to be real speech.
	ErrSynthesisTruncated = errors.New("synthesis output truncated or empty")
)

// EdgeProvider shells out to the local edge-tts wrapper binary: free
// neural voices, no API key, no quota.
type EdgeProvider struct {
	binaryPath string
	timeout    time.Duration
	runner     core.Runner
	log        *logger.Logger
}

// NewEdgeProvider creates the free subprocess provider.
func NewEdgeProvider(cfg config.FreeConfig, runner core.Runner, log *logger.Logger) *EdgeProvider {
	return &EdgeProvider{
		binaryPath: cfg.BinaryPath,
		timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
		runner:     runner,
		log:        log,
	}
}

// Name returns the provider name.
func (p *EdgeProvider) Name() string {
	return ProviderFree
}

// BinaryPath returns the configured wrapper path, for diagnostics.
func (p *EdgeProvider) BinaryPath() string {
	return p.binaryPath
}

// Available reports whether the wrapper binary is present.
func (p *EdgeProvider) Available() bool {
	_, statErr := os.Stat(p.binaryPath)

	return statErr == nil
}

// Synthesize runs the wrapper for one chunk of text.
func (p *EdgeProvider) Synthesize(ctx context.Context, req core.SynthesisRequest) error {
	if req.Text == "" {
		return ErrTextEmpty
	}

	if req.OutputPath == "" {
		return ErrOutputPathEmpty
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := []string{req.Text, req.Voice.ID, req.OutputPath}

	if req.Voice.Rate != "" {
		args = append(args, "--rate", req.Voice.Rate)
	}

	if req.Voice.Pitch != "" {
		args = append(args, "--pitch", req.Voice.Pitch)
	}

	_, stderr, runErr := p.runner.Run(ctx, p.binaryPath, args...)
	if runErr != nil {
		return fmt.Errorf("edge-tts failed: %w (%s)", runErr, firstLine(stderr))
	}

	size := pathutil.FileSize(req.OutputPath)
	if size < minSynthesisBytes {
		removeErr := os.Remove(req.OutputPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			p.log.Warn("Failed to remove truncated output %s: %v", req.OutputPath, removeErr)
		}

		return fmt.Errorf("%w: %d bytes", ErrSynthesisTruncated, size)
	}

	return nil
}

// firstLine returns the first non-empty stderr line for diagnostics.
func firstLine(stderr []byte) string {
	for _, line := range strings.Split(string(stderr), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			return trimmed
		}
	}

	return "no output"
}
