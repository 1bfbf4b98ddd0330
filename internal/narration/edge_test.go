package narration_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/narration"
)

// wrapperRunner simulates the edge-tts wrapper binary: it records the
// invocation and writes a synthesized file at the output path argument.
type wrapperRunner struct {
	calls      [][]string
	outputSize int
	err        error
}

func (r *wrapperRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))

	if r.err != nil {
		return nil, []byte("wrapper: no audio was received\n"), r.err
	}

	// args: text, voice, output path, then optional prosody flags.
	if len(args) >= 3 {
		writeErr := os.WriteFile(args[2], bytes.Repeat([]byte("a"), r.outputSize), 0o600)
		if writeErr != nil {
			return nil, nil, writeErr
		}
	}

	return nil, nil, nil
}

func newEdgeProvider(t *testing.T, runner core.Runner, binaryPath string) *narration.EdgeProvider {
	t.Helper()

	return narration.NewEdgeProvider(config.FreeConfig{
		BinaryPath:     binaryPath,
		TimeoutSeconds: 5,
	}, runner, newTestLogger(t))
}

func TestEdgeSynthesizePassesProsodyFlags(t *testing.T) {
	t.Parallel()

	runner := &wrapperRunner{outputSize: 4096}
	provider := newEdgeProvider(t, runner, "/usr/local/bin/edge-tts")
	outputPath := filepath.Join(t.TempDir(), "out.mp3")

	err := provider.Synthesize(context.Background(), core.SynthesisRequest{
		Text: "In 1784 a question appeared in a Berlin monthly.",
		Voice: core.Voice{
			Provider: narration.ProviderFree,
			ID:       "en-GB-SoniaNeural",
			Rate:     "-3%",
			Pitch:    "+0Hz",
		},
		Language:   "en",
		OutputPath: outputPath,
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "/usr/local/bin/edge-tts", call[0])
	assert.Equal(t, "In 1784 a question appeared in a Berlin monthly.", call[1])
	assert.Equal(t, "en-GB-SoniaNeural", call[2])
	assert.Equal(t, outputPath, call[3])
	assert.Contains(t, call, "--rate")
	assert.Contains(t, call, "-3%")
	assert.Contains(t, call, "--pitch")

	assert.Greater(t, fileSize(outputPath), int64(1000))
}

func TestEdgeSynthesizeOmitsEmptyProsody(t *testing.T) {
	t.Parallel()

	runner := &wrapperRunner{outputSize: 4096}
	provider := newEdgeProvider(t, runner, "/usr/local/bin/edge-tts")

	err := provider.Synthesize(context.Background(), core.SynthesisRequest{
		Text:       "text",
		Voice:      core.Voice{ID: "en-US-GuyNeural"},
		Language:   "en",
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
	})
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	assert.NotContains(t, runner.calls[0], "--rate")
	assert.NotContains(t, runner.calls[0], "--pitch")
}

func TestEdgeSynthesizeRejectsTruncatedOutput(t *testing.T) {
	t.Parallel()

	runner := &wrapperRunner{outputSize: 12}
	provider := newEdgeProvider(t, runner, "/usr/local/bin/edge-tts")
	outputPath := filepath.Join(t.TempDir(), "out.mp3")

	err := provider.Synthesize(context.Background(), core.SynthesisRequest{
		Text:       "text",
		Voice:      core.Voice{ID: "en-US-GuyNeural"},
		Language:   "en",
		OutputPath: outputPath,
	})
	require.Error(t, err)
	require.ErrorIs(t, err, narration.ErrSynthesisTruncated)

	_, statErr := os.Stat(outputPath)
	assert.True(t, os.IsNotExist(statErr), "truncated output should be removed")
}

func TestEdgeSynthesizeWrapperFailureCarriesStderr(t *testing.T) {
	t.Parallel()

	runner := &wrapperRunner{err: errors.New("exit status 1")}
	provider := newEdgeProvider(t, runner, "/usr/local/bin/edge-tts")

	err := provider.Synthesize(context.Background(), core.SynthesisRequest{
		Text:       "text",
		Voice:      core.Voice{ID: "en-US-GuyNeural"},
		Language:   "en",
		OutputPath: filepath.Join(t.TempDir(), "out.mp3"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no audio was received")
}

func TestEdgeAvailable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	binaryPath := filepath.Join(dir, "edge-tts")

	provider := newEdgeProvider(t, &wrapperRunner{}, binaryPath)
	assert.False(t, provider.Available())

	require.NoError(t, os.WriteFile(binaryPath, []byte("#!/bin/sh\n"), 0o700))
	assert.True(t, provider.Available())
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}

	return info.Size()
}
