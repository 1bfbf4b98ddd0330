package mixer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeslices/podcastgen/internal/mixer"
)

// renderRunner records ffmpeg invocations. Successful renders create the
// output file (the last argument); failing ones return the scripted error.
type renderRunner struct {
	failFirst int
	calls     [][]string
}

func (r *renderRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))

	if r.failFirst > 0 {
		r.failFirst--

		return nil, []byte("Error initializing filter graph\n"), errors.New("exit status 1")
	}

	if len(args) > 0 {
		writeErr := os.WriteFile(args[len(args)-1], []byte("rendered"), 0o600)
		if writeErr != nil {
			return nil, nil, writeErr
		}
	}

	return nil, nil, nil
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return log
}

func testRequest(t *testing.T) mixer.Request {
	t.Helper()

	dir := t.TempDir()
	narrationPath := filepath.Join(dir, "narration.mp3")
	require.NoError(t, os.WriteFile(narrationPath, []byte("voice audio"), 0o600))

	return mixer.Request{
		NarrationPath:     narrationPath,
		NarrationDuration: 180,
		MusicPath:         filepath.Join(dir, "music.mp3"),
		MusicStart:        2.5,
		OutputPath:        filepath.Join(dir, "out.mp3"),
		Tags: mixer.Tags{
			EntryID:  "1784-europe-dare-to-know",
			Voice:    "en-GB-SoniaNeural",
			Provider: "edge",
		},
	}
}

func TestTotalDuration(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 186.5, mixer.TotalDuration(180), 0.0001)
	assert.InDelta(t, 6.5, mixer.TotalDuration(0), 0.0001)
}

func TestFilterGraphShapesMusicBed(t *testing.T) {
	t.Parallel()

	graph := mixer.FilterGraph(testRequest(t))

	// Music chain: trim to the chosen start, loop, shape, duck, fade.
	assert.Contains(t, graph, "[1:a]atrim=start=2.5")
	assert.Contains(t, graph, "aloop=loop=-1:size=2e+09")
	assert.Contains(t, graph, "atrim=duration=186.5")
	assert.Contains(t, graph, "loudnorm=I=-20:TP=-2:LRA=7")
	assert.Contains(t, graph, "lowpass=f=4000:p=1")
	assert.Contains(t, graph, "acompressor=threshold=-25dB:ratio=3:attack=20:release=200")
	assert.Contains(t, graph, "volume=0.35")
	assert.Contains(t, graph, "afade=t=in:st=0:d=2.5")
	assert.Contains(t, graph, "volume=enable='between(t,3.5,183.5)':volume=0.57")
	assert.Contains(t, graph, "afade=t=out:st=184:d=2.5[music]")

	// Voice enters after the intro, in milliseconds on both channels.
	assert.Contains(t, graph, "[0:a]adelay=3500|3500[voice]")

	// Final mix keeps absolute levels and renormalizes for podcasts.
	assert.Contains(t, graph, "amix=inputs=2:duration=longest:dropout_transition=2:normalize=0")
	assert.Contains(t, graph, "loudnorm=I=-16:TP=-1.5:LRA=11[out]")
}

func TestMixInvokesEncoderWithMetadata(t *testing.T) {
	t.Parallel()

	runner := &renderRunner{}
	m := mixer.NewMixer(runner, newTestLogger(t))
	req := testRequest(t)

	err := m.Mix(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, runner.calls, 1)
	joined := strings.Join(runner.calls[0], " ")

	assert.Contains(t, joined, "-filter_complex")
	assert.Contains(t, joined, "-map [out]")
	assert.Contains(t, joined, "libmp3lame")
	assert.Contains(t, joined, "comment=voice:en-GB-SoniaNeural,provider:edge")
	assert.Contains(t, joined, "title=1784-europe-dare-to-know")
	assert.Contains(t, joined, "-t 186.5")
	assert.FileExists(t, req.OutputPath)
}

func TestMixFailureFallsBackToNarration(t *testing.T) {
	t.Parallel()

	runner := &renderRunner{failFirst: 1}
	m := mixer.NewMixer(runner, newTestLogger(t))
	req := testRequest(t)

	err := m.Mix(context.Background(), req)
	require.NoError(t, err, "a failed mix degrades, it does not fail the run")

	// First call is the mix, second is the narration-only re-encode.
	require.Len(t, runner.calls, 2)
	assert.NotContains(t, strings.Join(runner.calls[1], " "), "-filter_complex")
	assert.FileExists(t, req.OutputPath)
}

func TestCopyNarrationOnlyFallsBackToRawCopy(t *testing.T) {
	t.Parallel()

	// Every ffmpeg call fails, so the raw narration bytes are copied.
	runner := &renderRunner{failFirst: 10}
	m := mixer.NewMixer(runner, newTestLogger(t))
	req := testRequest(t)

	err := m.CopyNarrationOnly(context.Background(), req)
	require.NoError(t, err)

	content, readErr := os.ReadFile(req.OutputPath)
	require.NoError(t, readErr)
	assert.Equal(t, "voice audio", string(content))
}
