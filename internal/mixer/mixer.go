// Package mixer builds the final podcast asset: a music intro, the
// narration over a ducked music bed, and a music outro, rendered in a
// single ffmpeg filter graph.
package mixer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/book-expert/logger"

	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/media"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// Mix timeline constants, in seconds. The intro plays music alone before
// the narration enters; the outro lets the music breathe after the
// narration ends.
const (
	IntroDuration = 3.5
	OutroPad      = 3.0
)

// Music bed shaping constants.
const (
	musicBaseVolume = 0.35
	duckVolume      = 0.57
	fadeDuration    = 2.5

	bedLoudnessFilter = "loudnorm=I=-20:TP=-2:LRA=7"
	bedToneFilter     = "lowpass=f=4000:p=1"
	bedCompressor     = "acompressor=threshold=-25dB:ratio=3:attack=20:release=200"

	// loopSize is the sample window ffmpeg keeps for seamless looping of
	// short tracks under long narrations.
	loopSize = "2e+09"

	millisecondsPerSecond = 1000
)

// Tags is the metadata embedded in the output so a finished asset records
// how it was produced.
type Tags struct {
	EntryID  string
	Voice    string
	Provider string
}

// Request describes one mix.
type Request struct {
	NarrationPath     string
	NarrationDuration float64
	MusicPath         string
	MusicStart        float64
	OutputPath        string
	Tags              Tags
}

// Mixer renders narration and music into the final asset.
type Mixer struct {
	runner core.Runner
	log    *logger.Logger
}

// NewMixer creates a mixer.
func NewMixer(runner core.Runner, log *logger.Logger) *Mixer {
	return &Mixer{
		runner: runner,
		log:    log,
	}
}

// TotalDuration returns the length of the finished asset for a narration
// of the given duration.
func TotalDuration(narrationDuration float64) float64 {
	return narrationDuration + IntroDuration + OutroPad
}

// FilterGraph builds the ffmpeg filter_complex for one mix. The music
// chain trims to the chosen start point, loops so short tracks survive
// long narrations, normalizes and darkens the bed, fades in over the
// intro, ducks while the narration plays, and fades out at the tail. The
// narration is delayed past the intro and mixed over the bed.
func FilterGraph(req Request) string {
	total := TotalDuration(req.NarrationDuration)
	duckEnd := IntroDuration + req.NarrationDuration
	fadeOutStart := total - fadeDuration
	delayMS := int(IntroDuration * millisecondsPerSecond)

	musicChain := strings.Join([]string{
		"[1:a]atrim=start=" + formatFloat(req.MusicStart),
		"asetpts=PTS-STARTPTS",
		"aloop=loop=-1:size=" + loopSize,
		"atrim=duration=" + formatFloat(total),
		bedLoudnessFilter,
		bedToneFilter,
		bedCompressor,
		"volume=" + formatFloat(musicBaseVolume),
		"afade=t=in:st=0:d=" + formatFloat(fadeDuration),
		fmt.Sprintf("volume=enable='between(t,%s,%s)':volume=%s",
			formatFloat(IntroDuration), formatFloat(duckEnd), formatFloat(duckVolume)),
		fmt.Sprintf("afade=t=out:st=%s:d=%s[music]",
			formatFloat(fadeOutStart), formatFloat(fadeDuration)),
	}, ",")

	voiceChain := fmt.Sprintf("[0:a]adelay=%d|%d[voice]", delayMS, delayMS)

	mixChain := "[voice][music]amix=inputs=2:duration=longest:dropout_transition=2:normalize=0," +
		"loudnorm=I=-16:TP=-1.5:LRA=11[out]"

	return musicChain + ";" + voiceChain + ";" + mixChain
}

// Mix renders the final asset. A render failure degrades to a plain
// narration copy rather than failing the whole run, so a bad music file
// never blocks publishing an entry.
func (m *Mixer) Mix(ctx context.Context, req Request) error {
	total := TotalDuration(req.NarrationDuration)

	args := []string{
		"-y",
		"-i", req.NarrationPath,
		"-i", req.MusicPath,
		"-filter_complex", FilterGraph(req),
		"-map", "[out]",
	}
	args = append(args, media.MP3EncodeArgs()...)
	args = append(args,
		"-metadata", "comment=voice:"+req.Tags.Voice+",provider:"+req.Tags.Provider,
		"-metadata", "title="+req.Tags.EntryID,
		"-t", formatFloat(total),
		req.OutputPath,
	)

	m.log.Info("Mixing %s: narration %s + music from %ss (total %s)",
		req.Tags.EntryID,
		pathutil.FormatDuration(req.NarrationDuration),
		formatFloat(req.MusicStart),
		pathutil.FormatDuration(total))

	_, stderr, runErr := m.runner.Run(ctx, "ffmpeg", args...)
	if runErr != nil {
		m.log.Error("Mix failed for %s, falling back to narration only: %v (%s)",
			req.Tags.EntryID, runErr, stderrTail(stderr))

		return m.CopyNarrationOnly(ctx, req)
	}

	m.log.Info("Mixed asset ready: %s (%s)",
		req.OutputPath, pathutil.FormatFileSize(pathutil.FileSize(req.OutputPath)))

	return nil
}

// CopyNarrationOnly publishes the bare narration as the output asset,
// re-encoding to carry the metadata tags. If even the re-encode fails the
// narration file is copied as-is.
func (m *Mixer) CopyNarrationOnly(ctx context.Context, req Request) error {
	args := []string{
		"-y",
		"-i", req.NarrationPath,
	}
	args = append(args, media.MP3EncodeArgs()...)
	args = append(args,
		"-metadata", "comment=voice:"+req.Tags.Voice+",provider:"+req.Tags.Provider,
		"-metadata", "title="+req.Tags.EntryID,
		req.OutputPath,
	)

	_, _, runErr := m.runner.Run(ctx, "ffmpeg", args...)
	if runErr != nil {
		m.log.Warn("Narration re-encode failed, copying raw file: %v", runErr)

		return pathutil.CopyFile(req.NarrationPath, req.OutputPath)
	}

	return nil
}

const stderrTailBytes = 500

// stderrTail returns the last portion of ffmpeg stderr, where the actual
// error lives.
func stderrTail(stderr []byte) string {
	text := strings.TrimSpace(string(stderr))
	if len(text) > stderrTailBytes {
		return "..." + text[len(text)-stderrTailBytes:]
	}

	return text
}

// formatFloat renders a float without trailing zeros, matching what
// ffmpeg expects in filter expressions.
func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
