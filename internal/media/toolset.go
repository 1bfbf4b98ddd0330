package media

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/book-expert/logger"

	"github.com/timeslices/podcastgen/internal/core"
)

// External tool names.
const (
	ffmpegBin  = "ffmpeg"
	ffprobeBin = "ffprobe"
)

// stderrTailBytes bounds how much tool stderr is carried into error
// messages.
const stderrTailBytes = 500

// ErrNoDuration is returned when the container reports no duration.
var ErrNoDuration = errors.New("no duration in tool output")

// Output parsing patterns.
var (
	meanVolumePattern   = regexp.MustCompile(`mean_volume: ([-\d.]+) dB`)
	silenceStartPattern = regexp.MustCompile(`silence_start: ([\d.]+)`)
	silenceEndPattern   = regexp.MustCompile(`silence_end: ([\d.]+)`)
)

// MP3EncodeArgs returns the shared MP3 encoder settings used for every
// produced asset.
func MP3EncodeArgs() []string {
	return []string{"-c:a", "libmp3lame", "-b:a", "128k"}
}

// Toolset implements core.Analyzer and the encode helpers on top of a
// core.Runner, so everything above it can be tested without the binaries.
type Toolset struct {
	runner core.Runner
	log    *logger.Logger
}

// NewToolset creates a Toolset backed by the given runner.
func NewToolset(runner core.Runner, log *logger.Logger) *Toolset {
	return &Toolset{
		runner: runner,
		log:    log,
	}
}

// Duration returns the duration of an audio file in seconds.
func (t *Toolset) Duration(ctx context.Context, path string) (float64, error) {
	stdout, _, runErr := t.runner.Run(ctx, ffprobeBin,
		"-v", "quiet",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	if runErr != nil {
		return 0, fmt.Errorf("failed to probe %s: %w", path, runErr)
	}

	raw := strings.TrimSpace(string(stdout))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrNoDuration, path)
	}

	duration, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("failed to parse duration %q for %s: %w", raw, path, parseErr)
	}

	return duration, nil
}

// MeanVolume measures the mean volume in dB over a window starting at
// offset seconds. A zero window measures through to the end of the file.
func (t *Toolset) MeanVolume(ctx context.Context, path string, offset, window float64) (float64, error) {
	args := []string{"-i", path}

	if offset > 0 {
		args = append(args, "-ss", formatSeconds(offset))
	}

	if window > 0 {
		args = append(args, "-t", formatSeconds(window))
	}

	args = append(args, "-af", "volumedetect", "-f", "null", "-")

	// volumedetect reports on stderr; the command itself succeeds.
	_, stderr, runErr := t.runner.Run(ctx, ffmpegBin, args...)
	if runErr != nil {
		return 0, fmt.Errorf("failed to measure %s: %w (%s)", path, runErr, stderrTail(stderr))
	}

	match := meanVolumePattern.FindSubmatch(stderr)
	if match == nil {
		return 0, fmt.Errorf("%w: %s", core.ErrNoMeasurement, path)
	}

	volume, parseErr := strconv.ParseFloat(string(match[1]), 64)
	if parseErr != nil {
		return 0, fmt.Errorf("failed to parse mean volume for %s: %w", path, parseErr)
	}

	return volume, nil
}

// Silences returns the intervals quieter than noiseDB lasting at least
// minDuration seconds.
func (t *Toolset) Silences(ctx context.Context, path string, noiseDB, minDuration float64) ([]core.Silence, error) {
	filter := fmt.Sprintf("silencedetect=noise=%sdB:d=%s",
		formatSeconds(noiseDB), formatSeconds(minDuration))

	_, stderr, runErr := t.runner.Run(ctx, ffmpegBin,
		"-i", path,
		"-af", filter,
		"-f", "null", "-",
	)
	if runErr != nil {
		return nil, fmt.Errorf("failed to detect silence in %s: %w (%s)", path, runErr, stderrTail(stderr))
	}

	return parseSilences(stderr), nil
}

// parseSilences pairs silence_start/silence_end lines in order. A trailing
// silence_start without a matching end yields an interval with End zero.
func parseSilences(stderr []byte) []core.Silence {
	var silences []core.Silence

	for _, line := range strings.Split(string(stderr), "\n") {
		if startMatch := silenceStartPattern.FindStringSubmatch(line); startMatch != nil {
			start, parseErr := strconv.ParseFloat(startMatch[1], 64)
			if parseErr == nil {
				silences = append(silences, core.Silence{Start: start, End: 0})
			}

			continue
		}

		endMatch := silenceEndPattern.FindStringSubmatch(line)
		if endMatch == nil {
			continue
		}

		end, parseErr := strconv.ParseFloat(endMatch[1], 64)
		if parseErr != nil {
			continue
		}

		if len(silences) > 0 && silences[len(silences)-1].End == 0 {
			silences[len(silences)-1].End = end
		} else {
			silences = append(silences, core.Silence{Start: 0, End: end})
		}
	}

	return silences
}

// Encode re-encodes in to out through an optional audio filter chain.
func (t *Toolset) Encode(ctx context.Context, in, out, filter string) error {
	args := []string{"-y", "-i", in}

	if filter != "" {
		args = append(args, "-af", filter)
	}

	args = append(args, MP3EncodeArgs()...)
	args = append(args, out)

	_, stderr, runErr := t.runner.Run(ctx, ffmpegBin, args...)
	if runErr != nil {
		return fmt.Errorf("failed to encode %s: %w (%s)", in, runErr, stderrTail(stderr))
	}

	return nil
}

// Concat joins the files named in a concat list file into one MP3.
func (t *Toolset) Concat(ctx context.Context, listFile, out string) error {
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listFile}
	args = append(args, MP3EncodeArgs()...)
	args = append(args, out)

	_, stderr, runErr := t.runner.Run(ctx, ffmpegBin, args...)
	if runErr != nil {
		return fmt.Errorf("failed to concatenate %s: %w (%s)", listFile, runErr, stderrTail(stderr))
	}

	return nil
}

// TrimHead re-encodes in to out dropping the first offset seconds.
func (t *Toolset) TrimHead(ctx context.Context, in, out string, offset float64) error {
	args := []string{"-y", "-i", in, "-ss", formatSeconds(offset)}
	args = append(args, MP3EncodeArgs()...)
	args = append(args, out)

	_, stderr, runErr := t.runner.Run(ctx, ffmpegBin, args...)
	if runErr != nil {
		return fmt.Errorf("failed to trim %s: %w (%s)", in, runErr, stderrTail(stderr))
	}

	return nil
}

// formatSeconds renders a float argument without trailing zeros.
func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// stderrTail returns the last portion of captured stderr for diagnostics.
func stderrTail(stderr []byte) string {
	if len(stderr) > stderrTailBytes {
		stderr = stderr[len(stderr)-stderrTailBytes:]
	}

	return strings.TrimSpace(string(stderr))
}
