package music

import (
	"context"
	"errors"
	"math"

	"github.com/timeslices/podcastgen/internal/core"
)

// Salient-start scanning parameters.
const (
	salientFloorDB   = -25.0
	strongSignalDB   = -20.0
	scanStrideSecs   = 2
	scanSpanSecs     = 30
	scanMinTailSecs  = 5
	unmeasuredVolume = -100.0
)

// StartAnalysis describes where a track's audible, salient audio begins.
type StartAnalysis struct {
	Path            string
	Duration        float64
	FirstAudio      float64
	SuggestedStart  float64
	VolumeAtStart   float64
	HasSilenceIntro bool
}

// AnalyzeStart scans a track for the best start offset: it skips any
// leading silence, then probes short windows looking for the first section
// whose mean volume clears the salience floor, stopping early on strong
// signal. The result is rounded to the store's start granularity.
func (s *Store) AnalyzeStart(ctx context.Context, path string) (*StartAnalysis, error) {
	duration, durationErr := s.analyzer.Duration(ctx, path)
	if durationErr != nil {
		return nil, durationErr
	}

	silences, silenceErr := s.analyzer.Silences(ctx, path, silenceNoiseDB, silenceMinDuration)
	if silenceErr != nil {
		return nil, silenceErr
	}

	firstAudio := 0.0

	if len(silences) > 0 && silences[0].End > 0 {
		firstAudio = silences[0].End
	}

	bestStart := firstAudio
	bestVolume := unmeasuredVolume

	scanEnd := math.Min(firstAudio+scanSpanSecs, duration-scanMinTailSecs)

	for offset := firstAudio; offset < scanEnd; offset += scanStrideSecs {
		volume, measureErr := s.analyzer.MeanVolume(ctx, path, offset, startCheckWindow)
		if measureErr != nil {
			if errors.Is(measureErr, core.ErrNoMeasurement) {
				continue
			}

			return nil, measureErr
		}

		if volume > bestVolume && volume > salientFloorDB {
			bestVolume = volume
			bestStart = offset

			if volume > strongSignalDB {
				break
			}
		}
	}

	return &StartAnalysis{
		Path:            path,
		Duration:        duration,
		FirstAudio:      firstAudio,
		SuggestedStart:  math.Round(bestStart/startGranularity) * startGranularity,
		VolumeAtStart:   bestVolume,
		HasSilenceIntro: firstAudio > startGranularity,
	}, nil
}
