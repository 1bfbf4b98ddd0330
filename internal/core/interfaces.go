// Package core defines the capability interfaces shared by the podcast
// generation pipeline: external process execution, structured audio
// measurement, and text-to-speech providers.
package core

import (
	"context"
	"errors"
)

// ErrNoMeasurement indicates the analyzer could not produce a volume
// reading for the requested window. Callers decide whether that counts as
// silence; the analyzer does not.
var ErrNoMeasurement = errors.New("no volume measurement available")

// Runner executes an external tool and returns its captured output streams.
// Implementations must honour context cancellation and deadlines.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Silence is one detected silence interval within an audio file, in seconds
// from the start of the file. End is zero when the silence runs to EOF.
type Silence struct {
	Start float64
	End   float64
}

// Analyzer measures audio files. It replaces ad hoc parsing of tool output
// scattered through callers with one structured surface, so validation and
// retry logic can be tested against fakes.
type Analyzer interface {
	// Duration returns the total duration of the file in seconds.
	Duration(ctx context.Context, path string) (float64, error)
	// MeanVolume returns the mean volume in dB over a window of the given
	// length starting at offset seconds. A window of zero measures from
	// the offset to the end of the file.
	MeanVolume(ctx context.Context, path string, offset, window float64) (float64, error)
	// Silences returns the silence intervals quieter than noiseDB lasting
	// at least minDuration seconds.
	Silences(ctx context.Context, path string, noiseDB, minDuration float64) ([]Silence, error)
}

// Voice identifies a synthesis voice on a specific provider. Rate and Pitch
// are optional prosody adjustments understood by the free provider.
type Voice struct {
	Provider string
	ID       string
	Name     string
	Rate     string
	Pitch    string
}

// SynthesisRequest is one speech generation call: a single chunk of text
// rendered with one voice into one output file.
type SynthesisRequest struct {
	Text       string
	Voice      Voice
	Language   string
	OutputPath string
}

// Provider is a text-to-speech backend. One provider instance is selected
// per narration so that every chunk of a script shares the same backend and
// voice.
type Provider interface {
	Name() string
	Synthesize(ctx context.Context, req SynthesisRequest) error
}
