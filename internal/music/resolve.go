// Package music implements the music store: it resolves logical track
// references into downloadable assets, maintains the local music cache, and
// validates that acquired audio is actually audible where the mix will use
// it.
package music

import (
	"errors"
	"fmt"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// Static errors.
var (
	// ErrUnknownPoolKey is returned when a source references a pool key
	// that is not in the shared catalog.
	ErrUnknownPoolKey = errors.New("unknown music pool key")
	// ErrIncompleteTrack is returned when a resolved track lacks a URL
	// or filename.
	ErrIncompleteTrack = errors.New("music track missing url or filename")
)

// Track is a fully resolved music reference: everything needed to download
// and mix it. Start is the verified non-silent offset in seconds.
type Track struct {
	URL         string
	Filename    string
	Description string
	Start       float64
}

// ResolveEntry resolves the configured music source for an entry. It
// returns (nil, nil) when the entry has no music assigned. Pool keys are
// dereferenced against the shared catalog, with any per-entry overrides
// applied on top of the pooled base values.
func ResolveEntry(cfg *config.MusicConfig, entryID string) (*Track, error) {
	source, ok := cfg.Sources[entryID]
	if !ok {
		return nil, nil
	}

	track := Track{
		URL:         source.URL,
		Filename:    source.Filename,
		Description: source.Description,
		Start:       0,
	}

	if source.PoolKey != "" {
		pooled, found := cfg.Pool[source.PoolKey]
		if !found {
			return nil, fmt.Errorf("%w: %q for entry %s", ErrUnknownPoolKey, source.PoolKey, entryID)
		}

		track.URL = pooled.URL
		track.Filename = pooled.Filename
		track.Start = pooled.StartTime

		if track.Description == "" {
			track.Description = pooled.Description
		}
	}

	if source.StartTime != nil {
		track.Start = *source.StartTime
	}

	if track.URL == "" || track.Filename == "" {
		return nil, fmt.Errorf("%w: entry %s", ErrIncompleteTrack, entryID)
	}

	return &track, nil
}

// ResolveAdHoc builds a track for a one-off URL supplied on the command
// line. The cache filename is derived from the URL so repeat runs reuse
// the same download.
func ResolveAdHoc(url string, start float64) *Track {
	return &Track{
		URL:         url,
		Filename:    pathutil.TrackFilename(url),
		Description: "ad hoc track",
		Start:       start,
	}
}
