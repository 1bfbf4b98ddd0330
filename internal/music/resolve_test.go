package music_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/music"
)

func catalogConfig() config.MusicConfig {
	return config.MusicConfig{
		Pool: map[string]config.PoolTrack{
			"bach-organ": {
				URL:         "https://archive.org/download/bach/variation-1.mp3",
				Filename:    "bach-organ.mp3",
				Description: "Baroque organ",
				StartTime:   0.5,
			},
		},
		Sources: map[string]config.TrackSource{
			"1648-munster-exhaustion-of-god": {PoolKey: "bach-organ"},
			"1784-europe-dare-to-know": {
				PoolKey:     "bach-organ",
				Description: "Classical piano era override",
				StartTime:   floatPtr(7.5),
			},
			"direct-entry": {
				URL:         "https://archive.org/download/direct/track.mp3",
				Filename:    "direct.mp3",
				Description: "direct descriptor",
			},
			"broken-entry": {PoolKey: "missing-key"},
			"bare-entry":   {Description: "no url or filename"},
		},
	}
}

func floatPtr(value float64) *float64 {
	return &value
}

func TestResolveEntryUnassignedIsNil(t *testing.T) {
	t.Parallel()

	cfg := catalogConfig()

	track, err := music.ResolveEntry(&cfg, "unknown-entry")
	require.NoError(t, err)
	assert.Nil(t, track)
}

func TestResolveEntryDereferencesPool(t *testing.T) {
	t.Parallel()

	cfg := catalogConfig()

	track, err := music.ResolveEntry(&cfg, "1648-munster-exhaustion-of-god")
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.Equal(t, "https://archive.org/download/bach/variation-1.mp3", track.URL)
	assert.Equal(t, "bach-organ.mp3", track.Filename)
	assert.Equal(t, "Baroque organ", track.Description)
	assert.InDelta(t, 0.5, track.Start, 0.0001)
}

func TestResolveEntryAppliesOverrides(t *testing.T) {
	t.Parallel()

	cfg := catalogConfig()

	track, err := music.ResolveEntry(&cfg, "1784-europe-dare-to-know")
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.Equal(t, "Classical piano era override", track.Description)
	assert.InDelta(t, 7.5, track.Start, 0.0001)
	assert.Equal(t, "bach-organ.mp3", track.Filename)
}

func TestResolveEntryDirectDescriptor(t *testing.T) {
	t.Parallel()

	cfg := catalogConfig()

	track, err := music.ResolveEntry(&cfg, "direct-entry")
	require.NoError(t, err)
	require.NotNil(t, track)

	assert.Equal(t, "https://archive.org/download/direct/track.mp3", track.URL)
	assert.Equal(t, "direct.mp3", track.Filename)
}

func TestResolveEntryUnknownPoolKey(t *testing.T) {
	t.Parallel()

	cfg := catalogConfig()

	_, err := music.ResolveEntry(&cfg, "broken-entry")
	require.Error(t, err)
	require.ErrorIs(t, err, music.ErrUnknownPoolKey)
}

func TestResolveEntryIncompleteTrack(t *testing.T) {
	t.Parallel()

	cfg := catalogConfig()

	_, err := music.ResolveEntry(&cfg, "bare-entry")
	require.Error(t, err)
	require.ErrorIs(t, err, music.ErrIncompleteTrack)
}

func TestResolveAdHocDerivesFilenameFromURL(t *testing.T) {
	t.Parallel()

	track := music.ResolveAdHoc("https://archive.org/download/oneoff/track.mp3", 4.0)

	assert.Equal(t, "https://archive.org/download/oneoff/track.mp3", track.URL)
	assert.Regexp(t, `^track-[0-9a-f]{8}\.mp3$`, track.Filename)
	assert.InDelta(t, 4.0, track.Start, 0.0001)

	again := music.ResolveAdHoc("https://archive.org/download/oneoff/track.mp3", 4.0)
	assert.Equal(t, track.Filename, again.Filename)
}
