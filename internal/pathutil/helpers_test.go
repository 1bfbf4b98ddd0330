package pathutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeslices/podcastgen/internal/pathutil"
)

func TestEnsureDirCreatesNestedDirectories(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b", "c")

	err := pathutil.EnsureDir(dir)
	require.NoError(t, err)

	info, statErr := os.Stat(dir)
	require.NoError(t, statErr)
	assert.True(t, info.IsDir())
}

func TestCopyFileOverwritesDestination(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "nested", "dst.mp3")

	require.NoError(t, os.WriteFile(src, []byte("fresh audio"), 0o600))

	err := pathutil.CopyFile(src, dst)
	require.NoError(t, err)

	content, readErr := os.ReadFile(dst)
	require.NoError(t, readErr)
	assert.Equal(t, "fresh audio", string(content))

	require.NoError(t, os.WriteFile(src, []byte("new"), 0o600))
	require.NoError(t, pathutil.CopyFile(src, dst))

	content, readErr = os.ReadFile(dst)
	require.NoError(t, readErr)
	assert.Equal(t, "new", string(content))
}

func TestFileSizeMissingFileIsZero(t *testing.T) {
	t.Parallel()

	assert.Equal(t, int64(0), pathutil.FileSize(filepath.Join(t.TempDir(), "missing.mp3")))
}

func TestTrackFilenameIsDeterministic(t *testing.T) {
	t.Parallel()

	first := pathutil.TrackFilename("https://example.org/music.mp3")
	second := pathutil.TrackFilename("https://example.org/music.mp3")
	other := pathutil.TrackFilename("https://example.org/other.mp3")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Regexp(t, `^track-[0-9a-f]{8}\.mp3$`, first)
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45.2s", pathutil.FormatDuration(45.2))
	assert.Equal(t, "5m 30.5s", pathutil.FormatDuration(330.5))
	assert.Equal(t, "1h 15m", pathutil.FormatDuration(4500))
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "500 B", pathutil.FormatFileSize(500))
	assert.Equal(t, "1.5 KB", pathutil.FormatFileSize(1536))
	assert.Equal(t, "2.0 MB", pathutil.FormatFileSize(2*1024*1024))
}
