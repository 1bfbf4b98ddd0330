package music

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/cenkalti/backoff/v4"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// Some hosts refuse the default Go user agent, so downloads present a
// browser-like one.
const downloadUserAgent = "Mozilla/5.0"

// Measurement windows and silence-detection parameters.
const (
	silenceCheckWindow = 30.0
	startCheckWindow   = 3.0
	silenceNoiseDB     = -30.0
	silenceMinDuration = 0.3
	startGranularity   = 0.5
	fallbackStartSkip  = 2.0
	downloadRetries    = 2
)

// Static errors.
var (
	// ErrTrackSilent is returned when a cached or downloaded track fails
	// the silence check.
	ErrTrackSilent = errors.New("music track is silent or corrupt")
	// ErrTrackTooSmall is returned when a download is under the minimum
	// plausible size for real audio.
	ErrTrackTooSmall = errors.New("music track below minimum size")
	// ErrDownloadStatus is returned for non-success HTTP responses.
	ErrDownloadStatus = errors.New("music download returned non-success status")
)

// Store acquires and validates music tracks in a local cache directory.
type Store struct {
	dir      string
	cfg      config.MusicConfig
	client   *http.Client
	analyzer core.Analyzer
	log      *logger.Logger
}

// NewStore creates a music store caching into dir.
func NewStore(cfg config.MusicConfig, dir string, analyzer core.Analyzer, log *logger.Logger) *Store {
	return &Store{
		dir: dir,
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.DownloadTimeoutSeconds) * time.Second,
		},
		analyzer: analyzer,
		log:      log,
	}
}

// Acquire returns a local path for the track, reusing the cache when the
// cached file is plausibly sized and not silent, downloading otherwise. A
// silent or undersized result is deleted and reported as an error; the
// store never substitutes a corrupt asset.
func (s *Store) Acquire(ctx context.Context, track *Track) (string, error) {
	dirErr := pathutil.EnsureDir(s.dir)
	if dirErr != nil {
		return "", dirErr
	}

	path := filepath.Join(s.dir, track.Filename)

	if pathutil.FileSize(path) > s.cfg.MinBytes {
		audible, checkErr := s.hasAudio(ctx, path)
		if checkErr != nil {
			return "", checkErr
		}

		if audible {
			s.log.Info("Reusing cached music %s (%s)", track.Filename,
				pathutil.FormatFileSize(pathutil.FileSize(path)))

			return path, nil
		}

		s.log.Warn("Cached music %s is silent, re-downloading", track.Filename)

		removeErr := os.Remove(path)
		if removeErr != nil {
			return "", fmt.Errorf("failed to remove silent cache file %s: %w", path, removeErr)
		}
	}

	s.log.Info("Downloading music %s (%s)", track.Filename, track.Description)

	downloadErr := s.download(ctx, track.URL, path)
	if downloadErr != nil {
		return "", downloadErr
	}

	validateErr := s.validateDownload(ctx, path)
	if validateErr != nil {
		removeErr := os.Remove(path)
		if removeErr != nil {
			s.log.Warn("Failed to remove rejected download %s: %v", path, removeErr)
		}

		return "", validateErr
	}

	s.log.Info("Downloaded %s (%s)", track.Filename,
		pathutil.FormatFileSize(pathutil.FileSize(path)))

	return path, nil
}

// ValidateStart checks that the track is audible in a short window at the
// requested start offset. When the window is quiet it proposes a later
// start: the first silence-to-sound transition after the offset, rounded
// to half-second granularity, or a fixed skip when none is found. The
// suggestion is always strictly after the original offset.
func (s *Store) ValidateStart(ctx context.Context, path string, start float64) (bool, float64, error) {
	volume, measureErr := s.analyzer.MeanVolume(ctx, path, start, startCheckWindow)
	if measureErr != nil {
		// A window the tool cannot measure is not evidence of silence.
		if errors.Is(measureErr, core.ErrNoMeasurement) {
			return true, start, nil
		}

		return false, start, measureErr
	}

	if volume >= s.cfg.QuietFloorDB {
		return true, start, nil
	}

	s.log.Warn("Music at %.1fs is quiet (%.1f dB), searching for a better start", start, volume)

	silences, silenceErr := s.analyzer.Silences(ctx, path, silenceNoiseDB, silenceMinDuration)
	if silenceErr != nil {
		return false, start, silenceErr
	}

	for _, silence := range silences {
		if silence.End <= start {
			continue
		}

		suggested := math.Round(silence.End/startGranularity) * startGranularity
		if suggested > start {
			return false, suggested, nil
		}
	}

	return false, start + fallbackStartSkip, nil
}

// hasAudio reports whether the opening of the file carries audible signal.
func (s *Store) hasAudio(ctx context.Context, path string) (bool, error) {
	volume, measureErr := s.analyzer.MeanVolume(ctx, path, 0, silenceCheckWindow)
	if measureErr != nil {
		if errors.Is(measureErr, core.ErrNoMeasurement) {
			return true, nil
		}

		return false, measureErr
	}

	return volume >= s.cfg.SilenceFloorDB, nil
}

// validateDownload applies the content-quality gates to a fresh download.
func (s *Store) validateDownload(ctx context.Context, path string) error {
	size := pathutil.FileSize(path)
	if size < s.cfg.MinBytes {
		return fmt.Errorf("%w: %s is %d bytes", ErrTrackTooSmall, path, size)
	}

	audible, checkErr := s.hasAudio(ctx, path)
	if checkErr != nil {
		return checkErr
	}

	if !audible {
		return fmt.Errorf("%w: %s", ErrTrackSilent, path)
	}

	return nil
}

// download fetches the URL to path, retrying transient failures.
func (s *Store) download(ctx context.Context, url, path string) error {
	operation := func() error {
		return s.downloadOnce(ctx, url, path)
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), downloadRetries), ctx)

	retryErr := backoff.Retry(operation, policy)
	if retryErr != nil {
		return fmt.Errorf("failed to download %s: %w", url, retryErr)
	}

	return nil
}

func (s *Store) downloadOnce(ctx context.Context, url, path string) error {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return backoff.Permanent(fmt.Errorf("failed to build request: %w", reqErr))
	}

	req.Header.Set("User-Agent", downloadUserAgent)

	resp, doErr := s.client.Do(req)
	if doErr != nil {
		return fmt.Errorf("request failed: %w", doErr)
	}

	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			s.log.Warn("Failed to close response body for %s: %v", url, closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("%w: %s", ErrDownloadStatus, resp.Status)
		if resp.StatusCode >= http.StatusInternalServerError {
			return statusErr
		}

		return backoff.Permanent(statusErr)
	}

	out, createErr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if createErr != nil {
		return backoff.Permanent(fmt.Errorf("failed to create %s: %w", path, createErr))
	}

	_, copyErr := io.Copy(out, resp.Body)
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", path, closeErr)
	}

	return nil
}
