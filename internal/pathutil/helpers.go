// Package pathutil provides small filesystem and formatting helpers shared
// across the pipeline: directory creation, file copying, deterministic
// track filenames, and human-readable sizes and durations.
package pathutil

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Data size constants.
const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Time formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
)

// urlHashLength is the number of hex characters kept from the URL digest
// when building ad hoc track filenames.
const urlHashLength = 8

// EnsureDir ensures a directory exists at the given path, creating parent
// directories as needed.
func EnsureDir(path string) error {
	mkdirErr := os.MkdirAll(path, dirPermissions)
	if mkdirErr != nil {
		return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
	}

	return nil
}

// CopyFile copies src to dst, creating dst's directory if needed and
// overwriting any existing file.
func CopyFile(src, dst string) error {
	dirErr := EnsureDir(filepath.Dir(dst))
	if dirErr != nil {
		return dirErr
	}

	source, openErr := os.Open(src)
	if openErr != nil {
		return fmt.Errorf("failed to open %s: %w", src, openErr)
	}

	defer func() {
		_ = source.Close()
	}()

	destination, createErr := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermissions)
	if createErr != nil {
		return fmt.Errorf("failed to create %s: %w", dst, createErr)
	}

	_, copyErr := io.Copy(destination, source)
	closeErr := destination.Close()

	if copyErr != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", dst, closeErr)
	}

	return nil
}

// FileSize returns the size of a file in bytes, or zero if it does not
// exist.
func FileSize(path string) int64 {
	info, statErr := os.Stat(path)
	if statErr != nil {
		return 0
	}

	return info.Size()
}

// TrackFilename builds a deterministic cache filename for an ad hoc music
// URL, so repeated runs for the same URL reuse the same download.
func TrackFilename(url string) string {
	digest := md5.Sum([]byte(url))
	hash := hex.EncodeToString(digest[:])[:urlHashLength]

	return "track-" + hash + ".mp3"
}

// FormatDuration formats a duration in seconds as a human-readable string
// (e.g. "45.2s", "5m 30.5s", "1h 15m").
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf("%.1fs", seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf("%dm %.1fs", minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingMinutes := int(seconds-float64(hours*secondsInHour)) / secondsInMinute

	return fmt.Sprintf("%dh %dm", hours, remainingMinutes)
}

// FormatFileSize formats a byte count as a human-readable string (e.g.
// "1.2 GB", "500.5 KB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf("%.1f MB", float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf("%.1f KB", float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
