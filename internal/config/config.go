// Package config provides the injected configuration object for the podcast
// generation pipeline: filesystem layout, TTS provider settings, voice
// casting, and the background music catalog.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// DefaultLanguage is the language whose assets live at the root of the
// audio tree; every other language gets its own subdirectory.
const DefaultLanguage = "en"

// PathsConfig holds the filesystem layout of the content site.
type PathsConfig struct {
	ProjectDir    string `toml:"project_dir"`
	AudioDir      string `toml:"audio_dir"`
	ScriptsDir    string `toml:"scripts_dir"`
	NarrationsDir string `toml:"narrations_dir"`
	MusicDir      string `toml:"music_dir"`
	BaseLogsDir   string `toml:"base_logs_dir"`
}

// CommercialConfig configures the paid HTTP text-to-speech provider.
type CommercialConfig struct {
	APIKeyEnv         string `toml:"api_key_env"`
	BaseURL           string `toml:"base_url"`
	FlashModel        string `toml:"flash_model"`
	MultilingualModel string `toml:"multilingual_model"`
	MinCreditReserve  int    `toml:"min_credit_reserve"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// FreeConfig configures the free subprocess text-to-speech provider.
type FreeConfig struct {
	BinaryPath     string `toml:"binary_path"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ProvidersConfig holds synthesis behaviour shared by all providers plus the
// per-provider settings.
type ProvidersConfig struct {
	ChunkThreshold int              `toml:"chunk_threshold"`
	Attempts       int              `toml:"attempts"`
	ChunkPauseMS   int              `toml:"chunk_pause_ms"`
	Commercial     CommercialConfig `toml:"commercial"`
	Free           FreeConfig       `toml:"free"`
}

// VoiceOption is one voice in a curated pool.
type VoiceOption struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
}

// VoiceCast pins a voice (and optional prosody) to one entry and language.
type VoiceCast struct {
	Provider string `toml:"provider"`
	Voice    string `toml:"voice"`
	Rate     string `toml:"rate"`
	Pitch    string `toml:"pitch"`
}

// CastingConfig resolves voices: an explicit per-entry cast, curated pools
// per provider and language, per-language defaults, and an exclusion set of
// voices known to produce corrupted output.
type CastingConfig struct {
	Cast            map[string]map[string]VoiceCast `toml:"cast"`
	Excluded        []string                        `toml:"excluded"`
	CommercialPools map[string][]VoiceOption        `toml:"commercial_pools"`
	FreePools       map[string][]VoiceOption        `toml:"free_pools"`
	FreeDefaults    map[string]string               `toml:"free_defaults"`
}

// IsExcluded reports whether a voice id is in the exclusion set.
func (c *CastingConfig) IsExcluded(voiceID string) bool {
	for _, excluded := range c.Excluded {
		if excluded == voiceID {
			return true
		}
	}

	return false
}

// PoolTrack is one shared, reusable music track: a verified download source
// with era/region/mood metadata and a curated non-silent start offset.
type PoolTrack struct {
	URL         string  `toml:"url"`
	Filename    string  `toml:"filename"`
	Description string  `toml:"description"`
	StartTime   float64 `toml:"start_time"`
	Era         string  `toml:"era"`
	Region      string  `toml:"region"`
	Mood        string  `toml:"mood"`
}

// TrackSource assigns music to one entry: either a pool key indirection
// (with an optional start-time override) or a direct descriptor.
type TrackSource struct {
	PoolKey     string   `toml:"pool_key"`
	URL         string   `toml:"url"`
	Filename    string   `toml:"filename"`
	Description string   `toml:"description"`
	StartTime   *float64 `toml:"start_time"`
}

// MusicConfig holds the music catalog and the content-quality thresholds
// applied to downloaded tracks.
type MusicConfig struct {
	MinBytes               int64                  `toml:"min_bytes"`
	SilenceFloorDB         float64                `toml:"silence_floor_db"`
	QuietFloorDB           float64                `toml:"quiet_floor_db"`
	DownloadTimeoutSeconds int                    `toml:"download_timeout_seconds"`
	Pool                   map[string]PoolTrack   `toml:"pool"`
	Sources                map[string]TrackSource `toml:"sources"`
}

// Config is the root configuration structure.
type Config struct {
	Paths     PathsConfig     `toml:"paths"`
	Providers ProvidersConfig `toml:"providers"`
	Casting   CastingConfig   `toml:"casting"`
	Music     MusicConfig     `toml:"music"`
}

// Load loads the configuration through the central configurator and fills
// in defaults for anything the project file leaves unset.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	return &cfg, nil
}

// langSubdir joins dir with the language subdirectory for non-default
// languages.
func langSubdir(dir, language string) string {
	if language == DefaultLanguage {
		return dir
	}

	return filepath.Join(dir, language)
}

// ScriptPath returns the canonical script file for an entry and language.
func (c *Config) ScriptPath(entryID, language string) string {
	return filepath.Join(langSubdir(c.Paths.ScriptsDir, language), entryID+".txt")
}

// OutputPath returns the final podcast asset path for an entry and language.
func (c *Config) OutputPath(entryID, language string) string {
	return filepath.Join(langSubdir(c.Paths.AudioDir, language), entryID+".mp3")
}

// OutputURL returns the store-relative URL recorded for the final asset.
func (c *Config) OutputURL(entryID, language string) string {
	if language == DefaultLanguage {
		return "audio/" + entryID + ".mp3"
	}

	return "audio/" + language + "/" + entryID + ".mp3"
}

// NarrationPath returns the stable cache location for a saved narration.
func (c *Config) NarrationPath(entryID, language string) string {
	return filepath.Join(langSubdir(c.Paths.NarrationsDir, language), entryID+".mp3")
}

// EntryStorePath returns the entry store file for a language.
func (c *Config) EntryStorePath(language string) string {
	if language == DefaultLanguage {
		return filepath.Join(c.Paths.ProjectDir, "slices.json")
	}

	return filepath.Join(c.Paths.ProjectDir, "slices."+language+".json")
}
