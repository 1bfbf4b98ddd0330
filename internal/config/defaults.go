package config

import (
	"os"
	"path/filepath"
)

// Default synthesis behaviour.
const (
	defaultChunkThreshold = 2000
	defaultAttempts       = 3
	defaultChunkPauseMS   = 500
)

// Default commercial provider settings.
const (
	defaultAPIKeyEnv         = "ELEVENLABS_API_KEY"
	defaultBaseURL           = "https://api.elevenlabs.io"
	defaultFlashModel        = "eleven_flash_v2_5"
	defaultMultilingualModel = "eleven_multilingual_v2"
	defaultMinCreditReserve  = 500
	defaultProviderTimeout   = 120
)

// Default music thresholds.
const (
	defaultMusicMinBytes        = 10_000
	defaultSilenceFloorDB       = -50
	defaultQuietFloorDB         = -35
	defaultDownloadTimeoutSecs  = 60
	defaultFreeProviderRelative = "bin/edge-tts"
)

// ApplyDefaults fills in every unset field with the built-in defaults: the
// curated voice pools, the per-entry cast, and the period music catalog the
// site launched with. Anything present in the project file wins.
func (c *Config) ApplyDefaults() {
	c.applyPathDefaults()
	c.applyProviderDefaults()
	c.applyCastingDefaults()
	c.applyMusicDefaults()
}

func (c *Config) applyPathDefaults() {
	if c.Paths.ProjectDir == "" {
		c.Paths.ProjectDir = "."
	}

	if c.Paths.AudioDir == "" {
		c.Paths.AudioDir = filepath.Join(c.Paths.ProjectDir, "audio")
	}

	if c.Paths.ScriptsDir == "" {
		c.Paths.ScriptsDir = filepath.Join(c.Paths.AudioDir, "scripts")
	}

	if c.Paths.NarrationsDir == "" {
		c.Paths.NarrationsDir = filepath.Join(c.Paths.AudioDir, "narrations")
	}

	if c.Paths.MusicDir == "" {
		c.Paths.MusicDir = filepath.Join(c.Paths.AudioDir, "music")
	}

	if c.Paths.BaseLogsDir == "" {
		c.Paths.BaseLogsDir = os.TempDir()
	}
}

func (c *Config) applyProviderDefaults() {
	providers := &c.Providers

	if providers.ChunkThreshold == 0 {
		providers.ChunkThreshold = defaultChunkThreshold
	}

	if providers.Attempts == 0 {
		providers.Attempts = defaultAttempts
	}

	if providers.ChunkPauseMS == 0 {
		providers.ChunkPauseMS = defaultChunkPauseMS
	}

	commercial := &providers.Commercial

	if commercial.APIKeyEnv == "" {
		commercial.APIKeyEnv = defaultAPIKeyEnv
	}

	if commercial.BaseURL == "" {
		commercial.BaseURL = defaultBaseURL
	}

	if commercial.FlashModel == "" {
		commercial.FlashModel = defaultFlashModel
	}

	if commercial.MultilingualModel == "" {
		commercial.MultilingualModel = defaultMultilingualModel
	}

	if commercial.MinCreditReserve == 0 {
		commercial.MinCreditReserve = defaultMinCreditReserve
	}

	if commercial.TimeoutSeconds == 0 {
		commercial.TimeoutSeconds = defaultProviderTimeout
	}

	free := &providers.Free

	if free.BinaryPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			homeDir = os.TempDir()
		}

		free.BinaryPath = filepath.Join(homeDir, defaultFreeProviderRelative)
	}

	if free.TimeoutSeconds == 0 {
		free.TimeoutSeconds = defaultProviderTimeout
	}
}

func (c *Config) applyCastingDefaults() {
	casting := &c.Casting

	if casting.Cast == nil {
		casting.Cast = defaultCast()
	}

	if casting.Excluded == nil {
		// en-US-ChristopherNeural intermittently emits truncated audio
		// on long paragraphs; dropped from rotation until fixed upstream.
		casting.Excluded = []string{"en-US-ChristopherNeural"}
	}

	if casting.CommercialPools == nil {
		casting.CommercialPools = defaultCommercialPools()
	}

	if casting.FreePools == nil {
		casting.FreePools = defaultFreePools()
	}

	if casting.FreeDefaults == nil {
		casting.FreeDefaults = map[string]string{
			"en": "en-US-GuyNeural",
			"it": "it-IT-DiegoNeural",
		}
	}
}

func (c *Config) applyMusicDefaults() {
	music := &c.Music

	if music.MinBytes == 0 {
		music.MinBytes = defaultMusicMinBytes
	}

	if music.SilenceFloorDB == 0 {
		music.SilenceFloorDB = defaultSilenceFloorDB
	}

	if music.QuietFloorDB == 0 {
		music.QuietFloorDB = defaultQuietFloorDB
	}

	if music.DownloadTimeoutSeconds == 0 {
		music.DownloadTimeoutSeconds = defaultDownloadTimeoutSecs
	}

	if music.Pool == nil {
		music.Pool = defaultMusicPool()
	}

	if music.Sources == nil {
		music.Sources = defaultMusicSources()
	}
}

// defaultCast pins voices chosen to match each entry's epoch.
func defaultCast() map[string]map[string]VoiceCast {
	return map[string]map[string]VoiceCast{
		"762-baghdad-round-city-of-reason": {
			"en": {Provider: "edge", Voice: "en-IN-PrabhatNeural", Rate: "-5%", Pitch: "+0Hz"},
		},
		"1347-florence-beautiful-catastrophe": {
			"en": {Provider: "edge", Voice: "en-GB-RyanNeural", Rate: "-8%", Pitch: "-2Hz"},
		},
		"1504-florence-duel-of-giants": {
			"en": {Provider: "edge", Voice: "en-US-GuyNeural", Rate: "-3%", Pitch: "+0Hz"},
		},
		"1648-munster-exhaustion-of-god": {
			"en": {Provider: "edge", Voice: "en-GB-ThomasNeural", Rate: "-8%", Pitch: "-2Hz"},
		},
		"1784-europe-dare-to-know": {
			"en": {Provider: "edge", Voice: "en-GB-SoniaNeural", Rate: "-3%", Pitch: "+0Hz"},
		},
		"1889-paris-year-everything-changed": {
			"en": {Provider: "edge", Voice: "en-US-AriaNeural", Rate: "+0%", Pitch: "+1Hz"},
		},
		"1922-modernist-explosion": {
			"en": {Provider: "edge", Voice: "en-US-AndrewNeural", Rate: "+3%", Pitch: "+0Hz"},
		},
	}
}

func defaultCommercialPools() map[string][]VoiceOption {
	return map[string][]VoiceOption{
		"en": {
			{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Description: "calm, young female, American"},
			{ID: "TxGEqnHWrfWFTfGW9XjX", Name: "Josh", Description: "deep, young male, American"},
			{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Description: "soft, young female, American"},
			{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Description: "deep male, American, narration"},
			{ID: "Xb7hH8MSUJpSbSDYk0k2", Name: "Alice", Description: "confident female, British"},
			{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Description: "young male, American, versatile"},
			{ID: "VR6AewLTigWG4xSOukaG", Name: "Arnold", Description: "crisp middle-aged male, American"},
			{ID: "onwK4e9ZLuTAKqWW03F9", Name: "Daniel", Description: "deep middle-aged male, British"},
			{ID: "ThT5KcBeYPX3keUQqHPh", Name: "Dorothy", Description: "pleasant young female, British"},
			{ID: "XrExE9yKIg1WjnnlVkGX", Name: "Matilda", Description: "warm young female, American"},
		},
		"it": {
			{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel", Description: "calm female (multilingual)"},
			{ID: "TxGEqnHWrfWFTfGW9XjX", Name: "Josh", Description: "deep male (multilingual)"},
			{ID: "EXAVITQu4vr4xnSDxMaL", Name: "Sarah", Description: "soft female (multilingual)"},
			{ID: "pNInz6obpgDQGcFmaJgB", Name: "Adam", Description: "deep male (multilingual)"},
			{ID: "Xb7hH8MSUJpSbSDYk0k2", Name: "Alice", Description: "confident female (multilingual)"},
			{ID: "ErXwobaYiN019PkySvjV", Name: "Antoni", Description: "young male (multilingual)"},
			{ID: "VR6AewLTigWG4xSOukaG", Name: "Arnold", Description: "crisp male (multilingual)"},
			{ID: "onwK4e9ZLuTAKqWW03F9", Name: "Daniel", Description: "deep male (multilingual)"},
			{ID: "ThT5KcBeYPX3keUQqHPh", Name: "Dorothy", Description: "pleasant female (multilingual)"},
			{ID: "XrExE9yKIg1WjnnlVkGX", Name: "Matilda", Description: "warm female (multilingual)"},
		},
	}
}

func defaultFreePools() map[string][]VoiceOption {
	return map[string][]VoiceOption{
		"en": {
			{ID: "en-GB-RyanNeural", Description: "British male, natural flow"},
			{ID: "en-US-AvaNeural", Description: "American female, expressive"},
			{ID: "en-US-AndrewNeural", Description: "American male, warm"},
			{ID: "en-US-SteffanNeural", Description: "American male, clear"},
			{ID: "en-GB-SoniaNeural", Description: "British female, professional"},
			{ID: "en-US-JennyNeural", Description: "American female, friendly"},
			{ID: "en-US-GuyNeural", Description: "American male, casual"},
			{ID: "en-AU-WilliamNeural", Description: "Australian male, warm"},
			{ID: "en-GB-ThomasNeural", Description: "British male, authoritative"},
			{ID: "en-US-AriaNeural", Description: "American female, professional"},
		},
		"it": {
			{ID: "it-IT-DiegoNeural", Description: "Italian male, natural"},
			{ID: "it-IT-IsabellaNeural", Description: "Italian female, natural"},
			{ID: "it-IT-ElsaNeural", Description: "Italian female, warm"},
			{ID: "it-IT-GiuseppeNeural", Description: "Italian male, expressive"},
			{ID: "it-IT-BenignoNeural", Description: "Italian male, calm"},
			{ID: "it-IT-CalimeroNeural", Description: "Italian male, friendly"},
			{ID: "it-IT-CataldoNeural", Description: "Italian male, mature"},
			{ID: "it-IT-FabiolaNeural", Description: "Italian female, bright"},
			{ID: "it-IT-FiammaNeural", Description: "Italian female, energetic"},
			{ID: "it-IT-ImeldaNeural", Description: "Italian female, professional"},
		},
	}
}

// defaultMusicPool is the shared catalog of period tracks, all public domain
// recordings from the Internet Archive, with curated non-silent starts.
func defaultMusicPool() map[string]PoolTrack {
	return map[string]PoolTrack{
		"oud-arabic": {
			URL:         "https://archive.org/download/gulezyan-aram-1976-exotic-music-of-the-oud-lyrichord-side-a-archive-01/Gulezyan%2C%20Aram%20%281976%29%20-%20Exotic%20Music%20of%20the%20Oud%20Lyrichord%2C%20side%20A%20%28archive%29-01.mp3",
			Filename:    "oud-arabic.mp3",
			Description: "Oud — Arabic traditional",
			StartTime:   1.5,
			Era:         "medieval",
			Region:      "middle-east",
			Mood:        "contemplative",
		},
		"gregorian-chant": {
			URL:         "https://archive.org/download/lp_grgorian-chant-easter-mass-pieces-from_choeur-des-moines-de-labbaye-saintpierre-d/disc1/01.02.%20Intro%C3%AFt%20%3A%20Resurrexi.mp3",
			Filename:    "gregorian-chant.mp3",
			Description: "Gregorian chant — Introït: Resurrexi",
			StartTime:   2.0,
			Era:         "medieval",
			Region:      "europe",
			Mood:        "sacred",
		},
		"renaissance-lute": {
			URL:         "https://archive.org/download/lp_italian-songs-16th-and-17th-centuries-spa_hugues-cunod-hermann-leeb_0/disc1/01.02.%20Lute%20Solo%3A%20Fantasia.mp3",
			Filename:    "renaissance-lute.mp3",
			Description: "Renaissance lute fantasia",
			StartTime:   1.0,
			Era:         "renaissance",
			Region:      "italy",
			Mood:        "courtly",
		},
		"bach-organ": {
			URL:         "https://archive.org/download/canonic_variations_BWV_769a/01_Variation_I_%28Nel_canone_all%E2%80%99_ottava%29.mp3",
			Filename:    "bach-organ.mp3",
			Description: "Bach Canonic Variations — Baroque organ",
			StartTime:   0.5,
			Era:         "baroque",
			Region:      "germany",
			Mood:        "sacred",
		},
		"mozart-piano": {
			URL:         "https://archive.org/download/lp_piano-music-vol-6_arthur-balsam-wolfgang-amadeus-mozart/disc1/01.01.%20Sonata%20In%20A%20Minor%20K.310.mp3",
			Filename:    "mozart-piano.mp3",
			Description: "Mozart Piano Sonata K.310 — Classical",
			StartTime:   1.0,
			Era:         "classical",
			Region:      "europe",
			Mood:        "dramatic",
		},
		"debussy-clair-de-lune": {
			URL:         "https://archive.org/download/DebussyClairDeLunevirgilFox/07-ClairDeLunefromSuiteBergamasque.mp3",
			Filename:    "debussy-clair-de-lune.mp3",
			Description: "Debussy Clair de lune — Impressionist",
			StartTime:   2.5,
			Era:         "early-modern",
			Region:      "france",
			Mood:        "contemplative",
		},
		"stravinsky-rite": {
			URL:         "https://archive.org/download/lp_the-rite-of-spring_igor-stravinsky-antal-dorati-minneapolis-s/disc1/01.01.%20The%20Rite%20Of%20Spring%20-%20Pictures%20Of%20Pagan%20Russia%3A%20Part%20I.mp3",
			Filename:    "stravinsky-rite.mp3",
			Description: "Stravinsky Rite of Spring — Modernist",
			StartTime:   3.0,
			Era:         "modern",
			Region:      "europe",
			Mood:        "dark",
		},
	}
}

func defaultMusicSources() map[string]TrackSource {
	return map[string]TrackSource{
		"762-baghdad-round-city-of-reason":    {PoolKey: "oud-arabic"},
		"1347-florence-beautiful-catastrophe": {PoolKey: "gregorian-chant"},
		"1504-florence-duel-of-giants":        {PoolKey: "renaissance-lute"},
		"1648-munster-exhaustion-of-god":      {PoolKey: "bach-organ"},
		"1784-europe-dare-to-know":            {PoolKey: "mozart-piano"},
		"1889-paris-year-everything-changed":  {PoolKey: "debussy-clair-de-lune"},
		"1922-modernist-explosion":            {PoolKey: "stravinsky-rite"},
	}
}
