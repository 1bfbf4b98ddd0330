package narration_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/narration"
)

func testCasting() config.CastingConfig {
	return config.CastingConfig{
		Cast: map[string]map[string]config.VoiceCast{
			"1784-europe-dare-to-know": {
				"en": {Provider: "edge", Voice: "en-GB-SoniaNeural", Rate: "-3%", Pitch: "+0Hz"},
			},
		},
		Excluded: []string{"en-US-ChristopherNeural"},
		CommercialPools: map[string][]config.VoiceOption{
			"en": {
				{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel"},
				{ID: "TxGEqnHWrfWFTfGW9XjX", Name: "Josh"},
			},
		},
		FreePools: map[string][]config.VoiceOption{
			"en": {
				{ID: "en-US-ChristopherNeural"},
				{ID: "en-GB-RyanNeural"},
			},
		},
		FreeDefaults: map[string]string{
			"en": "en-US-GuyNeural",
		},
	}
}

func firstPick(_ int) int { return 0 }

func TestResolveForcedVoiceWins(t *testing.T) {
	t.Parallel()

	resolver := narration.NewVoiceResolverWithPick(testCasting(), firstPick)

	voice, err := resolver.Resolve("1784-europe-dare-to-know", "en", narration.ProviderFree, "en-US-AriaNeural")
	require.NoError(t, err)
	assert.Equal(t, "en-US-AriaNeural", voice.ID)
}

func TestResolveForcedExcludedVoiceFails(t *testing.T) {
	t.Parallel()

	resolver := narration.NewVoiceResolverWithPick(testCasting(), firstPick)

	_, err := resolver.Resolve("1784-europe-dare-to-know", "en", narration.ProviderFree, "en-US-ChristopherNeural")
	require.Error(t, err)
	require.ErrorIs(t, err, narration.ErrVoiceExcluded)
}

func TestResolveCastPrecedesPool(t *testing.T) {
	t.Parallel()

	resolver := narration.NewVoiceResolverWithPick(testCasting(), firstPick)

	voice, err := resolver.Resolve("1784-europe-dare-to-know", "en", narration.ProviderFree, "")
	require.NoError(t, err)
	assert.Equal(t, "en-GB-SoniaNeural", voice.ID)
	assert.Equal(t, "-3%", voice.Rate)
	assert.Equal(t, "+0Hz", voice.Pitch)
}

func TestResolveCastPinnedToOtherProviderFallsThrough(t *testing.T) {
	t.Parallel()

	resolver := narration.NewVoiceResolverWithPick(testCasting(), firstPick)

	voice, err := resolver.Resolve("1784-europe-dare-to-know", "en", narration.ProviderCommercial, "")
	require.NoError(t, err)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", voice.ID)
	assert.Equal(t, "Rachel", voice.Name)
}

func TestResolvePoolSkipsExcludedVoices(t *testing.T) {
	t.Parallel()

	// The first free pool entry is excluded, so the deterministic first
	// pick must land on the second one.
	resolver := narration.NewVoiceResolverWithPick(testCasting(), firstPick)

	voice, err := resolver.Resolve("762-baghdad-round-city-of-reason", "en", narration.ProviderFree, "")
	require.NoError(t, err)
	assert.Equal(t, "en-GB-RyanNeural", voice.ID)
}

func TestResolveFreeDefaultFallback(t *testing.T) {
	t.Parallel()

	casting := testCasting()
	casting.FreePools = nil

	resolver := narration.NewVoiceResolverWithPick(casting, firstPick)

	voice, err := resolver.Resolve("unknown-entry", "en", narration.ProviderFree, "")
	require.NoError(t, err)
	assert.Equal(t, "en-US-GuyNeural", voice.ID)
}

func TestResolveNoVoiceAvailable(t *testing.T) {
	t.Parallel()

	resolver := narration.NewVoiceResolverWithPick(config.CastingConfig{}, firstPick)

	_, err := resolver.Resolve("unknown-entry", "fr", narration.ProviderCommercial, "")
	require.Error(t, err)
	require.ErrorIs(t, err, narration.ErrNoVoiceAvailable)
}
