package narration

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
)

// Provider names.
const (
	// ProviderCommercial is the paid HTTP provider (higher quality,
	// consumes credits).
	ProviderCommercial = "elevenlabs"
	// ProviderFree is the free subprocess provider.
	ProviderFree = "edge"
)

// Static errors.
var (
	// ErrVoiceExcluded is returned when a forced voice is in the
	// exclusion set of voices known to produce corrupted output.
	ErrVoiceExcluded = errors.New("voice is excluded from synthesis")
	// ErrNoVoiceAvailable is returned when no pool or default voice
	// exists for a provider and language.
	ErrNoVoiceAvailable = errors.New("no voice available")
)

// VoiceResolver resolves the voice for one narration: explicit per-entry
// cast first, then a random pick from the curated pool, then the
// per-language default. Excluded voices are never returned.
type VoiceResolver struct {
	casting config.CastingConfig
	pick    func(n int) int
}

// NewVoiceResolver creates a resolver that picks randomly from pools to
// add variety across the catalog.
func NewVoiceResolver(casting config.CastingConfig) *VoiceResolver {
	return NewVoiceResolverWithPick(casting, rand.IntN)
}

// NewVoiceResolverWithPick creates a resolver with an injected pool pick
// function. This constructor is primarily for tests that need
// deterministic selection.
func NewVoiceResolverWithPick(casting config.CastingConfig, pick func(n int) int) *VoiceResolver {
	return &VoiceResolver{
		casting: casting,
		pick:    pick,
	}
}

// Resolve returns the voice to use for (entryID, language) on the given
// provider. A non-empty forced id always wins, unless it is excluded.
func (r *VoiceResolver) Resolve(entryID, language, provider, forced string) (core.Voice, error) {
	if forced != "" {
		if r.casting.IsExcluded(forced) {
			return core.Voice{}, fmt.Errorf("%w: %s", ErrVoiceExcluded, forced)
		}

		return core.Voice{Provider: provider, ID: forced, Name: forced}, nil
	}

	cast, hasCast := r.castFor(entryID, language, provider)
	if hasCast {
		return cast, nil
	}

	pooled, hasPooled := r.poolPick(language, provider)
	if hasPooled {
		return pooled, nil
	}

	if provider == ProviderFree {
		fallback := r.casting.FreeDefaults[language]
		if fallback != "" && !r.casting.IsExcluded(fallback) {
			return core.Voice{Provider: provider, ID: fallback, Name: fallback}, nil
		}
	}

	return core.Voice{}, fmt.Errorf("%w: provider %s, language %s",
		ErrNoVoiceAvailable, provider, language)
}

// castFor looks up the explicit per-entry cast. A cast pinned to a
// different provider, or naming an excluded voice, is skipped so
// resolution falls through to the pool.
func (r *VoiceResolver) castFor(entryID, language, provider string) (core.Voice, bool) {
	languages, ok := r.casting.Cast[entryID]
	if !ok {
		return core.Voice{}, false
	}

	cast, ok := languages[language]
	if !ok {
		return core.Voice{}, false
	}

	if cast.Provider != "" && cast.Provider != provider {
		return core.Voice{}, false
	}

	if r.casting.IsExcluded(cast.Voice) {
		return core.Voice{}, false
	}

	return core.Voice{
		Provider: provider,
		ID:       cast.Voice,
		Name:     cast.Voice,
		Rate:     cast.Rate,
		Pitch:    cast.Pitch,
	}, true
}

// poolPick draws a voice from the curated pool for the provider and
// language, skipping excluded entries.
func (r *VoiceResolver) poolPick(language, provider string) (core.Voice, bool) {
	var pool []config.VoiceOption

	if provider == ProviderCommercial {
		pool = r.casting.CommercialPools[language]
	} else {
		pool = r.casting.FreePools[language]
	}

	eligible := make([]config.VoiceOption, 0, len(pool))

	for _, option := range pool {
		if !r.casting.IsExcluded(option.ID) {
			eligible = append(eligible, option)
		}
	}

	if len(eligible) == 0 {
		return core.Voice{}, false
	}

	option := eligible[r.pick(len(eligible))]

	name := option.Name
	if name == "" {
		name = option.ID
	}

	return core.Voice{Provider: provider, ID: option.ID, Name: name}, true
}
