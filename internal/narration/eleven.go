package narration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/book-expert/logger"

	"github.com/timeslices/podcastgen/internal/config"
	"github.com/timeslices/podcastgen/internal/core"
	"github.com/timeslices/podcastgen/internal/pathutil"
)

// API paths.
const (
	apiTextToSpeech = "/v1/text-to-speech/"
	apiSubscription = "/v1/user/subscription"
)

// Voice settings used for every narration. Stability favours a consistent
// documentary read over expressive variation.
const (
	voiceStability       = 0.5
	voiceSimilarityBoost = 0.75
)

// ErrNoAPIKey is returned when the commercial provider is used without a
// configured key.
var ErrNoAPIKey = errors.New("commercial provider has no API key configured")

// speechRequest is the JSON payload for a synthesis call.
type speechRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// apiError is the structured error body the service returns on failure.
type apiError struct {
	Detail string `json:"detail"`
}

// subscription is the quota portion of the subscription endpoint response.
type subscription struct {
	CharacterCount int `json:"character_count"`
	CharacterLimit int `json:"character_limit"`
}

// ElevenLabsProvider calls the ElevenLabs HTTP API. English uses the flash
// model (fastest, cheapest); every other language uses the multilingual
// model.
type ElevenLabsProvider struct {
	apiKey            string
	baseURL           string
	flashModel        string
	multilingualModel string
	client            *http.Client
	log               *logger.Logger
}

// NewElevenLabsProvider creates the commercial provider, reading the API
// key once from the configured environment variable.
func NewElevenLabsProvider(cfg config.CommercialConfig, log *logger.Logger) *ElevenLabsProvider {
	return &ElevenLabsProvider{
		apiKey:            os.Getenv(cfg.APIKeyEnv),
		baseURL:           cfg.BaseURL,
		flashModel:        cfg.FlashModel,
		multilingualModel: cfg.MultilingualModel,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		log: log,
	}
}

// Name returns the provider name.
func (p *ElevenLabsProvider) Name() string {
	return ProviderCommercial
}

// Available reports whether an API key is configured.
func (p *ElevenLabsProvider) Available() bool {
	return p.apiKey != ""
}

// modelFor returns the model id for a language.
func (p *ElevenLabsProvider) modelFor(language string) string {
	if language == config.DefaultLanguage {
		return p.flashModel
	}

	return p.multilingualModel
}

// Synthesize renders one chunk of text through the API and writes the MP3
// response to the requested output path.
func (p *ElevenLabsProvider) Synthesize(ctx context.Context, req core.SynthesisRequest) error {
	if req.Text == "" {
		return ErrTextEmpty
	}

	if req.OutputPath == "" {
		return ErrOutputPathEmpty
	}

	if !p.Available() {
		return ErrNoAPIKey
	}

	payload, marshalErr := json.Marshal(speechRequest{
		Text:    req.Text,
		ModelID: p.modelFor(req.Language),
		VoiceSettings: voiceSettings{
			Stability:       voiceStability,
			SimilarityBoost: voiceSimilarityBoost,
		},
	})
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal synthesis request: %w", marshalErr)
	}

	url := p.baseURL + apiTextToSpeech + req.Voice.ID

	httpReq, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if reqErr != nil {
		return fmt.Errorf("failed to create synthesis request: %w", reqErr)
	}

	httpReq.Header.Set("xi-api-key", p.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, doErr := p.client.Do(httpReq)
	if doErr != nil {
		return fmt.Errorf("synthesis request failed: %w", doErr)
	}

	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			p.log.Warn("Failed to close synthesis response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return p.parseErrorResponse(resp)
	}

	writeErr := writeAudioResponse(resp.Body, req.OutputPath)
	if writeErr != nil {
		return writeErr
	}

	size := pathutil.FileSize(req.OutputPath)
	if size < minSynthesisBytes {
		removeErr := os.Remove(req.OutputPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			p.log.Warn("Failed to remove truncated output %s: %v", req.OutputPath, removeErr)
		}

		return fmt.Errorf("%w: %d bytes", ErrSynthesisTruncated, size)
	}

	return nil
}

// RemainingCredits returns the remaining and total character quota.
func (p *ElevenLabsProvider) RemainingCredits(ctx context.Context) (remaining, limit int, err error) {
	if !p.Available() {
		return 0, 0, ErrNoAPIKey
	}

	httpReq, reqErr := http.NewRequestWithContext(
		ctx, http.MethodGet, p.baseURL+apiSubscription, http.NoBody)
	if reqErr != nil {
		return 0, 0, fmt.Errorf("failed to create subscription request: %w", reqErr)
	}

	httpReq.Header.Set("xi-api-key", p.apiKey)

	resp, doErr := p.client.Do(httpReq)
	if doErr != nil {
		return 0, 0, fmt.Errorf("subscription request failed: %w", doErr)
	}

	defer func() {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			p.log.Warn("Failed to close subscription response body: %v", closeErr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, p.parseErrorResponse(resp)
	}

	var sub subscription

	decodeErr := json.NewDecoder(resp.Body).Decode(&sub)
	if decodeErr != nil {
		return 0, 0, fmt.Errorf("failed to decode subscription response: %w", decodeErr)
	}

	remaining = sub.CharacterLimit - sub.CharacterCount
	if remaining < 0 {
		remaining = 0
	}

	return remaining, sub.CharacterLimit, nil
}

// parseErrorResponse decodes a structured API error, falling back to the
// raw body so diagnostics are never lost.
func (p *ElevenLabsProvider) parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var structured apiError

	decodeErr := json.Unmarshal(body, &structured)
	if decodeErr == nil && structured.Detail != "" {
		return fmt.Errorf("API error (%s): %s", resp.Status, structured.Detail)
	}

	return fmt.Errorf("API returned non-OK status %s: %s", resp.Status, string(body))
}

// writeAudioResponse streams the response body to the output file.
func writeAudioResponse(body io.Reader, path string) error {
	out, createErr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if createErr != nil {
		return fmt.Errorf("failed to create %s: %w", path, createErr)
	}

	_, copyErr := io.Copy(out, body)
	closeErr := out.Close()

	if copyErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("failed to close %s: %w", path, closeErr)
	}

	return nil
}
