// Package catalog updates the site's entry store with the podcast asset
// produced for an entry.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const indent = "  "

// Static errors.
var (
	// ErrEntryNotFound is returned when the store has no entry with the
	// requested id.
	ErrEntryNotFound = errors.New("entry not found in store")
)

// podcastRef is the asset record attached to an entry.
type podcastRef struct {
	URL      string `json:"url"`
	Duration int    `json:"duration"`
}

// Update sets the podcast reference on the matching entry and rewrites the
// store. Unmatched entries pass through as raw JSON, so their key order
// survives; the whole file is re-indented, and the matched entry is
// re-encoded with its keys sorted.
func Update(path, entryID, url string, duration int) error {
	content, readErr := os.ReadFile(path)
	if readErr != nil {
		return fmt.Errorf("failed to read entry store %s: %w", path, readErr)
	}

	var entries []json.RawMessage

	decodeErr := json.Unmarshal(content, &entries)
	if decodeErr != nil {
		return fmt.Errorf("failed to parse entry store %s: %w", path, decodeErr)
	}

	matched := false

	for index, raw := range entries {
		patched, found, patchErr := patchEntry(raw, entryID, url, duration)
		if patchErr != nil {
			return patchErr
		}

		if !found {
			continue
		}

		entries[index] = patched
		matched = true

		break
	}

	if !matched {
		return fmt.Errorf("%w: %s in %s", ErrEntryNotFound, entryID, path)
	}

	output, marshalErr := json.MarshalIndent(entries, "", indent)
	if marshalErr != nil {
		return fmt.Errorf("failed to marshal entry store: %w", marshalErr)
	}

	output = append(output, '\n')

	writeErr := os.WriteFile(path, output, 0o600)
	if writeErr != nil {
		return fmt.Errorf("failed to write entry store %s: %w", path, writeErr)
	}

	return nil
}

// patchEntry sets the podcast reference when the raw entry matches the id.
func patchEntry(raw json.RawMessage, entryID, url string, duration int) (json.RawMessage, bool, error) {
	var entry map[string]json.RawMessage

	decodeErr := json.Unmarshal(raw, &entry)
	if decodeErr != nil {
		return nil, false, fmt.Errorf("failed to parse store entry: %w", decodeErr)
	}

	var id string

	idRaw, hasID := entry["id"]
	if !hasID {
		return nil, false, nil
	}

	idErr := json.Unmarshal(idRaw, &id)
	if idErr != nil || id != entryID {
		return nil, false, nil
	}

	ref, refErr := json.Marshal(podcastRef{URL: url, Duration: duration})
	if refErr != nil {
		return nil, false, fmt.Errorf("failed to marshal podcast reference: %w", refErr)
	}

	entry["podcast"] = ref

	patched, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return nil, false, fmt.Errorf("failed to marshal store entry: %w", marshalErr)
	}

	return patched, true, nil
}
