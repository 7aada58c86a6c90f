package generation

import (
	"encoding/json"
	"strings"
)

// Caller-side parse helpers layered on top of the gateway. Model output is
// loosely formatted, so each parse degrades to a default structured value
// rather than propagating a failure.

// ParseJSONList parses generated text as a JSON string array. Code fences
// are stripped first since models often wrap JSON in them. Returns fallback
// when no valid array can be extracted.
func ParseJSONList(text string, fallback []string) []string {
	cleaned := stripCodeFence(text)

	var items []string
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil && len(items) > 0 {
		return items
	}

	// Best-effort: the array may be embedded in surrounding prose.
	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &items); err == nil && len(items) > 0 {
			return items
		}
	}

	return fallback
}

// ParseCommaList splits generated text on commas, trimming whitespace and
// dropping empties. Returns fallback when nothing usable remains.
func ParseCommaList(text string, fallback []string) []string {
	var items []string
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

// ParseLines splits generated text on newlines, trimming list markers.
// Returns fallback when nothing usable remains.
func ParseLines(text string, fallback []string) []string {
	var items []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789. ")
		if line != "" {
			items = append(items, line)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}

// stripCodeFence removes a surrounding markdown code fence if present.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
