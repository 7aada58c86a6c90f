package models

// GenerationResult is the outcome of one Generation Gateway call. Text is
// always usable: the generated text on success, the caller-supplied fallback
// otherwise. Fallback records which path was taken, for logging and tests.
type GenerationResult struct {
	Text     string `json:"text"`
	Fallback bool   `json:"fallback"`
}
