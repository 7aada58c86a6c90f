// Package generation implements the gateway every AI-assisted feature calls
// through. The gateway always returns a usable result: callers never wrap a
// generation call in error handling.
package generation

import (
	"context"

	"github.com/apollostem/academy/internal/common"
	"github.com/apollostem/academy/internal/interfaces"
	"github.com/apollostem/academy/internal/models"
)

// Gateway wraps a GenerativeClient with the fallback-on-failure contract.
// A nil client means no API key was configured; every call then returns the
// fallback without a network attempt.
type Gateway struct {
	client interfaces.GenerativeClient
	logger *common.Logger
}

// NewGateway creates a gateway. client may be nil when generation is not
// configured.
func NewGateway(client interfaces.GenerativeClient, logger *common.Logger) *Gateway {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Gateway{client: client, logger: logger}
}

// Generate issues one request to the model and returns the extracted text
// verbatim, or the fallback on any failure: no configured client, transport
// error, non-success status, or a response missing the expected text. The
// upstream dependency is never allowed to surface a hard failure.
func (g *Gateway) Generate(ctx context.Context, prompt, systemInstruction, fallback string, params interfaces.GenerationParams) models.GenerationResult {
	if g.client == nil {
		return models.GenerationResult{Text: fallback, Fallback: true}
	}

	text, err := g.client.GenerateContent(ctx, prompt, systemInstruction, params)
	if err != nil {
		g.logger.Warn().Err(err).Msg("Generation failed, returning fallback")
		return models.GenerationResult{Text: fallback, Fallback: true}
	}
	if text == "" {
		g.logger.Warn().Msg("Generation returned empty text, returning fallback")
		return models.GenerationResult{Text: fallback, Fallback: true}
	}

	return models.GenerationResult{Text: text}
}

// Ensure Gateway implements the interface
var _ interfaces.Gateway = (*Gateway)(nil)
