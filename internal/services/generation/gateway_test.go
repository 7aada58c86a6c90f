package generation

import (
	"context"
	"errors"
	"testing"

	"github.com/apollostem/academy/internal/interfaces"
)

type stubClient struct {
	text  string
	err   error
	calls int
}

func (s *stubClient) GenerateContent(ctx context.Context, prompt, systemInstruction string, params interfaces.GenerationParams) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

func TestGateway_NilClient_ReturnsFallback(t *testing.T) {
	gateway := NewGateway(nil, nil)

	result := gateway.Generate(context.Background(), "prompt", "", "canned", interfaces.GenerationParams{})
	if result.Text != "canned" {
		t.Errorf("expected fallback text, got %q", result.Text)
	}
	if !result.Fallback {
		t.Error("expected Fallback=true")
	}
}

func TestGateway_ClientError_ReturnsFallback(t *testing.T) {
	client := &stubClient{err: errors.New("upstream unavailable")}
	gateway := NewGateway(client, nil)

	result := gateway.Generate(context.Background(), "prompt", "", "canned", interfaces.GenerationParams{})
	if result.Text != "canned" {
		t.Errorf("expected fallback text, got %q", result.Text)
	}
	if !result.Fallback {
		t.Error("expected Fallback=true")
	}
	if client.calls != 1 {
		t.Errorf("expected 1 client call, got %d", client.calls)
	}
}

func TestGateway_EmptyText_ReturnsFallback(t *testing.T) {
	gateway := NewGateway(&stubClient{text: ""}, nil)

	result := gateway.Generate(context.Background(), "prompt", "", "canned", interfaces.GenerationParams{})
	if result.Text != "canned" {
		t.Errorf("expected fallback text, got %q", result.Text)
	}
	if !result.Fallback {
		t.Error("expected Fallback=true")
	}
}

func TestGateway_Success_ReturnsGeneratedText(t *testing.T) {
	gateway := NewGateway(&stubClient{text: "generated output"}, nil)

	result := gateway.Generate(context.Background(), "prompt", "system", "canned", interfaces.GenerationParams{Temperature: 0.5})
	if result.Text != "generated output" {
		t.Errorf("expected generated text, got %q", result.Text)
	}
	if result.Fallback {
		t.Error("expected Fallback=false on success")
	}
}
