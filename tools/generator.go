package tools

import (
	"context"
	"fmt"
	"strings"
)

// InlineImage is raw image bytes sent alongside a prompt.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// ChatTurn is one prior exchange passed to a conversational prompt.
type ChatTurn struct {
	Role string `json:"role"` // "user" ou "model"
	Text string `json:"text"`
}

type GenerateRequest struct {
	System  string
	Prompt  string
	Images  []InlineImage
	History []ChatTurn
}

// Generator is the generative content collaborator: prompt in, free-form text out.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type GeneratorConfig struct {
	Provider        string
	OpenAIKey       string
	OpenAIModel     string
	AnthropicKey    string
	AnthropicModel  string
	MaxOutputTokens int
}

// NewGenerator picks the configured provider.
func NewGenerator(cfg GeneratorConfig) (Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		return NewOpenAIClient(cfg.OpenAIKey, cfg.OpenAIModel)
	case "anthropic", "claude":
		return NewAnthropicClient(cfg.AnthropicKey, cfg.AnthropicModel, cfg.MaxOutputTokens)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
