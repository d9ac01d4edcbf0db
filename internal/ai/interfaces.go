package ai

import (
	"context"

	"prepmate/internal/types"
)

// Provider is the model-facing half of the AI pipeline. Implementations
// return raw, unvalidated model output plus token usage; normalization is
// the Service's job. All methods may fail and callers must fall back.
type Provider interface {
	GenerateQuestions(ctx context.Context, cfg types.InterviewConfig) ([]RawQuestion, *TokenUsage, error)
	EvaluateAnswer(ctx context.Context, question, answer string, cfg types.InterviewConfig) (map[string]any, *TokenUsage, error)
	Chat(ctx context.Context, message string, history []types.ChatMessage) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}
