package ai

import (
	"context"
	"fmt"
	"time"

	"prepmate/internal/config"
	"prepmate/internal/errors"
	"prepmate/internal/types"
)

// Operation types served by the AI pipeline
const (
	OperationQuestions = "questions"
	OperationEvaluate  = "evaluate"
	OperationChat      = "chat"
)

// Source identifies where a response came from
type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Service is the boundary of the AI pipeline for one operation type.
// Callers always get a usable result: model output when the provider
// succeeds, locally generated content when it does not. Provider errors
// never cross this boundary.
type Service struct {
	Provider Provider // Exported for access from server package; nil means fallback-only
	config   *config.OperationAIConfig
	logger   *errors.Logger

	// now feeds the fallback seed; overridable in tests
	now func() time.Time
}

// NewService creates a new AI service instance for a specific operation.
// Without an API key the service runs fallback-only and never touches the
// network.
func NewService(cfg *config.OperationAIConfig, operationType string, logger *errors.Logger) (*Service, error) {
	svc := &Service{
		config: cfg,
		logger: logger,
		now:    time.Now,
	}

	if cfg.APIKey == "" {
		logger.Warn("No model API key configured, running in fallback-only mode",
			"operation_type", operationType)
		return svc, nil
	}

	logger.Debug("Initializing AI service",
		"provider", cfg.Provider,
		"operation_type", operationType,
		"model", cfg.Model,
		"temperature", *cfg.Temperature,
		"timeout", *cfg.Timeout,
		"max_retries", *cfg.MaxRetries,
		"use_system_prompts", *cfg.UseSystemPrompts)

	var provider Provider
	var err error
	switch cfg.Provider {
	case "gemini":
		provider, err = NewGeminiProvider(cfg, operationType, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported AI provider: %s", cfg.Provider), nil)
	}
	if err != nil {
		return nil, errors.NewAIError(errors.ErrCodeAIServiceFailed,
			"Failed to create AI provider", err)
	}

	svc.Provider = provider
	return svc, nil
}

// GenerateQuestions produces the five questions for a session. Model output
// is normalized before it is returned; any provider failure switches the
// whole set to the deterministic generator.
func (s *Service) GenerateQuestions(ctx context.Context, cfg types.InterviewConfig) ([]types.Question, Source, *TokenUsage) {
	nowMillis := s.now().UnixMilli()

	if s.Provider == nil {
		return FallbackQuestions(cfg, nowMillis), SourceFallback, nil
	}

	raw, tokenUsage, err := s.Provider.GenerateQuestions(ctx, cfg)
	if err != nil {
		s.logger.Warn("Question generation failed, using fallback questions",
			"role", cfg.Role,
			"type", string(cfg.Type),
			"error", err.Error())
		return FallbackQuestions(cfg, nowMillis), SourceFallback, tokenUsage
	}

	return NormalizeQuestions(raw, cfg, nowMillis), SourceModel, tokenUsage
}

// EvaluateAnswer scores a single answer. A failed model call yields the
// heuristic evaluation instead.
func (s *Service) EvaluateAnswer(ctx context.Context, question, answer string, cfg types.InterviewConfig) (types.EvaluationResult, Source, *TokenUsage) {
	if s.Provider == nil {
		return FallbackEvaluation(answer, cfg.Role, "no model configured"), SourceFallback, nil
	}

	raw, tokenUsage, err := s.Provider.EvaluateAnswer(ctx, question, answer, cfg)
	if err != nil {
		s.logger.Warn("Answer evaluation failed, using heuristic evaluation",
			"role", cfg.Role,
			"error", err.Error())
		return FallbackEvaluation(answer, cfg.Role, "model unavailable"), SourceFallback, tokenUsage
	}

	return NormalizeEvaluation(raw), SourceModel, tokenUsage
}

// Chat answers one coaching message
func (s *Service) Chat(ctx context.Context, message string, history []types.ChatMessage) (string, Source, *TokenUsage) {
	if s.Provider == nil {
		return FallbackChat(message), SourceFallback, nil
	}

	reply, tokenUsage, err := s.Provider.Chat(ctx, message, history)
	if err != nil {
		s.logger.Warn("Chat request failed, using canned reply",
			"error", err.Error())
		return FallbackChat(message), SourceFallback, tokenUsage
	}

	return reply, SourceModel, tokenUsage
}

// GetModelInfo returns model availability for health checks. Without a
// provider the model is reported unavailable rather than probed.
func (s *Service) GetModelInfo(ctx context.Context) *ModelInfo {
	if s.Provider == nil {
		return &ModelInfo{
			Name:      s.config.Model,
			Available: false,
			Error:     "no API key configured",
		}
	}
	return s.Provider.GetModelInfo(ctx)
}

// Close releases provider resources
func (s *Service) Close() error {
	if s.Provider == nil {
		return nil
	}
	return s.Provider.Close()
}
