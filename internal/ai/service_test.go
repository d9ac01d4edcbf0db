package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"prepmate/internal/config"
	prepmateErrors "prepmate/internal/errors"
	"prepmate/internal/types"
)

// fakeProvider scripts Provider behavior for service tests
type fakeProvider struct {
	questions    []RawQuestion
	evaluation   map[string]any
	chatReply    string
	err          error
	generateCall int
}

func (f *fakeProvider) GenerateQuestions(ctx context.Context, cfg types.InterviewConfig) ([]RawQuestion, *TokenUsage, error) {
	f.generateCall++
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.questions, &TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, nil
}

func (f *fakeProvider) EvaluateAnswer(ctx context.Context, question, answer string, cfg types.InterviewConfig) (map[string]any, *TokenUsage, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.evaluation, nil, nil
}

func (f *fakeProvider) Chat(ctx context.Context, message string, history []types.ChatMessage) (string, *TokenUsage, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.chatReply, nil, nil
}

func (f *fakeProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	return &ModelInfo{Name: "fake", Available: f.err == nil}
}

func (f *fakeProvider) Close() error { return nil }

func testService(provider Provider) *Service {
	model := "gemini-2.0-flash"
	return &Service{
		Provider: provider,
		config:   &config.OperationAIConfig{Model: model},
		logger:   prepmateErrors.NewLogger(slog.LevelError),
		now:      func() time.Time { return time.UnixMilli(1700000000000) },
	}
}

func TestServiceWithoutProviderUsesFallback(t *testing.T) {
	svc := testService(nil)
	ctx := context.Background()

	questions, source, usage := svc.GenerateQuestions(ctx, fallbackTestConfig)
	if source != SourceFallback {
		t.Errorf("expected fallback source, got %s", source)
	}
	if usage != nil {
		t.Errorf("fallback-only mode should report no token usage")
	}
	if len(questions) != types.QuestionsPerSession {
		t.Fatalf("expected %d questions, got %d", types.QuestionsPerSession, len(questions))
	}
	if questions[0].Text != OpeningQuestion {
		t.Errorf("expected opener %q, got %q", OpeningQuestion, questions[0].Text)
	}

	result, source, _ := svc.EvaluateAnswer(ctx, "Tell me about yourself.", "I built the database layer of our service.", fallbackTestConfig)
	if source != SourceFallback {
		t.Errorf("expected fallback source for evaluation, got %s", source)
	}
	if len(result.ImprovementTips) != 3 {
		t.Errorf("expected 3 tips, got %d", len(result.ImprovementTips))
	}
	if !strings.Contains(result.Feedback, "no model configured") {
		t.Errorf("feedback should name the fallback reason, got %q", result.Feedback)
	}

	reply, source, _ := svc.Chat(ctx, "Any tips?", nil)
	if source != SourceFallback {
		t.Errorf("expected fallback source for chat, got %s", source)
	}
	if reply == "" {
		t.Error("expected a non-empty canned reply")
	}

	info := svc.GetModelInfo(ctx)
	if info.Available {
		t.Error("model should report unavailable without a provider")
	}
}

func TestServiceNormalizesModelQuestions(t *testing.T) {
	provider := &fakeProvider{
		questions: []RawQuestion{
			{Text: "1. Introduce yourself."},
			{Text: "What are your strengths and weaknesses?"}, // banned, must be replaced
			{Text: "Why do you want this role?"},
			{Text: "Explain how you would design a rate limiter."},
			{Text: "Describe a conflict you resolved."},
		},
	}
	svc := testService(provider)

	questions, source, usage := svc.GenerateQuestions(context.Background(), fallbackTestConfig)
	if source != SourceModel {
		t.Errorf("expected model source, got %s", source)
	}
	if usage == nil || usage.TotalTokens != 30 {
		t.Errorf("expected token usage from the provider, got %+v", usage)
	}
	if len(questions) != types.QuestionsPerSession {
		t.Fatalf("expected %d questions, got %d", types.QuestionsPerSession, len(questions))
	}
	for i, q := range questions {
		if IsBannedQuestion(q.Text) {
			t.Errorf("slot %d still banned after normalization: %q", i, q.Text)
		}
	}
	if questions[0].Text != OpeningQuestion {
		t.Errorf("expected opener, got %q", questions[0].Text)
	}
}

func TestServiceFallsBackOnProviderError(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream exploded")}
	svc := testService(provider)
	ctx := context.Background()

	questions, source, _ := svc.GenerateQuestions(ctx, fallbackTestConfig)
	if source != SourceFallback {
		t.Errorf("expected fallback source after provider error, got %s", source)
	}
	if len(questions) != types.QuestionsPerSession {
		t.Fatalf("expected %d questions, got %d", types.QuestionsPerSession, len(questions))
	}

	result, source, _ := svc.EvaluateAnswer(ctx, "Q", "A short answer.", fallbackTestConfig)
	if source != SourceFallback {
		t.Errorf("expected fallback source for evaluation, got %s", source)
	}
	if result.OverallScore < 1 || result.OverallScore > 100 {
		t.Errorf("fallback overall score %d out of range", result.OverallScore)
	}

	reply, source, _ := svc.Chat(ctx, "hello", nil)
	if source != SourceFallback {
		t.Errorf("expected fallback source for chat, got %s", source)
	}
	if reply == "" {
		t.Error("expected a canned reply")
	}
}

func TestServiceReturnsModelEvaluation(t *testing.T) {
	provider := &fakeProvider{
		evaluation: map[string]any{
			"relevance":        float64(9),
			"clarity":          float64(8),
			"confidence":       float64(7),
			"technical_depth":  float64(9),
			"overall_score":    float64(82),
			"sentiment":        "positive",
			"feedback":         "Clear and specific.",
			"improvement_tips": []any{"a", "b", "c"},
		},
	}
	svc := testService(provider)

	result, source, _ := svc.EvaluateAnswer(context.Background(), "Q", "A", fallbackTestConfig)
	if source != SourceModel {
		t.Errorf("expected model source, got %s", source)
	}
	if result.OverallScore != 82 {
		t.Errorf("expected overall 82, got %d", result.OverallScore)
	}
	if result.Sentiment != "positive" {
		t.Errorf("expected positive sentiment, got %q", result.Sentiment)
	}
}

func TestNewServiceWithoutAPIKey(t *testing.T) {
	cfg := &config.OperationAIConfig{Provider: "gemini", Model: "gemini-2.0-flash"}
	svc, err := NewService(cfg, OperationQuestions, prepmateErrors.NewLogger(slog.LevelError))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.Provider != nil {
		t.Error("expected a nil provider in fallback-only mode")
	}
}

func TestNewServiceRejectsUnknownProvider(t *testing.T) {
	timeout := 30 * time.Second
	maxRetries := 2
	temperature := float32(0.5)
	useSystemPrompts := true
	cfg := &config.OperationAIConfig{
		Provider: "openai", Model: "gpt", APIKey: "key",
		Timeout: &timeout, MaxRetries: &maxRetries,
		Temperature: &temperature, UseSystemPrompts: &useSystemPrompts,
	}
	_, err := NewService(cfg, OperationChat, prepmateErrors.NewLogger(slog.LevelError))
	if err == nil {
		t.Fatal("expected an error for an unsupported provider")
	}
}
