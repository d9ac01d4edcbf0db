package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"prepmate/internal/config"
	prepmateErrors "prepmate/internal/errors"
	"prepmate/internal/types"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"
)

// GeminiProvider implements Provider for Google Gemini. Each instance
// serves one operation type (questions, evaluate, or chat) with that
// operation's model, temperature, retry, and breaker settings.
type GeminiProvider struct {
	client         *genai.Client
	config         *config.OperationAIConfig
	operationType  string
	policy         retryPolicy
	sleep          SleepFunc
	circuitBreaker *AICircuitBreaker
	modelBreaker   *ModelCircuitBreaker
	logger         *prepmateErrors.Logger
}

// Ensure GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider creates a new Gemini provider instance for a specific operation
func NewGeminiProvider(cfg *config.OperationAIConfig, operationType string, logger *prepmateErrors.Logger) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, prepmateErrors.NewAIError(prepmateErrors.ErrCodeAIServiceFailed,
			"Failed to create Gemini client", err)
	}

	policy := defaultRetryPolicy
	if cfg.MaxRetries != nil {
		policy.maxRetries = *cfg.MaxRetries
	}
	if cfg.InitialBackoff != nil && *cfg.InitialBackoff > 0 {
		policy.initialBackoff = *cfg.InitialBackoff
	}

	return &GeminiProvider{
		client:         client,
		config:         cfg,
		operationType:  operationType,
		policy:         policy,
		sleep:          defaultSleep,
		circuitBreaker: NewAICircuitBreaker(operationType, cfg, logger),
		modelBreaker:   NewModelCircuitBreaker(operationType, cfg, logger),
		logger:         logger,
	}, nil
}

// GetModelInfo checks the readiness and availability of the configured model
func (g *GeminiProvider) GetModelInfo(ctx context.Context) *ModelInfo {
	modelInfo := &ModelInfo{
		Name:      g.config.Model,
		Available: false,
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	model, err := g.modelBreaker.ExecuteModel(func() (*genai.Model, error) {
		return g.client.Models.Get(checkCtx, g.config.Model, &genai.GetModelConfig{})
	})
	if err != nil {
		modelInfo.Error = err.Error()
		g.logger.Warn("Model availability check failed",
			"model", g.config.Model,
			"operation_type", g.operationType,
			"error", err.Error())
		return modelInfo
	}

	modelInfo.Available = true
	if model.DisplayName != "" {
		modelInfo.DisplayName = model.DisplayName
	}
	if model.Version != "" {
		modelInfo.Version = model.Version
	}

	g.logger.Debug("Model availability check successful",
		"model", g.config.Model,
		"display_name", modelInfo.DisplayName,
		"version", modelInfo.Version)

	return modelInfo
}

// generate runs one traced, breaker-protected, retried content generation
// call and returns the raw response text.
func (g *GeminiProvider) generate(
	ctx context.Context,
	operationName string,
	userPrompt string,
	systemPrompt string,
	genaiConfig *genai.GenerateContentConfig,
	spanAttributes ...attribute.KeyValue,
) (string, *TokenUsage, error) {
	tracer := otel.Tracer("prepmate.ai.gemini")
	ctx, span := tracer.Start(ctx, "gemini."+operationName)
	defer span.End()

	span.SetAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.config.Model),
		attribute.Float64("ai.temperature", float64(*g.config.Temperature)),
	)
	span.SetAttributes(spanAttributes...)

	if *g.config.UseSystemPrompts && systemPrompt != "" {
		genaiConfig.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	callCtx := ctx
	if g.config.Timeout != nil && *g.config.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, *g.config.Timeout)
		defer cancel()
	}

	result, err := g.circuitBreaker.Execute(func() (*genai.GenerateContentResponse, error) {
		return callWithRetry(callCtx, g.policy, g.sleep, g.logger, operationName, func() (*genai.GenerateContentResponse, error) {
			return g.client.Models.GenerateContent(callCtx, g.config.Model, genai.Text(userPrompt), genaiConfig)
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", nil, prepmateErrors.NewAIError(prepmateErrors.ErrCodeAIServiceFailed,
			"Failed to generate content for "+operationName, err)
	}

	tokenUsage := extractTokenUsage(result)
	if tokenUsage != nil {
		span.SetAttributes(
			attribute.Int64("ai.tokens.input", tokenUsage.InputTokens),
			attribute.Int64("ai.tokens.output", tokenUsage.OutputTokens),
			attribute.Int64("ai.tokens.total", tokenUsage.TotalTokens),
		)
	}

	span.SetAttributes(attribute.Bool("success", true))
	return result.Text(), tokenUsage, nil
}

// GenerateQuestions implements Provider for interview question generation
func (g *GeminiProvider) GenerateQuestions(ctx context.Context, cfg types.InterviewConfig) ([]RawQuestion, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt()
	userPrompt := BuildQuestionsPrompt(g.getUserPrompt(), cfg)

	text, tokenUsage, err := g.generate(ctx, "generate_questions", userPrompt, systemPrompt,
		g.buildQuestionsSchema(),
		attribute.String("interview.type", string(cfg.Type)),
		attribute.String("interview.role", cfg.Role),
		attribute.String("interview.company", cfg.Company),
	)
	if err != nil {
		return nil, nil, err
	}

	var raw []RawQuestion
	if err := unmarshalModelJSON(text, &raw); err != nil {
		return nil, tokenUsage, prepmateErrors.NewAIError(prepmateErrors.ErrCodeAIResponseParse,
			"Failed to parse question generation response", err)
	}

	return raw, tokenUsage, nil
}

// EvaluateAnswer implements Provider for answer evaluation. The result is
// the decoded JSON object as-is; field validation happens downstream.
func (g *GeminiProvider) EvaluateAnswer(ctx context.Context, question, answer string, cfg types.InterviewConfig) (map[string]any, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt()
	userPrompt := BuildEvaluatePrompt(g.getUserPrompt(), question, answer, cfg)

	text, tokenUsage, err := g.generate(ctx, "evaluate_answer", userPrompt, systemPrompt,
		g.buildEvaluateSchema(),
		attribute.Int("input.answer_length", len(answer)),
	)
	if err != nil {
		return nil, nil, err
	}

	var raw map[string]any
	if err := unmarshalModelJSON(text, &raw); err != nil {
		return nil, tokenUsage, prepmateErrors.NewAIError(prepmateErrors.ErrCodeAIResponseParse,
			"Failed to parse evaluation response", err)
	}

	return raw, tokenUsage, nil
}

// Chat implements Provider for the practice chat. The reply is free text,
// not JSON.
func (g *GeminiProvider) Chat(ctx context.Context, message string, history []types.ChatMessage) (string, *TokenUsage, error) {
	systemPrompt := g.getSystemPrompt()
	userPrompt := BuildChatPrompt(g.getUserPrompt(), message, history)

	genaiConfig := &genai.GenerateContentConfig{}
	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	text, tokenUsage, err := g.generate(ctx, "chat", userPrompt, systemPrompt,
		genaiConfig,
		attribute.Int("input.history_length", len(history)),
	)
	if err != nil {
		return "", nil, err
	}

	reply := strings.TrimSpace(text)
	if reply == "" {
		return "", tokenUsage, prepmateErrors.NewAIError(prepmateErrors.ErrCodeAIResponseParse,
			"Empty chat response from model", nil)
	}

	return reply, tokenUsage, nil
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (g *GeminiProvider) GetCircuitBreakerStats() map[string]any {
	stats := map[string]any{
		"ai_operations":    g.circuitBreaker.GetStats(),
		"model_operations": g.modelBreaker.GetModelStats(),
	}
	stats["overall_healthy"] = g.circuitBreaker.IsHealthy() && g.modelBreaker.IsModelHealthy()
	return stats
}

// Close implements Provider
func (g *GeminiProvider) Close() error {
	// The genai client holds no long-lived connections in single-shot usage
	return nil
}

// buildQuestionsSchema constrains question generation to a JSON array of
// {text, category} objects
func (g *GeminiProvider) buildQuestionsSchema() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":     {Type: genai.TypeString},
					"category": {Type: genai.TypeString},
				},
				Required: []string{"text", "category"},
			},
		},
	}

	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	return genaiConfig
}

// buildEvaluateSchema constrains evaluation to the scoring object
func (g *GeminiProvider) buildEvaluateSchema() *genai.GenerateContentConfig {
	genaiConfig := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"relevance":       {Type: genai.TypeInteger},
				"clarity":         {Type: genai.TypeInteger},
				"confidence":      {Type: genai.TypeInteger},
				"technical_depth": {Type: genai.TypeInteger},
				"overall_score":   {Type: genai.TypeInteger},
				"sentiment":       {Type: genai.TypeString},
				"feedback":        {Type: genai.TypeString},
				"improvement_tips": {
					Type:  genai.TypeArray,
					Items: &genai.Schema{Type: genai.TypeString},
				},
			},
			Required: []string{"relevance", "clarity", "confidence", "technical_depth",
				"overall_score", "sentiment", "feedback", "improvement_tips"},
		},
	}

	if *g.config.Temperature > 0 {
		genaiConfig.Temperature = g.config.Temperature
	}

	return genaiConfig
}

// getSystemPrompt returns the system prompt for this provider's operation,
// prioritizing file-loaded content, then inline config, then the default
func (g *GeminiProvider) getSystemPrompt() string {
	loaded := config.GetLoadedPrompts()
	configPrompts := g.config.CustomPrompts.SystemPrompts

	switch g.operationType {
	case OperationQuestions:
		return resolvePrompt(loaded.Questions.System, configPrompts.GenerateQuestions, DefaultSystemPrompts.GenerateQuestions)
	case OperationEvaluate:
		return resolvePrompt(loaded.Evaluate.System, configPrompts.EvaluateAnswer, DefaultSystemPrompts.EvaluateAnswer)
	case OperationChat:
		return resolvePrompt(loaded.Chat.System, configPrompts.Chat, DefaultSystemPrompts.Chat)
	default:
		return ""
	}
}

// getUserPrompt returns the user prompt template for this provider's operation
func (g *GeminiProvider) getUserPrompt() string {
	loaded := config.GetLoadedPrompts()
	configPrompts := g.config.CustomPrompts.UserPrompts

	switch g.operationType {
	case OperationQuestions:
		return resolvePrompt(loaded.Questions.User, configPrompts.GenerateQuestions, DefaultUserPrompts.GenerateQuestions)
	case OperationEvaluate:
		return resolvePrompt(loaded.Evaluate.User, configPrompts.EvaluateAnswer, DefaultUserPrompts.EvaluateAnswer)
	case OperationChat:
		return resolvePrompt(loaded.Chat.User, configPrompts.Chat, DefaultUserPrompts.Chat)
	default:
		return ""
	}
}

// unmarshalModelJSON decodes a model response that should be JSON. When the
// response carries extra prose around the payload, it falls back to the
// first balanced JSON value found in the text.
func unmarshalModelJSON(text string, target any) error {
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), target); err == nil {
		return nil
	}

	extracted, ok := extractJSON(trimmed)
	if !ok {
		return json.Unmarshal([]byte(trimmed), target)
	}
	return json.Unmarshal([]byte(extracted), target)
}

// extractJSON returns the first balanced {...} or [...] substring,
// respecting string literals and escapes
func extractJSON(text string) (string, bool) {
	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return "", false
	}

	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// extractTokenUsage extracts token usage information from a Gemini response
func extractTokenUsage(result *genai.GenerateContentResponse) *TokenUsage {
	if result == nil || result.UsageMetadata == nil {
		return nil
	}

	usage := result.UsageMetadata
	return &TokenUsage{
		InputTokens:  int64(usage.PromptTokenCount),
		OutputTokens: int64(usage.CandidatesTokenCount),
		TotalTokens:  int64(usage.TotalTokenCount),
	}
}
