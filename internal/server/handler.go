package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"prepmate/internal/ai"
	"prepmate/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// createQuestionsHandler wraps the question generation handler with observability
func (s *Server) createQuestionsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("prepmate.api")
		ctx, span := tracer.Start(ctx, "api.questions")
		defer span.End()

		var req QuestionsRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Config.Role) == "" {
			err := fmt.Errorf("missing role")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing role", "config.role field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("interview.type", string(req.Config.Type)),
			attribute.String("interview.role", req.Config.Role),
			attribute.String("operation", "questions"),
		)

		metrics := om.GetMetrics()
		var resp QuestionsResponse
		_ = metrics.TrackAIOperation(ctx, "questions", func(ctx context.Context) *observability.AIOperationResult {
			questions, source, usage := s.Services.Questions.GenerateQuestions(ctx, req.Config)
			resp = QuestionsResponse{Questions: questions, Source: string(source)}
			return &observability.AIOperationResult{
				Fallback:   source == ai.SourceFallback,
				TokenUsage: (*observability.TokenUsage)(usage),
			}
		})

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.source", resp.Source),
			attribute.Int("response.question_count", len(resp.Questions)),
		)

		writeJSONResponse(w, span, resp)
	}
}

// createEvaluateHandler wraps the answer evaluation handler with observability
func (s *Server) createEvaluateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("prepmate.api")
		ctx, span := tracer.Start(ctx, "api.evaluate")
		defer span.End()

		var req EvaluateRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Question) == "" {
			err := fmt.Errorf("missing question")
			span.RecordError(err)
			writeErrorResponse(w, "Missing question", "question field is required", http.StatusBadRequest)
			return
		}
		// Empty transcribed answers are a client error, never evaluated
		if strings.TrimSpace(req.Answer) == "" {
			err := fmt.Errorf("missing answer")
			span.RecordError(err)
			writeErrorResponse(w, "Missing answer", "answer field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.answer_length", len(req.Answer)),
			attribute.String("operation", "evaluate"),
		)

		metrics := om.GetMetrics()
		var resp EvaluateResponse
		_ = metrics.TrackAIOperation(ctx, "evaluate", func(ctx context.Context) *observability.AIOperationResult {
			evaluation, source, usage := s.Services.Evaluate.EvaluateAnswer(ctx, req.Question, req.Answer, req.Config)
			resp = EvaluateResponse{Evaluation: evaluation, Source: string(source)}
			return &observability.AIOperationResult{
				Fallback:   source == ai.SourceFallback,
				TokenUsage: (*observability.TokenUsage)(usage),
			}
		})

		metrics.RecordBusinessMetric(ctx, "answer_evaluated", true,
			attribute.Int("overall_score", resp.Evaluation.OverallScore))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.source", resp.Source),
			attribute.Int("response.overall_score", resp.Evaluation.OverallScore),
		)

		writeJSONResponse(w, span, resp)
	}
}

// createChatHandler wraps the practice chat handler with observability
func (s *Server) createChatHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("prepmate.api")
		ctx, span := tracer.Start(ctx, "api.chat")
		defer span.End()

		var req ChatRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(req.Message) == "" {
			err := fmt.Errorf("missing message")
			span.RecordError(err)
			writeErrorResponse(w, "Missing message", "message field is required", http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.message_length", len(req.Message)),
			attribute.Int("request.history_length", len(req.History)),
			attribute.String("operation", "chat"),
		)

		metrics := om.GetMetrics()
		var resp ChatResponse
		_ = metrics.TrackAIOperation(ctx, "chat", func(ctx context.Context) *observability.AIOperationResult {
			reply, source, usage := s.Services.Chat.Chat(ctx, req.Message, req.History)
			resp = ChatResponse{Response: reply, Source: string(source)}
			return &observability.AIOperationResult{
				Fallback:   source == ai.SourceFallback,
				TokenUsage: (*observability.TokenUsage)(usage),
			}
		})

		metrics.RecordBusinessMetric(ctx, "chat_message", true)

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("response.source", resp.Source),
		)

		writeJSONResponse(w, span, resp)
	}
}

// writeJSONResponse encodes v as the success response body
func writeJSONResponse(w http.ResponseWriter, span oteltrace.Span, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
