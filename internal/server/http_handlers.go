package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"prepmate/internal/ai"
)

// getHealthCheckTimeout returns the configured health check timeout
func (s *Server) getHealthCheckTimeout() time.Duration {
	if t := s.AppConfig.Observability.HealthCheck.Timeout; t > 0 {
		return t
	}
	return 10 * time.Second
}

// healthHandler provides a health check endpoint including AI model status
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "prepmate",
		"version": s.Version,
	}

	aiStatus := s.checkAIModelsHealth()
	response["ai_models"] = aiStatus

	response["circuit_breakers"] = s.checkCircuitBreakerHealth()

	if s.PromptWatcher != nil {
		response["prompt_watcher"] = map[string]any{
			"running": s.PromptWatcher.IsRunning(),
		}
	}

	// The server stays healthy without a model: every AI operation then
	// serves from the local fallback generator. Degraded only means a
	// configured model that cannot be reached.
	overallHealthy := true
	for _, modelStatus := range aiStatus {
		info, ok := modelStatus.(*ai.ModelInfo)
		if !ok {
			continue
		}
		if !info.Available && info.Error != "no API key configured" {
			overallHealthy = false
			break
		}
	}

	if !overallHealthy {
		response["status"] = "degraded"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			log.Printf("Failed to encode health response: %v", err)
		}
		return
	}

	writeJSON(w, response)
}

// checkAIModelsHealth checks model availability for every AI operation
func (s *Server) checkAIModelsHealth() map[string]any {
	timeout := s.getHealthCheckTimeout()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	aiStatus := make(map[string]any)
	if s.Services == nil {
		return aiStatus
	}

	for name, svc := range map[string]*ai.Service{
		ai.OperationQuestions: s.Services.Questions,
		ai.OperationEvaluate:  s.Services.Evaluate,
		ai.OperationChat:      s.Services.Chat,
	} {
		if svc == nil {
			continue
		}
		aiStatus[name] = svc.GetModelInfo(ctx)
	}

	return aiStatus
}

// checkCircuitBreakerHealth reports circuit breaker state per AI operation
func (s *Server) checkCircuitBreakerHealth() map[string]any {
	status := make(map[string]any)
	if s.Services == nil {
		return status
	}

	for name, svc := range map[string]*ai.Service{
		ai.OperationQuestions: s.Services.Questions,
		ai.OperationEvaluate:  s.Services.Evaluate,
		ai.OperationChat:      s.Services.Chat,
	} {
		if svc == nil {
			continue
		}
		if provider, ok := svc.Provider.(*ai.GeminiProvider); ok {
			status[name] = provider.GetCircuitBreakerStats()
		} else {
			status[name] = map[string]any{
				"enabled": false,
				"message": "fallback-only mode, no circuit breaker",
			}
		}
	}

	return status
}

// statsHandler provides server statistics including store and rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"service": "prepmate",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
	}

	if s.Store != nil {
		storeStats := map[string]any{}
		if users, err := s.Store.CountUsers(r.Context()); err == nil {
			storeStats["users"] = users
		}
		if sessions, err := s.Store.CountSessions(r.Context()); err == nil {
			storeStats["completed_sessions"] = sessions
		}
		response["store"] = storeStats
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	if r.Header.Get("Content-Type") != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// writeJSON writes v as a 200 JSON response
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus writes v as a JSON response with the given status code
func writeJSONStatus(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   error,
		Message: message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Failed to encode error response: %v", err)
	}
}
