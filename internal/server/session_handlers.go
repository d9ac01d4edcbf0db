package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	prepmateErrors "prepmate/internal/errors"
	"prepmate/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// createStartSessionHandler wraps session creation with observability
func (s *Server) createStartSessionHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("prepmate.api")
		ctx, span := tracer.Start(ctx, "api.sessions.start")
		defer span.End()

		var req StartSessionRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			writeErrorResponse(w, "Missing user", "userId field is required", http.StatusBadRequest)
			return
		}

		result, err := s.Manager.StartSession(ctx, userID, req.Config)
		if err != nil {
			span.RecordError(err)
			om.GetMetrics().RecordBusinessMetric(ctx, "session_started", false)
			s.writeAppError(w, err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "session_started", true,
			attribute.String("interview.type", string(result.Session.Config.Type)),
			attribute.String("questions.source", string(result.Source)))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("session.id", result.Session.ID),
			attribute.String("questions.source", string(result.Source)),
		)

		writeJSONStatus(w, http.StatusCreated, result)
	}
}

// currentSessionHandler returns the caller's ongoing session
func (s *Server) currentSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeErrorResponse(w, "Missing user", "userId query parameter is required", http.StatusBadRequest)
		return
	}

	session, err := s.Manager.CurrentSession(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	writeJSON(w, SessionResponse{Session: session})
}

// createSubmitAnswerHandler wraps answer submission with observability
func (s *Server) createSubmitAnswerHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("prepmate.api")
		ctx, span := tracer.Start(ctx, "api.sessions.answer")
		defer span.End()

		sessionID := r.PathValue("id")

		var req SubmitAnswerRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			writeErrorResponse(w, "Missing user", "userId field is required", http.StatusBadRequest)
			return
		}

		// The answer must land on the caller's ongoing session
		session, err := s.Manager.CurrentSession(ctx, userID)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}
		if session.ID != sessionID {
			writeErrorResponse(w, "Session not found", "no ongoing session with that id", http.StatusNotFound)
			return
		}

		result, err := s.Manager.SubmitAnswer(ctx, userID, req.Answer)
		if err != nil {
			span.RecordError(err)
			s.writeAppError(w, err)
			return
		}

		metrics := om.GetMetrics()
		metrics.RecordBusinessMetric(ctx, "answer_evaluated", true,
			attribute.String("evaluation.source", string(result.Source)))
		if result.Completed {
			metrics.RecordBusinessMetric(ctx, "session_completed", true)
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.String("session.id", sessionID),
			attribute.Bool("session.completed", result.Completed),
			attribute.String("evaluation.source", string(result.Source)),
		)

		writeJSONResponse(w, span, result)
	}
}

// endSessionHandler completes the caller's ongoing session early
func (s *Server) endSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")

	var req EndSessionRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		writeErrorResponse(w, "Missing user", "userId field is required", http.StatusBadRequest)
		return
	}

	session, err := s.Manager.CurrentSession(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	if session.ID != sessionID {
		writeErrorResponse(w, "Session not found", "no ongoing session with that id", http.StatusNotFound)
		return
	}

	ended, err := s.Manager.EndSession(r.Context(), userID)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	writeJSON(w, SessionResponse{Session: ended})
}

// historyHandler returns a user's recent completed sessions, newest first
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	if userID == "" {
		writeErrorResponse(w, "Missing user", "userId query parameter is required", http.StatusBadRequest)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeErrorResponse(w, "Invalid limit", "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	sessions, err := s.Manager.History(r.Context(), userID, limit)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	writeJSON(w, HistoryResponse{Sessions: sessions})
}

// registerHandler creates a user account
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.Store.CreateUser(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	s.Logger.Info("User registered", "user_id", user.ID)

	writeJSONStatus(w, http.StatusCreated, UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

// loginHandler authenticates a user by email and password
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := parseJSONRequest(r, &req); err != nil {
		writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.Store.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// A failed login always looks the same to the caller
		writeErrorResponse(w, "Authentication failed", "invalid email or password", http.StatusUnauthorized)
		return
	}

	writeJSON(w, UserResponse{ID: user.ID, Name: user.Name, Email: user.Email})
}

// writeAppError maps an AppError to an HTTP status and writes the response
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	var appErr *prepmateErrors.AppError
	if !errors.As(err, &appErr) {
		s.Logger.LogError(err, "Unhandled request error")
		writeErrorResponse(w, "Internal error", "unexpected error", http.StatusInternalServerError)
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Code {
	case prepmateErrors.ErrCodeSessionNotFound:
		status = http.StatusNotFound
	case prepmateErrors.ErrCodeSessionCompleted, prepmateErrors.ErrCodeDuplicateEmail:
		status = http.StatusConflict
	case prepmateErrors.ErrCodeEmptyAnswer,
		prepmateErrors.ErrCodeInvalidRequest,
		prepmateErrors.ErrCodeInvalidConfig,
		prepmateErrors.ErrCodeWeakPassword:
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		s.Logger.LogError(appErr, "Request failed", "code", appErr.Code)
	}

	writeErrorResponse(w, appErr.Code, appErr.Message, status)
}
