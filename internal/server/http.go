package server

import (
	"time"

	"prepmate/internal/ai"
	"prepmate/internal/config"
	prepmateErrors "prepmate/internal/errors"
	"prepmate/internal/interview"
	"prepmate/internal/store"
	"prepmate/internal/types"
)

// QuestionsRequest represents the request body for the questions endpoint
type QuestionsRequest struct {
	Config types.InterviewConfig `json:"config"`
}

// QuestionsResponse carries the generated question set and where it came from
type QuestionsResponse struct {
	Questions []types.Question `json:"questions"`
	Source    string           `json:"source"`
}

// EvaluateRequest represents the request body for the evaluate endpoint
type EvaluateRequest struct {
	Question string                `json:"question"`
	Answer   string                `json:"answer"`
	Config   types.InterviewConfig `json:"config"`
}

// EvaluateResponse carries one answer evaluation and where it came from
type EvaluateResponse struct {
	Evaluation types.EvaluationResult `json:"evaluation"`
	Source     string                 `json:"source"`
}

// ChatRequest represents the request body for the practice chat endpoint
type ChatRequest struct {
	Message string              `json:"message"`
	History []types.ChatMessage `json:"history,omitempty"`
}

// ChatResponse carries the assistant reply and where it came from
type ChatResponse struct {
	Response string `json:"response"`
	Source   string `json:"source"`
}

// StartSessionRequest represents the request body for starting a session
type StartSessionRequest struct {
	UserID string                `json:"userId"`
	Config types.InterviewConfig `json:"config"`
}

// SessionResponse wraps a session for the current-session endpoint
type SessionResponse struct {
	Session *types.InterviewSession `json:"session"`
}

// SubmitAnswerRequest represents the request body for submitting an answer
type SubmitAnswerRequest struct {
	UserID string `json:"userId"`
	Answer string `json:"answer"`
}

// EndSessionRequest represents the request body for ending a session early
type EndSessionRequest struct {
	UserID string `json:"userId"`
}

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a stored user
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// HistoryResponse carries a user's most recent completed sessions
type HistoryResponse struct {
	Sessions []*types.InterviewSession `json:"sessions"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration and dependencies for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// TLS (optional): both files set enables HTTPS
	TLSCertFile string
	TLSKeyFile  string

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Domain dependencies
	Store    *store.Store
	Manager  *interview.Manager
	Services *Services

	// Custom prompt hot-reload
	PromptWatcher *config.PromptWatcher

	// Logger
	Logger *prepmateErrors.Logger
}

// Services bundles the per-operation AI services the handlers use
type Services struct {
	Questions *ai.Service
	Evaluate  *ai.Service
	Chat      *ai.Service
}

// Close releases the underlying AI clients
func (s *Services) Close() {
	if s == nil {
		return
	}
	for _, svc := range []*ai.Service{s.Questions, s.Evaluate, s.Chat} {
		if svc != nil {
			_ = svc.Close()
		}
	}
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSCertFile    string
	TLSKeyFile     string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, st *store.Store, services *Services, logger *prepmateErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	var manager *interview.Manager
	if services != nil {
		manager = interview.NewManager(st, services.Questions, services.Evaluate, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSCertFile:    cfg.TLSCertFile,
		TLSKeyFile:     cfg.TLSKeyFile,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Store:          st,
		Manager:        manager,
		Services:       services,
		Logger:         logger,
	}
}

// NewServices builds one AI service per operation from the application config
func NewServices(appCfg *config.Config, logger *prepmateErrors.Logger) (*Services, error) {
	questionsCfg := appCfg.GetQuestionsConfig()
	questions, err := ai.NewService(&questionsCfg, ai.OperationQuestions, logger)
	if err != nil {
		return nil, err
	}

	evaluateCfg := appCfg.GetEvaluateConfig()
	evaluate, err := ai.NewService(&evaluateCfg, ai.OperationEvaluate, logger)
	if err != nil {
		_ = questions.Close()
		return nil, err
	}

	chatCfg := appCfg.GetChatConfig()
	chat, err := ai.NewService(&chatCfg, ai.OperationChat, logger)
	if err != nil {
		_ = questions.Close()
		_ = evaluate.Close()
		return nil, err
	}

	return &Services{Questions: questions, Evaluate: evaluate, Chat: chat}, nil
}
