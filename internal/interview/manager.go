package interview

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"prepmate/internal/ai"
	"prepmate/internal/errors"
	"prepmate/internal/store"
	"prepmate/internal/types"
)

// Manager drives the interview session lifecycle: one ongoing session per
// user, five questions, one evaluated answer per question, then a single
// write to history.
type Manager struct {
	store     *store.Store
	questions *ai.Service
	evaluate  *ai.Service
	logger    *errors.Logger

	now func() time.Time
}

// NewManager creates a session manager
func NewManager(st *store.Store, questions, evaluate *ai.Service, logger *errors.Logger) *Manager {
	return &Manager{
		store:     st,
		questions: questions,
		evaluate:  evaluate,
		logger:    logger,
		now:       time.Now,
	}
}

// StartResult is the outcome of starting a session
type StartResult struct {
	Session *types.InterviewSession `json:"session"`
	Source  ai.Source               `json:"source"`
}

// SubmitResult is the outcome of submitting one answer
type SubmitResult struct {
	Evaluation   *types.EvaluationResult `json:"evaluation"`
	Source       ai.Source               `json:"source"`
	NextQuestion *types.Question         `json:"nextQuestion,omitempty"`
	Completed    bool                    `json:"completed"`
	Session      *types.InterviewSession `json:"session"`
}

// validateConfig normalizes and checks an interview config
func validateConfig(cfg *types.InterviewConfig) error {
	cfg.Role = strings.TrimSpace(cfg.Role)
	cfg.Company = strings.TrimSpace(cfg.Company)
	cfg.Difficulty = strings.TrimSpace(cfg.Difficulty)

	if cfg.Role == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "Role is required", nil)
	}

	switch cfg.Type {
	case types.InterviewTypeHR, types.InterviewTypeTechnical, types.InterviewTypeMixed:
	case "":
		cfg.Type = types.InterviewTypeMixed
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Interview type must be HR, Technical, or Mixed", nil)
	}

	switch cfg.Experience {
	case types.ExperienceFresher, types.ExperienceExperienced:
	case "":
		cfg.Experience = types.ExperienceFresher
	default:
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Experience must be Fresher or Experienced", nil)
	}

	if cfg.Difficulty == "" {
		cfg.Difficulty = "intermediate"
	}
	return nil
}

// StartSession generates questions and opens a new ongoing session,
// replacing any session the user had in flight.
func (m *Manager) StartSession(ctx context.Context, userID string, cfg types.InterviewConfig) (*StartResult, error) {
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	questions, source, _ := m.questions.GenerateQuestions(ctx, cfg)

	session := &types.InterviewSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Config:    cfg,
		Questions: questions,
		Answers:   make([]types.Answer, 0, types.QuestionsPerSession),
		StartTime: m.now().UTC(),
		Status:    types.SessionOngoing,
	}

	if err := m.store.SaveCurrentSession(ctx, session); err != nil {
		return nil, err
	}

	m.logger.Info("Interview session started",
		"session_id", session.ID,
		"user_id", userID,
		"type", string(cfg.Type),
		"role", cfg.Role,
		"source", string(source))

	return &StartResult{Session: session, Source: source}, nil
}

// CurrentSession returns the user's ongoing session
func (m *Manager) CurrentSession(ctx context.Context, userID string) (*types.InterviewSession, error) {
	session, err := m.store.GetCurrentSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.NewValidationError(errors.ErrCodeSessionNotFound,
			"No active interview session", nil)
	}
	return session, nil
}

// SubmitAnswer evaluates the answer to the current question and advances
// the session. The fifth answer completes the session: the end time is
// set, the session moves to history exactly once, and the current-session
// slot is cleared.
func (m *Manager) SubmitAnswer(ctx context.Context, userID, answer string) (*SubmitResult, error) {
	if strings.TrimSpace(answer) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyAnswer,
			"Answer must not be empty", nil)
	}

	session, err := m.CurrentSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == types.SessionCompleted {
		return nil, errors.NewValidationError(errors.ErrCodeSessionCompleted,
			"This interview session is already completed", nil)
	}
	if session.CurrentQuestionIndex >= len(session.Questions) {
		return nil, errors.NewValidationError(errors.ErrCodeSessionCompleted,
			"All questions have been answered", nil)
	}

	question := session.Questions[session.CurrentQuestionIndex]
	evaluation, source, _ := m.evaluate.EvaluateAnswer(ctx, question.Text, answer, session.Config)

	session.Answers = append(session.Answers, types.Answer{
		QuestionID:   question.ID,
		QuestionText: question.Text,
		AnswerText:   answer,
		Evaluation:   &evaluation,
	})
	session.CurrentQuestionIndex++

	result := &SubmitResult{
		Evaluation: &evaluation,
		Source:     source,
		Session:    session,
	}

	if session.CurrentQuestionIndex >= len(session.Questions) {
		if err := m.completeSession(ctx, session); err != nil {
			return nil, err
		}
		result.Completed = true
	} else {
		next := session.Questions[session.CurrentQuestionIndex]
		result.NextQuestion = &next
		if err := m.store.SaveCurrentSession(ctx, session); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// EndSession completes the user's session early, keeping whatever answers
// were already evaluated.
func (m *Manager) EndSession(ctx context.Context, userID string) (*types.InterviewSession, error) {
	session, err := m.CurrentSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == types.SessionCompleted {
		return nil, errors.NewValidationError(errors.ErrCodeSessionCompleted,
			"This interview session is already completed", nil)
	}

	if err := m.completeSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// completeSession finalizes a session and moves it to history
func (m *Manager) completeSession(ctx context.Context, session *types.InterviewSession) error {
	end := m.now().UTC()
	session.EndTime = &end
	session.Status = types.SessionCompleted

	if err := m.store.SaveToHistory(ctx, session); err != nil {
		return err
	}
	if err := m.store.ClearCurrentSession(ctx, session.UserID); err != nil {
		return err
	}

	m.logger.Info("Interview session completed",
		"session_id", session.ID,
		"user_id", session.UserID,
		"answers", len(session.Answers),
		"duration", end.Sub(session.StartTime).String())
	return nil
}

// History returns the user's completed sessions, newest first
func (m *Manager) History(ctx context.Context, userID string, limit int) ([]*types.InterviewSession, error) {
	return m.store.GetHistory(ctx, userID, limit)
}
