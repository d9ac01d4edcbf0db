package interview

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepmate/internal/ai"
	"prepmate/internal/config"
	"prepmate/internal/errors"
	"prepmate/internal/store"
	"prepmate/internal/types"
)

// newTestManager wires a manager over a temp database and fallback-only AI
// services, so tests are deterministic and fully offline.
func newTestManager(t *testing.T) *Manager {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "prepmate.db"), 10)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := errors.NewLogger(slog.LevelError)
	questions, err := ai.NewService(&config.OperationAIConfig{Model: "gemini-2.0-flash"}, ai.OperationQuestions, logger)
	require.NoError(t, err)
	evaluate, err := ai.NewService(&config.OperationAIConfig{Model: "gemini-2.0-flash"}, ai.OperationEvaluate, logger)
	require.NoError(t, err)

	return NewManager(st, questions, evaluate, logger)
}

func testInterviewConfig() types.InterviewConfig {
	return types.InterviewConfig{
		Type:       types.InterviewTypeMixed,
		Role:       "Backend Developer",
		Experience: types.ExperienceFresher,
		Company:    "Google",
		Difficulty: "intermediate",
	}
}

func TestStartSession(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	result, err := m.StartSession(ctx, "user-1", testInterviewConfig())
	require.NoError(t, err)

	session := result.Session
	assert.NotEmpty(t, session.ID)
	assert.Equal(t, "user-1", session.UserID)
	assert.Equal(t, types.SessionOngoing, session.Status)
	assert.Len(t, session.Questions, types.QuestionsPerSession)
	assert.Equal(t, 0, session.CurrentQuestionIndex)
	assert.Empty(t, session.Answers)
	assert.Equal(t, ai.SourceFallback, result.Source, "no API key means fallback questions")

	current, err := m.CurrentSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, session.ID, current.ID)
}

func TestStartSessionValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t.Run("missing role", func(t *testing.T) {
		cfg := testInterviewConfig()
		cfg.Role = "   "
		_, err := m.StartSession(ctx, "user-1", cfg)
		assert.Error(t, err)
	})

	t.Run("unknown interview type", func(t *testing.T) {
		cfg := testInterviewConfig()
		cfg.Type = "Casual"
		_, err := m.StartSession(ctx, "user-1", cfg)
		assert.Error(t, err)
	})

	t.Run("defaults applied for blank fields", func(t *testing.T) {
		cfg := types.InterviewConfig{Role: "QA Engineer"}
		result, err := m.StartSession(ctx, "user-1", cfg)
		require.NoError(t, err)
		assert.Equal(t, types.InterviewTypeMixed, result.Session.Config.Type)
		assert.Equal(t, types.ExperienceFresher, result.Session.Config.Experience)
		assert.Equal(t, "intermediate", result.Session.Config.Difficulty)
	})
}

func TestFullSessionLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	start, err := m.StartSession(ctx, "user-1", testInterviewConfig())
	require.NoError(t, err)

	for i := 0; i < types.QuestionsPerSession; i++ {
		answer := fmt.Sprintf("My answer to question %d covers the database design and testing strategy in detail.", i+1)
		result, err := m.SubmitAnswer(ctx, "user-1", answer)
		require.NoError(t, err, "answer %d", i+1)

		require.NotNil(t, result.Evaluation)
		assert.GreaterOrEqual(t, result.Evaluation.OverallScore, 1)
		assert.LessOrEqual(t, result.Evaluation.OverallScore, 100)
		assert.Len(t, result.Evaluation.ImprovementTips, 3)

		if i < types.QuestionsPerSession-1 {
			assert.False(t, result.Completed)
			require.NotNil(t, result.NextQuestion)
			assert.Equal(t, i+2, result.NextQuestion.ID)
		} else {
			assert.True(t, result.Completed)
			assert.Nil(t, result.NextQuestion)
			assert.Equal(t, types.SessionCompleted, result.Session.Status)
			require.NotNil(t, result.Session.EndTime)
		}
	}

	// Session is out of the current slot and in history exactly once
	_, err = m.CurrentSession(ctx, "user-1")
	assert.Error(t, err)

	history, err := m.History(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, start.Session.ID, history[0].ID)
	assert.Len(t, history[0].Answers, types.QuestionsPerSession)
}

func TestSubmitAnswerValidation(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	t.Run("no active session", func(t *testing.T) {
		_, err := m.SubmitAnswer(ctx, "user-1", "an answer")
		assert.Error(t, err)
	})

	t.Run("empty answer", func(t *testing.T) {
		_, err := m.StartSession(ctx, "user-1", testInterviewConfig())
		require.NoError(t, err)

		_, err = m.SubmitAnswer(ctx, "user-1", "   ")
		assert.Error(t, err)

		// The session must be untouched by the rejected answer
		current, err := m.CurrentSession(ctx, "user-1")
		require.NoError(t, err)
		assert.Equal(t, 0, current.CurrentQuestionIndex)
		assert.Empty(t, current.Answers)
	})
}

func TestEndSessionEarly(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	_, err := m.StartSession(ctx, "user-1", testInterviewConfig())
	require.NoError(t, err)

	_, err = m.SubmitAnswer(ctx, "user-1", "One thorough answer about system design and monitoring.")
	require.NoError(t, err)

	session, err := m.EndSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.SessionCompleted, session.Status)
	assert.Len(t, session.Answers, 1)

	history, err := m.History(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)

	_, err = m.EndSession(ctx, "user-1")
	assert.Error(t, err, "ending twice should fail, the session left the current slot")
}

func TestStartSessionReplacesOngoing(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	first, err := m.StartSession(ctx, "user-1", testInterviewConfig())
	require.NoError(t, err)

	second, err := m.StartSession(ctx, "user-1", testInterviewConfig())
	require.NoError(t, err)
	assert.NotEqual(t, first.Session.ID, second.Session.ID)

	current, err := m.CurrentSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, second.Session.ID, current.ID)
}
