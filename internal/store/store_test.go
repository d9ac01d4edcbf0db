package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepmate/internal/types"
)

func newTestStore(t *testing.T, historyLimit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "prepmate.db"), historyLimit)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func completedSession(id, userID string, endOffset time.Duration) *types.InterviewSession {
	end := time.Now().UTC().Add(endOffset)
	return &types.InterviewSession{
		ID:     id,
		UserID: userID,
		Config: types.InterviewConfig{
			Company:    "Google",
			Role:       "Backend Developer",
			Experience: types.ExperienceFresher,
			Difficulty: "intermediate",
			Type:       types.InterviewTypeMixed,
		},
		Questions: []types.Question{
			{ID: 1, Text: "Tell me about yourself.", Category: types.CategoryHR},
		},
		CurrentQuestionIndex: 1,
		StartTime:            end.Add(-10 * time.Minute),
		EndTime:              &end,
		Status:               types.SessionCompleted,
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "Priya", "Priya@Example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "priya@example.com", user.Email, "email should be stored lowercased")

	t.Run("authenticate with correct password", func(t *testing.T) {
		got, err := s.Authenticate(ctx, "priya@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("authenticate is case-insensitive on email", func(t *testing.T) {
		got, err := s.Authenticate(ctx, "PRIYA@example.COM", "secret123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := s.Authenticate(ctx, "priya@example.com", "wrong")
		assert.Error(t, err)
	})

	t.Run("unknown email rejected", func(t *testing.T) {
		_, err := s.Authenticate(ctx, "nobody@example.com", "secret123")
		assert.Error(t, err)
	})

	t.Run("lookup by id", func(t *testing.T) {
		got, err := s.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Priya", got.Name)
	})
}

func TestCreateUserValidation(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "A", "a@example.com", "secret123")
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "B", "a@example.com", "another123")
		assert.Error(t, err)
	})

	t.Run("duplicate email different case", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "B", "A@Example.Com", "another123")
		assert.Error(t, err)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "C", "c@example.com", "abc")
		assert.Error(t, err)
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := s.CreateUser(ctx, "  ", "d@example.com", "secret123")
		assert.Error(t, err)
	})
}

func TestHistoryNewestFirstAndCapped(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		session := completedSession(fmt.Sprintf("session-%d", i), "user-1", time.Duration(i)*time.Minute)
		require.NoError(t, s.SaveToHistory(ctx, session))
	}

	history, err := s.GetHistory(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3, "history should be capped at the configured limit")

	// Newest first: sessions 4, 3, 2 survive
	assert.Equal(t, "session-4", history[0].ID)
	assert.Equal(t, "session-3", history[1].ID)
	assert.Equal(t, "session-2", history[2].ID)
}

func TestHistoryDeduplicatesBySessionID(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	session := completedSession("session-a", "user-1", 0)
	require.NoError(t, s.SaveToHistory(ctx, session))

	session.CurrentQuestionIndex = 5
	require.NoError(t, s.SaveToHistory(ctx, session))

	history, err := s.GetHistory(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1, "saving the same session twice must not duplicate it")
	assert.Equal(t, 5, history[0].CurrentQuestionIndex, "the newer copy should win")
}

func TestHistoryIsolatedPerUser(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	require.NoError(t, s.SaveToHistory(ctx, completedSession("s1", "user-1", 0)))
	require.NoError(t, s.SaveToHistory(ctx, completedSession("s2", "user-2", 0)))

	history, err := s.GetHistory(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "s1", history[0].ID)
}

func TestCurrentSessionLifecycle(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	got, err := s.GetCurrentSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got, "no current session yet")

	session := completedSession("live", "user-1", 0)
	session.Status = types.SessionOngoing
	session.EndTime = nil
	require.NoError(t, s.SaveCurrentSession(ctx, session))

	got, err = s.GetCurrentSession(ctx, "user-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "live", got.ID)
	assert.Equal(t, types.SessionOngoing, got.Status)

	// Overwrite with progress
	session.CurrentQuestionIndex = 3
	require.NoError(t, s.SaveCurrentSession(ctx, session))
	got, err = s.GetCurrentSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentQuestionIndex)

	require.NoError(t, s.ClearCurrentSession(ctx, "user-1"))
	got, err = s.GetCurrentSession(ctx, "user-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCounts(t *testing.T) {
	s := newTestStore(t, 10)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "A", "a@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, s.SaveToHistory(ctx, completedSession("s1", "user-1", 0)))

	users, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	sessions, err := s.CountSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)
}
