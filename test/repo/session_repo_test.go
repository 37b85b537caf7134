package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	appErr "codescout/internal/pkg/errors"
	"codescout/internal/repo"
	"codescout/test/testutil"
)

func TestSessionRepoLifecycle(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sessions := repo.NewSessionRepo(db)
	sessionID := createSession(t, sessions)

	session, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, "test-repo", session.Name)
	require.False(t, session.EmbeddingsProcessed)

	_, err = sessions.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, appErr.ErrNotFound)

	later := time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond)
	require.NoError(t, sessions.TouchLastUsed(ctx, sessionID, later))
	session, err = sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.WithinDuration(t, later, session.LastUsed, time.Millisecond)

	// Unprocessed sessions stay out of the searchable listing.
	listed, err := sessions.ListProcessed(ctx)
	require.NoError(t, err)
	for _, s := range listed {
		require.NotEqual(t, sessionID, s.ID)
	}

	require.NoError(t, sessions.UpdateEmbeddingsCount(ctx, sessionID, 7))
	session, err = sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 7, session.EmbeddingsCount)
}
