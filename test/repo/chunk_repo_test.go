package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"codescout/internal/model"
	"codescout/internal/repo"
	"codescout/test/testutil"
)

func makeVector(seed float32) []float32 {
	vec := make([]float32, model.EmbeddingDim)
	vec[0] = seed
	vec[1] = 1 - seed
	return vec
}

func makeChunk(filePath string, index int, seed float32) model.ChunkEmbedding {
	content := "func chunk() {}"
	return model.ChunkEmbedding{
		ID:         uuid.NewString(),
		FilePath:   filePath,
		Content:    content,
		ChunkIndex: index,
		ChunkSize:  len(content),
		Vector:     makeVector(seed),
		CreatedAt:  time.Now().UTC(),
	}
}

func createSession(t *testing.T, sessions *repo.SessionRepo) string {
	t.Helper()
	session := &model.Session{
		ID:        uuid.NewString(),
		Name:      "test-repo",
		GithubURL: "https://github.com/example/test-repo",
		AgentType: "code_search",
		CreatedAt: time.Now().UTC(),
		LastUsed:  time.Now().UTC(),
	}
	require.NoError(t, sessions.Create(context.Background(), session))
	return session.ID
}

func TestChunkRepoGenerationSwap(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sessions := repo.NewSessionRepo(db)
	chunks := repo.NewChunkRepo(db)
	sessionID := createSession(t, sessions)

	first := []model.ChunkEmbedding{
		makeChunk("src/main.py", 0, 0.1),
		makeChunk("src/main.py", 1, 0.2),
	}
	require.NoError(t, chunks.ReplaceGeneration(ctx, sessionID, first))

	vectors, err := chunks.ListVectors(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Len(t, vectors[0].Vector, model.EmbeddingDim)
	require.Equal(t, "test-repo", vectors[0].SessionName)

	session, err := sessions.Get(ctx, sessionID)
	require.NoError(t, err)
	require.True(t, session.EmbeddingsProcessed)
	require.Equal(t, 2, session.EmbeddingsCount)

	// Re-embedding replaces the whole generation, never mixes.
	second := []model.ChunkEmbedding{
		makeChunk("src/util.py", 0, 0.3),
		makeChunk("src/util.py", 1, 0.4),
		makeChunk("docs/readme.md", 0, 0.5),
	}
	require.NoError(t, chunks.ReplaceGeneration(ctx, sessionID, second))

	vectors, err = chunks.ListVectors(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	for _, v := range vectors {
		require.NotEqual(t, first[0].ID, v.ID)
		require.NotEqual(t, first[1].ID, v.ID)
	}

	count, err := chunks.CountBySession(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, 3, count)
}

func TestChunkRepoSearchByPath(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sessions := repo.NewSessionRepo(db)
	chunks := repo.NewChunkRepo(db)
	sessionID := createSession(t, sessions)

	require.NoError(t, chunks.ReplaceGeneration(ctx, sessionID, []model.ChunkEmbedding{
		makeChunk("src/b.py", 1, 0.1),
		makeChunk("src/b.py", 0, 0.2),
		makeChunk("src/a.py", 0, 0.3),
		makeChunk("src/main.go", 0, 0.4),
	}))

	matches, err := chunks.SearchByPath(ctx, "%.py", sessionID)
	require.NoError(t, err)
	require.Len(t, matches, 3)
	// Ordered by (file_path, chunk_index).
	require.Equal(t, "src/a.py", matches[0].FilePath)
	require.Equal(t, "src/b.py", matches[1].FilePath)
	require.Equal(t, 0, matches[1].ChunkIndex)
	require.Equal(t, 1, matches[2].ChunkIndex)

	// LIKE is case-sensitive.
	matches, err = chunks.SearchByPath(ctx, "%.PY", sessionID)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestChunkRepoSessionFiles(t *testing.T) {
	db, cleanup := testutil.OpenTestDB(t)
	defer cleanup()
	ctx := context.Background()

	sessions := repo.NewSessionRepo(db)
	chunks := repo.NewChunkRepo(db)
	sessionID := createSession(t, sessions)

	require.NoError(t, chunks.ReplaceGeneration(ctx, sessionID, []model.ChunkEmbedding{
		makeChunk("src/main.py", 0, 0.1),
		makeChunk("src/main.py", 1, 0.2),
		makeChunk("src/util.py", 0, 0.3),
	}))

	files, err := chunks.SessionFiles(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	require.Equal(t, "src/main.py", files[0].FilePath)
	require.Equal(t, 2, files[0].ChunkCount)
	require.Equal(t, 2*len("func chunk() {}"), files[0].TotalContentSize)
}
