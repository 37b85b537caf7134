package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"codescout/internal/model"
	appErr "codescout/internal/pkg/errors"
	"codescout/internal/repo"
)

type fakeChunks struct {
	vectors     []repo.ChunkVector
	pathResults []model.ChunkMatch
	files       []model.SessionFile
	gotPattern  string
	gotSession  string
}

func (f *fakeChunks) ListVectors(ctx context.Context, sessionID string) ([]repo.ChunkVector, error) {
	if sessionID == "" {
		return f.vectors, nil
	}
	var out []repo.ChunkVector
	for _, v := range f.vectors {
		if v.SessionID == sessionID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeChunks) SearchByPath(ctx context.Context, pattern, sessionID string) ([]model.ChunkMatch, error) {
	f.gotPattern = pattern
	f.gotSession = sessionID
	return f.pathResults, nil
}

func (f *fakeChunks) SessionFiles(ctx context.Context, sessionID string) ([]model.SessionFile, error) {
	return f.files, nil
}

type fakeSessions struct {
	sessions map[string]*model.Session
	touched  []string
}

func (f *fakeSessions) Get(ctx context.Context, id string) (*model.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, appErr.ErrNotFound
}

func (f *fakeSessions) ListProcessed(ctx context.Context) ([]model.Session, error) {
	var out []model.Session
	for _, s := range f.sessions {
		if s.EmbeddingsProcessed {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeSessions) TouchLastUsed(ctx context.Context, id string, at time.Time) error {
	f.touched = append(f.touched, id)
	return nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) ModelName() string { return "text-embedding-004" }

func chunkVec(id, sessionID string, vec []float32, createdAt time.Time) repo.ChunkVector {
	return repo.ChunkVector{
		ID:        id,
		SessionID: sessionID,
		FilePath:  "src/" + id + ".go",
		Vector:    vec,
		CreatedAt: createdAt,
	}
}

func TestSearchRankingAndThreshold(t *testing.T) {
	sessionID := uuid.NewString()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	chunks := &fakeChunks{vectors: []repo.ChunkVector{
		chunkVec("exact", sessionID, []float32{1, 0}, base.Add(time.Hour)),
		chunkVec("close", sessionID, []float32{0.9, 0.1}, base),
		chunkVec("orthogonal", sessionID, []float32{0, 1}, base),
	}}
	sessions := &fakeSessions{sessions: map[string]*model.Session{}}
	svc := NewSearchService(chunks, sessions, &fakeEmbedder{vector: []float32{1, 0}}, 10, 0.7)

	result, err := svc.Search(context.Background(), SearchInput{Query: "find the thing"})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalResults)
	require.Equal(t, "exact", result.Results[0].ID)
	require.Equal(t, "close", result.Results[1].ID)
	require.InDelta(t, 1.0, result.Results[0].Similarity, 1e-9)
	require.Greater(t, result.Results[0].Similarity, result.Results[1].Similarity)
}

func TestSearchTiesBreakByOlderChunk(t *testing.T) {
	sessionID := uuid.NewString()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	chunks := &fakeChunks{vectors: []repo.ChunkVector{
		chunkVec("newer", sessionID, []float32{1, 0}, base.Add(time.Hour)),
		chunkVec("older", sessionID, []float32{1, 0}, base),
	}}
	svc := NewSearchService(chunks, &fakeSessions{}, &fakeEmbedder{vector: []float32{1, 0}}, 10, 0.7)

	result, err := svc.Search(context.Background(), SearchInput{Query: "q"})
	require.NoError(t, err)
	require.Equal(t, []string{"older", "newer"}, []string{result.Results[0].ID, result.Results[1].ID})
}

func TestSearchLimitTruncates(t *testing.T) {
	sessionID := uuid.NewString()
	base := time.Now()
	var vectors []repo.ChunkVector
	for i := 0; i < 5; i++ {
		vectors = append(vectors, chunkVec(uuid.NewString(), sessionID, []float32{1, 0}, base))
	}
	chunks := &fakeChunks{vectors: vectors}
	svc := NewSearchService(chunks, &fakeSessions{}, &fakeEmbedder{vector: []float32{1, 0}}, 10, 0.7)

	result, err := svc.Search(context.Background(), SearchInput{Query: "q", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalResults)
	require.Len(t, result.Results, 2)
}

func TestSearchSessionFilterAndTouch(t *testing.T) {
	mine := uuid.NewString()
	other := uuid.NewString()
	base := time.Now()
	chunks := &fakeChunks{vectors: []repo.ChunkVector{
		chunkVec("a", mine, []float32{1, 0}, base),
		chunkVec("b", other, []float32{1, 0}, base),
	}}
	sessions := &fakeSessions{sessions: map[string]*model.Session{}}
	svc := NewSearchService(chunks, sessions, &fakeEmbedder{vector: []float32{1, 0}}, 10, 0.7)

	result, err := svc.Search(context.Background(), SearchInput{Query: "q", SessionID: mine})
	require.NoError(t, err)
	require.Equal(t, 1, result.TotalResults)
	require.Equal(t, "a", result.Results[0].ID)
	require.Equal(t, []string{mine}, sessions.touched)
}

func TestSearchValidation(t *testing.T) {
	svc := NewSearchService(&fakeChunks{}, &fakeSessions{}, &fakeEmbedder{vector: []float32{1}}, 10, 0.7)
	ctx := context.Background()

	_, err := svc.Search(ctx, SearchInput{Query: ""})
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.Search(ctx, SearchInput{Query: "q", SessionID: "not-a-uuid"})
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.Search(ctx, SearchInput{Query: "q", Limit: 51})
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.Search(ctx, SearchInput{Query: "q", Limit: -1})
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.Search(ctx, SearchInput{Query: "q", Threshold: 1.5, HasThreshold: true})
	require.ErrorIs(t, err, appErr.ErrValidation)

	// An explicit zero threshold is inside the valid range.
	_, err = svc.Search(ctx, SearchInput{Query: "q", Threshold: 0, HasThreshold: true})
	require.NoError(t, err)
}

func TestSearchEmbedderFailureIsUpstream(t *testing.T) {
	svc := NewSearchService(&fakeChunks{}, &fakeSessions{}, &fakeEmbedder{err: errors.New("quota exceeded")}, 10, 0.7)
	_, err := svc.Search(context.Background(), SearchInput{Query: "q"})
	require.ErrorIs(t, err, appErr.ErrUpstream)
}

func TestSessionFilesUnknownSession(t *testing.T) {
	svc := NewSearchService(&fakeChunks{}, &fakeSessions{sessions: map[string]*model.Session{}}, &fakeEmbedder{}, 10, 0.7)
	_, err := svc.SessionFiles(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestSessionFiles(t *testing.T) {
	sessionID := uuid.NewString()
	sessions := &fakeSessions{sessions: map[string]*model.Session{
		sessionID: {ID: sessionID, Name: "my-repo", EmbeddingsProcessed: true},
	}}
	chunks := &fakeChunks{files: []model.SessionFile{
		{FilePath: "src/main.go", ChunkCount: 3, TotalContentSize: 4096},
	}}
	svc := NewSearchService(chunks, sessions, &fakeEmbedder{}, 10, 0.7)

	result, err := svc.SessionFiles(context.Background(), sessionID)
	require.NoError(t, err)
	require.Equal(t, "my-repo", result.SessionName)
	require.Equal(t, 1, result.TotalFiles)
}

func TestSearchByPathValidation(t *testing.T) {
	svc := NewSearchService(&fakeChunks{}, &fakeSessions{}, &fakeEmbedder{}, 10, 0.7)
	ctx := context.Background()

	_, err := svc.SearchByPath(ctx, "", "")
	require.ErrorIs(t, err, appErr.ErrValidation)

	_, err = svc.SearchByPath(ctx, "%.py", "bogus")
	require.ErrorIs(t, err, appErr.ErrValidation)
}

func TestSearchByPathPassesPatternThrough(t *testing.T) {
	chunks := &fakeChunks{pathResults: []model.ChunkMatch{{ID: "x", FilePath: "pkg/util.py"}}}
	svc := NewSearchService(chunks, &fakeSessions{}, &fakeEmbedder{}, 10, 0.7)

	result, err := svc.SearchByPath(context.Background(), "%.py", "")
	require.NoError(t, err)
	require.Equal(t, "%.py", chunks.gotPattern)
	require.Equal(t, 1, result.TotalResults)
}

func TestEmbedQueryMetadata(t *testing.T) {
	vec := make([]float32, 12)
	vec[0] = 3
	vec[1] = 4
	svc := NewSearchService(&fakeChunks{}, &fakeSessions{}, &fakeEmbedder{vector: vec}, 10, 0.7)

	info, err := svc.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	require.Equal(t, "text-embedding-004", info.Model)
	require.Equal(t, 12, info.Dimension)
	require.Len(t, info.Preview, 10)
	require.InDelta(t, 5.0, info.Norm, 1e-9)
}

func TestEmbedQueryFailureNotRetried(t *testing.T) {
	embedder := &countingEmbedder{err: errors.New("provider down")}
	svc := NewSearchService(&fakeChunks{}, &fakeSessions{}, embedder, 10, 0.7)

	_, err := svc.EmbedQuery(context.Background(), "hello")
	require.ErrorIs(t, err, appErr.ErrUpstream)
	require.Equal(t, 1, embedder.calls)
}

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return nil, c.err
}

func (c *countingEmbedder) ModelName() string { return "text-embedding-004" }

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	require.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1}))
	require.Equal(t, 0.0, cosineSimilarity(nil, nil))
	require.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
