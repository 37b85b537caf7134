package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"codescout/internal/ai"
	"codescout/internal/model"
	appErr "codescout/internal/pkg/errors"
	"codescout/internal/repo"
)

const (
	maxSearchLimit = 50
)

// ChunkSource is the corpus view the search service ranks over.
type ChunkSource interface {
	ListVectors(ctx context.Context, sessionID string) ([]repo.ChunkVector, error)
	SearchByPath(ctx context.Context, pattern string, sessionID string) ([]model.ChunkMatch, error)
	SessionFiles(ctx context.Context, sessionID string) ([]model.SessionFile, error)
}

// SessionSource provides session metadata and usage tracking.
type SessionSource interface {
	Get(ctx context.Context, id string) (*model.Session, error)
	ListProcessed(ctx context.Context) ([]model.Session, error)
	TouchLastUsed(ctx context.Context, id string, at time.Time) error
}

// SearchService implements semantic and path search over stored chunk
// embeddings. Ranking happens in-process so results carry exact similarity
// scores regardless of the storage backend.
type SearchService struct {
	chunks           ChunkSource
	sessions         SessionSource
	embedder         ai.IEmbedder
	defaultLimit     int
	defaultThreshold float64
}

func NewSearchService(chunks ChunkSource, sessions SessionSource, embedder ai.IEmbedder,
	defaultLimit int, defaultThreshold float64) *SearchService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	if defaultThreshold <= 0 {
		defaultThreshold = 0.7
	}
	return &SearchService{
		chunks:           chunks,
		sessions:         sessions,
		embedder:         embedder,
		defaultLimit:     defaultLimit,
		defaultThreshold: defaultThreshold,
	}
}

// SearchInput carries one semantic search request. Zero Limit and negative
// Threshold take the configured defaults.
type SearchInput struct {
	Query     string
	SessionID string
	Limit     int
	Threshold float64
	// HasThreshold distinguishes an explicit 0 threshold from an omitted one.
	HasThreshold bool
}

type SearchResult struct {
	Query               string             `json:"query"`
	SessionID           string             `json:"session_id,omitempty"`
	TotalResults        int                `json:"total_results"`
	SimilarityThreshold float64            `json:"similarity_threshold"`
	Results             []model.ChunkMatch `json:"results"`
}

// Search embeds the query once and ranks every candidate chunk by cosine
// similarity. Ties on similarity break toward the older chunk.
func (s *SearchService) Search(ctx context.Context, input SearchInput) (*SearchResult, error) {
	if input.Query == "" {
		return nil, fmt.Errorf("%w: query is required", appErr.ErrValidation)
	}
	if err := validateSessionID(input.SessionID); err != nil {
		return nil, err
	}
	limit := input.Limit
	if limit == 0 {
		limit = s.defaultLimit
	}
	if limit < 1 || limit > maxSearchLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", appErr.ErrValidation, maxSearchLimit)
	}
	threshold := s.defaultThreshold
	if input.HasThreshold {
		threshold = input.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: similarity threshold must be between 0 and 1", appErr.ErrValidation)
	}

	queryVec, err := s.embedder.Embed(ctx, input.Query, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %s", appErr.ErrUpstream, err.Error())
	}

	candidates, err := s.chunks.ListVectors(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	matches := rankBySimilarity(queryVec, candidates, threshold)
	if len(matches) > limit {
		matches = matches[:limit]
	}

	if input.SessionID != "" {
		if err := s.sessions.TouchLastUsed(ctx, input.SessionID, time.Now()); err != nil {
			logutil.GetLogger(ctx).Warn("touch session last_used failed",
				zap.String("session_id", input.SessionID), zap.Error(err))
		}
	}
	return &SearchResult{
		Query:               input.Query,
		SessionID:           input.SessionID,
		TotalResults:        len(matches),
		SimilarityThreshold: threshold,
		Results:             matches,
	}, nil
}

type SessionList struct {
	TotalSessions int             `json:"total_sessions"`
	Sessions      []model.Session `json:"sessions"`
}

// ListSessions returns every session whose corpus is ready to search.
func (s *SearchService) ListSessions(ctx context.Context) (*SessionList, error) {
	sessions, err := s.sessions.ListProcessed(ctx)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return &SessionList{TotalSessions: len(sessions), Sessions: sessions}, nil
}

type SessionFileList struct {
	SessionID   string              `json:"session_id"`
	SessionName string              `json:"session_name"`
	TotalFiles  int                 `json:"total_files"`
	Files       []model.SessionFile `json:"files"`
}

// SessionFiles lists the distinct files indexed under one session.
func (s *SearchService) SessionFiles(ctx context.Context, sessionID string) (*SessionFileList, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session_id is required", appErr.ErrValidation)
	}
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	files, err := s.chunks.SessionFiles(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = []model.SessionFile{}
	}
	return &SessionFileList{
		SessionID:   session.ID,
		SessionName: session.Name,
		TotalFiles:  len(files),
		Files:       files,
	}, nil
}

type PathSearchResult struct {
	Pattern      string             `json:"pattern"`
	SessionID    string             `json:"session_id,omitempty"`
	TotalResults int                `json:"total_results"`
	Results      []model.ChunkMatch `json:"results"`
}

// SearchByPath matches file paths against a SQL LIKE pattern. No ranking;
// results come back in (file_path, chunk_index) order.
func (s *SearchService) SearchByPath(ctx context.Context, pattern, sessionID string) (*PathSearchResult, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: file path pattern is required", appErr.ErrValidation)
	}
	if err := validateSessionID(sessionID); err != nil {
		return nil, err
	}
	results, err := s.chunks.SearchByPath(ctx, pattern, sessionID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []model.ChunkMatch{}
	}
	return &PathSearchResult{
		Pattern:      pattern,
		SessionID:    sessionID,
		TotalResults: len(results),
		Results:      results,
	}, nil
}

// EmbeddingInfo describes a freshly generated query embedding. The preview
// keeps responses small; full vectors only ever travel to the ranker.
type EmbeddingInfo struct {
	Text      string    `json:"text"`
	Model     string    `json:"model"`
	Dimension int       `json:"embedding_dimension"`
	Norm      float64   `json:"norm"`
	Preview   []float32 `json:"embedding_preview"`
}

// EmbedQuery generates an embedding for arbitrary text. Provider failures
// surface immediately as upstream errors, no retry.
func (s *SearchService) EmbedQuery(ctx context.Context, text string) (*EmbeddingInfo, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", appErr.ErrValidation)
	}
	vec, err := s.embedder.Embed(ctx, text, ai.TaskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: generate embedding: %s", appErr.ErrUpstream, err.Error())
	}
	preview := vec
	if len(preview) > 10 {
		preview = preview[:10]
	}
	return &EmbeddingInfo{
		Text:      text,
		Model:     s.embedder.ModelName(),
		Dimension: len(vec),
		Norm:      vectorNorm(vec),
		Preview:   preview,
	}, nil
}

func validateSessionID(sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return fmt.Errorf("%w: invalid session id %q", appErr.ErrValidation, sessionID)
	}
	return nil
}

// rankBySimilarity filters candidates below the threshold and sorts the rest
// by descending similarity, older chunks first among equals.
func rankBySimilarity(query []float32, candidates []repo.ChunkVector, threshold float64) []model.ChunkMatch {
	matches := make([]model.ChunkMatch, 0, len(candidates))
	for _, c := range candidates {
		similarity := cosineSimilarity(query, c.Vector)
		if similarity < threshold {
			continue
		}
		matches = append(matches, model.ChunkMatch{
			ID:          c.ID,
			SessionID:   c.SessionID,
			SessionName: c.SessionName,
			GithubURL:   c.GithubURL,
			FilePath:    c.FilePath,
			FileContent: c.FileContent,
			ChunkIndex:  c.ChunkIndex,
			ChunkSize:   c.ChunkSize,
			Similarity:  similarity,
			CreatedAt:   c.CreatedAt,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches
}

// cosineSimilarity computes in float64 to keep ranking stable for vectors
// stored as float32. Mismatched or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
