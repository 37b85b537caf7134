package model

import "time"

// EmbeddingDim is fixed per embedding-model generation (text-embedding-004).
const EmbeddingDim = 768

// ChunkEmbedding is one code fragment with its vector representation.
// (SessionID, FilePath, ChunkIndex) uniquely identifies a chunk.
type ChunkEmbedding struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	FilePath  string    `json:"file_path"`
	Content   string    `json:"content"`
	ChunkIndex int      `json:"chunk_index"`
	ChunkSize  int      `json:"chunk_size"`
	Vector    []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// ChunkMatch is a ranked search result joined with session metadata.
type ChunkMatch struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	SessionName string    `json:"session_name"`
	GithubURL   string    `json:"github_url"`
	FilePath    string    `json:"file_path"`
	FileContent string    `json:"file_content"`
	ChunkIndex  int       `json:"chunk_index"`
	ChunkSize   int       `json:"chunk_size"`
	Similarity  float64   `json:"similarity,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SessionFile aggregates chunk counts per distinct file path within a session.
type SessionFile struct {
	FilePath         string    `json:"file_path"`
	ChunkCount       int       `json:"chunk_count"`
	TotalContentSize int       `json:"total_content_size"`
	LastProcessed    time.Time `json:"last_processed"`
}

// EmbeddingCache is a persisted query-embedding cache row.
type EmbeddingCache struct {
	ModelName   string
	TaskType    string
	ContentHash string
	Embedding   []float32
	Ctime       int64
}
