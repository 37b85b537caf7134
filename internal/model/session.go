package model

import "time"

// Session scopes a conversation and its retrieval corpus. Ingestion flips
// EmbeddingsProcessed and maintains EmbeddingsCount; query activity bumps
// LastUsed.
type Session struct {
	ID                  string    `json:"id" db:"id"`
	Name                string    `json:"name" db:"name"`
	GithubURL           string    `json:"github_url" db:"github_url"`
	AgentType           string    `json:"agent_type" db:"agent_type"`
	EmbeddingsProcessed bool      `json:"embeddings_processed" db:"embeddings_processed"`
	EmbeddingsCount     int       `json:"embeddings_count" db:"embeddings_count"`
	CreatedAt           time.Time `json:"created_at" db:"created_at"`
	LastUsed            time.Time `json:"last_used" db:"last_used"`
}
