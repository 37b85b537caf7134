package model

// ArtifactType is a closed set; renderers switch over it exhaustively.
type ArtifactType string

const (
	ArtifactCode               ArtifactType = "code"
	ArtifactJSON               ArtifactType = "json"
	ArtifactFileList           ArtifactType = "file_list"
	ArtifactRepositoryAnalysis ArtifactType = "repository_analysis"
	ArtifactStructuredData     ArtifactType = "structured_data"
)

// Artifact is a typed renderable unit derived from response text. Artifacts
// are a pure function of the message content and are recomputed, never
// patched.
type Artifact struct {
	ID       string       `json:"id"`
	Type     ArtifactType `json:"type"`
	Language string       `json:"language,omitempty"`
	Content  interface{}  `json:"content"`
}
