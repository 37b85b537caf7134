package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusStreaming MessageStatus = "streaming"
	StatusComplete  MessageStatus = "complete"
	StatusError     MessageStatus = "error"
)

// Terminal reports whether the status can no longer change.
func (s MessageStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// ParsedContent is the classifier's view of a message's accumulated text.
type ParsedContent struct {
	Type string      `json:"type"` // message | artifact | input_required
	Data interface{} `json:"data"`
	// Text is the display projection: for input_required it is the bare
	// question plus any surrounding prose, stripped of JSON residue.
	Text string `json:"text"`
}

const (
	ParsedTypeMessage       = "message"
	ParsedTypeArtifact      = "artifact"
	ParsedTypeInputRequired = "input_required"
)

// MessageMetadata is recomputed from Message.Content on every update; it is
// never a source of truth on its own.
type MessageMetadata struct {
	Artifacts          []Artifact     `json:"artifacts,omitempty"`
	ParsedContent      *ParsedContent `json:"parsed_content,omitempty"`
	ProcessingMessages []string       `json:"processing_messages,omitempty"`
	Errors             []string       `json:"errors,omitempty"`
}

// Message belongs to exactly one session and, while streaming, is mutated by
// exactly one consumer task.
type Message struct {
	ID        string          `json:"id"`
	SessionID string          `json:"session_id"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Status    MessageStatus   `json:"status"`
	Metadata  MessageMetadata `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"`
}
