package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"codescout/internal/agent"
	"codescout/internal/model"
	appErr "codescout/internal/pkg/errors"
	"codescout/internal/store"
	"codescout/internal/stream"
)

// FrameOpener opens one frame stream per query. Satisfied by agent.Client.
type FrameOpener interface {
	Query(ctx context.Context, agentType, query, contextID, taskID string) (stream.FrameSource, error)
}

// QueryService routes user queries to agents and maintains the per-session
// conversation. Each query produces exactly one user message and one agent
// message; the agent message is owned by a single assembler until terminal.
type QueryService struct {
	agents *agent.Catalog
	opener FrameOpener
	store  *store.ConversationStore
}

func NewQueryService(agents *agent.Catalog, opener FrameOpener, conversations *store.ConversationStore) *QueryService {
	return &QueryService{agents: agents, opener: opener, store: conversations}
}

// Stream runs one query end to end: records the user message, opens the
// agent's frame stream, and publishes every accumulated state both to the
// conversation store and to the caller's publisher. The returned message is
// the agent message's final state.
func (s *QueryService) Stream(ctx context.Context, sessionID, agentType, query string, publish stream.Publisher) (model.Message, error) {
	if query == "" {
		return model.Message{}, fmt.Errorf("%w: query is required", appErr.ErrValidation)
	}
	if sessionID == "" {
		return model.Message{}, fmt.Errorf("%w: session_id is required", appErr.ErrValidation)
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		return model.Message{}, fmt.Errorf("%w: invalid session id %q", appErr.ErrValidation, sessionID)
	}
	if err := s.agents.Validate(agentType); err != nil {
		return model.Message{}, fmt.Errorf("%w: unknown agent type %q", appErr.ErrValidation, agentType)
	}
	if publish == nil {
		publish = func(model.Message) {}
	}

	now := time.Now()
	userMsg := model.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      model.RoleUser,
		Content:   query,
		Status:    model.StatusSending,
		CreatedAt: now,
	}
	agentMsg := model.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      model.RoleAgent,
		Status:    model.StatusStreaming,
		CreatedAt: now,
	}
	s.store.Append(userMsg)
	s.store.Append(agentMsg)
	s.agents.MarkActive(agentType)

	taskID := uuid.NewString()
	src, err := s.opener.Query(ctx, agentType, query, sessionID, taskID)
	// The user message is dispatched either way; only the agent message
	// carries the failure.
	userMsg.Status = model.StatusComplete
	if replaceErr := s.store.Replace(userMsg); replaceErr != nil {
		logutil.GetLogger(ctx).Debug("dropping update for cleared conversation",
			zap.String("session_id", userMsg.SessionID))
	}
	if err != nil {
		// The query never reached the agent; route the failure through the
		// assembler so the message ends in error status with metadata.
		logutil.GetLogger(ctx).Error("agent query failed to open",
			zap.String("agent_type", agentType), zap.Error(err))
		src = failedSource{err: err}
	}

	assembler := stream.NewAssembler(agentMsg, stream.WithPublisher(func(msg model.Message) {
		if err := s.store.Replace(msg); err != nil {
			// Conversation was cleared mid-stream; keep streaming to the
			// caller but stop persisting.
			logutil.GetLogger(ctx).Debug("dropping update for cleared conversation",
				zap.String("session_id", msg.SessionID))
		}
		publish(msg)
	}))
	return assembler.Run(ctx, src)
}

// failedSource reports the open failure as a stream-level error.
type failedSource struct {
	err error
}

func (f failedSource) Next(ctx context.Context) (*stream.Frame, error) {
	return nil, f.err
}

func (f failedSource) Close() error { return nil }

// Messages returns a session's conversation in append order.
func (s *QueryService) Messages(sessionID string) ([]model.Message, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return nil, fmt.Errorf("%w: invalid session id %q", appErr.ErrValidation, sessionID)
	}
	msgs := s.store.List(sessionID)
	if msgs == nil {
		msgs = []model.Message{}
	}
	return msgs, nil
}

// ClearContext drops a session's conversation history. Streams still running
// against the session keep publishing to their callers but stop persisting.
func (s *QueryService) ClearContext(sessionID string) error {
	if _, err := uuid.Parse(sessionID); err != nil {
		return fmt.Errorf("%w: invalid session id %q", appErr.ErrValidation, sessionID)
	}
	s.store.Delete(sessionID)
	return nil
}

// ConversationSummary is one active in-memory conversation.
type ConversationSummary struct {
	SessionID    string `json:"session_id"`
	MessageCount int    `json:"message_count"`
}

// Conversations lists every session holding at least one message.
func (s *QueryService) Conversations() []ConversationSummary {
	ids := s.store.Sessions()
	summaries := make([]ConversationSummary, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, ConversationSummary{
			SessionID:    id,
			MessageCount: len(s.store.List(id)),
		})
	}
	return summaries
}
