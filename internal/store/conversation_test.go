package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"codescout/internal/model"
	appErr "codescout/internal/pkg/errors"
)

func TestAppendAndListKeepsOrder(t *testing.T) {
	s := NewConversationStore()
	s.Append(model.Message{ID: "m1", SessionID: "s1", Content: "first"})
	s.Append(model.Message{ID: "m2", SessionID: "s1", Content: "second"})

	msgs := s.List("s1")
	require.Len(t, msgs, 2)
	require.Equal(t, "m1", msgs[0].ID)
	require.Equal(t, "m2", msgs[1].ID)
}

func TestReplaceUpdatesInPlace(t *testing.T) {
	s := NewConversationStore()
	s.Append(model.Message{ID: "m1", SessionID: "s1", Status: model.StatusStreaming})

	err := s.Replace(model.Message{ID: "m1", SessionID: "s1", Content: "done", Status: model.StatusComplete})
	require.NoError(t, err)

	msg, err := s.Get("s1", "m1")
	require.NoError(t, err)
	require.Equal(t, "done", msg.Content)
	require.Equal(t, model.StatusComplete, msg.Status)

	// Replace never changes ordering or count.
	require.Len(t, s.List("s1"), 1)
}

func TestReplaceUnknownMessage(t *testing.T) {
	s := NewConversationStore()
	err := s.Replace(model.Message{ID: "ghost", SessionID: "s1"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
}

func TestReplaceAfterDeleteDoesNotResurrect(t *testing.T) {
	s := NewConversationStore()
	s.Append(model.Message{ID: "m1", SessionID: "s1"})
	s.Delete("s1")

	err := s.Replace(model.Message{ID: "m1", SessionID: "s1", Content: "zombie"})
	require.ErrorIs(t, err, appErr.ErrNotFound)
	require.Empty(t, s.List("s1"))
}

func TestConcurrentAppendAndReplace(t *testing.T) {
	s := NewConversationStore()
	const producers = 16
	const updates = 50

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("m%d", i)
			s.Append(model.Message{ID: id, SessionID: "s1", Status: model.StatusStreaming})
			for j := 0; j < updates; j++ {
				_ = s.Replace(model.Message{
					ID:        id,
					SessionID: "s1",
					Content:   fmt.Sprintf("update %d", j),
					Status:    model.StatusStreaming,
				})
			}
		}(i)
	}
	wg.Wait()

	msgs := s.List("s1")
	require.Len(t, msgs, producers)
	for _, msg := range msgs {
		require.Equal(t, fmt.Sprintf("update %d", updates-1), msg.Content)
	}
}

func TestSessionsSorted(t *testing.T) {
	s := NewConversationStore()
	s.Append(model.Message{ID: "m1", SessionID: "b"})
	s.Append(model.Message{ID: "m2", SessionID: "a"})
	require.Equal(t, []string{"a", "b"}, s.Sessions())
}
