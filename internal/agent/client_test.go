package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	appErr "codescout/internal/pkg/errors"
)

func TestClientStreamsFrames(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/x-ndjson")
		io.WriteString(w, `{"is_task_complete": false, "content": "Searching..."}`+"\n")
		io.WriteString(w, "\n") // blank lines are skipped
		io.WriteString(w, "not json at all\n")
		io.WriteString(w, `{"is_task_complete": true, "content": "done"}`+"\n")
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	src, err := client.Query(context.Background(), "code_search", "find handler", "ctx-1", "task-1")
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, "/agents/code_search/query", gotPath)
	require.Equal(t, "find handler", gotBody["query"])
	require.Equal(t, "ctx-1", gotBody["context_id"])

	frame, err := src.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Searching...", frame.ContentText())

	// The malformed line was dropped; next frame is the terminal one.
	frame, err = src.Next(context.Background())
	require.NoError(t, err)
	require.True(t, frame.IsTaskComplete)

	_, err = src.Next(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestClientNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "agent exploded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.Query(context.Background(), "orchestrator", "q", "c", "t")
	require.ErrorIs(t, err, appErr.ErrUpstream)
	require.Contains(t, err.Error(), "agent exploded")
}

func TestClientContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	src, err := client.Query(context.Background(), "orchestrator", "q", "c", "t")
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCloseIsIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	src, err := client.Query(context.Background(), "orchestrator", "q", "c", "t")
	require.NoError(t, err)
	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}
