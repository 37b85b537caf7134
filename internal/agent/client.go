package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "codescout/internal/pkg/errors"
	"codescout/internal/stream"
)

// Client streams frames from the upstream agent endpoint. Frames arrive as
// newline-delimited JSON on the response body.
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type queryRequest struct {
	Query     string `json:"query"`
	ContextID string `json:"context_id"`
	TaskID    string `json:"task_id"`
}

// Query opens a frame stream for one query. The returned source owns the
// response body; Close releases it on every exit path.
func (c *Client) Query(ctx context.Context, agentType, query, contextID, taskID string) (stream.FrameSource, error) {
	body, err := json.Marshal(queryRequest{Query: query, ContextID: contextID, TaskID: taskID})
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/agents/%s/query", c.baseURL, agentType)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/x-ndjson")
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", appErr.ErrUpstream, err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: agent returned %s: %s",
			appErr.ErrUpstream, resp.Status, strings.TrimSpace(string(payload)))
	}
	return &ndjsonSource{body: resp.Body, scanner: newFrameScanner(resp.Body)}, nil
}

type ndjsonSource struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func newFrameScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Frames carry whole file chunks; default 64KiB lines are not enough.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return scanner
}

// Next returns the next well-formed frame. Malformed lines are a protocol
// violation: logged, dropped, never fatal to the stream.
func (s *ndjsonSource) Next(ctx context.Context) (*stream.Frame, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			// A cancelled context surfaces as a body read error; report the
			// cancellation itself so callers can tell it from a transport loss.
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("%w: %s", appErr.ErrUpstream, err.Error())
			}
			return nil, io.EOF
		}
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var frame stream.Frame
		if err := json.Unmarshal(line, &frame); err != nil {
			logutil.GetLogger(ctx).Warn("malformed frame dropped",
				zap.Error(fmt.Errorf("%w: %s", appErr.ErrStreamProtocol, err.Error())))
			continue
		}
		return &frame, nil
	}
}

func (s *ndjsonSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.body.Close()
}
