package stream

import (
	"context"
	"io"
)

// FrameSource yields protocol frames strictly in arrival order. Next returns
// io.EOF once the stream ends. Close releases the underlying transport and
// must be safe to call on every exit path.
type FrameSource interface {
	Next(ctx context.Context) (*Frame, error)
	Close() error
}

// SliceSource replays a fixed frame sequence; used by tests and the agent
// client's error path.
type SliceSource struct {
	frames []*Frame
	pos    int
}

func NewSliceSource(frames ...*Frame) *SliceSource {
	return &SliceSource{frames: frames}
}

func (s *SliceSource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	frame := s.frames[s.pos]
	s.pos++
	return frame, nil
}

func (s *SliceSource) Close() error {
	return nil
}
