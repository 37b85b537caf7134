package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"codescout/internal/content"
	"codescout/internal/model"
)

// Publisher receives every published message state. Implementations must not
// block; the assembler calls it on its own goroutine after each frame.
type Publisher func(model.Message)

// Assembler consumes one query's frame sequence and maintains the agent
// message's accumulation state. Exactly one assembler owns a message.
type Assembler struct {
	msg       model.Message
	predicate content.ProcessingPredicate
	publish   Publisher

	fullContent string
	rawObject   map[string]interface{}
	processing  []string
	errs        []string
	terminal    bool
}

type AssemblerOption func(*Assembler)

func WithPredicate(p content.ProcessingPredicate) AssemblerOption {
	return func(a *Assembler) {
		if p.Match != nil {
			a.predicate = p
		}
	}
}

func WithPublisher(p Publisher) AssemblerOption {
	return func(a *Assembler) {
		a.publish = p
	}
}

// NewAssembler wraps the streaming agent message. The message should already
// be in streaming status.
func NewAssembler(msg model.Message, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		msg:       msg,
		predicate: content.DefaultProcessingPredicate,
		publish:   func(model.Message) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run drains the source until a terminal frame, end of stream, cancellation,
// or a transport failure. The source is released on every exit path. The
// returned message is the final published state.
func (a *Assembler) Run(ctx context.Context, src FrameSource) (model.Message, error) {
	defer src.Close()
	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.finishComplete(ctx)
				return a.msg, nil
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Cancelled mid-stream: message stays visibly incomplete, no
				// rollback of partial state.
				logutil.GetLogger(ctx).Info("stream cancelled",
					zap.String("message_id", a.msg.ID), zap.Error(err))
				return a.msg, err
			}
			a.finishError(ctx, err)
			return a.msg, err
		}
		a.Consume(ctx, frame)
		if a.terminal {
			return a.msg, nil
		}
	}
}

// Consume applies one frame to the accumulator per the protocol rules.
func (a *Assembler) Consume(ctx context.Context, frame *Frame) {
	if frame == nil {
		return
	}
	logger := logutil.GetLogger(ctx).With(zap.String("message_id", a.msg.ID))

	if a.terminal {
		logger.Warn("frame after terminal condition dropped",
			zap.String("frame_type", frame.Type),
			zap.Bool("is_task_complete", frame.IsTaskComplete))
		return
	}

	if frame.Error != "" {
		a.errs = append(a.errs, frame.Error)
	}

	switch {
	case frame.Type == TypeFinalResult:
		a.fullContent = frame.ResponseText()
		a.rawObject = nil
		a.terminal = true

	case frame.IsTaskComplete && frame.HasContent():
		if obj, ok := frame.ContentObject(); ok {
			a.rawObject = obj
			if summary := summaryField(obj); summary != "" {
				a.fullContent = summary
			} else {
				a.fullContent = frame.ContentText()
			}
		} else {
			a.rawObject = nil
			a.fullContent = frame.ContentText()
		}
		a.terminal = true

	case frame.IsTaskComplete:
		// Terminal without content: keep whatever accumulated so far.
		a.terminal = true

	case frame.HasContent():
		text := frame.ContentText()
		if a.predicate.Match(text) {
			a.processing = append(a.processing, text)
			logger.Debug("processing fragment",
				zap.String("predicate", a.predicate.Name),
				zap.Int("count", len(a.processing)))
		} else {
			// Genuine partial content replaces, never concatenates.
			a.fullContent = text
		}
	}

	a.publishState(a.statusForNow())
}

func (a *Assembler) statusForNow() model.MessageStatus {
	if a.terminal {
		return model.StatusComplete
	}
	return model.StatusStreaming
}

// finishComplete handles a source that ended without an explicit terminal
// frame: whatever accumulated is the final answer.
func (a *Assembler) finishComplete(ctx context.Context) {
	a.terminal = true
	a.publishState(model.StatusComplete)
	logutil.GetLogger(ctx).Debug("stream complete",
		zap.String("message_id", a.msg.ID),
		zap.Int("processing_messages", len(a.processing)),
		zap.Int("errors", len(a.errs)))
}

// finishError marks the message failed; the formatted error replaces the
// content but collected partial state stays visible in metadata.
func (a *Assembler) finishError(ctx context.Context, err error) {
	a.terminal = true
	a.errs = append(a.errs, err.Error())
	a.fullContent = fmt.Sprintf("Error: %s", err.Error())
	a.rawObject = nil
	a.publishState(model.StatusError)
	logutil.GetLogger(ctx).Error("stream failed",
		zap.String("message_id", a.msg.ID), zap.Error(err))
}

// publishState recomputes parsed content and artifacts from the accumulated
// text and pushes the updated message.
func (a *Assembler) publishState(status model.MessageStatus) {
	parsed := content.Classify(a.fullContent)
	artifacts := content.Extract(a.fullContent, a.rawObject)

	a.msg.Content = a.fullContent
	a.msg.Status = status
	a.msg.Metadata = model.MessageMetadata{
		Artifacts:          artifacts,
		ParsedContent:      &parsed,
		ProcessingMessages: append([]string(nil), a.processing...),
		Errors:             append([]string(nil), a.errs...),
	}
	a.publish(a.msg)
}

// Message returns the current message state.
func (a *Assembler) Message() model.Message {
	return a.msg
}

// summaryField projects a structured terminal payload to its human-readable
// summary when one exists.
func summaryField(obj map[string]interface{}) string {
	for _, key := range []string{"summary", "response", "message"} {
		if value, ok := obj[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
