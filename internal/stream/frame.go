package stream

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Frame is one protocol message in an agent response stream. Content is kept
// raw because agents send both plain strings and structured objects.
type Frame struct {
	ResponseType     string          `json:"response_type,omitempty"`
	IsTaskComplete   bool            `json:"is_task_complete"`
	RequireUserInput bool            `json:"require_user_input"`
	Content          json.RawMessage `json:"content,omitempty"`
	Error            string          `json:"error,omitempty"`
	Type             string          `json:"type,omitempty"`
	Response         json.RawMessage `json:"response,omitempty"`
}

// TypeFinalResult marks the alternative terminal frame shape.
const TypeFinalResult = "final_result"

func (f *Frame) Terminal() bool {
	return f.IsTaskComplete || f.Type == TypeFinalResult
}

func (f *Frame) HasContent() bool {
	return len(bytes.TrimSpace(f.Content)) > 0 && !bytes.Equal(bytes.TrimSpace(f.Content), []byte("null"))
}

// ContentText renders the content for accumulation: a JSON string decodes to
// its value, anything else keeps its raw JSON form.
func (f *Frame) ContentText() string {
	return rawText(f.Content)
}

// ContentObject returns the content as a structured object when it is one.
func (f *Frame) ContentObject() (map[string]interface{}, bool) {
	raw := bytes.TrimSpace(f.Content)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// ResponseText renders the final_result payload, empty when absent.
func (f *Frame) ResponseText() string {
	return rawText(f.Response)
}

func rawText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	return strings.TrimSpace(string(trimmed))
}
