package content

import (
	"encoding/json"
	"strings"
)

// ProcessingPredicate decides whether a streamed fragment is a progress/status
// message rather than genuine partial content. The boundary is heuristic;
// callers log what the predicate matched so misclassifications are visible.
type ProcessingPredicate struct {
	Name  string
	Match func(text string) bool
}

// Progress-verb vocabulary observed in agent status fragments.
var processingKeywords = []string{
	"processing",
	"analyzing",
	"searching",
	"scanning",
	"loading",
	"generating",
	"executing",
	"running",
	"fetching",
	"retrieving",
	"indexing",
	"building",
	"preparing",
	"working on",
	"starting",
	"completed task",
}

// DefaultProcessingPredicate matches fragments that lead with a progress verb
// or that are themselves a JSON task-list shape (optionally fenced).
var DefaultProcessingPredicate = ProcessingPredicate{
	Name: "keyword+tasklist",
	Match: func(text string) bool {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return false
		}
		lower := strings.ToLower(trimmed)
		for _, keyword := range processingKeywords {
			if strings.HasPrefix(lower, keyword) {
				return true
			}
		}
		// Trailing ellipsis with a progress verb anywhere reads as status.
		if strings.HasSuffix(lower, "...") {
			for _, keyword := range processingKeywords {
				if strings.Contains(lower, keyword) {
					return true
				}
			}
		}
		return isTaskListShape(trimmed)
	},
}

// isTaskListShape reports whether the text (after stripping a code fence) is a
// JSON task list: an array of task objects, or an object with a "tasks" list.
func isTaskListShape(text string) bool {
	stripped := stripCodeFence(text)
	if stripped == "" {
		return false
	}
	switch stripped[0] {
	case '[':
		var items []map[string]interface{}
		if err := json.Unmarshal([]byte(stripped), &items); err != nil {
			return false
		}
		if len(items) == 0 {
			return false
		}
		for _, item := range items {
			if _, ok := item["description"]; ok {
				continue
			}
			if _, ok := item["task"]; ok {
				continue
			}
			return false
		}
		return true
	case '{':
		obj, ok := parseObject(stripped)
		if !ok {
			return false
		}
		if _, ok := obj["tasks"].([]interface{}); ok {
			return true
		}
		return false
	}
	return false
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
