package content

import "encoding/json"

// jsonSpan is a balanced brace-delimited region of text.
type jsonSpan struct {
	Raw   string
	Start int
	End   int // exclusive
}

// scanJSONObjects finds top-level {...} regions in free-form text, honoring
// string literals and escapes so braces inside strings do not confuse the
// balance count. Regions that fail to parse are still returned; callers decide
// what to do with them.
func scanJSONObjects(text string) []jsonSpan {
	var spans []jsonSpan
	depth := 0
	start := -1
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					spans = append(spans, jsonSpan{Raw: text[start : i+1], Start: start, End: i + 1})
					start = -1
				}
			}
		}
	}
	return spans
}

func parseObject(raw string) (map[string]interface{}, bool) {
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// isInputRequired reports whether the parsed object is an input-required
// prompt: {"status": "input_required", "question": ...}.
func isInputRequired(obj map[string]interface{}) bool {
	status, _ := obj["status"].(string)
	if status != "input_required" {
		return false
	}
	question, ok := obj["question"].(string)
	return ok && question != ""
}
