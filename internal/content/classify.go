package content

import (
	"strings"

	"codescout/internal/model"
)

// Classify inspects the accumulated text and decides how it should render.
// Parse failure is never an error: partially-streamed JSON stays type
// "message" until a later frame completes it.
func Classify(fullContent string) model.ParsedContent {
	trimmed := strings.TrimSpace(fullContent)
	if trimmed == "" {
		return model.ParsedContent{Type: model.ParsedTypeMessage, Data: fullContent, Text: fullContent}
	}

	if obj, ok := parseObject(stripCodeFence(trimmed)); ok {
		if isInputRequired(obj) {
			question, _ := obj["question"].(string)
			return model.ParsedContent{
				Type: model.ParsedTypeInputRequired,
				Data: obj,
				Text: question,
			}
		}
		return model.ParsedContent{Type: model.ParsedTypeArtifact, Data: obj, Text: trimmed}
	}

	// An input_required fragment may be embedded inside free-form prose.
	for _, span := range scanJSONObjects(trimmed) {
		obj, ok := parseObject(span.Raw)
		if !ok || !isInputRequired(obj) {
			continue
		}
		question, _ := obj["question"].(string)
		prose := strings.TrimSpace(trimmed[:span.Start] + trimmed[span.End:])
		prose = stripFenceResidue(prose)
		text := prose
		if text == "" {
			text = question
		} else if !strings.Contains(text, question) {
			text = text + "\n" + question
		}
		return model.ParsedContent{
			Type: model.ParsedTypeInputRequired,
			Data: obj,
			Text: text,
		}
	}

	return model.ParsedContent{Type: model.ParsedTypeMessage, Data: fullContent, Text: fullContent}
}

// stripFenceResidue removes code-fence markers left dangling after an
// embedded JSON fragment has been cut out of the prose.
func stripFenceResidue(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
