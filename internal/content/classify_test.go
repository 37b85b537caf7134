package content

import (
	"testing"

	"github.com/stretchr/testify/require"

	"codescout/internal/model"
)

func TestClassifyPlainMessage(t *testing.T) {
	parsed := Classify("I found three matching functions in the repository.")
	require.Equal(t, model.ParsedTypeMessage, parsed.Type)
	require.Equal(t, "I found three matching functions in the repository.", parsed.Text)
}

func TestClassifyEmpty(t *testing.T) {
	parsed := Classify("")
	require.Equal(t, model.ParsedTypeMessage, parsed.Type)
	require.Equal(t, "", parsed.Text)
}

func TestClassifyInputRequiredWholeObject(t *testing.T) {
	parsed := Classify(`{"status": "input_required", "question": "Which branch?"}`)
	require.Equal(t, model.ParsedTypeInputRequired, parsed.Type)
	require.Equal(t, "Which branch?", parsed.Text)
	obj, ok := parsed.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "input_required", obj["status"])
}

func TestClassifyInputRequiredFenced(t *testing.T) {
	parsed := Classify("```json\n{\"status\": \"input_required\", \"question\": \"Which branch?\"}\n```")
	require.Equal(t, model.ParsedTypeInputRequired, parsed.Type)
	require.Equal(t, "Which branch?", parsed.Text)
}

func TestClassifyInputRequiredEmbeddedInProse(t *testing.T) {
	text := "I need one more detail before searching.\n" +
		`{"status": "input_required", "question": "Which branch?"}`
	parsed := Classify(text)
	require.Equal(t, model.ParsedTypeInputRequired, parsed.Type)
	require.Equal(t, "I need one more detail before searching.\nWhich branch?", parsed.Text)
}

func TestClassifyInputRequiredProseAlreadyContainsQuestion(t *testing.T) {
	text := "Which branch? Please tell me.\n" +
		`{"status": "input_required", "question": "Which branch?"}`
	parsed := Classify(text)
	require.Equal(t, model.ParsedTypeInputRequired, parsed.Type)
	// Question is not appended a second time.
	require.Equal(t, "Which branch? Please tell me.", parsed.Text)
}

func TestClassifyGenericObject(t *testing.T) {
	parsed := Classify(`{"total_files": 12, "languages": ["go"]}`)
	require.Equal(t, model.ParsedTypeArtifact, parsed.Type)
}

func TestClassifyPartialJSONStaysMessage(t *testing.T) {
	// Mid-stream JSON that has not finished arriving.
	partial := `{"status": "input_requ`
	parsed := Classify(partial)
	require.Equal(t, model.ParsedTypeMessage, parsed.Type)
	require.Equal(t, partial, parsed.Text)
}

func TestClassifyInputRequiredWithoutQuestionIsNotPrompt(t *testing.T) {
	parsed := Classify(`{"status": "input_required"}`)
	require.Equal(t, model.ParsedTypeArtifact, parsed.Type)
}
