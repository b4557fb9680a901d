package app

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/tmc/langchaingo/prompts"

	"pdf-quiz-service/internal/domain"
)

const quizPromptTemplate = `Generate exactly {{.num_questions}} multiple-choice questions (MCQs) based on the provided context.
Each question must include:
- A question statement.
- Four answer options labeled a, b, c and d, exactly one of them correct.
- The label of the correct option.

Reply with a single JSON object and nothing else. Key the questions "1", "2", ... and give each one the fields "mcq", "options" and "correct".{{if .response_json}}
Follow this format:
{{.response_json}}{{end}}

Context: {{.context}}

Questions (with answers):
`

var quizPrompt = prompts.NewPromptTemplate(quizPromptTemplate, []string{"context", "num_questions", "response_json"})

// BuildPrompt renders the generation prompt. hint may be empty.
func BuildPrompt(contextText string, numQuestions int, hint string) (string, error) {
	out, err := quizPrompt.Format(map[string]any{
		"context":       contextText,
		"num_questions": numQuestions,
		"response_json": hint,
	})
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return out, nil
}

// LoadHint reads the formatting hint at path and returns it as compact
// JSON. An empty path disables the hint. A missing file yields an error
// wrapping domain.ErrMissingHintFile; callers treat every error here as a
// notice and continue with an empty hint.
func LoadHint(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", domain.ErrMissingHintFile, path)
	}
	if err != nil {
		return "", fmt.Errorf("read formatting hint: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		return "", fmt.Errorf("formatting hint %s is not valid JSON: %w", path, err)
	}
	return buf.String(), nil
}
