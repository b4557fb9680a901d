package quizbuild

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pdf-quiz-service/internal/domain"
	"pdf-quiz-service/internal/textnorm"
)

const (
	reasonNotObject      = "question is not an object"
	reasonMissingPrompt  = "missing question text"
	reasonMissingOptions = "missing options"
	reasonBadOptions     = "options are not a list of answers"
	reasonFewOptions     = "fewer than two options"
	reasonMissingCorrect = "missing correct answer"
	reasonUnknownCorrect = "correct answer does not match any option"
	reasonNotGenerated   = "question was not generated"
)

const minOptions = 2

var (
	promptFields = []string{"mcq", "question", "prompt"}
	optionLabels = "abcdefghij"
)

// Build turns a payload into a record of exactly n questions (n < 1 counts
// as 1). Entries are read in payload order; anything unusable becomes a
// malformed question carrying its raw fragment. Entries past n are
// ignored and missing slots are padded with empty malformed questions.
// IDs are always "1".."n"; the payload's own key is kept as SourceKey.
func Build(p Payload, n int) domain.QuizRecord {
	if n < 1 {
		n = 1
	}
	questions := make([]domain.Question, 0, n)
	for _, e := range p {
		if len(questions) == n {
			break
		}
		questions = append(questions, buildQuestion(nextID(questions), e))
	}
	for len(questions) < n {
		questions = append(questions, domain.NewMalformedQuestion(nextID(questions), "", reasonNotGenerated, ""))
	}
	return domain.QuizRecord{Questions: questions}
}

func nextID(questions []domain.Question) string {
	return strconv.Itoa(len(questions) + 1)
}

func buildQuestion(id string, e Entry) domain.Question {
	raw := string(bytes.TrimSpace(e.Value))
	malformed := func(reason string) domain.Question {
		return domain.NewMalformedQuestion(id, e.Key, reason, raw)
	}

	if !isObject(e.Value) {
		return malformed(reasonNotObject)
	}
	fields, err := decodeObject(e.Value)
	if err != nil {
		return malformed(reasonNotObject)
	}

	prompt := ""
	for _, name := range promptFields {
		if v, ok := fields.Get(name); ok {
			prompt = textField(v)
			break
		}
	}
	if prompt == "" {
		return malformed(reasonMissingPrompt)
	}

	rawOptions, ok := fields.Get("options")
	if !ok {
		return malformed(reasonMissingOptions)
	}
	options, err := parseOptions(rawOptions)
	if err != nil {
		return malformed(reasonBadOptions)
	}
	if len(options) < minOptions {
		return malformed(reasonFewOptions)
	}

	rawCorrect, ok := fields.Get("correct")
	if !ok {
		return malformed(reasonMissingCorrect)
	}
	correct := textField(rawCorrect)
	if correct == "" {
		return malformed(reasonMissingCorrect)
	}
	label, ok := matchCorrect(options, correct)
	if !ok {
		return malformed(reasonUnknownCorrect)
	}

	return domain.NewValidQuestion(id, e.Key, prompt, options, label)
}

// parseOptions accepts {"a": "...", ...} or ["...", ...]; array entries are
// labeled a, b, c... in order.
func parseOptions(raw json.RawMessage) ([]domain.Option, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []any
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		if len(items) > len(optionLabels) {
			return nil, fmt.Errorf("too many options: %d", len(items))
		}
		options := make([]domain.Option, 0, len(items))
		for i, item := range items {
			text, ok := optionText(item)
			if !ok {
				return nil, fmt.Errorf("option %d is not text", i)
			}
			options = append(options, domain.Option{Label: string(optionLabels[i]), Text: text})
		}
		return options, nil
	}

	entries, err := decodeObject(raw)
	if err != nil {
		return nil, err
	}
	options := make([]domain.Option, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		label := normalizeLabel(textnorm.String(entry.Key))
		if label == "" {
			return nil, fmt.Errorf("option with empty label")
		}
		var value any
		if err := json.Unmarshal(entry.Value, &value); err != nil {
			return nil, err
		}
		text, ok := optionText(value)
		if !ok {
			return nil, fmt.Errorf("option %q is not text", label)
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		options = append(options, domain.Option{Label: label, Text: text})
	}
	return options, nil
}

func optionText(v any) (string, bool) {
	switch val := textnorm.Value(v).(type) {
	case string:
		return val, val != ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// answerPrefixes are lead-ins models put before the answer itself, as in
// "Correct answer: A".
var answerPrefixes = []string{"correct answer is", "correct answer", "the answer is", "answer is", "answer"}

// matchCorrect resolves the model's answer to an option label. It accepts
// the label itself ("b", "B", "B)", "(b).", "Correct answer: B") or, failing
// that, the exact option text.
func matchCorrect(options []domain.Option, correct string) (string, bool) {
	candidates := []string{correct}
	lower := strings.ToLower(correct)
	for _, prefix := range answerPrefixes {
		if strings.HasPrefix(lower, prefix) {
			candidates = append(candidates, strings.TrimLeft(correct[len(prefix):], " :-"))
			break
		}
	}
	for _, c := range candidates {
		label := normalizeLabel(c)
		for _, opt := range options {
			if opt.Label == label {
				return opt.Label, true
			}
		}
	}
	for _, c := range candidates {
		for _, opt := range options {
			if strings.EqualFold(opt.Text, c) {
				return opt.Label, true
			}
		}
	}
	return "", false
}

// normalizeLabel folds "A)", "(a)" and "a." to "a".
func normalizeLabel(s string) string {
	return strings.ToLower(strings.Trim(s, " ().:"))
}

func textField(raw json.RawMessage) string {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return ""
	}
	s, ok := textnorm.Value(value).(string)
	if !ok {
		return ""
	}
	return s
}
