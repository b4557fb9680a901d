// Package quizbuild turns free-text language-model output into quiz records.
package quizbuild

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"pdf-quiz-service/internal/domain"
)

var errEmptyResponse = errors.New("empty model response")

// valueBrace matches text ending in `"key":`, i.e. a first '{' that opens a
// value rather than the payload itself.
var valueBrace = regexp.MustCompile(`"\s*:\s*$`)

// Extract isolates the JSON object embedded in a model response. It tries,
// in order: the text from the first '{' when it already ends with '}';
// the whole text with stray commas stripped and wrapped in braces; the
// same with any preamble before the first '"' dropped; the text from the
// first '{' to the last '}' when prose follows it. A first '{' that is the
// value of a key is never taken as the payload boundary. When every
// attempt fails it returns a *domain.ParseError carrying the trimmed text.
//
// A bare question object ({"mcq": ..., "options": ...}) is returned as a
// one-entry payload.
func Extract(raw string) (Payload, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, &domain.ParseError{Text: trimmed, Err: errEmptyResponse}
	}

	candidate := ""
	if i := strings.IndexByte(trimmed, '{'); i >= 0 && !valueBrace.MatchString(trimmed[:i]) {
		candidate = trimmed[i:]
	}

	var lastErr error
	if candidate != "" && strings.HasSuffix(candidate, "}") {
		p, err := decodePayload([]byte(candidate))
		if err == nil {
			return p, nil
		}
		lastErr = err
	}

	p, err := decodeFragment(trimmed)
	if err == nil {
		return p, nil
	}
	lastErr = err

	if i := strings.IndexByte(trimmed, '"'); i > 0 {
		p, err := decodeFragment(trimmed[i:])
		if err == nil {
			return p, nil
		}
	}

	if candidate != "" {
		end := strings.LastIndexByte(candidate, '}')
		if end > 0 && strings.Trim(candidate[end+1:], fragmentCutset) != "" {
			p, err := decodePayload([]byte(candidate[:end+1]))
			if err == nil {
				return p, nil
			}
			lastErr = err
		}
	}

	return nil, &domain.ParseError{Text: trimmed, Err: lastErr}
}

const fragmentCutset = ", \t\r\n"

// decodeFragment wraps a brace-less `"1": {...},` fragment in braces.
func decodeFragment(text string) (Payload, error) {
	return decodePayload([]byte("{" + strings.Trim(text, fragmentCutset) + "}"))
}

func decodePayload(data []byte) (Payload, error) {
	p, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	return shapePayload(data, p), nil
}

// shapePayload strips a {"quiz": {...}} envelope and lifts a bare question
// object into a one-entry payload.
func shapePayload(data []byte, p Payload) Payload {
	if len(p) == 1 && strings.EqualFold(p[0].Key, "quiz") && isObject(p[0].Value) {
		if inner, err := decodeObject(p[0].Value); err == nil {
			return shapePayload(p[0].Value, inner)
		}
		return p
	}
	if isBareQuestion(p) {
		return Payload{{Key: "1", Value: json.RawMessage(bytes.TrimSpace(data))}}
	}
	return p
}

func isBareQuestion(p Payload) bool {
	if _, ok := p.Get("options"); !ok {
		return false
	}
	for _, name := range promptFields {
		if _, ok := p.Get(name); ok {
			return true
		}
	}
	return false
}
