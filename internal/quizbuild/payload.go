package quizbuild

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNotObject = errors.New("payload is not a JSON object")

// Entry is one top-level key of a model payload with its undecoded value.
type Entry struct {
	Key   string
	Value json.RawMessage
}

// Payload is a JSON object decoded with its key order preserved.
type Payload []Entry

// Get returns the value for key, matched case-insensitively.
func (p Payload) Get(key string) (json.RawMessage, bool) {
	for _, e := range p {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// decodeObject parses data as exactly one JSON object. A repeated key keeps
// its first position and takes the last value.
func decodeObject(data []byte) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	var out Payload
	index := make(map[string]int)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		if i, dup := index[key]; dup {
			out[i].Value = raw
			continue
		}
		index[key] = len(out)
		out = append(out, Entry{Key: key, Value: raw})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON object")
	}
	return out, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
