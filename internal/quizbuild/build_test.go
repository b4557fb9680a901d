package quizbuild

import (
	"strconv"
	"testing"

	"pdf-quiz-service/internal/domain"
)

const validQuestion = `{"mcq": "What is 2 + 2?", "options": {"a": "3", "b": "4", "c": "5", "d": "22"}, "correct": "b"}`

func TestBuildAlwaysReturnsNSequentialIDs(t *testing.T) {
	payloads := map[string]Payload{
		"empty":   nil,
		"shorter": mustExtract(t, `{"q7": `+validQuestion+`}`),
		"longer":  mustExtract(t, `{"1": `+validQuestion+`, "2": `+validQuestion+`, "3": `+validQuestion+`, "4": `+validQuestion+`}`),
		"junk":    mustExtract(t, `{"x": 1, "y": "two", "z": null}`),
	}
	for name, payload := range payloads {
		for n := 1; n <= 5; n++ {
			record := Build(payload, n)
			if record.Len() != n {
				t.Fatalf("%s n=%d: expected %d entries, got %d", name, n, n, record.Len())
			}
			for i, q := range record.Questions {
				if q.ID != strconv.Itoa(i+1) {
					t.Fatalf("%s n=%d: expected id %d at position %d, got %s", name, n, i+1, i, q.ID)
				}
			}
		}
	}
}

func TestBuildPadsAfterValidEntries(t *testing.T) {
	payload := mustExtract(t, `{
		"1": {"mcq": "First?", "options": {"a": "x", "b": "y", "c": "z", "d": "w"}, "correct": "c"},
		"2": {"mcq": "Second?", "options": {"a": "x", "b": "y", "c": "z", "d": "w"}, "correct": "A"}
	}`)

	record := Build(payload, 5)
	for i := 0; i < 2; i++ {
		if !record.Questions[i].Valid() {
			t.Fatalf("expected question %d valid, got %+v", i+1, record.Questions[i])
		}
	}
	if record.Questions[0].Prompt != "First?" || record.Questions[1].Prompt != "Second?" {
		t.Fatalf("expected original order, got %q, %q", record.Questions[0].Prompt, record.Questions[1].Prompt)
	}
	if record.Questions[1].Correct != "a" {
		t.Fatalf("expected correct label normalized to a, got %q", record.Questions[1].Correct)
	}
	for i := 2; i < 5; i++ {
		q := record.Questions[i]
		if q.Status != domain.StatusMalformed || q.Raw != "" {
			t.Fatalf("expected padded malformed question at %d, got %+v", i+1, q)
		}
	}
}

func TestBuildMissingOptionsIsMalformed(t *testing.T) {
	payload := mustExtract(t, `{"1": {"mcq": "No options?", "correct": "a"}, "2": `+validQuestion+`}`)

	record := Build(payload, 3)
	first := record.Questions[0]
	if first.Status != domain.StatusMalformed || first.Error != reasonMissingOptions {
		t.Fatalf("expected missing options marker, got %+v", first)
	}
	if first.Raw == "" || first.SourceKey != "1" {
		t.Fatalf("expected raw fragment and source key retained, got %+v", first)
	}
	if !record.Questions[1].Valid() {
		t.Fatalf("expected second question valid, got %+v", record.Questions[1])
	}
	if record.Questions[2].Status != domain.StatusMalformed || record.Questions[2].Raw != "" {
		t.Fatalf("expected third slot synthesized, got %+v", record.Questions[2])
	}
}

func TestBuildIgnoresEntriesPastTarget(t *testing.T) {
	payload := mustExtract(t, `{"1": `+validQuestion+`, "2": {"broken": true}, "3": `+validQuestion+`}`)

	record := Build(payload, 2)
	if record.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", record.Len())
	}
	if record.Questions[1].Status != domain.StatusMalformed || record.Questions[1].SourceKey != "2" {
		t.Fatalf("expected the malformed second entry to take the slot, got %+v", record.Questions[1])
	}
}

func TestBuildNormalizesText(t *testing.T) {
	payload := mustExtract(t, `{"1": {"mcq": "  Quelle est la capitale de la Cote d'Ivoire ? é ", "options": {"A": " Yamoussoukro ", "B": "Abidjàn"}, "correct": " B) "}}`)

	q := Build(payload, 1).Questions[0]
	if !q.Valid() {
		t.Fatalf("expected valid question, got %+v", q)
	}
	if q.Prompt != "Quelle est la capitale de la Cote d'Ivoire ? e" {
		t.Fatalf("unexpected prompt %q", q.Prompt)
	}
	if q.Options[0].Label != "a" || q.Options[0].Text != "Yamoussoukro" {
		t.Fatalf("unexpected first option %+v", q.Options[0])
	}
	if q.Options[1].Text != "Abidjan" || q.Correct != "b" {
		t.Fatalf("unexpected second option %+v correct=%q", q.Options[1], q.Correct)
	}
}

func TestBuildAcceptsOptionArraysAndAnswerText(t *testing.T) {
	payload := mustExtract(t, `{"1": {"question": "Pick four", "options": ["one", "two", 3, "four"], "correct": "four"}}`)

	q := Build(payload, 1).Questions[0]
	if !q.Valid() {
		t.Fatalf("expected valid question, got %+v", q)
	}
	if len(q.Options) != 4 || q.Options[2].Label != "c" || q.Options[2].Text != "3" {
		t.Fatalf("unexpected options %+v", q.Options)
	}
	if q.Correct != "d" {
		t.Fatalf("expected answer text resolved to d, got %q", q.Correct)
	}
}

func TestBuildMatchesDecoratedLabels(t *testing.T) {
	cases := map[string]string{
		`{"mcq": "Q", "options": {"A)": "x", "B)": "y"}, "correct": "A"}`:               "a",
		`{"mcq": "Q", "options": {"(a)": "x", "(b)": "y"}, "correct": "b)"}`:            "b",
		`{"mcq": "Q", "options": {"a": "x", "b": "y"}, "correct": "Correct answer: B"}`: "b",
		`{"mcq": "Q", "options": {"a": "x", "b": "y"}, "correct": "Answer: y"}`:         "b",
	}
	for fragment, want := range cases {
		q := Build(Payload{{Key: "1", Value: []byte(fragment)}}, 1).Questions[0]
		if !q.Valid() || q.Correct != want {
			t.Fatalf("fragment %s: expected valid answer %q, got %+v", fragment, want, q)
		}
		if q.Options[0].Label != "a" {
			t.Fatalf("fragment %s: expected plain labels, got %+v", fragment, q.Options)
		}
	}
}

func TestBuildMalformedReasons(t *testing.T) {
	cases := map[string]string{
		`"just text"`:                                                             reasonNotObject,
		`{"options": {"a": "x", "b": "y"}, "correct": "a"}`:                       reasonMissingPrompt,
		`{"mcq": "Q", "options": "a) x b) y", "correct": "a"}`:                    reasonBadOptions,
		`{"mcq": "Q", "options": {"a": "x"}, "correct": "a"}`:                     reasonFewOptions,
		`{"mcq": "Q", "options": {"a": "x", "b": "y"}}`:                           reasonMissingCorrect,
		`{"mcq": "Q", "options": {"a": "x", "b": "y"}, "correct": "e"}`:           reasonUnknownCorrect,
		`{"mcq": "Q", "options": {"a": {"nested": 1}, "b": "y"}, "correct": "a"}`: reasonBadOptions,
	}
	for fragment, reason := range cases {
		payload := Payload{{Key: "1", Value: []byte(fragment)}}
		q := Build(payload, 1).Questions[0]
		if q.Status != domain.StatusMalformed || q.Error != reason {
			t.Fatalf("fragment %s: expected %q, got %+v", fragment, reason, q)
		}
		if q.Raw != fragment {
			t.Fatalf("fragment %s: expected raw retained, got %q", fragment, q.Raw)
		}
	}
}

func TestBuildTreatsNonPositiveCountAsOne(t *testing.T) {
	if got := Build(nil, 0).Len(); got != 1 {
		t.Fatalf("expected 1 entry, got %d", got)
	}
}

func mustExtract(t *testing.T, raw string) Payload {
	t.Helper()
	p, err := Extract(raw)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return p
}
