package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pdf-quiz-service/internal/domain"
)

func TestBuildPromptIncludesHintWhenPresent(t *testing.T) {
	withHint, err := BuildPrompt("Cells divide by mitosis.", 4, `{"1":{"mcq":"..."}}`)
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	for _, want := range []string{"exactly 4 multiple-choice", "Follow this format:", `{"1":{"mcq":"..."}}`, "Context: Cells divide by mitosis."} {
		if !strings.Contains(withHint, want) {
			t.Fatalf("prompt missing %q:\n%s", want, withHint)
		}
	}

	withoutHint, err := BuildPrompt("Cells divide by mitosis.", 4, "")
	if err != nil {
		t.Fatalf("build prompt: %v", err)
	}
	if strings.Contains(withoutHint, "Follow this format:") {
		t.Fatalf("expected no format section without hint:\n%s", withoutHint)
	}
}

func TestLoadHint(t *testing.T) {
	dir := t.TempDir()

	if hint, err := LoadHint(""); err != nil || hint != "" {
		t.Fatalf("expected disabled hint, got %q %v", hint, err)
	}

	if _, err := LoadHint(filepath.Join(dir, "missing.json")); !errors.Is(err, domain.ErrMissingHintFile) {
		t.Fatalf("expected missing hint error, got %v", err)
	}

	good := filepath.Join(dir, "hint.json")
	if err := os.WriteFile(good, []byte("{\n  \"1\": {\n    \"mcq\": \"q\"\n  }\n}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	hint, err := LoadHint(good)
	if err != nil {
		t.Fatalf("load hint: %v", err)
	}
	if hint != `{"1":{"mcq":"q"}}` {
		t.Fatalf("expected compact hint, got %q", hint)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadHint(bad); err == nil || errors.Is(err, domain.ErrMissingHintFile) {
		t.Fatalf("expected invalid JSON error, got %v", err)
	}
}

func TestModelCatalogResolve(t *testing.T) {
	catalog := ModelCatalog{Options: DefaultModels(), Default: "gemma2:2b"}
	cases := map[string]string{
		"":                  "gemma2:2b",
		"phi3":              "phi3",
		"ollama (llama3.2)": "llama3.2:latest",
		" llama3.2:latest ": "llama3.2:latest",
	}
	for in, want := range cases {
		got, err := catalog.Resolve(in)
		if err != nil || got != want {
			t.Fatalf("Resolve(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := catalog.Resolve("mistral"); !errors.Is(err, domain.ErrModelNotAllowed) {
		t.Fatalf("expected not allowed, got %v", err)
	}
}
