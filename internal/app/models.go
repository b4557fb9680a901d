package app

import (
	"fmt"
	"strings"

	"pdf-quiz-service/internal/domain"
)

// ModelOption is one entry of the model allow-list.
type ModelOption struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
}

// ModelCatalog is the set of models a user may pick from.
type ModelCatalog struct {
	Options []ModelOption
	Default string
}

// DefaultModels mirrors the selector offered to users out of the box.
func DefaultModels() []ModelOption {
	return []ModelOption{
		{Name: "Ollama (Llama3.2)", ID: "llama3.2:latest"},
		{Name: "Google Gemma2 (2B)", ID: "gemma2:2b"},
		{Name: "Microsoft Phi 3 Mini (3.8B)", ID: "phi3"},
	}
}

// Resolve maps a requested model (display name or id) to an allowed model
// id. An empty request selects the default.
func (c ModelCatalog) Resolve(requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		requested = c.Default
	}
	for _, opt := range c.Options {
		if opt.ID == requested || strings.EqualFold(opt.Name, requested) {
			return opt.ID, nil
		}
	}
	return "", fmt.Errorf("%w: %q", domain.ErrModelNotAllowed, requested)
}
