package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz-service/internal/domain"
)

// PdftotextLoader shells out to poppler's pdftotext, which copes with more
// real-world PDFs than the pure Go reader. Pages are split on form feeds.
type PdftotextLoader struct {
	binary    string
	assembler Assembler
	log       zerolog.Logger
}

func NewPdftotextLoader(binary string, assembler Assembler, log zerolog.Logger) *PdftotextLoader {
	if binary == "" {
		binary = "pdftotext"
	}
	return &PdftotextLoader{binary: binary, assembler: assembler, log: log.With().Str("component", "pdftotext").Logger()}
}

func (l *PdftotextLoader) LoadContext(ctx context.Context, doc domain.Document) (string, error) {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, l.binary, "-enc", "UTF-8", doc.Path, "-")
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return "", &domain.ExtractionError{Path: doc.Path, Err: fmt.Errorf("pdftotext failed: %w: %s", err, strings.TrimSpace(stderr.String()))}
	}

	pages := splitPages(string(output))
	text, err := l.assembler.Assemble(ctx, pages)
	if err != nil {
		return "", &domain.ExtractionError{Path: doc.Path, Err: err}
	}
	l.log.Debug().Str("document", doc.Name).Int("pages", len(pages)).Int("chars", len(text)).Msg("pdf extracted")
	return text, nil
}

func splitPages(output string) []schema.Document {
	raw := strings.Split(output, "\f")
	pages := make([]schema.Document, 0, len(raw))
	for i, page := range raw {
		page = strings.TrimSpace(page)
		if page == "" {
			continue
		}
		pages = append(pages, schema.Document{
			PageContent: page,
			Metadata:    map[string]any{"page": strconv.Itoa(i + 1)},
		})
	}
	return pages
}
