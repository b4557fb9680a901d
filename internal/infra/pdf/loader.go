package pdf

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/documentloaders"

	"pdf-quiz-service/internal/domain"
)

// Loader reads PDFs in process with langchaingo's PDF loader.
type Loader struct {
	assembler Assembler
	log       zerolog.Logger
}

func NewLoader(assembler Assembler, log zerolog.Logger) *Loader {
	return &Loader{assembler: assembler, log: log.With().Str("component", "pdf_loader").Logger()}
}

func (l *Loader) LoadContext(ctx context.Context, doc domain.Document) (text string, err error) {
	f, err := os.Open(doc.Path)
	if err != nil {
		return "", &domain.ExtractionError{Path: doc.Path, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", &domain.ExtractionError{Path: doc.Path, Err: err}
	}

	// The underlying PDF reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", &domain.ExtractionError{Path: doc.Path, Err: fmt.Errorf("malformed pdf: %v", r)}
		}
	}()

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return "", &domain.ExtractionError{Path: doc.Path, Err: err}
	}
	text, err = l.assembler.Assemble(ctx, pages)
	if err != nil {
		return "", &domain.ExtractionError{Path: doc.Path, Err: err}
	}
	l.log.Debug().Str("document", doc.Name).Int("pages", len(pages)).Int("chars", len(text)).Msg("pdf extracted")
	return text, nil
}
