package pdf

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/schema"

	"pdf-quiz-service/internal/domain"
)

func TestAssembleDropsDuplicatePages(t *testing.T) {
	pages := []schema.Document{
		{PageContent: "Header page"},
		{PageContent: "Photosynthesis converts light into chemical energy."},
		{PageContent: "Header page"},
		{PageContent: "Chlorophyll absorbs mostly blue and red light."},
	}

	text, err := NewAssembler(DefaultChunkSize, DefaultChunkOverlap).Assemble(context.Background(), pages)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	want := "Header page\nPhotosynthesis converts light into chemical energy.\nChlorophyll absorbs mostly blue and red light."
	if text != want {
		t.Fatalf("unexpected context:\n%s", text)
	}
}

func TestAssembleSplitsLongPages(t *testing.T) {
	page := strings.Repeat("lorem ipsum dolor sit amet ", 300)
	text, err := NewAssembler(500, 50).Assemble(context.Background(), []schema.Document{{PageContent: page}})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	chunks := strings.Split(text, "\n")
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 500 {
			t.Fatalf("chunk %d has %d chars", i, len(c))
		}
	}
}

func TestNewAssemblerFallsBackOnBadSizes(t *testing.T) {
	text, err := NewAssembler(0, -1).Assemble(context.Background(), []schema.Document{{PageContent: "short"}})
	if err != nil || text != "short" {
		t.Fatalf("expected defaults to keep short text intact, got %q (%v)", text, err)
	}
}

func TestSplitPages(t *testing.T) {
	pages := splitPages("first page\n\fsecond page\n\f\n\f")
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[1].PageContent != "second page" || pages[1].Metadata["page"] != "2" {
		t.Fatalf("unexpected second page %+v", pages[1])
	}
}

func TestLoaderRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fake.pdf")
	if err := os.WriteFile(path, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	loader := NewLoader(NewAssembler(DefaultChunkSize, DefaultChunkOverlap), zerolog.Nop())
	_, err := loader.LoadContext(context.Background(), domain.Document{Name: "fake.pdf", Path: path})
	if !errors.Is(err, domain.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}

func TestLoaderMissingFile(t *testing.T) {
	loader := NewLoader(NewAssembler(DefaultChunkSize, DefaultChunkOverlap), zerolog.Nop())
	_, err := loader.LoadContext(context.Background(), domain.Document{Path: filepath.Join(t.TempDir(), "gone.pdf")})
	var extractErr *domain.ExtractionError
	if !errors.As(err, &extractErr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestPdftotextLoaderMissingBinary(t *testing.T) {
	loader := NewPdftotextLoader(filepath.Join(t.TempDir(), "no-such-pdftotext"), NewAssembler(DefaultChunkSize, DefaultChunkOverlap), zerolog.Nop())
	_, err := loader.LoadContext(context.Background(), domain.Document{Path: "whatever.pdf"})
	if !errors.Is(err, domain.ErrExtractionFailure) {
		t.Fatalf("expected extraction failure, got %v", err)
	}
}
