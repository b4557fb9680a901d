// Package pdf extracts the context text fed to the language model from
// uploaded PDF files.
package pdf

import (
	"context"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	DefaultChunkSize    = 2000
	DefaultChunkOverlap = 200
)

// Assembler turns page documents into one context string: identical pages
// are dropped (first occurrence kept), the rest is split into overlapping
// chunks and the chunks are joined with newlines.
type Assembler struct {
	splitter textsplitter.TextSplitter
}

func NewAssembler(chunkSize, chunkOverlap int) Assembler {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return Assembler{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
	}
}

func (a Assembler) Assemble(_ context.Context, pages []schema.Document) (string, error) {
	chunks, err := textsplitter.SplitDocuments(a.splitter, dedupePages(pages))
	if err != nil {
		return "", err
	}
	var out []byte
	for i, c := range chunks {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, c.PageContent...)
	}
	return string(out), nil
}

func dedupePages(pages []schema.Document) []schema.Document {
	seen := make(map[string]struct{}, len(pages))
	out := make([]schema.Document, 0, len(pages))
	for _, p := range pages {
		if _, dup := seen[p.PageContent]; dup {
			continue
		}
		seen[p.PageContent] = struct{}{}
		out = append(out, p)
	}
	return out
}
