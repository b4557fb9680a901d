package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pdf-quiz-service/internal/domain"
)

func TestContextCacheCaches(t *testing.T) {
	loader := &countingLoader{text: "page one\npage two"}
	cache := NewContextCache(loader, time.Minute)
	doc := domain.Document{Name: "a.pdf", Path: "/tmp/a.pdf", Digest: "abc"}

	for i := 0; i < 2; i++ {
		text, err := cache.LoadContext(context.Background(), doc)
		if err != nil {
			t.Fatalf("load context: %v", err)
		}
		if text != "page one\npage two" {
			t.Fatalf("unexpected text %q", text)
		}
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}

	renamed := domain.Document{Name: "b.pdf", Path: "/tmp/b.pdf", Digest: "abc"}
	if _, err := cache.LoadContext(context.Background(), renamed); err != nil {
		t.Fatalf("load renamed: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected digest hit for renamed upload, loader calls %d", loader.calls.Load())
	}
}

func TestContextCacheExpires(t *testing.T) {
	loader := &countingLoader{text: "text"}
	cache := NewContextCache(loader, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.clock = func() time.Time { return now }
	doc := domain.Document{Digest: "abc"}

	if _, err := cache.LoadContext(context.Background(), doc); err != nil {
		t.Fatalf("load: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := cache.LoadContext(context.Background(), doc); err != nil {
		t.Fatalf("load after expiry: %v", err)
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after expiry, loader calls %d", loader.calls.Load())
	}
}

func TestContextCacheDoesNotCacheErrors(t *testing.T) {
	loader := &countingLoader{err: &domain.ExtractionError{Path: "x.pdf", Err: errors.New("broken")}}
	cache := NewContextCache(loader, time.Minute)
	doc := domain.Document{Digest: "bad"}

	for i := 0; i < 2; i++ {
		if _, err := cache.LoadContext(context.Background(), doc); !errors.Is(err, domain.ErrExtractionFailure) {
			t.Fatalf("expected extraction failure, got %v", err)
		}
	}
	if loader.calls.Load() != 2 {
		t.Fatalf("expected errors to bypass cache, loader calls %d", loader.calls.Load())
	}
}

func TestContextCacheConcurrentLoads(t *testing.T) {
	loader := &countingLoader{text: "text", delay: 20 * time.Millisecond}
	cache := NewContextCache(loader, time.Minute)
	doc := domain.Document{Digest: "abc"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.LoadContext(context.Background(), doc); err != nil {
				t.Errorf("load: %v", err)
			}
		}()
	}
	wg.Wait()
	if got := loader.calls.Load(); got < 1 || got > 8 {
		t.Fatalf("unexpected loader calls %d", got)
	}
}

type countingLoader struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (l *countingLoader) LoadContext(_ context.Context, _ domain.Document) (string, error) {
	l.calls.Add(1)
	if l.delay > 0 {
		time.Sleep(l.delay)
	}
	if l.err != nil {
		return "", l.err
	}
	return l.text, nil
}
