package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/llms"
)

func TestGenerateSendsPromptAndTemperature(t *testing.T) {
	fake := &fakeModel{reply: `{"1": {"mcq": "Q?"}}`}
	var built []string
	client := NewClientWithFactory(func(model string) (llms.Model, error) {
		built = append(built, model)
		return fake, nil
	}, 0.3, zerolog.Nop())

	for i := 0; i < 2; i++ {
		out, err := client.Generate(context.Background(), "phi3", "make a quiz")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if out != fake.reply {
			t.Fatalf("unexpected reply %q", out)
		}
	}
	if len(built) != 1 || built[0] != "phi3" {
		t.Fatalf("expected one model handle for phi3, built %v", built)
	}
	if fake.prompt != "make a quiz" {
		t.Fatalf("unexpected prompt %q", fake.prompt)
	}
	if fake.temperature != 0.3 {
		t.Fatalf("expected temperature 0.3, got %v", fake.temperature)
	}
}

func TestGenerateWrapsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	client := NewClientWithFactory(func(string) (llms.Model, error) {
		return &fakeModel{err: boom}, nil
	}, 0, zerolog.Nop())
	if _, err := client.Generate(context.Background(), "phi3", "p"); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}

	empty := NewClientWithFactory(func(string) (llms.Model, error) {
		return &fakeModel{noChoices: true}, nil
	}, 0, zerolog.Nop())
	if _, err := empty.Generate(context.Background(), "phi3", "p"); !errors.Is(err, errEmptyCompletion) {
		t.Fatalf("expected empty completion error, got %v", err)
	}

	broken := NewClientWithFactory(func(string) (llms.Model, error) {
		return nil, boom
	}, 0, zerolog.Nop())
	if _, err := broken.Generate(context.Background(), "phi3", "p"); !errors.Is(err, boom) {
		t.Fatalf("expected factory error, got %v", err)
	}
}

func TestNewClientRejectsUnknownProvider(t *testing.T) {
	if _, err := NewClient(Config{Provider: "carrier-pigeon"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestOllamaProviderTalksToServer(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		buf := new(strings.Builder)
		_, _ = io.Copy(buf, r.Body)
		gotBody = buf.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"phi3","created_at":"2024-01-01T00:00:00Z","message":{"role":"assistant","content":"quiz text"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Provider: ProviderOllama, BaseURL: srv.URL}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.Generate(context.Background(), "phi3", "make a quiz")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "quiz text" {
		t.Fatalf("unexpected reply %q", out)
	}
	if gotPath != "/api/chat" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotBody, "make a quiz") || !strings.Contains(gotBody, `"phi3"`) {
		t.Fatalf("prompt or model missing from request: %s", gotBody)
	}
}

type fakeModel struct {
	reply       string
	err         error
	noChoices   bool
	prompt      string
	temperature float64
}

func (f *fakeModel) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	opts := llms.CallOptions{}
	for _, o := range options {
		o(&opts)
	}
	f.temperature = opts.Temperature
	for _, m := range messages {
		for _, part := range m.Parts {
			if text, ok := part.(llms.TextContent); ok {
				f.prompt = text.Text
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.noChoices {
		return &llms.ContentResponse{}, nil
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.reply}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}
