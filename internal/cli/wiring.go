package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"pdf-quiz-service/internal/app"
	"pdf-quiz-service/internal/config"
	"pdf-quiz-service/internal/infra/llm"
	"pdf-quiz-service/internal/infra/memory"
	"pdf-quiz-service/internal/infra/pdf"
	"pdf-quiz-service/internal/infra/postgres"
	rediscache "pdf-quiz-service/internal/infra/redis"
)

const (
	extractorBuiltin   = "builtin"
	extractorPdftotext = "pdftotext"
)

// backends holds the connections opened while wiring the service.
type backends struct {
	redis *redis.Client
	pool  *pgxpool.Pool
}

func (b backends) Close() {
	if b.redis != nil {
		_ = b.redis.Close()
	}
	if b.pool != nil {
		b.pool.Close()
	}
}

func openBackends(ctx context.Context, cfg config.Config) (backends, error) {
	var b backends
	if cfg.Redis.Addr != "" {
		b.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := b.redis.Ping(ctx).Err(); err != nil {
			b.Close()
			return backends{}, fmt.Errorf("connect redis: %w", err)
		}
	}
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			b.Close()
			return backends{}, fmt.Errorf("connect postgres: %w", err)
		}
		b.pool = pool
	}
	return b, nil
}

func newDocumentLoader(cfg config.Config, b backends, log zerolog.Logger) (app.DocumentLoader, error) {
	assembler := pdf.NewAssembler(cfg.Document.ChunkSize, cfg.Document.ChunkOverlap)

	var loader app.DocumentLoader
	switch cfg.Document.Extractor {
	case extractorBuiltin:
		loader = pdf.NewLoader(assembler, log)
	case extractorPdftotext:
		loader = pdf.NewPdftotextLoader("pdftotext", assembler, log)
	default:
		return nil, fmt.Errorf("unknown document extractor %q", cfg.Document.Extractor)
	}

	ttl := config.TTLDuration(cfg.Document.CacheTTL, defaultContextTTL)
	if b.redis != nil {
		return rediscache.NewContextCache(b.redis, loader, ttl), nil
	}
	return memory.NewContextCache(loader, ttl), nil
}

func newService(cfg config.Config, b backends, uploadDir string, log zerolog.Logger) (*app.QuizService, error) {
	documents, err := newDocumentLoader(cfg, b, log)
	if err != nil {
		return nil, err
	}
	generator, err := llm.NewClient(llm.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Temperature: cfg.LLM.Temperature,
	}, log)
	if err != nil {
		return nil, err
	}

	var sessions app.SessionRepository = memory.NewSessionStore()
	if b.redis != nil {
		sessions = rediscache.NewSessionStore(b.redis, config.TTLDuration(cfg.Redis.TTL, defaultSessionTTL))
	}
	var archive app.QuizArchive = memory.NewQuizArchive()
	if b.pool != nil {
		archive = postgres.NewQuizArchive(b.pool)
	}

	hintFile := cfg.Quiz.HintFile
	if hintFile != "" {
		if _, err := os.Stat(hintFile); err != nil {
			log.Warn().Err(err).Str("hint_file", hintFile).Msg("formatting hint file unavailable; generations will report it")
		}
	}

	return app.NewQuizService(sessions, documents, generator, archive, app.Options{
		UploadDir:        uploadDir,
		MaxUploadBytes:   cfg.MaxUploadBytes(),
		HintFile:         hintFile,
		DefaultQuestions: cfg.Quiz.DefaultQuestions,
		MaxQuestions:     cfg.Quiz.MaxQuestions,
		Models:           modelCatalog(cfg),
		LLMTimeout:       config.TTLDuration(cfg.LLM.Timeout, 0),
	}, log), nil
}

func modelCatalog(cfg config.Config) app.ModelCatalog {
	return app.ModelCatalog{
		Options: cfg.LLM.Models,
		Default: cfg.LLM.DefaultModel,
	}
}
