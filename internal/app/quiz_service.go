package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"pdf-quiz-service/internal/domain"
	"pdf-quiz-service/internal/quizbuild"
)

var tracer = otel.Tracer("pdf-quiz-service/app")

// SessionRepository abstracts how session state is stored (in-memory, Redis, etc).
// Save replaces the whole state for its ID.
type SessionRepository interface {
	Get(ctx context.Context, sessionID string) (domain.SessionState, error)
	Save(ctx context.Context, state domain.SessionState) error
	Delete(ctx context.Context, sessionID string) error
}

// DocumentLoader extracts the context text of an uploaded document.
type DocumentLoader interface {
	LoadContext(ctx context.Context, doc domain.Document) (string, error)
}

// Generator sends a prompt to a language model and returns its raw reply.
type Generator interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// QuizArchive keeps generated quizzes for later retrieval.
type QuizArchive interface {
	SaveQuiz(ctx context.Context, quiz domain.ArchivedQuiz) error
	LoadQuiz(ctx context.Context, id string) (domain.ArchivedQuiz, error)
}

// Options tunes QuizService.
type Options struct {
	UploadDir        string
	MaxUploadBytes   int64
	HintFile         string
	DefaultQuestions int
	MaxQuestions     int
	Models           ModelCatalog
	// LLMTimeout bounds a single model call; zero means no bound.
	LLMTimeout time.Duration
	Now        func() time.Time
}

// GenerateRequest carries the user's generation choices. Zero values
// select the defaults.
type GenerateRequest struct {
	NumQuestions int
	Model        string
}

// GenerateResult is the outcome of a generation. ParseError is set when
// the model reply could not be parsed; the stored quiz is then fully
// padded. Notices carry non-fatal problems such as a missing hint file.
type GenerateResult struct {
	State       domain.SessionState
	Notices     []string
	ParseError  string
	RawResponse string
}

// QuizService contains the core quiz use cases.
type QuizService struct {
	sessions  SessionRepository
	documents DocumentLoader
	generator Generator
	archive   QuizArchive
	opts      Options
	log       zerolog.Logger

	inflight sync.Map
}

// NewQuizService wires the use cases. archive may be nil.
func NewQuizService(sessions SessionRepository, documents DocumentLoader, generator Generator, archive QuizArchive, opts Options, log zerolog.Logger) *QuizService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxQuestions <= 0 {
		opts.MaxQuestions = 20
	}
	if opts.DefaultQuestions <= 0 {
		opts.DefaultQuestions = 5
	}
	return &QuizService{
		sessions:  sessions,
		documents: documents,
		generator: generator,
		archive:   archive,
		opts:      opts,
		log:       log.With().Str("component", "quiz_service").Logger(),
	}
}

// Models returns the allow-list and the default model id.
func (s *QuizService) Models() ModelCatalog {
	return s.opts.Models
}

// Limits returns the default and maximum question counts.
func (s *QuizService) Limits() (def, maxQuestions int) {
	return s.opts.DefaultQuestions, s.opts.MaxQuestions
}

// Current returns the session's state. Unknown sessions yield an empty state.
func (s *QuizService) Current(ctx context.Context, sessionID string) (domain.SessionState, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.SessionState{ID: sessionID}, nil
	}
	return state, err
}

// Upload stores a PDF for the session. Any previous quiz and answers are
// dropped since they belong to the old document.
func (s *QuizService) Upload(ctx context.Context, sessionID string, up Upload) (domain.SessionState, error) {
	doc, err := storeUpload(s.opts.UploadDir, s.opts.MaxUploadBytes, up)
	if err != nil {
		return domain.SessionState{}, err
	}
	now := s.opts.Now()
	doc.UploadedAt = now

	state := domain.SessionState{ID: sessionID, Document: &doc, UpdatedAt: now}
	if err := s.sessions.Save(ctx, state); err != nil {
		return domain.SessionState{}, fmt.Errorf("save session: %w", err)
	}
	s.log.Info().Str("session", sessionID).Str("document", doc.Name).Int64("bytes", doc.Size).Msg("document uploaded")
	return state, nil
}

// Generate runs extraction, prompting and parsing for the session's
// document and replaces the session's quiz with the result. Only one
// generation per session runs at a time.
func (s *QuizService) Generate(ctx context.Context, sessionID string, req GenerateRequest) (GenerateResult, error) {
	n := req.NumQuestions
	if n == 0 {
		n = s.opts.DefaultQuestions
	}
	if n < 1 || n > s.opts.MaxQuestions {
		return GenerateResult{}, fmt.Errorf("%w: %d (allowed 1-%d)", domain.ErrInvalidQuestionCount, n, s.opts.MaxQuestions)
	}
	model, err := s.opts.Models.Resolve(req.Model)
	if err != nil {
		return GenerateResult{}, err
	}

	state, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return GenerateResult{}, domain.ErrNoDocument
	}
	if err != nil {
		return GenerateResult{}, err
	}
	if state.Document == nil {
		return GenerateResult{}, domain.ErrNoDocument
	}

	// per process only; instances sharing a Redis session store do not see each other
	if _, busy := s.inflight.LoadOrStore(sessionID, struct{}{}); busy {
		return GenerateResult{}, domain.ErrSessionBusy
	}
	defer s.inflight.Delete(sessionID)

	ctx, span := tracer.Start(ctx, "quiz.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("quiz.model", model),
		attribute.Int("quiz.num_questions", n),
		attribute.String("quiz.document", state.Document.Name),
	)

	out, err := s.generate(ctx, *state.Document, model, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GenerateResult{}, err
	}

	now := s.opts.Now()
	out.record.CreatedAt = now
	next := domain.SessionState{
		ID:         sessionID,
		Document:   state.Document,
		Quiz:       &out.record,
		Model:      model,
		ParseError: out.parseErr,
		UpdatedAt:  now,
	}
	next.ArchiveID = s.archiveQuiz(ctx, next, out.raw)
	if err := s.sessions.Save(ctx, next); err != nil {
		return GenerateResult{}, fmt.Errorf("save session: %w", err)
	}

	valid := 0
	for _, q := range out.record.Questions {
		if q.Valid() {
			valid++
		}
	}
	span.SetAttributes(attribute.Int("quiz.valid_questions", valid))
	if out.parseErr != "" {
		span.AddEvent("model response could not be parsed", oteltrace.WithAttributes(attribute.String("error", out.parseErr)))
	}
	s.log.Info().
		Str("session", sessionID).
		Str("model", model).
		Int("requested", n).
		Int("valid", valid).
		Bool("parse_failed", out.parseErr != "").
		Msg("quiz generated")

	return GenerateResult{
		State:       next,
		Notices:     out.notices,
		ParseError:  out.parseErr,
		RawResponse: out.raw,
	}, nil
}

type generation struct {
	record   domain.QuizRecord
	raw      string
	notices  []string
	parseErr string
}

func (s *QuizService) generate(ctx context.Context, doc domain.Document, model string, n int) (generation, error) {
	var out generation

	contextText, err := s.documents.LoadContext(ctx, doc)
	if err != nil {
		var extractErr *domain.ExtractionError
		if !errors.As(err, &extractErr) {
			err = &domain.ExtractionError{Path: doc.Path, Err: err}
		}
		return out, err
	}

	hint, err := LoadHint(s.opts.HintFile)
	if err != nil {
		s.log.Warn().Err(err).Msg("continuing without formatting hint")
		out.notices = append(out.notices, err.Error())
	}

	prompt, err := BuildPrompt(contextText, n, hint)
	if err != nil {
		return out, err
	}

	callCtx := ctx
	if s.opts.LLMTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.opts.LLMTimeout)
		defer cancel()
	}
	raw, err := s.generator.Generate(callCtx, model, prompt)
	if err != nil {
		return out, fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)
	}
	out.raw = raw

	payload, err := quizbuild.Extract(raw)
	if err != nil {
		s.log.Warn().Err(err).Int("response_bytes", len(raw)).Msg("model response could not be parsed")
		out.parseErr = err.Error()
		payload = nil
	}
	out.record = quizbuild.Build(payload, n)
	return out, nil
}

// archiveQuiz stores the generated quiz and returns its archive id. Archive
// failures are logged and never fail the generation.
func (s *QuizService) archiveQuiz(ctx context.Context, state domain.SessionState, raw string) string {
	if s.archive == nil {
		return ""
	}
	entry := domain.ArchivedQuiz{
		ID:          uuid.NewString(),
		SessionID:   state.ID,
		Document:    state.Document.Name,
		Model:       state.Model,
		Record:      *state.Quiz,
		RawResponse: raw,
		CreatedAt:   state.UpdatedAt,
	}
	if err := s.archive.SaveQuiz(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("session", state.ID).Msg("archive quiz failed")
		return ""
	}
	return entry.ID
}

// CheckAnswers scores the submitted selections (question id -> label)
// against the session's quiz and stores them with the report.
func (s *QuizService) CheckAnswers(ctx context.Context, sessionID string, selections map[string]string) (domain.ScoreReport, error) {
	state, err := s.sessions.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return domain.ScoreReport{}, domain.ErrNoActiveQuiz
	}
	if err != nil {
		return domain.ScoreReport{}, err
	}
	if state.Quiz == nil {
		return domain.ScoreReport{}, domain.ErrNoActiveQuiz
	}

	report := Score(*state.Quiz, UserAnswers(*state.Quiz, selections))

	next := state.Clone()
	next.Answers = make(map[string]string, len(report.Results))
	for _, r := range report.Results {
		next.Answers[r.QuestionID] = r.Selected
	}
	next.Score = &report
	next.UpdatedAt = s.opts.Now()
	if err := s.sessions.Save(ctx, next); err != nil {
		return domain.ScoreReport{}, fmt.Errorf("save session: %w", err)
	}
	return report, nil
}

// End discards the session's state.
func (s *QuizService) End(ctx context.Context, sessionID string) error {
	return s.sessions.Delete(ctx, sessionID)
}

// ArchivedQuiz loads a previously generated quiz.
func (s *QuizService) ArchivedQuiz(ctx context.Context, id string) (domain.ArchivedQuiz, error) {
	if s.archive == nil {
		return domain.ArchivedQuiz{}, domain.ErrQuizNotFound
	}
	return s.archive.LoadQuiz(ctx, id)
}
