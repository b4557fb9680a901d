package domain

import (
	"strings"
	"time"
)

// QuestionStatus discriminates the two shapes a quiz question can take.
type QuestionStatus string

const (
	StatusValid     QuestionStatus = "valid"
	StatusMalformed QuestionStatus = "malformed"
)

// Option is one labeled answer choice ("a", "b", ...).
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is either a valid multiple-choice question or a malformed
// placeholder, depending on Status. Valid questions carry Prompt, Options
// and Correct; malformed ones carry Error and the Raw fragment the model
// produced (empty when the slot was synthesized).
type Question struct {
	ID        string         `json:"id"`
	SourceKey string         `json:"sourceKey,omitempty"`
	Status    QuestionStatus `json:"status"`

	Prompt  string   `json:"prompt,omitempty"`
	Options []Option `json:"options,omitempty"`
	Correct string   `json:"correct,omitempty"`

	Error string `json:"error,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// NewValidQuestion builds a question that can be rendered and scored.
func NewValidQuestion(id, sourceKey, prompt string, options []Option, correct string) Question {
	return Question{
		ID:        id,
		SourceKey: sourceKey,
		Status:    StatusValid,
		Prompt:    prompt,
		Options:   options,
		Correct:   correct,
	}
}

// NewMalformedQuestion builds a placeholder for an entry that could not be used.
func NewMalformedQuestion(id, sourceKey, reason, raw string) Question {
	return Question{
		ID:        id,
		SourceKey: sourceKey,
		Status:    StatusMalformed,
		Error:     reason,
		Raw:       raw,
	}
}

// Valid reports whether the question can be answered.
func (q Question) Valid() bool {
	return q.Status == StatusValid
}

// OptionText returns the text for a label, matched case-insensitively.
func (q Question) OptionText(label string) (string, bool) {
	for _, opt := range q.Options {
		if strings.EqualFold(opt.Label, label) {
			return opt.Text, true
		}
	}
	return "", false
}

// QuizRecord is the ordered set of questions produced by one generation.
// IDs run "1".."n" in display order.
type QuizRecord struct {
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Len returns the number of question slots.
func (r QuizRecord) Len() int {
	return len(r.Questions)
}

// Lookup finds a question by ID.
func (r QuizRecord) Lookup(id string) (Question, bool) {
	for _, q := range r.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Document references an uploaded PDF on disk.
type Document struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Digest     string    `json:"digest"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// SessionState is everything one user session holds between interactions.
// Stores replace it wholesale; nothing mutates a stored state in place.
type SessionState struct {
	ID        string      `json:"id"`
	Document  *Document   `json:"document,omitempty"`
	Quiz      *QuizRecord `json:"quiz,omitempty"`
	ArchiveID string      `json:"archiveId,omitempty"`
	Model     string      `json:"model,omitempty"`
	// ParseError is set when the quiz was padded because the model reply
	// could not be parsed.
	ParseError string            `json:"parseError,omitempty"`
	Answers    map[string]string `json:"answers,omitempty"`
	Score      *ScoreReport      `json:"score,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable state with s.
func (s SessionState) Clone() SessionState {
	out := s
	if s.Document != nil {
		doc := *s.Document
		out.Document = &doc
	}
	if s.Quiz != nil {
		rec := *s.Quiz
		rec.Questions = append([]Question(nil), s.Quiz.Questions...)
		out.Quiz = &rec
	}
	if s.Answers != nil {
		out.Answers = make(map[string]string, len(s.Answers))
		for k, v := range s.Answers {
			out.Answers[k] = v
		}
	}
	if s.Score != nil {
		report := *s.Score
		report.Results = append([]AnswerResult(nil), s.Score.Results...)
		out.Score = &report
	}
	return out
}

// UserAnswer pairs a user's selection with the stored correct label.
type UserAnswer struct {
	QuestionID string
	Selected   string
	Correct    string
}

// AnswerResult is the per-question outcome of a check.
type AnswerResult struct {
	QuestionID string `json:"questionId"`
	Selected   string `json:"selected"`
	Correct    string `json:"correct"`
	IsCorrect  bool   `json:"isCorrect"`
	Feedback   string `json:"feedback"`
}

// ScoreReport summarizes a check of the user's answers.
type ScoreReport struct {
	Correct int            `json:"correct"`
	Total   int            `json:"total"`
	Results []AnswerResult `json:"results"`
}

// ArchivedQuiz is a generated quiz kept for later retrieval.
type ArchivedQuiz struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"sessionId"`
	Document    string     `json:"document"`
	Model       string     `json:"model"`
	Record      QuizRecord `json:"record"`
	RawResponse string     `json:"rawResponse"`
	CreatedAt   time.Time  `json:"createdAt"`
}
