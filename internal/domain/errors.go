package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionNotFound is returned when a session has no stored state.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrNoDocument is returned when generation is requested before an upload.
	ErrNoDocument = errors.New("no document uploaded for this session")
	// ErrNoActiveQuiz is returned when answers are checked before a quiz exists.
	ErrNoActiveQuiz = errors.New("no quiz generated for this session")
	// ErrSessionBusy is returned while a generation is already running for the session.
	ErrSessionBusy = errors.New("quiz generation already in progress")
	// ErrInvalidQuestionCount indicates a question count outside the allowed range.
	ErrInvalidQuestionCount = errors.New("invalid number of questions")
	// ErrModelNotAllowed indicates a model outside the configured allow-list.
	ErrModelNotAllowed = errors.New("model not allowed")
	// ErrUnsupportedFileType is returned for uploads that are not PDFs.
	ErrUnsupportedFileType = errors.New("unsupported file type")
	// ErrFileTooLarge is returned for uploads over the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrQuizNotFound indicates an archived quiz could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrMissingHintFile is reported (not returned) when the formatting hint is absent.
	ErrMissingHintFile = errors.New("formatting hint file not found")
	// ErrGenerationFailed wraps failures of the language-model call.
	ErrGenerationFailed = errors.New("quiz generation failed")

	// ErrExtractionFailure matches any *ExtractionError via errors.Is.
	ErrExtractionFailure = errors.New("document extraction failed")
	// ErrParseFailure matches any *ParseError via errors.Is.
	ErrParseFailure = errors.New("model response could not be parsed")
)

// ExtractionError reports that the document service could not read a file.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func (e *ExtractionError) Is(target error) bool { return target == ErrExtractionFailure }

// ParseError reports that no structured payload could be isolated from a
// model response. Text is the offending (trimmed) response.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParseFailure }
