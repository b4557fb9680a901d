package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pdf-quiz-service/internal/domain"
)

// ErrCode identifies an API error independently of its message.
type ErrCode string

const (
	ErrValidation           ErrCode = "VALIDATION_ERROR"
	ErrFileRequired         ErrCode = "FILE_REQUIRED"
	ErrUnsupportedFile      ErrCode = "UNSUPPORTED_FILE_TYPE"
	ErrFileTooLarge         ErrCode = "FILE_TOO_LARGE"
	ErrInvalidQuestionCount ErrCode = "INVALID_QUESTION_COUNT"
	ErrModelNotAllowed      ErrCode = "MODEL_NOT_ALLOWED"
	ErrNoDocument           ErrCode = "NO_DOCUMENT"
	ErrNoActiveQuiz         ErrCode = "NO_ACTIVE_QUIZ"
	ErrGenerationInProgress ErrCode = "GENERATION_IN_PROGRESS"
	ErrExtractionFailed     ErrCode = "EXTRACTION_FAILED"
	ErrGenerationFailed     ErrCode = "GENERATION_FAILED"
	ErrNotFound             ErrCode = "NOT_FOUND"
	ErrInternal             ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrFileRequired:
		return "A PDF file is required."
	case ErrUnsupportedFile:
		return "Only PDF files are supported."
	case ErrFileTooLarge:
		return "The file exceeds the upload limit."
	case ErrInvalidQuestionCount:
		return "The number of questions is out of range."
	case ErrModelNotAllowed:
		return "The selected model is not available."
	case ErrNoDocument:
		return "Please upload a PDF to generate a quiz."
	case ErrNoActiveQuiz:
		return "Generate a quiz before checking answers."
	case ErrGenerationInProgress:
		return "A quiz is already being generated for this session."
	case ErrExtractionFailed:
		return "The PDF could not be read."
	case ErrGenerationFailed:
		return "Error during quiz generation."
	case ErrNotFound:
		return "Resource not found."
	case ErrInternal:
		return "Internal server error."
	default:
		return "Unexpected error."
	}
}

// Response is the standardized API response envelope.
type Response struct {
	Data     any        `json:"data"`
	Error    *ErrorBody `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata"`
}

// ErrorBody represents a structured error response.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Metadata includes request tracing and timing.
type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

// Success sends a successful JSON response with the given status code and data.
func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, Response{
		Data:     data,
		Metadata: buildMetadata(c),
	})
}

// Fail sends an error response with an error code and no field-level details.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	FailWithFields(c, statusCode, code, nil)
}

// FailWithFields sends an error response with field-level details.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	c.JSON(statusCode, Response{
		Error:    &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields},
		Metadata: buildMetadata(c),
	})
}

// FailWithError maps a service error to its status and code. Details of
// client-side errors are passed through; internal errors are not.
func FailWithError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		_ = c.Error(err)
		Fail(c, status, code)
		return
	}
	FailWithFields(c, status, code, map[string]string{"detail": err.Error()})
}

func classify(err error) (int, ErrCode) {
	switch {
	case errors.Is(err, domain.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType, ErrUnsupportedFile
	case errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, ErrFileTooLarge
	case errors.Is(err, domain.ErrInvalidQuestionCount):
		return http.StatusBadRequest, ErrInvalidQuestionCount
	case errors.Is(err, domain.ErrModelNotAllowed):
		return http.StatusBadRequest, ErrModelNotAllowed
	case errors.Is(err, domain.ErrNoDocument):
		return http.StatusConflict, ErrNoDocument
	case errors.Is(err, domain.ErrNoActiveQuiz):
		return http.StatusConflict, ErrNoActiveQuiz
	case errors.Is(err, domain.ErrSessionBusy):
		return http.StatusConflict, ErrGenerationInProgress
	case errors.Is(err, domain.ErrExtractionFailure):
		return http.StatusUnprocessableEntity, ErrExtractionFailed
	case errors.Is(err, domain.ErrGenerationFailed):
		return http.StatusBadGateway, ErrGenerationFailed
	case errors.Is(err, domain.ErrQuizNotFound):
		return http.StatusNotFound, ErrNotFound
	default:
		return http.StatusInternalServerError, ErrInternal
	}
}

func buildMetadata(c *gin.Context) Metadata {
	return Metadata{
		RequestID: requestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func requestID(c *gin.Context) string {
	if id := c.GetString(contextKeyRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
