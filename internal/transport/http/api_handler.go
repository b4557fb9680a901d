package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdf-quiz-service/internal/app"
	"pdf-quiz-service/internal/domain"
	"pdf-quiz-service/internal/validator"
)

// APIHandler exposes the quiz use cases as JSON.
type APIHandler struct {
	service *app.QuizService
}

func NewAPIHandler(service *app.QuizService) *APIHandler {
	return &APIHandler{service: service}
}

type generateRequest struct {
	NumQuestions int    `json:"num_questions" form:"num_questions" binding:"omitempty,min=1"`
	Model        string `json:"model" form:"model"`
}

type answersRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

type modelsResponse struct {
	Models           []app.ModelOption `json:"models"`
	Default          string            `json:"default"`
	DefaultQuestions int               `json:"defaultQuestions"`
	MaxQuestions     int               `json:"maxQuestions"`
}

type quizResponse struct {
	Quiz       *domain.QuizRecord `json:"quiz"`
	Model      string             `json:"model"`
	ArchiveID  string             `json:"archiveId,omitempty"`
	Notices    []string           `json:"notices,omitempty"`
	ParseError string             `json:"parseError,omitempty"`
}

func newQuizResponse(res app.GenerateResult) quizResponse {
	return quizResponse{
		Quiz:       res.State.Quiz,
		Model:      res.State.Model,
		ArchiveID:  res.State.ArchiveID,
		Notices:    res.Notices,
		ParseError: res.ParseError,
	}
}

// ListModels handles GET /api/v1/models.
func (h *APIHandler) ListModels(c *gin.Context) {
	catalog := h.service.Models()
	def, maxQuestions := h.service.Limits()
	Success(c, http.StatusOK, modelsResponse{
		Models:           catalog.Options,
		Default:          catalog.Default,
		DefaultQuestions: def,
		MaxQuestions:     maxQuestions,
	})
}

// UploadDocument handles POST /api/v1/documents (multipart field "file").
func (h *APIHandler) UploadDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		Fail(c, http.StatusBadRequest, ErrFileRequired)
		return
	}
	file, err := header.Open()
	if err != nil {
		FailWithError(c, err)
		return
	}
	defer file.Close()

	state, err := h.service.Upload(c.Request.Context(), sessionID(c), app.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	})
	if err != nil {
		FailWithError(c, err)
		return
	}
	Success(c, http.StatusCreated, state.Document)
}

// GenerateQuiz handles POST /api/v1/quiz.
func (h *APIHandler) GenerateQuiz(c *gin.Context) {
	var req generateRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			FailWithFields(c, http.StatusBadRequest, ErrValidation, fields)
			return
		}
	}
	res, err := h.service.Generate(c.Request.Context(), sessionID(c), app.GenerateRequest{
		NumQuestions: req.NumQuestions,
		Model:        req.Model,
	})
	if err != nil {
		FailWithError(c, err)
		return
	}
	Success(c, http.StatusOK, newQuizResponse(res))
}

// CurrentQuiz handles GET /api/v1/quiz.
func (h *APIHandler) CurrentQuiz(c *gin.Context) {
	state, err := h.service.Current(c.Request.Context(), sessionID(c))
	if err != nil {
		FailWithError(c, err)
		return
	}
	Success(c, http.StatusOK, state)
}

// SubmitAnswers handles POST /api/v1/quiz/answers.
func (h *APIHandler) SubmitAnswers(c *gin.Context) {
	var req answersRequest
	if fields := validator.Bind(c, &req); fields != nil {
		FailWithFields(c, http.StatusBadRequest, ErrValidation, fields)
		return
	}
	report, err := h.service.CheckAnswers(c.Request.Context(), sessionID(c), req.Answers)
	if err != nil {
		FailWithError(c, err)
		return
	}
	Success(c, http.StatusOK, report)
}

// EndSession handles DELETE /api/v1/session.
func (h *APIHandler) EndSession(c *gin.Context) {
	if err := h.service.End(c.Request.Context(), sessionID(c)); err != nil {
		FailWithError(c, err)
		return
	}
	c.SetCookie(SessionCookie, "", -1, "/", "", false, true)
	Success(c, http.StatusOK, gin.H{"ended": true})
}

// ArchivedQuiz handles GET /api/v1/quizzes/:id.
func (h *APIHandler) ArchivedQuiz(c *gin.Context) {
	quiz, err := h.service.ArchivedQuiz(c.Request.Context(), c.Param("id"))
	if err != nil {
		FailWithError(c, err)
		return
	}
	Success(c, http.StatusOK, quiz)
}
