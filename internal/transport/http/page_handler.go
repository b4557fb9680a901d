package http

import (
	"embed"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"pdf-quiz-service/internal/app"
	"pdf-quiz-service/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const answerFieldPrefix = "q_"

// LoadTemplates parses the embedded page templates.
func LoadTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// PageHandler serves the server-rendered quiz page and its form posts.
type PageHandler struct {
	service *app.QuizService
}

func NewPageHandler(service *app.QuizService) *PageHandler {
	return &PageHandler{service: service}
}

type pageView struct {
	Session           domain.SessionState
	Models            []app.ModelOption
	SelectedModel     string
	NumQuestions      int
	MaxQuestions      int
	Questions         []questionView
	Score             *domain.ScoreReport
	Notices           []string
	ParseError        string
	Error             string
	AnswerFieldPrefix string
}

type questionView struct {
	Number  int
	ID      string
	Prompt  string
	Valid   bool
	Error   string
	Raw     string
	Options []optionView
	Result  *domain.AnswerResult
}

type optionView struct {
	Label   string
	Display string
	Text    string
	Checked bool
}

// Index handles GET /.
func (h *PageHandler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, nil, nil)
}

// Upload handles POST /upload.
func (h *PageHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		h.render(c, http.StatusBadRequest, nil, func(v *pageView) { v.Error = GetMessage(ErrFileRequired) })
		return
	}
	file, err := header.Open()
	if err != nil {
		h.renderError(c, err)
		return
	}
	defer file.Close()

	if _, err := h.service.Upload(c.Request.Context(), sessionID(c), app.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	}); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// Generate handles POST /generate.
func (h *PageHandler) Generate(c *gin.Context) {
	n, _ := strconv.Atoi(strings.TrimSpace(c.PostForm("num_questions")))
	res, err := h.service.Generate(c.Request.Context(), sessionID(c), app.GenerateRequest{
		NumQuestions: n,
		Model:        c.PostForm("model"),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, &res.State, func(v *pageView) {
		v.Notices = res.Notices
		v.NumQuestions = res.State.Quiz.Len()
	})
}

// Check handles POST /check. Radio groups are named q_<question id>.
func (h *PageHandler) Check(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		h.renderError(c, err)
		return
	}
	selections := make(map[string]string)
	for key, values := range c.Request.PostForm {
		if id, ok := strings.CutPrefix(key, answerFieldPrefix); ok && len(values) > 0 {
			selections[id] = values[0]
		}
	}
	if _, err := h.service.CheckAnswers(c.Request.Context(), sessionID(c), selections); err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, nil, nil)
}

func (h *PageHandler) renderError(c *gin.Context, err error) {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		_ = c.Error(err)
	}
	h.render(c, status, nil, func(v *pageView) { v.Error = pageErrorMessage(err) })
}

func pageErrorMessage(err error) string {
	status, code := classify(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		return GetMessage(code)
	}
	return GetMessage(code) + " (" + err.Error() + ")"
}

// render shows the page for state, loading the session's state when nil.
func (h *PageHandler) render(c *gin.Context, status int, state *domain.SessionState, adjust func(*pageView)) {
	if state == nil {
		current, err := h.service.Current(c.Request.Context(), sessionID(c))
		if err != nil {
			_ = c.Error(err)
			current = domain.SessionState{ID: sessionID(c)}
		}
		state = &current
	}
	view := buildPageView(*state, h.service.Models(), h.service)
	if adjust != nil {
		adjust(&view)
	}
	c.HTML(status, "index.html", view)
}

type limiter interface {
	Limits() (int, int)
}

func buildPageView(state domain.SessionState, catalog app.ModelCatalog, limits limiter) pageView {
	def, maxQuestions := limits.Limits()
	view := pageView{
		Session:           state,
		Models:            catalog.Options,
		SelectedModel:     lo.Ternary(state.Model != "", state.Model, catalog.Default),
		NumQuestions:      def,
		MaxQuestions:      maxQuestions,
		Score:             state.Score,
		ParseError:        state.ParseError,
		AnswerFieldPrefix: answerFieldPrefix,
	}
	if state.Quiz == nil {
		return view
	}
	view.NumQuestions = state.Quiz.Len()

	var results map[string]domain.AnswerResult
	if state.Score != nil {
		results = lo.KeyBy(state.Score.Results, func(r domain.AnswerResult) string { return r.QuestionID })
	}
	view.Questions = lo.Map(state.Quiz.Questions, func(q domain.Question, i int) questionView {
		qv := questionView{
			Number: i + 1,
			ID:     q.ID,
			Prompt: q.Prompt,
			Valid:  q.Valid(),
			Error:  q.Error,
			Raw:    q.Raw,
		}
		selected := state.Answers[q.ID]
		qv.Options = lo.Map(q.Options, func(o domain.Option, _ int) optionView {
			return optionView{
				Label:   o.Label,
				Display: strings.ToUpper(o.Label),
				Text:    o.Text,
				Checked: strings.EqualFold(selected, o.Label),
			}
		})
		if r, ok := results[q.ID]; ok {
			qv.Result = &r
		}
		return qv
	})
	return view
}
