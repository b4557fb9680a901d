package validator

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type generateBody struct {
	NumQuestions int    `json:"num_questions" binding:"omitempty,min=1,max=20"`
	Model        string `json:"model"`
}

func TestBindTranslatesFieldErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"num_questions": 40}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var body generateBody
	fields := Bind(c, &body)
	msg, ok := fields["num_questions"]
	if !ok {
		t.Fatalf("expected num_questions error, got %v", fields)
	}
	if !strings.Contains(msg, "20") {
		t.Fatalf("expected translated message mentioning the limit, got %q", msg)
	}
}

func TestBindReportsSyntaxErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"num_questions": `))
	c.Request.Header.Set("Content-Type", "application/json")

	var body generateBody
	fields := Bind(c, &body)
	if _, ok := fields["detail"]; !ok {
		t.Fatalf("expected detail entry, got %v", fields)
	}
}

func TestBindAcceptsValidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	Setup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"num_questions": 3, "model": "phi3"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	var body generateBody
	if fields := Bind(c, &body); fields != nil {
		t.Fatalf("unexpected errors %v", fields)
	}
	if body.NumQuestions != 3 || body.Model != "phi3" {
		t.Fatalf("unexpected body %+v", body)
	}
}
