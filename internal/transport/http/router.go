package http

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pdf-quiz-service/internal/app"
	"pdf-quiz-service/internal/validator"
)

// RouterConfig carries the transport-level settings.
type RouterConfig struct {
	ServiceName    string
	AllowedOrigins []string
	// MaxUploadBytes caps multipart memory; the service enforces the real limit.
	MaxUploadBytes int64
	SecureCookies  bool
}

// NewRouter builds the gin engine serving the page, the JSON API and the
// WebSocket endpoint.
func NewRouter(service *app.QuizService, cfg RouterConfig, log zerolog.Logger) *gin.Engine {
	validator.Setup()

	router := gin.New()
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	if cfg.ServiceName != "" {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(RequestIDMiddleware(), RequestLogger(log))

	if cfg.MaxUploadBytes > 0 {
		router.MaxMultipartMemory = cfg.MaxUploadBytes
	}
	router.SetHTMLTemplate(LoadTemplates())

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := NewAPIHandler(service)
	pages := NewPageHandler(service)
	ws := NewWSHandler(service, cfg.AllowedOrigins, log)

	session := router.Group("/")
	session.Use(SessionMiddleware(cfg.SecureCookies))
	{
		session.GET("/", pages.Index)
		session.POST("/upload", pages.Upload)
		session.POST("/generate", pages.Generate)
		session.POST("/check", pages.Check)
		session.GET("/ws", ws.ServeWS)
	}

	v1 := router.Group("/api/v1")
	v1.GET("/models", api.ListModels)
	v1.GET("/quizzes/:id", api.ArchivedQuiz)

	v1Session := v1.Group("")
	v1Session.Use(SessionMiddleware(cfg.SecureCookies))
	{
		v1Session.POST("/documents", api.UploadDocument)
		v1Session.POST("/quiz", api.GenerateQuiz)
		v1Session.GET("/quiz", api.CurrentQuiz)
		v1Session.POST("/quiz/answers", api.SubmitAnswers)
		v1Session.DELETE("/session", api.EndSession)
	}

	return router
}
