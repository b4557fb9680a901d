package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"pdf-quiz-service/internal/app"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, allowedOrigins []string, log zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: log.With().Str("component", "ws_handler").Logger(),
	}
}

// originChecker permits every origin when the allow-list is empty.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowedOrigins) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, allowed := range allowedOrigins {
			if strings.EqualFold(allowed, origin) {
				return true
			}
		}
		return false
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type generatePayload struct {
	NumQuestions int    `json:"numQuestions"`
	Model        string `json:"model"`
}

type answersPayload struct {
	Answers map[string]string `json:"answers"`
}

type statusPayload struct {
	State string `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    ErrCode `json:"code"`
	Message string  `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	_, code := classify(err)
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: err.Error()}}
}

// ServeWS upgrades the request and serves generate/answers messages for the
// caller's session. Messages on one connection are handled in order.
func (h *WSHandler) ServeWS(c *gin.Context) {
	sid := sessionID(c)
	// Upgrade writes its own response headers; carry over a freshly issued cookie.
	header := http.Header{}
	for _, cookie := range c.Writer.Header().Values("Set-Cookie") {
		header.Add("Set-Cookie", cookie)
	}
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		h.log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		failed := false
		// keep draining after a failed write so the read loop never blocks on send
		for msg := range send {
			if failed {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug().Err(err).Msg("ws write error")
				failed = true
			}
		}
	}()

	state, err := h.service.Current(ctx, sid)
	if err != nil {
		send <- errorMessage(err)
	} else {
		send <- outboundMessage[any]{Type: "session", Payload: state}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "generate":
			var payload generatePayload
			if len(inbound.Payload) > 0 {
				if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
					send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: ErrValidation, Message: "invalid generate payload"}}
					continue
				}
			}
			send <- outboundMessage[any]{Type: "status", Payload: statusPayload{State: "generating"}}
			res, err := h.service.Generate(ctx, sid, app.GenerateRequest{
				NumQuestions: payload.NumQuestions,
				Model:        payload.Model,
			})
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "quiz", Payload: newQuizResponse(res)}
		case "answers":
			var payload answersPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: ErrValidation, Message: "invalid answers payload"}}
				continue
			}
			report, err := h.service.CheckAnswers(ctx, sid, payload.Answers)
			if err != nil {
				send <- errorMessage(err)
				continue
			}
			send <- outboundMessage[any]{Type: "score", Payload: report}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Code: ErrValidation, Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}
