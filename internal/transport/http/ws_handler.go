package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"testmaker-service/internal/app"
	"testmaker-service/internal/domain"
)

// WSHandler drives a live quiz attempt over a websocket: the server sends one
// question at a time, the client answers each, and the final message carries
// the resolved result band. The attempt itself is transient; nothing is
// persisted.
type WSHandler struct {
	attempts app.AttemptRepository
	upgrader websocket.Upgrader
}

func NewWSHandler(attempts app.AttemptRepository) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type quizPayload struct {
	Quiz          domain.QuizView `json:"quiz"`
	QuestionCount int             `json:"questionCount"`
}

type questionPayload struct {
	Index    int                 `json:"index"`
	Count    int                 `json:"count"`
	Question domain.QuestionView `json:"question"`
	Answers  []domain.AnswerView `json:"answers"`
}

type answerPayload struct {
	AnswerID string `json:"answerId"`
}

type progressPayload struct {
	Answered  int `json:"answered"`
	Remaining int `json:"remaining"`
}

type unresolvedPayload struct {
	Total int `json:"total"`
}

// ServeWS upgrades the request and runs one attempt to completion.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	content, err := h.attempts.GetAttemptContent(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	if err := conn.WriteJSON(outboundMessage[quizPayload]{Type: "quiz", Payload: quizPayload{
		Quiz:          content.Quiz.View(),
		QuestionCount: len(content.Questions),
	}}); err != nil {
		return
	}

	total := 0
	for i, qc := range content.Questions {
		if err := conn.WriteJSON(outboundMessage[questionPayload]{Type: "question", Payload: questionPayload{
			Index:    i + 1,
			Count:    len(content.Questions),
			Question: qc.Question.View(),
			Answers:  domain.AnswerViews(qc.Answers),
		}}); err != nil {
			return
		}

		value, ok := h.awaitAnswer(conn, qc.Answers)
		if !ok {
			return
		}
		total += value

		if err := conn.WriteJSON(outboundMessage[progressPayload]{Type: "progress", Payload: progressPayload{
			Answered:  i + 1,
			Remaining: len(content.Questions) - i - 1,
		}}); err != nil {
			return
		}
	}

	if result, ok := app.FirstMatch(content.Results, total); ok {
		_ = conn.WriteJSON(outboundMessage[app.Resolution]{Type: "result", Payload: app.Resolution{
			Total:  total,
			Result: result.View(),
		}})
		return
	}
	_ = conn.WriteJSON(outboundMessage[unresolvedPayload]{Type: "unresolved", Payload: unresolvedPayload{Total: total}})
}

// awaitAnswer reads inbound messages until the client picks one of the
// current question's answers, returning its value. A false return means the
// connection is gone.
func (h *WSHandler) awaitAnswer(conn *websocket.Conn, answers []domain.Answer) (int, bool) {
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return 0, false
		}
		if inbound.Type != "answer" {
			if err := conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}); err != nil {
				return 0, false
			}
			continue
		}
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			if err := conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}); err != nil {
				return 0, false
			}
			continue
		}

		value, found := 0, false
		for _, a := range answers {
			if a.ID == payload.AnswerID {
				value, found = a.Value, true
				break
			}
		}
		if !found {
			if err := conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "answer does not belong to the current question"}}); err != nil {
				return 0, false
			}
			continue
		}
		return value, true
	}
}
