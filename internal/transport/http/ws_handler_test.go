package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"testmaker-service/internal/domain"
	"testmaker-service/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	store := newWSStore(t)
	attempts := memory.NewAttemptCache(memory.NewStoreLoader(store), time.Minute)
	wsHandler := NewWSHandler(attempts)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/attempt", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/attempt?quizId=quiz-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Quiz header first.
	msgType, payload := readNext(conn, t, "quiz")
	if payload["questionCount"].(float64) != 2 {
		t.Fatalf("expected 2 questions, got %v", payload["questionCount"])
	}

	// Answer both questions; the handler sends question, we pick, it acks
	// with progress.
	picks := map[string]string{"q-1": "a-good", "q-2": "b-good"}
	for i := 0; i < 2; i++ {
		msgType, payload = readNext(conn, t, "question")
		question := payload["question"].(map[string]any)
		answerID := picks[question["id"].(string)]
		if answerID == "" {
			t.Fatalf("unexpected question %v", question["id"])
		}
		if err := conn.WriteJSON(map[string]any{
			"type":    "answer",
			"payload": map[string]any{"answerId": answerID},
		}); err != nil {
			t.Fatalf("write answer: %v", err)
		}
		msgType, _ = readNext(conn, t, "progress")
	}

	msgType, payload = readNext(conn, t, "result")
	if msgType != "result" {
		t.Fatalf("expected result, got %s", msgType)
	}
	if payload["total"].(float64) != 4 {
		t.Fatalf("expected total 4, got %v", payload["total"])
	}
	result := payload["result"].(map[string]any)
	if result["text"] != "High" {
		t.Fatalf("expected High band, got %v", result["text"])
	}
}

func TestWebSocketRejectsBadAnswers(t *testing.T) {
	store := newWSStore(t)
	attempts := memory.NewAttemptCache(memory.NewStoreLoader(store), time.Minute)
	wsHandler := NewWSHandler(attempts)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/attempt", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws/attempt?quizId=quiz-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	readNext(conn, t, "quiz")
	readNext(conn, t, "question")

	// Wrong message type, then an answer from another question; both get an
	// error and the attempt stays on the same question.
	if err := conn.WriteJSON(map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")

	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"answerId": "b-good"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "error")

	if err := conn.WriteJSON(map[string]any{
		"type":    "answer",
		"payload": map[string]any{"answerId": "a-good"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	readNext(conn, t, "progress")
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

// newWSStore builds a two-question quiz whose best picks total 4 and land in
// the High band.
func newWSStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	later := base.Add(time.Second)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed ws store: %v", err)
		}
	}
	must(store.CreateQuiz(ctx, domain.Quiz{ID: "quiz-1", UserID: "u1", Title: "Live", CreatedDate: base, LastModifiedDate: base}))
	must(store.CreateQuestion(ctx, domain.Question{ID: "q-1", QuizID: "quiz-1", Text: "First?", CreatedDate: base, LastModifiedDate: base}))
	must(store.CreateQuestion(ctx, domain.Question{ID: "q-2", QuizID: "quiz-1", Text: "Second?", CreatedDate: later, LastModifiedDate: later}))
	must(store.CreateAnswer(ctx, domain.Answer{ID: "a-good", QuestionID: "q-1", Text: "Good", Value: 2, CreatedDate: base, LastModifiedDate: base}))
	must(store.CreateAnswer(ctx, domain.Answer{ID: "a-bad", QuestionID: "q-1", Text: "Bad", Value: -2, CreatedDate: later, LastModifiedDate: later}))
	must(store.CreateAnswer(ctx, domain.Answer{ID: "b-good", QuestionID: "q-2", Text: "Good", Value: 2, CreatedDate: base, LastModifiedDate: base}))
	must(store.CreateResult(ctx, domain.Result{ID: "r-low", QuizID: "quiz-1", Text: "Low", MinValue: -4, MaxValue: 0, CreatedDate: base, LastModifiedDate: base}))
	must(store.CreateResult(ctx, domain.Result{ID: "r-high", QuizID: "quiz-1", Text: "High", MinValue: 1, MaxValue: 4, CreatedDate: later, LastModifiedDate: later}))
	return store
}
