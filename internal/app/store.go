package app

import (
	"context"

	"testmaker-service/internal/domain"
)

// Store abstracts the persistence backend (in-memory, Postgres, etc).
// Implementations return the per-kind not-found sentinels from domain.
// List operations order by (CreatedDate, ID) ascending unless stated
// otherwise; DeleteQuiz removes the whole subtree atomically.
type Store interface {
	UserStore
	QuizStore
	QuestionStore
	AnswerStore
	ResultStore
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByName(ctx context.Context, name string) (domain.User, error)
	CreateUser(ctx context.Context, user domain.User) error
}

type QuizStore interface {
	GetQuiz(ctx context.Context, id string) (domain.Quiz, error)
	ListQuizzes(ctx context.Context, order domain.QuizOrder, limit int) ([]domain.Quiz, error)
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, id string) error
	BumpQuizViews(ctx context.Context, id string) (int64, error)
}

type QuestionStore interface {
	GetQuestion(ctx context.Context, id string) (domain.Question, error)
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	CreateQuestion(ctx context.Context, question domain.Question) error
	UpdateQuestion(ctx context.Context, question domain.Question) error
	DeleteQuestion(ctx context.Context, id string) error
}

type AnswerStore interface {
	GetAnswer(ctx context.Context, id string) (domain.Answer, error)
	ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error)
	CreateAnswer(ctx context.Context, answer domain.Answer) error
	UpdateAnswer(ctx context.Context, answer domain.Answer) error
	DeleteAnswer(ctx context.Context, id string) error
}

type ResultStore interface {
	GetResult(ctx context.Context, id string) (domain.Result, error)
	ListResults(ctx context.Context, quizID string) ([]domain.Result, error)
	CreateResult(ctx context.Context, result domain.Result) error
	UpdateResult(ctx context.Context, result domain.Result) error
	DeleteResult(ctx context.Context, id string) error
}
