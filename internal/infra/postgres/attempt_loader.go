package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"testmaker-service/internal/domain"
)

// AttemptLoader assembles the full quiz aggregate from Postgres for scoring.
// It is the read path of the scoring engine; CRUD writes go through Store.
type AttemptLoader struct {
	pool *pgxpool.Pool
}

func NewAttemptLoader(pool *pgxpool.Pool) *AttemptLoader {
	return &AttemptLoader{pool: pool}
}

func (l *AttemptLoader) LoadAttemptContent(ctx context.Context, quizID string) (domain.AttemptContent, error) {
	var content domain.AttemptContent

	quiz := &content.Quiz
	err := l.pool.QueryRow(ctx,
		`SELECT id, user_id, title, description, text, notes, view_count, created_date, last_modified_date
		 FROM quizzes WHERE id = $1`, quizID,
	).Scan(&quiz.ID, &quiz.UserID, &quiz.Title, &quiz.Description, &quiz.Text,
		&quiz.Notes, &quiz.ViewCount, &quiz.CreatedDate, &quiz.LastModifiedDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.AttemptContent{}, domain.ErrQuizNotFound
		}
		return domain.AttemptContent{}, fmt.Errorf("load quiz: %w", err)
	}

	questions, err := l.loadQuestions(ctx, quizID)
	if err != nil {
		return domain.AttemptContent{}, err
	}
	answersByQuestion, err := l.loadAnswers(ctx, quizID)
	if err != nil {
		return domain.AttemptContent{}, err
	}

	content.Questions = make([]domain.QuestionContent, 0, len(questions))
	for _, question := range questions {
		content.Questions = append(content.Questions, domain.QuestionContent{
			Question: question,
			Answers:  answersByQuestion[question.ID],
		})
	}

	content.Results, err = l.loadResults(ctx, quizID)
	if err != nil {
		return domain.AttemptContent{}, err
	}
	return content, nil
}

func (l *AttemptLoader) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, text, notes, created_date, last_modified_date
		 FROM questions WHERE quiz_id = $1
		 ORDER BY created_date ASC, id ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		if err := rows.Scan(&q.ID, &q.QuizID, &q.Text, &q.Notes, &q.CreatedDate, &q.LastModifiedDate); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (l *AttemptLoader) loadAnswers(ctx context.Context, quizID string) (map[string][]domain.Answer, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT a.id, a.question_id, a.text, a.value, a.notes, a.created_date, a.last_modified_date
		 FROM answers a
		 JOIN questions qn ON qn.id = a.question_id
		 WHERE qn.quiz_id = $1
		 ORDER BY a.created_date ASC, a.id ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load answers: %w", err)
	}
	defer rows.Close()

	byQuestion := make(map[string][]domain.Answer)
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Value, &a.Notes, &a.CreatedDate, &a.LastModifiedDate); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	return byQuestion, rows.Err()
}

func (l *AttemptLoader) loadResults(ctx context.Context, quizID string) ([]domain.Result, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT id, quiz_id, text, min_value, max_value, notes, created_date, last_modified_date
		 FROM results WHERE quiz_id = $1
		 ORDER BY created_date ASC, id ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	defer rows.Close()

	var results []domain.Result
	for rows.Next() {
		var r domain.Result
		if err := rows.Scan(&r.ID, &r.QuizID, &r.Text, &r.MinValue, &r.MaxValue, &r.Notes, &r.CreatedDate, &r.LastModifiedDate); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
