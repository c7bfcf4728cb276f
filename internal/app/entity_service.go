package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"testmaker-service/internal/domain"
)

const defaultListLimit = 10

// EntityService contains the CRUD use cases for the four entity kinds and
// enforces the write policy: mutations require the caller to own the
// ancestor quiz or hold the Administrator role. Reads are open to anyone.
type EntityService struct {
	store Store
	now   func() time.Time
	newID func() string
}

func NewEntityService(store Store) *EntityService {
	return &EntityService{
		store: store,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// NewEntityServiceWithClock is test-only for deterministic timestamps and ids.
func NewEntityServiceWithClock(store Store, now func() time.Time) *EntityService {
	s := NewEntityService(store)
	s.now = now
	return s
}

// GetQuiz returns the quiz view and bumps its view counter.
func (s *EntityService) GetQuiz(ctx context.Context, id string) (domain.QuizView, error) {
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.QuizView{}, err
	}
	count, err := s.store.BumpQuizViews(ctx, id)
	if err != nil {
		return domain.QuizView{}, err
	}
	quiz.ViewCount = count
	return quiz.View(), nil
}

// ListQuizzes returns up to count quizzes in the requested order.
func (s *EntityService) ListQuizzes(ctx context.Context, order domain.QuizOrder, count int) ([]domain.QuizView, error) {
	switch order {
	case domain.QuizOrderLatest, domain.QuizOrderTitle, domain.QuizOrderRandom:
	default:
		return nil, fmt.Errorf("%w: unknown order %q", domain.ErrInvalidPayload, order)
	}
	if count <= 0 {
		count = defaultListLimit
	}
	quizzes, err := s.store.ListQuizzes(ctx, order, count)
	if err != nil {
		return nil, err
	}
	return domain.QuizViews(quizzes), nil
}

// PostQuiz creates a quiz owned by the caller.
func (s *EntityService) PostQuiz(ctx context.Context, caller domain.Identity, view domain.QuizView) (domain.QuizView, error) {
	if caller.UserID == "" {
		return domain.QuizView{}, domain.ErrUnauthorized
	}
	if strings.TrimSpace(view.Title) == "" {
		return domain.QuizView{}, fmt.Errorf("%w: title is required", domain.ErrInvalidPayload)
	}
	if _, err := s.store.GetUser(ctx, caller.UserID); err != nil {
		if domain.IsNotFound(err) {
			return domain.QuizView{}, fmt.Errorf("%w: owner %q", domain.ErrInvalidReference, caller.UserID)
		}
		return domain.QuizView{}, err
	}

	now := s.now()
	quiz := domain.Quiz{
		ID:               s.newID(),
		UserID:           caller.UserID,
		Title:            view.Title,
		Description:      view.Description,
		Text:             view.Text,
		Notes:            view.Notes,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.QuizView{}, err
	}
	return quiz.View(), nil
}

// PutQuiz updates the mutable quiz fields (title, description, text, notes).
// Ownership is never reassigned on update.
func (s *EntityService) PutQuiz(ctx context.Context, caller domain.Identity, view domain.QuizView) (domain.QuizView, error) {
	if view.ID == "" {
		return domain.QuizView{}, fmt.Errorf("%w: id is required", domain.ErrInvalidPayload)
	}
	if strings.TrimSpace(view.Title) == "" {
		return domain.QuizView{}, fmt.Errorf("%w: title is required", domain.ErrInvalidPayload)
	}
	quiz, err := s.store.GetQuiz(ctx, view.ID)
	if err != nil {
		return domain.QuizView{}, err
	}
	if err := authorizeQuizWrite(caller, quiz); err != nil {
		return domain.QuizView{}, err
	}

	quiz.Title = view.Title
	quiz.Description = view.Description
	quiz.Text = view.Text
	quiz.Notes = view.Notes
	quiz.LastModifiedDate = s.now()

	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return domain.QuizView{}, err
	}
	return quiz.View(), nil
}

// DeleteQuiz removes the quiz and its whole subtree, returning the deleted view.
func (s *EntityService) DeleteQuiz(ctx context.Context, caller domain.Identity, id string) (domain.QuizView, error) {
	quiz, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return domain.QuizView{}, err
	}
	if err := authorizeQuizWrite(caller, quiz); err != nil {
		return domain.QuizView{}, err
	}
	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		return domain.QuizView{}, err
	}
	return quiz.View(), nil
}

func (s *EntityService) GetQuestion(ctx context.Context, id string) (domain.QuestionView, error) {
	question, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return domain.QuestionView{}, err
	}
	return question.View(), nil
}

// ListQuestions returns the quiz's questions in insertion order.
func (s *EntityService) ListQuestions(ctx context.Context, quizID string) ([]domain.QuestionView, error) {
	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return domain.QuestionViews(questions), nil
}

func (s *EntityService) PostQuestion(ctx context.Context, caller domain.Identity, view domain.QuestionView) (domain.QuestionView, error) {
	if strings.TrimSpace(view.Text) == "" {
		return domain.QuestionView{}, fmt.Errorf("%w: text is required", domain.ErrInvalidPayload)
	}
	quiz, err := s.store.GetQuiz(ctx, view.QuizID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.QuestionView{}, fmt.Errorf("%w: quiz %q", domain.ErrInvalidReference, view.QuizID)
		}
		return domain.QuestionView{}, err
	}
	if err := authorizeQuizWrite(caller, quiz); err != nil {
		return domain.QuestionView{}, err
	}

	now := s.now()
	question := domain.Question{
		ID:               s.newID(),
		QuizID:           quiz.ID,
		Text:             view.Text,
		Notes:            view.Notes,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := s.store.CreateQuestion(ctx, question); err != nil {
		return domain.QuestionView{}, err
	}
	return question.View(), nil
}

// PutQuestion updates text and notes. The parent quiz reference is immutable.
func (s *EntityService) PutQuestion(ctx context.Context, caller domain.Identity, view domain.QuestionView) (domain.QuestionView, error) {
	if view.ID == "" {
		return domain.QuestionView{}, fmt.Errorf("%w: id is required", domain.ErrInvalidPayload)
	}
	if strings.TrimSpace(view.Text) == "" {
		return domain.QuestionView{}, fmt.Errorf("%w: text is required", domain.ErrInvalidPayload)
	}
	question, err := s.store.GetQuestion(ctx, view.ID)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.QuestionView{}, err
	}

	question.Text = view.Text
	question.Notes = view.Notes
	question.LastModifiedDate = s.now()

	if err := s.store.UpdateQuestion(ctx, question); err != nil {
		return domain.QuestionView{}, err
	}
	return question.View(), nil
}

func (s *EntityService) DeleteQuestion(ctx context.Context, caller domain.Identity, id string) (domain.QuestionView, error) {
	question, err := s.store.GetQuestion(ctx, id)
	if err != nil {
		return domain.QuestionView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.QuestionView{}, err
	}
	if err := s.store.DeleteQuestion(ctx, id); err != nil {
		return domain.QuestionView{}, err
	}
	return question.View(), nil
}

func (s *EntityService) GetAnswer(ctx context.Context, id string) (domain.AnswerView, error) {
	answer, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return domain.AnswerView{}, err
	}
	return answer.View(), nil
}

func (s *EntityService) ListAnswers(ctx context.Context, questionID string) ([]domain.AnswerView, error) {
	answers, err := s.store.ListAnswers(ctx, questionID)
	if err != nil {
		return nil, err
	}
	return domain.AnswerViews(answers), nil
}

func (s *EntityService) PostAnswer(ctx context.Context, caller domain.Identity, view domain.AnswerView) (domain.AnswerView, error) {
	if err := validateAnswer(view); err != nil {
		return domain.AnswerView{}, err
	}
	question, err := s.store.GetQuestion(ctx, view.QuestionID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.AnswerView{}, fmt.Errorf("%w: question %q", domain.ErrInvalidReference, view.QuestionID)
		}
		return domain.AnswerView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.AnswerView{}, err
	}

	now := s.now()
	answer := domain.Answer{
		ID:               s.newID(),
		QuestionID:       question.ID,
		Text:             view.Text,
		Value:            view.Value,
		Notes:            view.Notes,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := s.store.CreateAnswer(ctx, answer); err != nil {
		return domain.AnswerView{}, err
	}
	return answer.View(), nil
}

func (s *EntityService) PutAnswer(ctx context.Context, caller domain.Identity, view domain.AnswerView) (domain.AnswerView, error) {
	if view.ID == "" {
		return domain.AnswerView{}, fmt.Errorf("%w: id is required", domain.ErrInvalidPayload)
	}
	if err := validateAnswer(view); err != nil {
		return domain.AnswerView{}, err
	}
	answer, err := s.store.GetAnswer(ctx, view.ID)
	if err != nil {
		return domain.AnswerView{}, err
	}
	question, err := s.store.GetQuestion(ctx, answer.QuestionID)
	if err != nil {
		return domain.AnswerView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.AnswerView{}, err
	}

	answer.Text = view.Text
	answer.Value = view.Value
	answer.Notes = view.Notes
	answer.LastModifiedDate = s.now()

	if err := s.store.UpdateAnswer(ctx, answer); err != nil {
		return domain.AnswerView{}, err
	}
	return answer.View(), nil
}

func (s *EntityService) DeleteAnswer(ctx context.Context, caller domain.Identity, id string) (domain.AnswerView, error) {
	answer, err := s.store.GetAnswer(ctx, id)
	if err != nil {
		return domain.AnswerView{}, err
	}
	question, err := s.store.GetQuestion(ctx, answer.QuestionID)
	if err != nil {
		return domain.AnswerView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, question.QuizID); err != nil {
		return domain.AnswerView{}, err
	}
	if err := s.store.DeleteAnswer(ctx, id); err != nil {
		return domain.AnswerView{}, err
	}
	return answer.View(), nil
}

func (s *EntityService) GetResult(ctx context.Context, id string) (domain.ResultView, error) {
	result, err := s.store.GetResult(ctx, id)
	if err != nil {
		return domain.ResultView{}, err
	}
	return result.View(), nil
}

func (s *EntityService) ListResults(ctx context.Context, quizID string) ([]domain.ResultView, error) {
	results, err := s.store.ListResults(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return domain.ResultViews(results), nil
}

func (s *EntityService) PostResult(ctx context.Context, caller domain.Identity, view domain.ResultView) (domain.ResultView, error) {
	if err := validateResult(view); err != nil {
		return domain.ResultView{}, err
	}
	quiz, err := s.store.GetQuiz(ctx, view.QuizID)
	if err != nil {
		if domain.IsNotFound(err) {
			return domain.ResultView{}, fmt.Errorf("%w: quiz %q", domain.ErrInvalidReference, view.QuizID)
		}
		return domain.ResultView{}, err
	}
	if err := authorizeQuizWrite(caller, quiz); err != nil {
		return domain.ResultView{}, err
	}

	now := s.now()
	result := domain.Result{
		ID:               s.newID(),
		QuizID:           quiz.ID,
		Text:             view.Text,
		MinValue:         view.MinValue,
		MaxValue:         view.MaxValue,
		Notes:            view.Notes,
		CreatedDate:      now,
		LastModifiedDate: now,
	}
	if err := s.store.CreateResult(ctx, result); err != nil {
		return domain.ResultView{}, err
	}
	return result.View(), nil
}

func (s *EntityService) PutResult(ctx context.Context, caller domain.Identity, view domain.ResultView) (domain.ResultView, error) {
	if view.ID == "" {
		return domain.ResultView{}, fmt.Errorf("%w: id is required", domain.ErrInvalidPayload)
	}
	if err := validateResult(view); err != nil {
		return domain.ResultView{}, err
	}
	result, err := s.store.GetResult(ctx, view.ID)
	if err != nil {
		return domain.ResultView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, result.QuizID); err != nil {
		return domain.ResultView{}, err
	}

	result.Text = view.Text
	result.MinValue = view.MinValue
	result.MaxValue = view.MaxValue
	result.Notes = view.Notes
	result.LastModifiedDate = s.now()

	if err := s.store.UpdateResult(ctx, result); err != nil {
		return domain.ResultView{}, err
	}
	return result.View(), nil
}

func (s *EntityService) DeleteResult(ctx context.Context, caller domain.Identity, id string) (domain.ResultView, error) {
	result, err := s.store.GetResult(ctx, id)
	if err != nil {
		return domain.ResultView{}, err
	}
	if err := s.authorizeByQuiz(ctx, caller, result.QuizID); err != nil {
		return domain.ResultView{}, err
	}
	if err := s.store.DeleteResult(ctx, id); err != nil {
		return domain.ResultView{}, err
	}
	return result.View(), nil
}

func (s *EntityService) authorizeByQuiz(ctx context.Context, caller domain.Identity, quizID string) error {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	return authorizeQuizWrite(caller, quiz)
}

func authorizeQuizWrite(caller domain.Identity, quiz domain.Quiz) error {
	if caller.UserID == "" {
		return domain.ErrUnauthorized
	}
	if caller.UserID == quiz.UserID || caller.IsAdmin() {
		return nil
	}
	return domain.ErrForbidden
}

func validateAnswer(view domain.AnswerView) error {
	if strings.TrimSpace(view.Text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrInvalidPayload)
	}
	if view.Value < domain.AnswerValueMin || view.Value > domain.AnswerValueMax {
		return fmt.Errorf("%w: value %d outside [%d, %d]",
			domain.ErrInvalidPayload, view.Value, domain.AnswerValueMin, domain.AnswerValueMax)
	}
	return nil
}

func validateResult(view domain.ResultView) error {
	if strings.TrimSpace(view.Text) == "" {
		return fmt.Errorf("%w: text is required", domain.ErrInvalidPayload)
	}
	if view.MinValue > view.MaxValue {
		return fmt.Errorf("%w: minValue %d greater than maxValue %d",
			domain.ErrInvalidPayload, view.MinValue, view.MaxValue)
	}
	return nil
}
