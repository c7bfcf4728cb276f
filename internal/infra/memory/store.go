package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"testmaker-service/internal/domain"
)

// Store is an in-memory implementation of app.Store: one table per entity
// kind keyed by id, guarded by a single lock so a cascading quiz delete is
// atomic across the whole subtree.
type Store struct {
	rnd *rand.Rand

	mu        sync.RWMutex
	users     map[string]domain.User
	quizzes   map[string]domain.Quiz
	questions map[string]domain.Question
	answers   map[string]domain.Answer
	results   map[string]domain.Result
}

func NewStore() *Store {
	return &Store{
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		users:     make(map[string]domain.User),
		quizzes:   make(map[string]domain.Quiz),
		questions: make(map[string]domain.Question),
		answers:   make(map[string]domain.Answer),
		results:   make(map[string]domain.Result),
	}
}

func (s *Store) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

func (s *Store) GetUserByName(_ context.Context, name string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.UserName == name {
			return user, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound
}

func (s *Store) CreateUser(_ context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *Store) GetQuiz(_ context.Context, id string) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *Store) ListQuizzes(_ context.Context, order domain.QuizOrder, limit int) ([]domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quizzes := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		quizzes = append(quizzes, quiz)
	}

	switch order {
	case domain.QuizOrderLatest:
		sort.Slice(quizzes, func(i, j int) bool {
			if !quizzes[i].CreatedDate.Equal(quizzes[j].CreatedDate) {
				return quizzes[i].CreatedDate.After(quizzes[j].CreatedDate)
			}
			return quizzes[i].ID < quizzes[j].ID
		})
	case domain.QuizOrderTitle:
		sort.Slice(quizzes, func(i, j int) bool {
			if quizzes[i].Title != quizzes[j].Title {
				return quizzes[i].Title < quizzes[j].Title
			}
			return quizzes[i].ID < quizzes[j].ID
		})
	case domain.QuizOrderRandom:
		// sample without replacement from a shuffled snapshot
		sort.Slice(quizzes, func(i, j int) bool { return quizzes[i].ID < quizzes[j].ID })
		s.rnd.Shuffle(len(quizzes), func(i, j int) {
			quizzes[i], quizzes[j] = quizzes[j], quizzes[i]
		})
	}

	if limit > 0 && len(quizzes) > limit {
		quizzes = quizzes[:limit]
	}
	return quizzes, nil
}

func (s *Store) CreateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) UpdateQuiz(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.quizzes[quiz.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	quiz.ViewCount = stored.ViewCount
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *Store) DeleteQuiz(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	for questionID, question := range s.questions {
		if question.QuizID != id {
			continue
		}
		for answerID, answer := range s.answers {
			if answer.QuestionID == questionID {
				delete(s.answers, answerID)
			}
		}
		delete(s.questions, questionID)
	}
	for resultID, result := range s.results {
		if result.QuizID == id {
			delete(s.results, resultID)
		}
	}
	delete(s.quizzes, id)
	return nil
}

func (s *Store) BumpQuizViews(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	quiz, ok := s.quizzes[id]
	if !ok {
		return 0, domain.ErrQuizNotFound
	}
	quiz.ViewCount++
	s.quizzes[id] = quiz
	return quiz.ViewCount, nil
}

func (s *Store) GetQuestion(_ context.Context, id string) (domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	question, ok := s.questions[id]
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return question, nil
}

func (s *Store) ListQuestions(_ context.Context, quizID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions := make([]domain.Question, 0)
	for _, question := range s.questions {
		if question.QuizID == quizID {
			questions = append(questions, question)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		return listingLess(questions[i].CreatedDate, questions[i].ID, questions[j].CreatedDate, questions[j].ID)
	})
	return questions, nil
}

func (s *Store) CreateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[question.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.questions[question.ID] = question
	return nil
}

func (s *Store) UpdateQuestion(_ context.Context, question domain.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[question.ID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.questions[question.ID] = question
	return nil
}

func (s *Store) DeleteQuestion(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return domain.ErrQuestionNotFound
	}
	for answerID, answer := range s.answers {
		if answer.QuestionID == id {
			delete(s.answers, answerID)
		}
	}
	delete(s.questions, id)
	return nil
}

func (s *Store) GetAnswer(_ context.Context, id string) (domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.answers[id]
	if !ok {
		return domain.Answer{}, domain.ErrAnswerNotFound
	}
	return answer, nil
}

func (s *Store) ListAnswers(_ context.Context, questionID string) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers := make([]domain.Answer, 0)
	for _, answer := range s.answers {
		if answer.QuestionID == questionID {
			answers = append(answers, answer)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		return listingLess(answers[i].CreatedDate, answers[i].ID, answers[j].CreatedDate, answers[j].ID)
	})
	return answers, nil
}

func (s *Store) CreateAnswer(_ context.Context, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[answer.QuestionID]; !ok {
		return domain.ErrQuestionNotFound
	}
	s.answers[answer.ID] = answer
	return nil
}

func (s *Store) UpdateAnswer(_ context.Context, answer domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[answer.ID]; !ok {
		return domain.ErrAnswerNotFound
	}
	s.answers[answer.ID] = answer
	return nil
}

func (s *Store) DeleteAnswer(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[id]; !ok {
		return domain.ErrAnswerNotFound
	}
	delete(s.answers, id)
	return nil
}

func (s *Store) GetResult(_ context.Context, id string) (domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[id]
	if !ok {
		return domain.Result{}, domain.ErrResultNotFound
	}
	return result, nil
}

func (s *Store) ListResults(_ context.Context, quizID string) ([]domain.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]domain.Result, 0)
	for _, result := range s.results {
		if result.QuizID == quizID {
			results = append(results, result)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return listingLess(results[i].CreatedDate, results[i].ID, results[j].CreatedDate, results[j].ID)
	})
	return results, nil
}

func (s *Store) CreateResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[result.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	s.results[result.ID] = result
	return nil
}

func (s *Store) UpdateResult(_ context.Context, result domain.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[result.ID]; !ok {
		return domain.ErrResultNotFound
	}
	s.results[result.ID] = result
	return nil
}

func (s *Store) DeleteResult(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[id]; !ok {
		return domain.ErrResultNotFound
	}
	delete(s.results, id)
	return nil
}

// listingLess is the documented listing order: CreatedDate ascending, id
// ascending as the tie-break.
func listingLess(t1 time.Time, id1 string, t2 time.Time, id2 string) bool {
	if !t1.Equal(t2) {
		return t1.Before(t2)
	}
	return id1 < id2
}
