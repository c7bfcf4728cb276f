package domain

import "time"

// Roles a user account can hold. Administrators may edit any quiz.
const (
	RoleAdministrator  = "Administrator"
	RoleRegisteredUser = "RegisteredUser"
)

// User is a registered account that can author quizzes.
type User struct {
	ID               string
	UserName         string
	Email            string
	PasswordHash     string
	Roles            []string
	CreatedDate      time.Time
	LastModifiedDate time.Time
}

// Quiz is the root entity: it owns Questions and defines Result bands.
type Quiz struct {
	ID               string
	UserID           string
	Title            string
	Description      string
	Text             string
	Notes            string
	ViewCount        int64
	CreatedDate      time.Time
	LastModifiedDate time.Time
}

// Question is a single prompt within a quiz.
type Question struct {
	ID               string
	QuizID           string
	Text             string
	Notes            string
	CreatedDate      time.Time
	LastModifiedDate time.Time
}

// Answer is a selectable choice carrying a signed score contribution.
type Answer struct {
	ID               string
	QuestionID       string
	Text             string
	Value            int
	Notes            string
	CreatedDate      time.Time
	LastModifiedDate time.Time
}

// Result is a named outcome band matching totals in [MinValue, MaxValue].
type Result struct {
	ID               string
	QuizID           string
	Text             string
	MinValue         int
	MaxValue         int
	Notes            string
	CreatedDate      time.Time
	LastModifiedDate time.Time
}

// Identity is the authenticated caller a write operation runs as.
type Identity struct {
	UserID   string
	UserName string
	Roles    []string
}

func (i Identity) IsAdmin() bool {
	for _, r := range i.Roles {
		if r == RoleAdministrator {
			return true
		}
	}
	return false
}

// QuizOrder selects the sort applied to curated quiz listings.
type QuizOrder string

const (
	QuizOrderLatest QuizOrder = "latest"
	QuizOrderTitle  QuizOrder = "title"
	QuizOrderRandom QuizOrder = "random"
)

// AnswerValueMin and AnswerValueMax bound the score contribution accepted
// at the payload boundary; the entity itself stores any int.
const (
	AnswerValueMin = -5
	AnswerValueMax = 5
)

// QuestionContent pairs a question with its answer choices.
type QuestionContent struct {
	Question Question
	Answers  []Answer
}

// AttemptContent aggregates everything needed to score one quiz attempt:
// the quiz, its questions with answers, and its result bands in listing order.
type AttemptContent struct {
	Quiz      Quiz
	Questions []QuestionContent
	Results   []Result
}
