package domain

import "time"

// Views are the flat records exchanged with the transport layer. They mirror
// the externally-visible entity fields; internal-only fields (password hashes)
// never appear here.

type UserView struct {
	ID               string    `json:"id"`
	UserName         string    `json:"userName"`
	Email            string    `json:"email"`
	Roles            []string  `json:"roles"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

type QuizView struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Text             string    `json:"text"`
	Notes            string    `json:"notes"`
	ViewCount        int64     `json:"viewCount"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

type QuestionView struct {
	ID               string    `json:"id"`
	QuizID           string    `json:"quizId"`
	Text             string    `json:"text"`
	Notes            string    `json:"notes"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

type AnswerView struct {
	ID               string    `json:"id"`
	QuestionID       string    `json:"questionId"`
	Text             string    `json:"text"`
	Value            int       `json:"value"`
	Notes            string    `json:"notes"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

type ResultView struct {
	ID               string    `json:"id"`
	QuizID           string    `json:"quizId"`
	Text             string    `json:"text"`
	MinValue         int       `json:"minValue"`
	MaxValue         int       `json:"maxValue"`
	Notes            string    `json:"notes"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

func (u User) View() UserView {
	return UserView{
		ID:               u.ID,
		UserName:         u.UserName,
		Email:            u.Email,
		Roles:            u.Roles,
		CreatedDate:      u.CreatedDate,
		LastModifiedDate: u.LastModifiedDate,
	}
}

func (q Quiz) View() QuizView {
	return QuizView{
		ID:               q.ID,
		UserID:           q.UserID,
		Title:            q.Title,
		Description:      q.Description,
		Text:             q.Text,
		Notes:            q.Notes,
		ViewCount:        q.ViewCount,
		CreatedDate:      q.CreatedDate,
		LastModifiedDate: q.LastModifiedDate,
	}
}

func (q Question) View() QuestionView {
	return QuestionView{
		ID:               q.ID,
		QuizID:           q.QuizID,
		Text:             q.Text,
		Notes:            q.Notes,
		CreatedDate:      q.CreatedDate,
		LastModifiedDate: q.LastModifiedDate,
	}
}

func (a Answer) View() AnswerView {
	return AnswerView{
		ID:               a.ID,
		QuestionID:       a.QuestionID,
		Text:             a.Text,
		Value:            a.Value,
		Notes:            a.Notes,
		CreatedDate:      a.CreatedDate,
		LastModifiedDate: a.LastModifiedDate,
	}
}

func (r Result) View() ResultView {
	return ResultView{
		ID:               r.ID,
		QuizID:           r.QuizID,
		Text:             r.Text,
		MinValue:         r.MinValue,
		MaxValue:         r.MaxValue,
		Notes:            r.Notes,
		CreatedDate:      r.CreatedDate,
		LastModifiedDate: r.LastModifiedDate,
	}
}

func QuizViews(quizzes []Quiz) []QuizView {
	views := make([]QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		views = append(views, q.View())
	}
	return views
}

func QuestionViews(questions []Question) []QuestionView {
	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, q.View())
	}
	return views
}

func AnswerViews(answers []Answer) []AnswerView {
	views := make([]AnswerView, 0, len(answers))
	for _, a := range answers {
		views = append(views, a.View())
	}
	return views
}

func ResultViews(results []Result) []ResultView {
	views := make([]ResultView, 0, len(results))
	for _, r := range results {
		views = append(views, r.View())
	}
	return views
}
