package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"testmaker-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID               string    `bun:"id,pk"`
	UserName         string    `bun:"user_name,notnull"`
	Email            string    `bun:"email,notnull"`
	PasswordHash     string    `bun:"password_hash,notnull"`
	Roles            []string  `bun:"roles,array"`
	CreatedDate      time.Time `bun:"created_date,notnull"`
	LastModifiedDate time.Time `bun:"last_modified_date,notnull"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID               string    `bun:"id,pk"`
	UserID           string    `bun:"user_id,notnull"`
	Title            string    `bun:"title,notnull"`
	Description      string    `bun:"description"`
	Text             string    `bun:"text"`
	Notes            string    `bun:"notes"`
	ViewCount        int64     `bun:"view_count"`
	CreatedDate      time.Time `bun:"created_date,notnull"`
	LastModifiedDate time.Time `bun:"last_modified_date,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID               string    `bun:"id,pk"`
	QuizID           string    `bun:"quiz_id,notnull"`
	Text             string    `bun:"text,notnull"`
	Notes            string    `bun:"notes"`
	CreatedDate      time.Time `bun:"created_date,notnull"`
	LastModifiedDate time.Time `bun:"last_modified_date,notnull"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID               string    `bun:"id,pk"`
	QuestionID       string    `bun:"question_id,notnull"`
	Text             string    `bun:"text,notnull"`
	Value            int       `bun:"value,notnull"`
	Notes            string    `bun:"notes"`
	CreatedDate      time.Time `bun:"created_date,notnull"`
	LastModifiedDate time.Time `bun:"last_modified_date,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:results,alias:r"`

	ID               string    `bun:"id,pk"`
	QuizID           string    `bun:"quiz_id,notnull"`
	Text             string    `bun:"text,notnull"`
	MinValue         int       `bun:"min_value,notnull"`
	MaxValue         int       `bun:"max_value,notnull"`
	Notes            string    `bun:"notes"`
	CreatedDate      time.Time `bun:"created_date,notnull"`
	LastModifiedDate time.Time `bun:"last_modified_date,notnull"`
}

// Store is the bun-backed implementation of app.Store. Cascading deletes are
// handled by the schema's ON DELETE CASCADE constraints, so removing a quiz
// is a single atomic statement.
type Store struct {
	db  *bun.DB
	rnd *rand.Rand
}

func NewStore(db *bun.DB) *Store {
	return &Store{
		db:  db,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("u.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.User{}, wrapNotFound(err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) GetUserByName(ctx context.Context, name string) (domain.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where("u.user_name = ?", name).Scan(ctx)
	if err != nil {
		return domain.User{}, wrapNotFound(err, domain.ErrUserNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.User) error {
	row := userRowFrom(user)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *Store) GetQuiz(ctx context.Context, id string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("q.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Quiz{}, wrapNotFound(err, domain.ErrQuizNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuizzes(ctx context.Context, order domain.QuizOrder, limit int) ([]domain.Quiz, error) {
	if order == domain.QuizOrderRandom {
		return s.listRandomQuizzes(ctx, limit)
	}

	var rows []quizRow
	query := s.db.NewSelect().Model(&rows).Limit(limit)
	switch order {
	case domain.QuizOrderLatest:
		query = query.OrderExpr("q.created_date DESC, q.id ASC")
	case domain.QuizOrderTitle:
		query = query.OrderExpr("q.title ASC, q.id ASC")
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	quizzes := make([]domain.Quiz, 0, len(rows))
	for _, row := range rows {
		quizzes = append(quizzes, row.toDomain())
	}
	return quizzes, nil
}

// listRandomQuizzes shuffles a snapshot of ids in-process instead of relying
// on a storage-side ORDER BY random().
func (s *Store) listRandomQuizzes(ctx context.Context, limit int) ([]domain.Quiz, error) {
	var ids []string
	if err := s.db.NewSelect().Model((*quizRow)(nil)).Column("id").OrderExpr("id ASC").Scan(ctx, &ids); err != nil {
		return nil, err
	}
	s.rnd.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	if len(ids) == 0 {
		return []domain.Quiz{}, nil
	}

	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Where("q.id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, err
	}
	byID := make(map[string]quizRow, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	quizzes := make([]domain.Quiz, 0, len(ids))
	for _, id := range ids {
		if row, ok := byID[id]; ok {
			quizzes = append(quizzes, row.toDomain())
		}
	}
	return quizzes, nil
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := quizRowFrom(quiz)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return err
}

func (s *Store) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := quizRowFrom(quiz)
	res, err := s.db.NewUpdate().Model(&row).
		Column("title", "description", "text", "notes", "last_modified_date").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) DeleteQuiz(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuizNotFound)
}

func (s *Store) BumpQuizViews(ctx context.Context, id string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE quizzes SET view_count = view_count + 1 WHERE id = ? RETURNING view_count`, id,
	).Scan(&count)
	if err != nil {
		return 0, wrapNotFound(err, domain.ErrQuizNotFound)
	}
	return count, nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (domain.Question, error) {
	var row questionRow
	err := s.db.NewSelect().Model(&row).Where("qn.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Question{}, wrapNotFound(err, domain.ErrQuestionNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().Model(&rows).
		Where("qn.quiz_id = ?", quizID).
		OrderExpr("qn.created_date ASC, qn.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	questions := make([]domain.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toDomain())
	}
	return questions, nil
}

func (s *Store) CreateQuestion(ctx context.Context, question domain.Question) error {
	row := questionRowFrom(question)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return wrapForeignKey(err, domain.ErrQuizNotFound)
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	row := questionRowFrom(question)
	res, err := s.db.NewUpdate().Model(&row).
		Column("text", "notes", "last_modified_date").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*questionRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrQuestionNotFound)
}

func (s *Store) GetAnswer(ctx context.Context, id string) (domain.Answer, error) {
	var row answerRow
	err := s.db.NewSelect().Model(&row).Where("a.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Answer{}, wrapNotFound(err, domain.ErrAnswerNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID string) ([]domain.Answer, error) {
	var rows []answerRow
	err := s.db.NewSelect().Model(&rows).
		Where("a.question_id = ?", questionID).
		OrderExpr("a.created_date ASC, a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	answers := make([]domain.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.toDomain())
	}
	return answers, nil
}

func (s *Store) CreateAnswer(ctx context.Context, answer domain.Answer) error {
	row := answerRowFrom(answer)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return wrapForeignKey(err, domain.ErrQuestionNotFound)
}

func (s *Store) UpdateAnswer(ctx context.Context, answer domain.Answer) error {
	row := answerRowFrom(answer)
	res, err := s.db.NewUpdate().Model(&row).
		Column("text", "value", "notes", "last_modified_date").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrAnswerNotFound)
}

func (s *Store) DeleteAnswer(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*answerRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrAnswerNotFound)
}

func (s *Store) GetResult(ctx context.Context, id string) (domain.Result, error) {
	var row resultRow
	err := s.db.NewSelect().Model(&row).Where("r.id = ?", id).Scan(ctx)
	if err != nil {
		return domain.Result{}, wrapNotFound(err, domain.ErrResultNotFound)
	}
	return row.toDomain(), nil
}

func (s *Store) ListResults(ctx context.Context, quizID string) ([]domain.Result, error) {
	var rows []resultRow
	err := s.db.NewSelect().Model(&rows).
		Where("r.quiz_id = ?", quizID).
		OrderExpr("r.created_date ASC, r.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]domain.Result, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, nil
}

func (s *Store) CreateResult(ctx context.Context, result domain.Result) error {
	row := resultRowFrom(result)
	_, err := s.db.NewInsert().Model(&row).Exec(ctx)
	return wrapForeignKey(err, domain.ErrQuizNotFound)
}

func (s *Store) UpdateResult(ctx context.Context, result domain.Result) error {
	row := resultRowFrom(result)
	res, err := s.db.NewUpdate().Model(&row).
		Column("text", "min_value", "max_value", "notes", "last_modified_date").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrResultNotFound)
}

func (s *Store) DeleteResult(ctx context.Context, id string) error {
	res, err := s.db.NewDelete().Model((*resultRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return err
	}
	return checkAffected(res, domain.ErrResultNotFound)
}

func wrapNotFound(err, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// wrapForeignKey maps a violated parent FK on insert to the parent's
// not-found sentinel. The service layer checks the parent first, so this
// only fires when the parent vanished between check and insert.
func wrapForeignKey(err, notFound error) error {
	if err == nil {
		return nil
	}
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) && pgErr.Field('C') == "23503" {
		return fmt.Errorf("%w: %v", notFound, err)
	}
	return err
}

func checkAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:               r.ID,
		UserName:         r.UserName,
		Email:            r.Email,
		PasswordHash:     r.PasswordHash,
		Roles:            r.Roles,
		CreatedDate:      r.CreatedDate,
		LastModifiedDate: r.LastModifiedDate,
	}
}

func userRowFrom(u domain.User) userRow {
	return userRow{
		ID:               u.ID,
		UserName:         u.UserName,
		Email:            u.Email,
		PasswordHash:     u.PasswordHash,
		Roles:            u.Roles,
		CreatedDate:      u.CreatedDate,
		LastModifiedDate: u.LastModifiedDate,
	}
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:               r.ID,
		UserID:           r.UserID,
		Title:            r.Title,
		Description:      r.Description,
		Text:             r.Text,
		Notes:            r.Notes,
		ViewCount:        r.ViewCount,
		CreatedDate:      r.CreatedDate,
		LastModifiedDate: r.LastModifiedDate,
	}
}

func quizRowFrom(q domain.Quiz) quizRow {
	return quizRow{
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

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:               r.ID,
		QuizID:           r.QuizID,
		Text:             r.Text,
		Notes:            r.Notes,
		CreatedDate:      r.CreatedDate,
		LastModifiedDate: r.LastModifiedDate,
	}
}

func questionRowFrom(q domain.Question) questionRow {
	return questionRow{
		ID:               q.ID,
		QuizID:           q.QuizID,
		Text:             q.Text,
		Notes:            q.Notes,
		CreatedDate:      q.CreatedDate,
		LastModifiedDate: q.LastModifiedDate,
	}
}

func (r answerRow) toDomain() domain.Answer {
	return domain.Answer{
		ID:               r.ID,
		QuestionID:       r.QuestionID,
		Text:             r.Text,
		Value:            r.Value,
		Notes:            r.Notes,
		CreatedDate:      r.CreatedDate,
		LastModifiedDate: r.LastModifiedDate,
	}
}

func answerRowFrom(a domain.Answer) answerRow {
	return answerRow{
		ID:               a.ID,
		QuestionID:       a.QuestionID,
		Text:             a.Text,
		Value:            a.Value,
		Notes:            a.Notes,
		CreatedDate:      a.CreatedDate,
		LastModifiedDate: a.LastModifiedDate,
	}
}

func (r resultRow) toDomain() domain.Result {
	return domain.Result{
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

func resultRowFrom(r domain.Result) resultRow {
	return resultRow{
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
