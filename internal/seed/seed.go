// Package seed populates a store with demo users and sample quizzes so a
// fresh deployment has something to browse and score against.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"testmaker-service/internal/app"
	"testmaker-service/internal/auth"
	"testmaker-service/internal/domain"
)

const adminUserName = "Admin"

// Seed inserts the demo users and quizzes if the store has no Admin account
// yet. Running it against an already-seeded store is a no-op.
func Seed(ctx context.Context, store app.Store) error {
	return seedWithClock(ctx, store, time.Now)
}

func seedWithClock(ctx context.Context, store app.Store, now func() time.Time) error {
	if _, err := store.GetUserByName(ctx, adminUserName); err == nil {
		return nil
	} else if !domain.IsNotFound(err) {
		return err
	}

	admin, err := createUser(ctx, store, now, adminUserName, "admin@testmaker.local", "Pass4Admin",
		domain.RoleRegisteredUser, domain.RoleAdministrator)
	if err != nil {
		return err
	}
	for _, u := range []struct{ name, email, password string }{
		{"Andrew", "andrew@testmaker.local", "Pass4Andrew"},
		{"Beth", "beth@testmaker.local", "Pass4Beth"},
		{"Charley", "charley@testmaker.local", "Pass4Charley"},
	} {
		if _, err := createUser(ctx, store, now, u.name, u.email, u.password, domain.RoleRegisteredUser); err != nil {
			return err
		}
	}

	for _, q := range sampleQuizzes() {
		if err := createQuiz(ctx, store, now, admin.ID, q); err != nil {
			return err
		}
	}
	return nil
}

func createUser(ctx context.Context, store app.Store, now func() time.Time, name, email, password string, roles ...string) (domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, err
	}
	ts := now()
	user := domain.User{
		ID:               uuid.NewString(),
		UserName:         name,
		Email:            email,
		PasswordHash:     hash,
		Roles:            roles,
		CreatedDate:      ts,
		LastModifiedDate: ts,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("seed user %s: %w", name, err)
	}
	return user, nil
}

type sampleQuiz struct {
	title       string
	description string
	text        string
	questions   []sampleQuestion
	results     []sampleResult
}

type sampleQuestion struct {
	text    string
	answers []sampleAnswer
}

type sampleAnswer struct {
	text  string
	value int
}

type sampleResult struct {
	text     string
	min, max int
}

func createQuiz(ctx context.Context, store app.Store, now func() time.Time, ownerID string, sample sampleQuiz) error {
	ts := now()
	quiz := domain.Quiz{
		ID:               uuid.NewString(),
		UserID:           ownerID,
		Title:            sample.title,
		Description:      sample.description,
		Text:             sample.text,
		CreatedDate:      ts,
		LastModifiedDate: ts,
	}
	if err := store.CreateQuiz(ctx, quiz); err != nil {
		return fmt.Errorf("seed quiz %q: %w", sample.title, err)
	}

	for _, sq := range sample.questions {
		ts := now()
		question := domain.Question{
			ID:               uuid.NewString(),
			QuizID:           quiz.ID,
			Text:             sq.text,
			CreatedDate:      ts,
			LastModifiedDate: ts,
		}
		if err := store.CreateQuestion(ctx, question); err != nil {
			return fmt.Errorf("seed question %q: %w", sq.text, err)
		}
		for _, sa := range sq.answers {
			ts := now()
			answer := domain.Answer{
				ID:               uuid.NewString(),
				QuestionID:       question.ID,
				Text:             sa.text,
				Value:            sa.value,
				CreatedDate:      ts,
				LastModifiedDate: ts,
			}
			if err := store.CreateAnswer(ctx, answer); err != nil {
				return fmt.Errorf("seed answer %q: %w", sa.text, err)
			}
		}
	}

	for _, sr := range sample.results {
		ts := now()
		result := domain.Result{
			ID:               uuid.NewString(),
			QuizID:           quiz.ID,
			Text:             sr.text,
			MinValue:         sr.min,
			MaxValue:         sr.max,
			CreatedDate:      ts,
			LastModifiedDate: ts,
		}
		if err := store.CreateResult(ctx, result); err != nil {
			return fmt.Errorf("seed result %q: %w", sr.text, err)
		}
	}
	return nil
}

func sampleQuizzes() []sampleQuiz {
	return []sampleQuiz{
		{
			title:       "Are you more Light or Dark side of the Force?",
			description: "Star Wars personality test",
			text: "Choose wisely you must, young padawan: this test will prove " +
				"if your will is strong enough to adhere to the principles of the " +
				"light side of the Force, or if you're fated to embrace the dark side.",
			questions: []sampleQuestion{
				{
					text: "A stranger drops their wallet. What do you do?",
					answers: []sampleAnswer{
						{text: "Return it immediately", value: 2},
						{text: "Keep walking", value: 0},
						{text: "Take the credits", value: -2},
					},
				},
				{
					text: "Your master gives an order you disagree with.",
					answers: []sampleAnswer{
						{text: "Trust their judgement", value: 2},
						{text: "Argue, then comply", value: 0},
						{text: "Ignore it and act alone", value: -2},
					},
				},
				{
					text: "What fuels you in a duel?",
					answers: []sampleAnswer{
						{text: "Calm and discipline", value: 2},
						{text: "Adrenaline", value: 0},
						{text: "Anger", value: -2},
					},
				},
			},
			results: []sampleResult{
				{text: "A Sith in the making", min: -6, max: -1},
				{text: "Perfectly balanced", min: 0, max: 0},
				{text: "Strong with the light side", min: 1, max: 6},
			},
		},
		{
			title:       "GenX, GenY or GenZ?",
			description: "Find out what decade most represents you",
			text:        "Do you feel comfortable in your generation? Answer and find out!",
			questions: []sampleQuestion{
				{
					text: "How do you prefer to watch a show?",
					answers: []sampleAnswer{
						{text: "Live on TV", value: -1},
						{text: "Streaming, one episode a night", value: 0},
						{text: "Binge the whole season", value: 1},
					},
				},
				{
					text: "A friend calls you. You...",
					answers: []sampleAnswer{
						{text: "Pick up", value: -1},
						{text: "Let it ring and call back later", value: 0},
						{text: "Text back \"what's up?\"", value: 1},
					},
				},
			},
			results: []sampleResult{
				{text: "GenX at heart", min: -2, max: -1},
				{text: "Solidly GenY", min: 0, max: 0},
				{text: "GenZ energy", min: 1, max: 2},
			},
		},
		{
			title:       "Which Shingeki No Kyojin character are you?",
			description: "Attack on Titan personality test",
			text: "Do you relentlessly seek revenge like Eren, protect your " +
				"friends like Mikasa, or rely on strategy like Armin?",
			questions: []sampleQuestion{
				{
					text: "The wall is breached. Your first instinct?",
					answers: []sampleAnswer{
						{text: "Charge", value: -2},
						{text: "Cover the retreat", value: 0},
						{text: "Plan the counterattack", value: 2},
					},
				},
				{
					text: "What do you value most?",
					answers: []sampleAnswer{
						{text: "Freedom", value: -2},
						{text: "The people beside me", value: 0},
						{text: "Knowledge of the world", value: 2},
					},
				},
			},
			results: []sampleResult{
				{text: "Eren", min: -4, max: -2},
				{text: "Mikasa", min: -1, max: 1},
				{text: "Armin", min: 2, max: 4},
			},
		},
	}
}
