package integration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"testmaker-service/internal/app"
	"testmaker-service/internal/domain"
	"testmaker-service/internal/infra/postgres"
	pgmigrations "testmaker-service/internal/infra/postgres/migrations"
	infraredis "testmaker-service/internal/infra/redis"
)

func TestResolveEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	db := openBunDB(t, ctx, pgURL)
	defer db.Close()
	store := postgres.NewStore(db)

	seedEntities(t, ctx, store)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	attempts := infraredis.NewAttemptCache(redisClient, postgres.NewAttemptLoader(pool), 5*time.Minute)
	scorer := app.NewScorer(attempts)

	res, err := scorer.Resolve(ctx, "quiz-1", []string{"a-calm", "b-plan"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if res.Total != 4 {
		t.Fatalf("expected total 4, got %d", res.Total)
	}
	if res.Result.Text != "Strategist" {
		t.Fatalf("expected Strategist band, got %q", res.Result.Text)
	}

	// The aggregate must now be cached in redis.
	if err := redisClient.Get(ctx, "quiz:quiz-1:attempt").Err(); err != nil {
		t.Fatalf("expected cached aggregate, got %v", err)
	}

	if _, err := scorer.Resolve(ctx, "quiz-1", []string{"a-calm", "a-angry"}); !errors.Is(err, domain.ErrInvalidPayload) {
		t.Fatalf("expected duplicate-question rejection, got %v", err)
	}
}

func TestPostgresStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, cleanup := startPostgres(t, ctx)
	defer cleanup()

	db := openBunDB(t, ctx, pgURL)
	defer db.Close()
	store := postgres.NewStore(db)

	seedEntities(t, ctx, store)

	quiz, err := store.GetQuiz(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if quiz.Title != "Temperament" {
		t.Fatalf("expected Temperament, got %q", quiz.Title)
	}

	if count, err := store.BumpQuizViews(ctx, "quiz-1"); err != nil || count != 1 {
		t.Fatalf("expected view count 1, got %d (%v)", count, err)
	}
	if count, err := store.BumpQuizViews(ctx, "quiz-1"); err != nil || count != 2 {
		t.Fatalf("expected view count 2, got %d (%v)", count, err)
	}

	questions, err := store.ListQuestions(ctx, "quiz-1")
	if err != nil {
		t.Fatalf("list questions: %v", err)
	}
	if len(questions) != 2 || questions[0].ID != "q-a" {
		t.Fatalf("expected [q-a q-b] in listing order, got %+v", questions)
	}

	// A child pointing at a missing parent is rejected by the FK.
	err = store.CreateQuestion(ctx, domain.Question{
		ID: "q-orphan", QuizID: "nope", Text: "?",
		CreatedDate: time.Now(), LastModifiedDate: time.Now(),
	})
	if err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound from FK violation, got %v", err)
	}

	// Deleting a quiz cascades through questions, answers, and results.
	if err := store.DeleteQuiz(ctx, "quiz-1"); err != nil {
		t.Fatalf("delete quiz: %v", err)
	}
	if _, err := store.GetQuestion(ctx, "q-a"); err != domain.ErrQuestionNotFound {
		t.Fatalf("expected question gone, got %v", err)
	}
	if _, err := store.GetAnswer(ctx, "a-calm"); err != domain.ErrAnswerNotFound {
		t.Fatalf("expected answer gone, got %v", err)
	}
	if _, err := store.GetResult(ctx, "r-strategist"); err != domain.ErrResultNotFound {
		t.Fatalf("expected result gone, got %v", err)
	}
}

// seedEntities inserts a user and a two-question quiz:
//
//	q-a: a-calm=2, a-angry=-2
//	q-b: b-plan=2, b-charge=-2
//	bands: Berserker [-4,-1], Balanced [0,1], Strategist [2,4]
func seedEntities(t *testing.T, ctx context.Context, store *postgres.Store) {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	err := store.CreateUser(ctx, domain.User{
		ID: "user-1", UserName: "Andrew", Email: "andrew@testmaker.local",
		PasswordHash: "x", Roles: []string{domain.RoleRegisteredUser},
		CreatedDate: base, LastModifiedDate: base,
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	err = store.CreateQuiz(ctx, domain.Quiz{
		ID: "quiz-1", UserID: "user-1", Title: "Temperament",
		CreatedDate: base, LastModifiedDate: base,
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	for i, q := range []domain.Question{
		{ID: "q-a", QuizID: "quiz-1", Text: "Under pressure you..."},
		{ID: "q-b", QuizID: "quiz-1", Text: "The wall is breached. You..."},
	} {
		ts := base.Add(time.Duration(i) * time.Second)
		q.CreatedDate, q.LastModifiedDate = ts, ts
		if err := store.CreateQuestion(ctx, q); err != nil {
			t.Fatalf("create question %s: %v", q.ID, err)
		}
	}
	for i, a := range []domain.Answer{
		{ID: "a-calm", QuestionID: "q-a", Text: "Stay calm", Value: 2},
		{ID: "a-angry", QuestionID: "q-a", Text: "Lash out", Value: -2},
		{ID: "b-plan", QuestionID: "q-b", Text: "Plan", Value: 2},
		{ID: "b-charge", QuestionID: "q-b", Text: "Charge", Value: -2},
	} {
		ts := base.Add(time.Duration(i) * time.Second)
		a.CreatedDate, a.LastModifiedDate = ts, ts
		if err := store.CreateAnswer(ctx, a); err != nil {
			t.Fatalf("create answer %s: %v", a.ID, err)
		}
	}
	for i, r := range []domain.Result{
		{ID: "r-berserker", QuizID: "quiz-1", Text: "Berserker", MinValue: -4, MaxValue: -1},
		{ID: "r-balanced", QuizID: "quiz-1", Text: "Balanced", MinValue: 0, MaxValue: 1},
		{ID: "r-strategist", QuizID: "quiz-1", Text: "Strategist", MinValue: 2, MaxValue: 4},
	} {
		ts := base.Add(time.Duration(i) * time.Second)
		r.CreatedDate, r.LastModifiedDate = ts, ts
		if err := store.CreateResult(ctx, r); err != nil {
			t.Fatalf("create result %s: %v", r.ID, err)
		}
	}
}

func openBunDB(t *testing.T, ctx context.Context, dsn string) *bun.DB {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
