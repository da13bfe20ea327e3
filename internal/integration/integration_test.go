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

	"brainbolt-service/internal/app"
	"brainbolt-service/internal/domain"
	"brainbolt-service/internal/infra/memory"
	pgstore "brainbolt-service/internal/infra/postgres"
	pgmigrations "brainbolt-service/internal/infra/postgres/migrations"
	redisstore "brainbolt-service/internal/infra/redis"
)

func TestSubmitAnswerEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	migrateDB(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	seed := memory.NewSeedLoader()
	questions, err := seed.LoadCatalog(ctx)
	if err != nil {
		t.Fatalf("seed catalog: %v", err)
	}
	if err := pgstore.SeedCatalog(ctx, pool, questions); err != nil {
		t.Fatalf("push catalog: %v", err)
	}

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	catalog := memory.NewCatalog(pgstore.NewCatalogLoader(pool), 5*time.Minute)
	store := memory.NewProgressStore()
	service := app.NewQuizService(
		catalog, store,
		redisstore.NewIdempotencyLedger(redisClient, 0),
		pgstore.NewAnswerLog(pool),
		redisstore.NewRankComputer(redisClient),
		app.DefaultDecayWindow,
	)

	next, err := service.NextQuestion(ctx, "")
	if err != nil {
		t.Fatalf("next question: %v", err)
	}
	if next.Difficulty != 5 {
		t.Fatalf("fresh users start at difficulty 5, got %d", next.Difficulty)
	}

	question, err := catalog.QuestionByID(ctx, next.QuestionID)
	if err != nil {
		t.Fatalf("question lookup: %v", err)
	}

	version := next.StateVersion
	sub := domain.Submission{
		UserID:         next.SessionID,
		QuestionID:     next.QuestionID,
		SelectedAnswer: question.CorrectAnswer,
		StateVersion:   &version,
		IdempotencyKey: "e2e-1",
	}
	result, err := service.SubmitAnswer(ctx, sub)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.Correct || result.ScoreDelta != 82 || result.TotalScore != 82 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.ScoreRank != 1 || result.StreakRank != 1 {
		t.Fatalf("expected top rank for sole user, got %+v", result)
	}

	// A retried submission with the same idempotency key must be rejected.
	if _, err := service.SubmitAnswer(ctx, sub); !errors.Is(err, domain.ErrDuplicateSubmission) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	metrics, err := service.Metrics(ctx, next.SessionID)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if metrics.TotalScore != 82 || metrics.DifficultyHistogram[5] != 1 {
		t.Fatalf("unexpected metrics: %+v", metrics)
	}
	if metrics.RecentPerformance != 100 {
		t.Fatalf("expected 100%% recent performance, got %v", metrics.RecentPerformance)
	}
}

func migrateDB(t *testing.T, ctx context.Context, dsn string) {
	t.Helper()
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
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
