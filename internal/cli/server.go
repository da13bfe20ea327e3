package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"brainbolt-service/internal/app"
	"brainbolt-service/internal/config"
	"brainbolt-service/internal/infra/memory"
	pgstore "brainbolt-service/internal/infra/postgres"
	redisstore "brainbolt-service/internal/infra/redis"
	transport "brainbolt-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "4000"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	seed := memory.NewSeedLoader()
	var loader memory.CatalogLoader = seed
	catalogTTL := time.Duration(0) // static seed never expires
	if pool != nil {
		questions, err := seed.LoadCatalog(ctx)
		if err != nil {
			return err
		}
		if err := pgstore.SeedCatalog(ctx, pool, questions); err != nil {
			return err
		}
		loader = pgstore.NewCatalogLoader(pool)
		catalogTTL = config.Duration(cfg.Quiz.CatalogTTL, 10*time.Minute)
	}
	catalog := memory.NewCatalog(loader, catalogTTL)

	store := memory.NewProgressStore()

	var ledger app.IdempotencyLedger = memory.NewIdempotencyLedger()
	var ranks app.RankComputer = memory.NewRankComputer(store)
	if redisClient != nil {
		ledger = redisstore.NewIdempotencyLedger(redisClient, config.Duration(cfg.Redis.TTL, 0))
		ranks = redisstore.NewRankComputer(redisClient)
	}

	var answers app.AnswerLog = memory.NewAnswerLog()
	if pool != nil {
		answers = pgstore.NewAnswerLog(pool)
	}

	decay := config.Duration(cfg.Quiz.StreakDecay, app.DefaultDecayWindow)
	service := app.NewQuizService(catalog, store, ledger, answers, ranks, decay)

	handler := transport.NewHandler(service)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	handler.Register(mux)
	mux.HandleFunc("/ws/leaderboard", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
