package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"testmaker-service/internal/app"
	"testmaker-service/internal/auth"
	"testmaker-service/internal/config"
	"testmaker-service/internal/infra/memory"
	"testmaker-service/internal/infra/postgres"
	redisinfra "testmaker-service/internal/infra/redis"
	"testmaker-service/internal/seed"
	transport "testmaker-service/internal/transport/http"
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
		finalPort = "8080"
	}

	var store app.Store
	var loader memory.AttemptLoader
	if cfg.Postgres.URL != "" {
		db := openBunDB(cfg.Postgres.URL)
		defer db.Close()
		store = postgres.NewStore(db)

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = postgres.NewAttemptLoader(pool)
	} else {
		// no database configured: run on demo data
		memStore := memory.NewStore()
		if err := seed.Seed(ctx, memStore); err != nil {
			return err
		}
		store = memStore
		loader = memory.NewStoreLoader(memStore)
	}

	attemptTTL := config.TTLDuration(cfg.Attempt.CacheTTL, 10*time.Minute)
	var attempts app.AttemptRepository
	if cfg.Redis.Addr != "" {
		redisClient := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		attempts = redisinfra.NewAttemptCache(redisClient, loader, attemptTTL)
	} else {
		attempts = memory.NewAttemptCache(loader, attemptTTL)
	}

	secret := cfg.Auth.Secret
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Printf("auth secret not configured, using development default")
	}
	tokens := auth.NewTokenIssuer(secret, config.TTLDuration(cfg.Auth.TokenTTL, 2*time.Hour))

	entities := app.NewEntityService(store)
	scorer := app.NewScorer(attempts)
	handler := transport.NewHandler(entities, scorer, store, tokens)
	wsHandler := transport.NewWSHandler(attempts)

	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())
	engine.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	engine.GET("/ws/attempt", gin.WrapF(wsHandler.ServeWS))
	handler.Register(engine)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting testmaker service on :%s", finalPort)
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
