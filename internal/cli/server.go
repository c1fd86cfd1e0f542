package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XianPaz/quizchain/internal/app"
	"github.com/XianPaz/quizchain/internal/config"
	"github.com/XianPaz/quizchain/internal/domain"
	"github.com/XianPaz/quizchain/internal/infra/memory"
	pginfra "github.com/XianPaz/quizchain/internal/infra/postgres"
	"github.com/XianPaz/quizchain/internal/infra/rabbit"
	redisinfra "github.com/XianPaz/quizchain/internal/infra/redis"
	transport "github.com/XianPaz/quizchain/internal/transport/http"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
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

func newLogger(cfg config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: config.LogLevel(cfg.Log.Level)}))
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, log); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "3001"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 2*time.Hour)

	static := memory.NewStaticQuizLoader(sampleQuizzes())
	var loader memory.QuizLoader = static
	var writer app.QuizWriter = static
	memLedger := memory.NewLedger(log)
	var settler app.Settler = memLedger
	var settlements transport.SettlementReader = memLedger
	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		pgLoader := pginfra.NewQuizLoader(pool)
		loader, writer = pgLoader, pgLoader

		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		pgLedger := pginfra.NewSettlementLedger(db)
		settler, settlements = pgLedger, pgLedger
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizCache
	var sessions app.SessionRepository
	if redisClient != nil {
		quizRepo = redisinfra.NewQuizRepository(redisClient, loader, quizTTL)
		sessions = redisinfra.NewSessionStore(redisClient, redisTTL)
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		sessions = memory.NewSessionStore()
	}

	var publisher app.EventPublisher = app.NopPublisher{}
	if cfg.Rabbit.URL != "" {
		p, err := rabbit.Dial(cfg.Rabbit.URL, cfg.Rabbit.Exchange)
		if err != nil {
			return err
		}
		defer p.Close()
		publisher = p
	}

	store := app.NewSessionService(sessions, quizRepo)
	hub := transport.NewHub(log)
	orchestrator := app.NewOrchestrator(store, hub, settler, log,
		app.WithPublisher(publisher),
		app.WithSettleTimeout(config.TTLDuration(cfg.Settlement.Timeout, 30*time.Second)),
	)

	router := mux.NewRouter()
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	router.HandleFunc("/ws", transport.NewWSHandler(orchestrator, hub, log).ServeWS)
	transport.NewSessionsHandler(store, orchestrator, log).Register(router)
	transport.NewQuizzesHandler(app.NewQuizLibrary(writer, quizRepo, log), log).Register(router)
	transport.NewRewardsHandler(settlements, log).Register(router)

	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
	}

	go func() {
		log.Info("starting quizchain", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info("shutting down server")
	case <-ctx.Done():
		log.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = server.Shutdown(shutdownCtx)
	orchestrator.Wait()
	return err
}

// sampleQuizzes seeds the static loader used when no database is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"sample": {
			ID:   "sample",
			Name: "Blockchain Basics",
			Questions: []domain.Question{
				{
					Question:  "What does a block in a blockchain contain?",
					Options:   []string{"Only the current date", "Transactions and the previous block's hash", "User passwords", "Nothing"},
					Correct:   1,
					TimeLimit: 20,
				},
				{
					Question:  "Which token standard is used for fungible tokens on Ethereum?",
					Options:   []string{"ERC-721", "ERC-1155", "ERC-20"},
					Correct:   2,
					TimeLimit: 15,
				},
			},
		},
	}
}
