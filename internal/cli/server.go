package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"timed-quiz-service/internal/app"
	"timed-quiz-service/internal/audio"
	"timed-quiz-service/internal/config"
	"timed-quiz-service/internal/domain"
	"timed-quiz-service/internal/engine"
	"timed-quiz-service/internal/infra/memory"
	pgstore "timed-quiz-service/internal/infra/postgres"
	redisstore "timed-quiz-service/internal/infra/redis"
	transport "timed-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := settingsFor(cmd)
			return runServer(cmd.Context(), v.GetString("config"), v.GetString("port"))
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := slog.Default()

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var (
		loader  memory.QuizLoader = memory.NewStaticQuizLoader(sampleQuizzes())
		results engine.ResultSink
	)
	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		defer db.Close()
		if err := runMigrations(ctx, db); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
		loader = pgstore.NewQuizLoader(pool)
		results = pgstore.NewResultSink(db)
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var (
		quizRepo app.QuizRepository
		store    app.SessionRepository
		prefs    app.PreferenceStore
	)
	if redisClient != nil {
		quizRepo = redisstore.NewQuizRepository(redisClient, loader, quizTTL)
		store = redisstore.NewSessionStore(redisClient, redisTTL)
		prefs = redisstore.NewPreferenceStore(redisClient)
		if results == nil {
			results = redisstore.NewResultSink(redisClient, 0)
		}
	} else {
		quizRepo = memory.NewQuizRepository(loader, quizTTL)
		store = memory.NewSessionStore()
		prefs = memory.NewPreferenceStore()
	}
	if results == nil {
		results = memory.NewResultSink()
	}

	device, err := audioDevice(cfg)
	if err != nil {
		return err
	}
	cues := audio.NewContext(device, audio.Options{SampleRate: cfg.Audio.SampleRate, Logger: logger})
	defer cues.Close()

	service, err := app.NewSessionService(app.Options{
		Sessions:      store,
		Quizzes:       quizRepo,
		Results:       results,
		Preferences:   prefs,
		Cues:          cues,
		Engine:        cfg.EngineConfig(),
		Scoring:       cfg.ScoringConfig(),
		Loop:          engine.LoopOptions{SubmitTimeout: cfg.SubmitTimeout(), Logger: logger},
		DefaultVolume: cfg.DefaultVolume(),
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	server := &http.Server{
		Addr: ":" + finalPort,
		Handler: transport.NewRouter(service, transport.RouterOptions{
			SampleRate:    cues.SampleRate(),
			DefaultVolume: cfg.DefaultVolume(),
			Logger:        logger,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting quiz service", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("audio queue drained", "dropped_cues", cues.Dropped())
	return nil
}

func audioDevice(cfg config.Config) (audio.Device, error) {
	switch cfg.Audio.Device {
	case "", "discard":
		return audio.Discard{}, nil
	case "wav":
		dir := cfg.Audio.Dir
		if dir == "" {
			dir = "cues-out"
		}
		return audio.NewWAVDir(dir)
	default:
		return nil, fmt.Errorf("unknown audio device %q", cfg.Audio.Device)
	}
}

// sampleQuizzes is served when no Postgres is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Warm-up",
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What is 2 + 2?", Options: []string{"3", "4", "5", "22"}, CorrectOption: "4"},
				{ID: "q2", Prompt: "Which planet is closest to the sun?", Options: []string{"Venus", "Mercury", "Mars"}, CorrectOption: "Mercury"},
				{ID: "q3", Prompt: "How many sides does a hexagon have?", Options: []string{"5", "6", "8", "10"}, CorrectOption: "6"},
				{ID: "q4", Prompt: "Water boils at 100 degrees in which scale?", Options: []string{"Celsius", "Fahrenheit"}, CorrectOption: "Celsius"},
				{ID: "q5", Prompt: "What is the capital of Japan?", Options: []string{"Kyoto", "Osaka", "Tokyo", "Nagoya"}, CorrectOption: "Tokyo"},
			},
		},
	}
}
