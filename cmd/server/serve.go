package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sadhana-path/backend/internal/auth"
	"github.com/sadhana-path/backend/internal/config"
	"github.com/sadhana-path/backend/internal/database"
	"github.com/sadhana-path/backend/internal/middleware"
	"github.com/sadhana-path/backend/internal/practice"
	"github.com/sadhana-path/backend/internal/progress"
	"github.com/sadhana-path/backend/internal/reflection"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run migrations and start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&servePort, "port", "", "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

// app holds the services behind the HTTP API.
type app struct {
	tokens     *auth.Tokens
	auth       *auth.Handler
	practice   *practice.Service
	progress   *progress.Service
	reflection *reflection.Generator
	logger     *zap.Logger
}

func newApp(cfg config.Config, db *sql.DB, logger *zap.Logger) (*app, error) {
	ladder, err := cfg.Ladder()
	if err != nil {
		return nil, err
	}
	quests, err := cfg.Quests()
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)
	practiceSvc := practice.NewService(practice.NewStore(db), logger)
	progressSvc := progress.NewService(progress.NewStore(db), practiceSvc, ladder, quests, logger)
	gen, err := reflection.NewFromConfig(cfg.Reflection, reflection.NewStore(db), logger)
	if err != nil {
		return nil, err
	}

	return &app{
		tokens:     tokens,
		auth:       auth.NewHandler(db, tokens, logger),
		practice:   practiceSvc,
		progress:   progressSvc,
		reflection: gen,
		logger:     logger,
	}, nil
}

func (a *app) router(corsOrigins []string) http.Handler {
	practiceHandler := practice.NewHandler(a.practice, a.logger)
	progressHandler := progress.NewHandler(a.progress, a.logger)
	reflectionHandler := reflection.NewHandler(a.reflection, a.logger)

	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(a.logger), middleware.Recover(a.logger))
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", a.auth.Register).Methods("POST")
	api.HandleFunc("/auth/login", a.auth.Login).Methods("POST")
	api.HandleFunc("/avatars", a.auth.ListAvatars).Methods("GET")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth(a.tokens))
	protected.HandleFunc("/auth/me", a.auth.GetCurrentUser).Methods("GET")
	protected.HandleFunc("/profile", a.auth.UpdateProfile).Methods("PUT")

	protected.HandleFunc("/practice/japa", practiceHandler.LogJapa).Methods("POST")
	protected.HandleFunc("/practice/meditation", practiceHandler.LogMeditation).Methods("POST")
	protected.HandleFunc("/practice/history", practiceHandler.History).Methods("GET")
	protected.HandleFunc("/practice/streak", practiceHandler.Streak).Methods("GET")

	protected.HandleFunc("/journal", practiceHandler.ListJournal).Methods("GET")
	protected.HandleFunc("/journal", practiceHandler.CreateJournal).Methods("POST")
	protected.HandleFunc("/journal/{id:[0-9]+}", practiceHandler.UpdateJournal).Methods("PUT")
	protected.HandleFunc("/journal/{id:[0-9]+}", practiceHandler.DeleteJournal).Methods("DELETE")

	protected.HandleFunc("/progress", progressHandler.Dashboard).Methods("GET")
	protected.HandleFunc("/progress/levels", progressHandler.Levels).Methods("GET")
	protected.HandleFunc("/progress/quests", progressHandler.Quests).Methods("GET")
	protected.HandleFunc("/leaderboard", progressHandler.Leaderboard).Methods("GET")

	protected.HandleFunc("/reflections/today", reflectionHandler.Today).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if servePort != "" {
		cfg.Server.Port = servePort
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database); err != nil {
		return err
	}

	a, err := newApp(cfg, db, logger)
	if err != nil {
		return err
	}

	var workers []<-chan struct{}
	if cfg.Workers.Enabled {
		workers = append(workers,
			a.progress.StartRankWorker(ctx, cfg.Workers.RankInterval.Duration),
			a.practice.StartLapseWorker(ctx, cfg.Workers.StreakCheckInterval.Duration),
		)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           a.router(cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stop()
			waitAll(workers)
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", zap.Error(err))
	}
	stop()
	waitAll(workers)
	return nil
}

func waitAll(done []<-chan struct{}) {
	for _, d := range done {
		<-d
	}
}
