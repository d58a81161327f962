package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/01moynul/tradelink-golang/internal/approval"
	"github.com/01moynul/tradelink-golang/internal/auth"
	"github.com/01moynul/tradelink-golang/internal/chat"
	"github.com/01moynul/tradelink-golang/internal/config"
	"github.com/01moynul/tradelink-golang/internal/database"
	"github.com/01moynul/tradelink-golang/internal/email"
	"github.com/01moynul/tradelink-golang/internal/handlers"
	"github.com/01moynul/tradelink-golang/internal/hire"
	"github.com/01moynul/tradelink-golang/internal/memstore"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/01moynul/tradelink-golang/internal/quota"
	"github.com/01moynul/tradelink-golang/internal/review"
	"github.com/01moynul/tradelink-golang/internal/routes"
	"github.com/01moynul/tradelink-golang/internal/trades"
	"github.com/01moynul/tradelink-golang/internal/travel"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// gateway is everything the services need from storage. Both the MySQL
// gateway and the in-memory store satisfy it.
type gateway interface {
	quota.Store
	travel.Store
	hire.Store
	review.Store
	chat.Store
	approval.Store
	trades.Store
}

func main() {
	// 0. --- Load Environment Variables (.env) ---
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	if envErr != nil {
		logger.Warn("could not load .env file, relying on system environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)

	// 1. --- Storage ---
	store, closeStore, err := openStore(ctx, cfg, issuer, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	// 2. --- Services ---
	guard := quota.NewGuard(store, logger)
	ledger := review.NewLedger(store, logger)
	app := &handlers.Handlers{
		Hires:     hire.NewManager(store, ledger, logger),
		Reviews:   ledger,
		Travel:    travel.NewMatcher(store, guard, ledger, cfg.DefaultRadiusKm, logger),
		Chat:      chat.NewAggregator(store, logger),
		Quota:     guard,
		Approvals: approval.NewService(store, email.NewNotifier(cfg.SMTP, logger), logger),
		Trades:    trades.NewCatalogue(store, logger),
		Logger:    logger,
	}

	// 3. --- Background Workers ---
	// Lapsed subscriptions are flipped to expired on a ticker.
	go guard.RunSweeper(ctx, cfg.SweepInterval)

	// 4. --- Router & Server ---
	if strings.ToLower(cfg.Log.Level) != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := routes.SetupRouter(app, routes.Options{
		Issuer:         issuer,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting TradeLink API server", "addr", cfg.HTTPAddr, "storage", cfg.Storage)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStore returns the configured storage backend and its cleanup func.
func openStore(ctx context.Context, cfg config.Config, issuer *auth.Issuer, logger *slog.Logger) (gateway, func(), error) {
	if cfg.Storage == config.StorageMemory {
		store := memstore.New()
		demo := store.SeedDemo(time.Now())
		logger.Warn("using in-memory storage, data is lost on restart")
		for _, u := range []models.User{demo.Admin, demo.Client, demo.Tradesman} {
			token, err := issuer.Generate(models.Actor{ID: u.ID, Role: u.Role})
			if err != nil {
				return nil, nil, fmt.Errorf("issue demo token: %w", err)
			}
			logger.Info("demo account", "user_id", u.ID, "role", string(u.Role), "email", u.Email, "token", token)
		}
		return store, func() {}, nil
	}

	db, err := database.OpenDB(ctx, cfg.DB, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to primary database: %w", err)
	}
	if cfg.RunMigrations {
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database schema is up to date")
	}
	return database.NewGateway(db), func() { db.Close() }, nil
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
