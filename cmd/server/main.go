package main

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

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/qwei/roomledger/internal/auth"
	"github.com/qwei/roomledger/internal/config"
	"github.com/qwei/roomledger/internal/httpapi"
	"github.com/qwei/roomledger/internal/middleware"
	"github.com/qwei/roomledger/internal/models"
	"github.com/qwei/roomledger/internal/service"
	"github.com/qwei/roomledger/internal/storage"
	"github.com/qwei/roomledger/internal/storage/sqlite"
	"github.com/qwei/roomledger/pkg/logging"
)

// The household roster provisioned on first run. Every account starts
// with the configured default password and must change it on login.
var seedUsers = []struct {
	username    string
	displayName string
	admin       bool
}{
	{"roommate1", "Roommate 1", true},
	{"roommate2", "Roommate 2", false},
	{"roommate3", "Roommate 3", false},
	{"roommate4", "Roommate 4", false},
}

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	if err := seedIfEmpty(ctx, store, cfg.DefaultPassword); err != nil {
		return fmt.Errorf("seed users: %w", err)
	}

	ledgerService := service.NewLedgerService(store)
	authenticator := auth.NewPasswordAuthenticator(store, cfg.MaxLoginAttempts, cfg.DefaultPassword)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration)

	api := httpapi.NewServer(ledgerService, authenticator, jwtManager, store, cfg.UploadDir, cfg.MaxUploadSize)
	handler := middleware.Metrics(middleware.Logging(middleware.CORS(api.Routes())))

	// h2c allows HTTP/2 without TLS behind a terminating proxy.
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Server starting", "address", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// seedIfEmpty provisions the household roster on a fresh database.
func seedIfEmpty(ctx context.Context, store storage.Store, defaultPassword string) error {
	count, err := store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashCredential(defaultPassword)
	if err != nil {
		return err
	}
	for _, seed := range seedUsers {
		user := models.NewUser(seed.username, seed.displayName)
		user.PasswordHash = hash
		user.IsAdmin = seed.admin
		if err := store.CreateUser(ctx, user); err != nil {
			return err
		}
	}
	slog.Info("Seeded household accounts", "count", len(seedUsers))
	return nil
}
