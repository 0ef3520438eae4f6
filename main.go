package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gopkg.in/natefinch/lumberjack.v2"

	"thelyst/api"
	"thelyst/config"
	"thelyst/handlers"
	"thelyst/internal/database"
	"thelyst/services/accounts"
	"thelyst/services/catalog"
	"thelyst/services/mailer"
	"thelyst/services/playlists"
	"thelyst/services/sessions"
	"thelyst/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	db, err := database.NewDB(database.Config{DatabasePath: cfg.DatabasePath})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var mail mailer.Mailer
	if cfg.MailEnabled() {
		mail = &mailer.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}
	} else {
		logger.Warn("SMTP not configured, verification codes will be logged")
		mail = &mailer.LogMailer{Logger: logger}
	}

	accountsSvc, err := accounts.NewService(cfg.StorageDir, mail)
	if err != nil {
		return fmt.Errorf("init accounts service: %w", err)
	}

	sessionsSvc, err := sessions.NewService(cfg.StorageDir, cfg.SessionDuration)
	if err != nil {
		return fmt.Errorf("init sessions service: %w", err)
	}
	defer sessionsSvc.Close()

	playlistsSvc := playlists.NewService(database.NewPlaylistRepository(db.Connection()), logger)

	catalogClient := catalog.NewClient(cfg.TMDBToken, cfg.Language, nil)
	if !catalogClient.IsConfigured() {
		logger.Warn("TMDB_TOKEN not set, catalog search will be unavailable")
	}

	authHandler := handlers.NewAuthHandler(accountsSvc, sessionsSvc)
	searchHandler := handlers.NewSearchHandler(catalogClient, logger)
	playlistsHandler := handlers.NewPlaylistsHandler(playlistsSvc, logger)
	startupHandler := handlers.NewStartupHandler(accountsSvc, playlistsSvc)

	router := utils.NewRouter(cfg.AllowedOrigins)

	// Credential endpoints are rate limited per IP: 5 per minute.
	loginLimiter := api.NewIPRateLimiter(rate.Every(12*time.Second), 5)
	defer loginLimiter.Close()

	router.HandleFunc("/api/auth/signup",
		api.RateLimitHandlerFunc(loginLimiter, authHandler.Signup)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/login",
		api.RateLimitHandlerFunc(loginLimiter, authHandler.Login)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/verify",
		api.RateLimitHandlerFunc(loginLimiter, authHandler.Verify)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/resend",
		api.RateLimitHandlerFunc(loginLimiter, authHandler.ResendVerification)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/logout", authHandler.Logout).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/me", authHandler.Me).Methods(http.MethodGet, http.MethodOptions)

	// Everything below requires a valid session.
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(api.AccountAuthMiddleware(sessionsSvc))

	protected.HandleFunc("/search", searchHandler.Search).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/startup", startupHandler.GetStartup).Methods(http.MethodGet, http.MethodOptions)

	protected.HandleFunc("/playlists", playlistsHandler.List).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/playlists", playlistsHandler.Create).Methods(http.MethodPost)
	protected.HandleFunc("/playlists/{id}", playlistsHandler.Get).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/playlists/{id}", playlistsHandler.Delete).Methods(http.MethodDelete)
	protected.HandleFunc("/playlists/{id}/items", playlistsHandler.ReplaceItems).Methods(http.MethodPut, http.MethodOptions)
	protected.HandleFunc("/playlists/{id}/items", playlistsHandler.AddItem).Methods(http.MethodPost)
	protected.HandleFunc("/playlists/{id}/items/{itemID}", playlistsHandler.RemoveItem).Methods(http.MethodDelete, http.MethodOptions)
	protected.HandleFunc("/playlists/{id}/watch/{mediaType}/{itemID}", playlistsHandler.Watch).Methods(http.MethodGet, http.MethodOptions)

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLogger builds the process logger. With LOG_FILE set, output goes to a
// size-rotated file; otherwise to stderr.
func newLogger(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    20, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
