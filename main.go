package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/giftwell/accounts/internal/domain"
	"github.com/giftwell/accounts/internal/handler"
	"github.com/giftwell/accounts/internal/mail"
	"github.com/giftwell/accounts/internal/repository/sqlite"
	"github.com/giftwell/accounts/internal/service"
	"github.com/giftwell/accounts/internal/token"
)

func main() {
	logOpts := &slog.HandlerOptions{Level: slog.LevelInfo}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, logOpts)))

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "giftwell.db")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if len(jwtSecret) < 32 {
		slog.Error("JWT_SECRET must be at least 32 characters for HMAC-SHA256 security")
		os.Exit(1)
	}

	tokenSecret := os.Getenv("TOKEN_SECRET")
	if tokenSecret == "" {
		slog.Error("TOKEN_SECRET environment variable is required")
		os.Exit(1)
	}

	// Lifetime of mailed activation, verification and reset links.
	tokenMaxAge := 72 * time.Hour
	if v := os.Getenv("TOKEN_MAX_AGE"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid TOKEN_MAX_AGE", "error", err)
			os.Exit(1)
		}
		tokenMaxAge = parsed
	}

	sessionTTL := 24 * time.Hour
	if v := os.Getenv("SESSION_TTL"); v != "" {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			slog.Error("invalid SESSION_TTL", "error", err)
			os.Exit(1)
		}
		sessionTTL = parsed
	}

	// Default to secure cookies; disable only for local development.
	cookieSecure := os.Getenv("COOKIE_SECURE") != "false"

	bcryptCost := 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid BCRYPT_COST", "error", err)
			os.Exit(1)
		}
		if parsed < 4 || parsed > 14 {
			slog.Error("BCRYPT_COST must be between 4 and 14", "value", parsed)
			os.Exit(1)
		}
		bcryptCost = parsed
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	mailer := buildMailer()
	tokens := token.NewGenerator(tokenSecret, tokenMaxAge)

	accountService := service.NewAccountService(db.Users(), tokens, mailer, service.DefaultPasswordPolicy(), bcryptCost)
	authService := service.NewAuthService(db.Users(), jwtSecret, sessionTTL)
	adminService := service.NewAdminService(db.Users(), accountService)

	if len(os.Args) > 1 && os.Args[1] == "createsuperuser" {
		if err := runCreateSuperuser(accountService, os.Args[2:]); err != nil {
			slog.Error("createsuperuser failed", "error", err)
			os.Exit(1)
		}
		return
	}

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, accountService, adminService, cookieSecure)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.SecurityHeaders(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// buildMailer picks the SMTP transport when configured and falls back to
// logging mail locally.
func buildMailer() domain.Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		slog.Info("SMTP_HOST not set, mail goes to the log")
		return mail.LogMailer{}
	}

	smtpPort := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid SMTP_PORT", "error", err)
			os.Exit(1)
		}
		smtpPort = parsed
	}

	mailer, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     host,
		Port:     smtpPort,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     envOrDefault("SMTP_FROM", "noreply@giftwell.app"),
	})
	if err != nil {
		slog.Error("failed to build SMTP mailer", "error", err)
		os.Exit(1)
	}
	return mailer
}

// runCreateSuperuser provisions an operator account from the command line:
//
//	accounts createsuperuser -email root@example.com -first-name Ada -last-name L -password s3cret
func runCreateSuperuser(accounts *service.AccountService, args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	email := fs.String("email", "", "email address (required)")
	firstName := fs.String("first-name", "", "first name")
	lastName := fs.String("last-name", "", "last name")
	password := fs.String("password", "", "password (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *password == "" {
		return fmt.Errorf("-email and -password are required")
	}

	user, err := accounts.CreateSuperuser(context.Background(), *email, *firstName, *lastName, *password)
	if err != nil {
		return err
	}

	slog.Info("superuser created", "id", user.ID, "email", user.Email)
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
