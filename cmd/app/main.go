package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/redis/go-redis/v9"

	"triplea/internal/attendance"
	"triplea/internal/auth"
	"triplea/internal/config"
	"triplea/internal/dashboard"
	"triplea/internal/db"
	"triplea/internal/email"
	"triplea/internal/firebaseapp"
	"triplea/internal/logger"
	"triplea/internal/member"
	"triplea/internal/membership"
	"triplea/internal/server"
	"triplea/internal/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Info("Starting Triple A API", "env", cfg.AppEnv, "store", cfg.StoreBackend, "auth", cfg.AuthProvider)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	database, err := db.Connect(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", "error", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsPath); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("Migrations completed")

	var app *firebase.App
	if cfg.AuthProvider == config.AuthProviderFirebase || cfg.StoreBackend == config.StoreBackendFirestore {
		app, err = firebaseapp.New(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsJSON, cfg.FirebaseCredentialsFile)
		if err != nil {
			logger.Fatal("Failed to initialise firebase", "error", err)
		}
	}

	var records membership.Repository
	switch cfg.StoreBackend {
	case config.StoreBackendFirestore:
		var client *firestore.Client
		client, err = app.Firestore(ctx)
		if err != nil {
			logger.Fatal("Failed to create firestore client", "error", err)
		}
		defer client.Close()
		records = membership.NewFirestoreRepository(client, cfg.FirestoreCollection, cfg.Location, cfg.StoreTimeout)
	case config.StoreBackendMemory:
		logger.Warn("Membership records are kept in memory and lost on restart")
		records = membership.NewMemoryRepository()
	default:
		records = membership.NewPostgresRepository(database, cfg.StoreTimeout)
	}

	var (
		verifier auth.Verifier
		granter  member.AdminGranter
	)
	if cfg.AuthProvider == config.AuthProviderFirebase {
		authClient, err := app.Auth(ctx)
		if err != nil {
			logger.Fatal("Failed to create firebase auth client", "error", err)
		}
		fv := auth.NewFirebaseVerifier(authClient)
		verifier, granter = fv, fv
	} else {
		verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	emailService := email.New(email.Config{
		From:     cfg.EmailFrom,
		FromName: cfg.EmailFromName,
		SMTPHost: cfg.SMTPHost,
		SMTPPort: cfg.SMTPPort,
		SMTPUser: cfg.SMTPUser,
		SMTPPass: cfg.SMTPPass,
	}, rdb)
	defer emailService.Close()
	go emailService.Start(ctx)

	memberRepo := member.NewRepository(database)
	walletRepo := wallet.NewRepository(database)
	clock := membership.SystemClock{Location: cfg.Location}

	memberships := membership.NewService(records, clock, membership.DefaultCatalog(), membership.Options{
		Policy: membership.Policy{
			AllowBackdating: cfg.AllowBackdating,
			DeactivatePrior: cfg.DeactivatePrior,
		},
		Concurrency: cfg.DashboardConcurrency,
		Payments:    wallet.NewGateway(walletRepo),
		Notifier:    email.NewNotifier(emailService, memberRepo),
	})
	members := member.NewService(memberRepo, cfg.JWTSecret, granter, member.WithAdminEmails(cfg.AdminEmails...))
	if err := members.BootstrapAdmins(ctx); err != nil {
		logger.Warn("Admin bootstrap incomplete", "error", err)
	}

	srv := server.New(ctx, cfg, server.Deps{
		Verifier:    verifier,
		Members:     members,
		Memberships: memberships,
		Attendance:  attendance.NewService(attendance.NewRepository(database), memberships, clock),
		Wallets:     walletRepo,
		Dashboard:   dashboard.NewService(members, memberships),
		Mailer:      emailService,
		Checks: map[string]server.Check{
			"database": database.PingContext,
			"redis":    emailService.Ping,
		},
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "port", cfg.Port)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		logger.Error("Server error", "error", err)
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during server shutdown", "error", err)
	}
	logger.Info("Server stopped")
}
