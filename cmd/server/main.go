package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dealbridge/dealroom/internal/api"
	"github.com/dealbridge/dealroom/internal/app"
	"github.com/dealbridge/dealroom/internal/app/maintenance"
	iauth "github.com/dealbridge/dealroom/internal/auth"
	"github.com/dealbridge/dealroom/internal/cache"
	"github.com/dealbridge/dealroom/internal/database"
	"github.com/dealbridge/dealroom/internal/realtime"
	"github.com/dealbridge/dealroom/internal/services"
	"github.com/dealbridge/dealroom/internal/storage"
	"github.com/dealbridge/dealroom/pkg/logger"
	"github.com/dealbridge/dealroom/pkg/mail"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dealroom-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if strings.TrimSpace(cfg.Auth.JWT.Secret) == "" {
		return errors.New("auth.jwt.secret must be configured")
	}
	if strings.TrimSpace(cfg.Storage.SigningSecret) == "" {
		return errors.New("storage.signing_secret must be configured")
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	var store cache.Store = cache.NewMemoryStore()
	if cfg.Cache.Redis.Enabled {
		redisStore, redisErr := cache.NewRedisStore(cfg.RedisConfig())
		if redisErr != nil {
			log.Warn("redis unavailable; falling back to in-memory cache", zap.Error(redisErr))
		} else {
			store = redisStore
			log.Info("redis connected", zap.String("addr", cfg.Cache.Redis.Address))
			defer func() { _ = redisStore.Close() }()
		}
	}

	jwtService, err := iauth.NewJWTService(cfg.Auth.JWT.Secret, cfg.Auth.JWT.TTL)
	if err != nil {
		return fmt.Errorf("initialise jwt service: %w", err)
	}

	presigner, err := storage.NewHMACPresigner(cfg.Storage.BaseURL, cfg.Storage.SigningSecret, cfg.Storage.URLTTL)
	if err != nil {
		return fmt.Errorf("initialise presigner: %w", err)
	}

	hub := realtime.NewHub()

	var mailer mail.Mailer = mail.NopMailer{}
	if cfg.Email.SMTP.Enabled {
		mailer = mail.NewSMTPMailer(cfg.SMTPSettings())
	}

	auditSvc, err := services.NewAuditService(db)
	if err != nil {
		return fmt.Errorf("initialise audit service: %w", err)
	}
	notificationSvc, err := services.NewNotificationService(db, hub, mailer)
	if err != nil {
		return fmt.Errorf("initialise notification service: %w", err)
	}
	ndaSvc, err := services.NewNDAService(db, auditSvc, notificationSvc)
	if err != nil {
		return fmt.Errorf("initialise nda service: %w", err)
	}
	readinessSvc, err := services.NewReadinessService(db, store)
	if err != nil {
		return fmt.Errorf("initialise readiness service: %w", err)
	}
	documentSvc, err := services.NewDocumentService(db, auditSvc, ndaSvc, readinessSvc, presigner)
	if err != nil {
		return fmt.Errorf("initialise document service: %w", err)
	}
	roomSvc, err := services.NewRoomService(db, auditSvc)
	if err != nil {
		return fmt.Errorf("initialise room service: %w", err)
	}

	cleaner := maintenance.NewCleaner(auditSvc, ndaSvc, notificationSvc,
		maintenance.WithAuditRetentionDays(cfg.Maintenance.AuditRetentionDays),
		maintenance.WithExpiryWarningDays(cfg.Maintenance.NDAExpiryWarningDays),
	)
	if err := cleaner.Start(); err != nil {
		return fmt.Errorf("start maintenance jobs: %w", err)
	}
	defer func() {
		<-cleaner.Stop().Done()
	}()

	router, err := api.NewRouter(db, jwtService, cfg, api.Services{
		NDAs:          ndaSvc,
		Documents:     documentSvc,
		Rooms:         roomSvc,
		Readiness:     readinessSvc,
		Audit:         auditSvc,
		Notifications: notificationSvc,
	}, hub)
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := cfg.DatabaseConfig()
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	logger.WithModule("database").Info("database connected",
		zap.String("driver", strings.ToLower(strings.TrimSpace(dbCfg.Driver))))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("database handle unavailable on shutdown", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("database close failed", zap.Error(err))
	}
}
