package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mobileshield/internal/application/usecase"
	"mobileshield/internal/config"
	"mobileshield/internal/domain"
	"mobileshield/internal/infrastructure/cache"
	"mobileshield/internal/infrastructure/push"
	"mobileshield/internal/infrastructure/receipt"
	"mobileshield/internal/infrastructure/repository"
	"mobileshield/internal/infrastructure/security"
	"mobileshield/internal/infrastructure/storage"
	"mobileshield/internal/infrastructure/urlcheck"
	"mobileshield/internal/logging"
	"mobileshield/internal/middleware"
	handlers "mobileshield/internal/transport/http"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("mobileshield-api", cfg.LogLevel)

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Device{},
		&domain.PushToken{},
		&domain.ThreatSignature{},
		&domain.ScanLog{},
		&domain.Quarantine{},
		&domain.Subscription{},
		&domain.AntiTheftCommand{},
		&domain.TelemetryLog{},
		&domain.AdminAuditLog{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// Cache loss degrades hash lookups and rate limiting, it does
		// not stop the service.
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable at boot")
	}

	userRepo := repository.NewUserRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)
	tokenRepo := repository.NewPushTokenRepository(db)
	threatRepo := repository.NewThreatRepository(db)
	scanRepo := repository.NewScanRepository(db)
	quarRepo := repository.NewQuarantineRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)
	cmdRepo := repository.NewCommandRepository(db)
	telemetryRepo := repository.NewTelemetryRepository(db)

	tokenManager := security.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret)
	hasher := security.NewPasswordHasher()
	oauthVerifier := security.NewOAuthVerifier(cfg.GoogleClientID, cfg.AppleClientID)

	tokenCache := cache.NewTokenCache(rdb, tokenManager.RefreshTTL())
	threatCache := cache.NewThreatCache(rdb)
	rateLimiter := middleware.NewRateLimiter(rdb)

	fcm := push.NewFCMClient(cfg.FCMServerKey)
	appleVerifier := receipt.NewAppleVerifier(cfg.AppleSharedSecret)
	googleVerifier := receipt.NewGoogleVerifier(cfg.PlayPackageName, cfg.PlayAccessToken)
	urlChecker := urlcheck.NewClient(cfg.SafeBrowsingKey)
	signer := storage.NewSigner(cfg.UploadSecret, cfg.UploadBaseURL, 15*time.Minute)

	authUC := usecase.NewAuthUseCase(userRepo, deviceRepo, subRepo, tokenCache, hasher, tokenManager, oauthVerifier, log)
	deviceUC := usecase.NewDeviceUseCase(deviceRepo, tokenRepo)
	commandUC := usecase.NewCommandUseCase(deviceRepo, tokenRepo, cmdRepo, fcm, log)
	scanUC := usecase.NewScanUseCase(threatRepo, threatCache, scanRepo, deviceRepo, log)
	paymentUC := usecase.NewPaymentUseCase(subRepo, appleVerifier, googleVerifier, log)
	quarantineUC := usecase.NewQuarantineUseCase(quarRepo, deviceRepo, signer)
	threatUC := usecase.NewThreatUseCase(threatRepo, log)
	telemetryUC := usecase.NewTelemetryUseCase(telemetryRepo)
	urlUC := usecase.NewURLUseCase(urlChecker, log)

	middleware.RegisterMetrics()

	router := handlers.NewRouter(handlers.RouterDeps{
		Auth:            handlers.NewAuthHandler(authUC),
		Device:          handlers.NewDeviceHandler(deviceUC, commandUC),
		Scan:            handlers.NewScanHandler(scanUC),
		Payment:         handlers.NewPaymentHandler(paymentUC),
		Quarantine:      handlers.NewQuarantineHandler(quarantineUC, signer, cfg.UploadDir, log),
		Admin:           handlers.NewAdminHandler(threatUC),
		URL:             handlers.NewURLHandler(urlUC),
		Telemetry:       handlers.NewTelemetryHandler(telemetryUC),
		TokenManager:    tokenManager,
		Limiter:         rateLimiter,
		AllowedOrigins:  cfg.AllowedOrigins,
		CommandsPerHour: cfg.CommandsPerHour,
	})

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Port).Msg("api server running")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
