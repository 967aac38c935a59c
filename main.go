package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ikiraha/backend/internal/config"
	"github.com/ikiraha/backend/internal/db"
	"github.com/ikiraha/backend/internal/email"
	"github.com/ikiraha/backend/internal/handler"
	"github.com/ikiraha/backend/internal/service"
)

const refreshTokenSweepInterval = time.Hour

// @title Ikiraha API
// @version 1.0.0
// @description REST backend for the Ikiraha food-ordering platform.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.Load()
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := handler.RegisterValidators(); err != nil {
		log.Fatalf("Failed to register validators: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	store := &db.Postgres{Pool: pool}
	if err := store.Migrate(ctx); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	tokenService, err := service.NewTokenService(cfg.Auth)
	if err != nil {
		log.Fatalf("Invalid auth config: %v", err)
	}

	mailer := email.NewMailer(cfg.SMTP)
	authService, err := service.NewAuthService(store, store, tokenService, mailer, cfg.Auth)
	if err != nil {
		log.Fatalf("Invalid auth config: %v", err)
	}
	catalogService := service.NewCatalogService(store)

	router := handler.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewCatalogHandler(catalogService),
		handler.NewHealthHandler(pool, cfg.Server.Environment),
		authService,
		cfg.CORS.AllowedOrigins,
	)

	// The ledger has no scheduler of its own; main drives the expiry sweep.
	go sweepRefreshTokens(ctx, authService)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening (port=%s, env=%s)", cfg.Server.Port, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

func sweepRefreshTokens(ctx context.Context, authService *service.AuthService) {
	ticker := time.NewTicker(refreshTokenSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := authService.SweepExpiredRefreshTokens(ctx)
			if err != nil {
				log.Printf("Failed to sweep expired refresh tokens: %v", err)
				continue
			}
			if removed > 0 {
				log.Printf("Swept expired refresh tokens (removed=%d)", removed)
			}
		}
	}
}
