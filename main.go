package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pengzhou/bz-studypal-api/internal/cache"
	"github.com/pengzhou/bz-studypal-api/internal/config"
	"github.com/pengzhou/bz-studypal-api/internal/db"
	"github.com/pengzhou/bz-studypal-api/internal/handler"
	"github.com/pengzhou/bz-studypal-api/internal/password"
	"github.com/pengzhou/bz-studypal-api/internal/service"
	"github.com/pengzhou/bz-studypal-api/internal/token"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg := config.Load()
	ctx := context.Background()

	store, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("postgres init failed: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("schema init failed: %v", err)
	}

	tokens, err := token.NewService(cfg.Auth, cfg.Server.IsProduction())
	if err != nil {
		log.Fatalf("token service init failed: %v", err)
	}

	cacheTTL, err := time.ParseDuration(cfg.Auth.CacheTTL)
	if err != nil {
		log.Fatalf("invalid USER_CACHE_TTL: %v", err)
	}

	google, err := service.NewGoogleVerifier(ctx, cfg.Google)
	if err != nil {
		log.Fatalf("google verifier init failed: %v", err)
	}
	if google == nil {
		log.Println("google oauth not configured, /api/auth/google disabled")
	}

	authService := service.NewAuthService(
		store,
		password.NewHasher(cfg.Server.IsProduction()),
		tokens,
		cache.New(cacheTTL),
		google,
	)
	authHandler := handler.NewAuthHandler(authService)

	router := gin.Default()
	router.Use(handler.CORSMiddleware(cfg.CORS.AllowedOrigins, true))

	router.GET("/", handler.Root)
	router.GET("/health", handler.Health(store))

	auth := router.Group("/api/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/google", authHandler.Google)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/status", authHandler.Status)
		auth.POST("/logout", handler.RequireAuth(authService), authHandler.Logout)
		auth.GET("/profile", handler.RequireAuth(authService), authHandler.Profile)
	}

	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
