package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/agoraai/backend/internal/ai"
	"github.com/agoraai/backend/internal/api/handlers"
	"github.com/agoraai/backend/internal/auth"
	"github.com/agoraai/backend/internal/cache"
	"github.com/agoraai/backend/internal/config"
	"github.com/agoraai/backend/internal/database"
	"github.com/agoraai/backend/internal/middleware"
	"github.com/agoraai/backend/internal/repository"
	"github.com/agoraai/backend/internal/service"
)

// NewRouter creates and configures the main router
func NewRouter(cfg *config.Config, db *database.DB, redisCache *cache.Redis) *chi.Mux {
	r := chi.NewRouter()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	subscriptionRepo := repository.NewSubscriptionRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	documentRepo := repository.NewDocumentRepository(db)
	chatRepo := repository.NewChatRepository(db)
	billingRepo := repository.NewBillingRepository(db)

	// Initialize services
	usageService := service.NewUsageService(subscriptionRepo, usageRepo)
	subscriptionService := service.NewSubscriptionService(subscriptionRepo, billingRepo)
	adminService := service.NewAdminService(userRepo, subscriptionRepo, usageRepo, chatRepo)

	// Sessions and Google sign-in
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.SessionDuration)
	authMiddleware := auth.NewAuthMiddleware(jwtService)
	adminSessions := auth.NewAdminSessions(redisCache, cfg.AdminPasswordHash, cfg.AdminSessionTTL)

	googleAuth, err := auth.NewGoogleAuth(context.Background(), auth.GoogleAuthConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
	}, redisCache, userRepo, subscriptionService, jwtService)
	if err != nil {
		// The OIDC discovery document is fetched at startup; without it
		// Google sign-in cannot work at all.
		log.Fatal().Err(err).Msg("failed to initialize google auth")
	}

	// AI tools backend
	toolsClient := ai.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	toolsCache := ai.NewResponseCache(redisCache, time.Duration(cfg.CacheTTL)*time.Second)

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Timing)
	r.Use(middleware.Logger(log.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORSWithOrigins(cfg.CORSOrigins))
	if cfg.EnableMetrics {
		r.Use(middleware.Metrics)
	}

	// Initialize handlers
	healthHandler := handlers.NewHealthChecker(db, redisCache)
	authHandler := handlers.NewAuthHandler(googleAuth, jwtService, userRepo, cfg.FrontendURL, cfg.IsProduction())
	usageHandler := handlers.NewUsageHandler(usageService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService, usageService)
	toolsHandler := handlers.NewToolsHandler(usageService, toolsClient, toolsCache)
	driveHandler := handlers.NewDriveHandler(documentRepo, subscriptionService)
	documentHandler := handlers.NewDocumentHandler(documentRepo)
	chatHandler := handlers.NewChatHandler(chatRepo)
	exportHandler := handlers.NewExportHandler(userRepo, subscriptionService, usageService, documentRepo, chatRepo, billingRepo)
	adminHandler := handlers.NewAdminHandler(adminSessions, adminService)

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", handlers.LivenessProbe)
	r.Get("/health/ready", healthHandler.ReadinessProbe)

	if cfg.EnableMetrics {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public auth endpoints
		r.Get("/auth/google/login", authHandler.GoogleLogin)
		r.Get("/auth/google/callback", authHandler.GoogleCallback)
		r.Post("/auth/refresh", authHandler.Refresh)
		r.Post("/auth/logout", authHandler.Logout)

		// Public pricing catalog
		r.Get("/pricing", subscriptionHandler.GetPricing)

		// Admin: login is public, everything else needs a live session
		r.Post("/admin/auth", adminHandler.Login)
		r.Get("/admin/auth", adminHandler.Check)
		r.Delete("/admin/auth", adminHandler.Logout)
		r.Group(func(r chi.Router) {
			r.Use(adminSessions.Middleware)
			r.Get("/admin/dashboard", adminHandler.Dashboard)
			r.Post("/admin/dashboard", adminHandler.Action)
		})

		// Authenticated user endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/auth/me", authHandler.Me)

			r.Get("/usage", usageHandler.GetUsage)
			r.Post("/usage", usageHandler.RecordUsage)

			r.Get("/subscription", subscriptionHandler.GetSubscription)
			r.Post("/subscription", subscriptionHandler.SetPlan)

			r.Post("/pdf-summarizer/summarize", toolsHandler.Summarize)
			r.Post("/pdf-summarizer/chat", toolsHandler.Chat)
			r.Post("/pdf-summarizer/key-points", toolsHandler.KeyPoints)
			r.Post("/pdf-summarizer/questions", toolsHandler.Questions)
			r.Post("/humanize", toolsHandler.Humanize)
			r.Post("/images/generate", toolsHandler.GenerateImages)

			r.Post("/drive/upload", driveHandler.Upload)
			r.Get("/drive/list", driveHandler.List)
			r.Delete("/drive/{fileID}", driveHandler.Delete)

			r.Get("/documents", documentHandler.List)
			r.Post("/documents", documentHandler.Create)
			r.Delete("/documents/{id}", documentHandler.Delete)

			r.Get("/chat-history", chatHandler.ListSessions)
			r.Post("/chat-history", chatHandler.CreateSession)
			r.Post("/chat-history/messages", chatHandler.AddMessage)
			r.Get("/chat-history/{sessionID}", chatHandler.GetSession)
			r.Delete("/chat-history/{sessionID}", chatHandler.DeleteSession)

			r.Get("/data-export", exportHandler.Export)
		})
	})

	return r
}
