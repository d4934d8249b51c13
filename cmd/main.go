package main

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/goguixter/leads-backend/internal/handler"
	"github.com/goguixter/leads-backend/internal/middleware"
	"github.com/goguixter/leads-backend/internal/repository"
	"github.com/goguixter/leads-backend/internal/service"
	"github.com/goguixter/leads-backend/pkg/config"
	"github.com/goguixter/leads-backend/pkg/database"
	"github.com/goguixter/leads-backend/pkg/jwtutil"
	"github.com/goguixter/leads-backend/pkg/logger"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting leads backend...", cfg.LogFields()...)

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(cfg.JWT)

	// Repositories
	leadRepo := repository.NewLeadRepository(db)
	importRepo := repository.NewImportRepository(db)
	userRepo := repository.NewUserRepository(db)
	partnerRepo := repository.NewPartnerRepository(db)

	// Services
	dedup := service.NewDuplicateDetector(leadRepo)
	leadSvc := service.NewLeadService(leadRepo, cfg.DefaultPartnerID, log)
	importSvc := service.NewImportService(importRepo, dedup, log)

	// Handlers
	authHandler := handler.NewAuthHandler(userRepo)
	userHandler := handler.NewUserHandler(userRepo, partnerRepo)
	partnerHandler := handler.NewPartnerHandler(partnerRepo)
	leadHandler := handler.NewLeadHandler(leadSvc)
	importHandler := handler.NewImportHandler(importSvc, cfg.Import.MaxUploadBytes, cfg.DefaultPartnerID)

	// Initialize Echo framework
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware(log))
	e.Use(middleware.MetricsMiddleware)

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", authHandler.Logout)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	api.GET("/me", authHandler.Me)

	partners := api.Group("/partners")
	partners.GET("/me", partnerHandler.Me)
	partners.POST("", partnerHandler.Create)
	partners.GET("", partnerHandler.List)
	partners.GET("/:id", partnerHandler.Get)
	partners.PATCH("/:id", partnerHandler.Patch)

	users := api.Group("/users")
	users.POST("", userHandler.Create)
	users.GET("", userHandler.List)

	leads := api.Group("/leads")
	leads.POST("", leadHandler.Create)
	leads.GET("", leadHandler.List)
	leads.GET("/:id", leadHandler.Get)
	leads.PATCH("/:id", leadHandler.Patch)
	leads.GET("/:id/history", leadHandler.History)
	leads.POST("/:id/generate-message", leadHandler.GenerateMessage)

	imports := api.Group("/imports")
	imports.POST("/xls/preview", importHandler.Preview)
	imports.POST("/:id/confirm", importHandler.Confirm)
	imports.POST("/:id/cancel", importHandler.Cancel)

	// Start server
	log.Info("Starting server", zap.String("port", cfg.Server.Port))
	if err := e.Start(":" + cfg.Server.Port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
