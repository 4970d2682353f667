package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"finwise/internal/config"
	"finwise/internal/database"
	"finwise/internal/handlers"
	"finwise/internal/jobs"
	"finwise/internal/logger"
	"finwise/internal/middleware"
	"finwise/internal/parser"
	"finwise/internal/services"
	"finwise/internal/validator"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Remote parse escalation. Without a configured remote parser the
	// pipeline still runs; low-confidence messages simply stay local.
	var publisher jobs.Publisher
	var queue *jobs.Queue
	if appConfig.RemoteParserURL != "" {
		queue = jobs.NewQueue(100, 2)
		dispatcher := jobs.NewDispatcher(appConfig.RemoteParserURL, appConfig.RemoteParserAPIKey, appConfig.RemoteParserTimeout)
		if err := queue.Start(context.Background(), dispatcher.Handle); err != nil {
			return fmt.Errorf("failed to start parse queue: %w", err)
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := queue.Stop(stopCtx); err != nil {
				log.Warnf("parse queue stop error: %v", err)
			}
		}()
		publisher = queue
		log.Infof("Remote parse escalation enabled, target %s", appConfig.RemoteParserURL)
	} else {
		log.Info("Remote parse escalation disabled: REMOTE_PARSER_URL not set")
	}

	// Initialize services
	db := dbManager.DB()
	insightConfig := services.DefaultInsightConfig()
	callbackURL := appConfig.CallbackBaseURL + "/internal/parse-callback"

	userService := services.NewUserService(db)
	ingestService := services.NewIngestService(db, parser.NewDefault(), publisher, callbackURL)
	transactionService := services.NewTransactionService(db)
	healthService := services.NewHealthService(db, insightConfig)
	recommendationService := services.NewRecommendationService(db, insightConfig)
	profileService := services.NewProfileService(db)
	goalService := services.NewGoalService(db, insightConfig, recommendationService)
	coachingService := services.NewCoachingService(db, insightConfig, healthService, nil)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	messageHandler := handlers.NewMessageHandler(ingestService, transactionService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	insightHandler := handlers.NewInsightHandler(healthService, recommendationService, profileService)
	goalHandler := handlers.NewGoalHandler(goalService)
	coachingHandler := handlers.NewCoachingHandler(coachingService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Inbound result callback from the remote parser. Authenticated by API
	// key, not by user JWT: the caller is a machine, not a user.
	router.POST("/internal/parse-callback",
		middleware.CallbackAuthMiddleware(appConfig.CallbackAPIKey),
		messageHandler.ParseCallback)

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/auth/me", authHandler.GetMe)

	// Message ingestion routes
	messages := protected.Group("/messages")
	messages.POST("", messageHandler.IngestMessage)
	messages.GET("", messageHandler.ListMessages)
	messages.GET("/:id", messageHandler.GetMessage)
	messages.POST("/:id/reparse", messageHandler.ReparseMessage)
	messages.DELETE("/:id", messageHandler.DeleteMessage)

	// Transaction read routes
	transactions := protected.Group("/transactions")
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/summary", transactionHandler.GetSummary)

	// Insight routes
	insights := protected.Group("/insights")
	insights.GET("/health", insightHandler.GetHealthScore)
	insights.POST("/recommendations/generate", insightHandler.GenerateRecommendations)
	insights.GET("/recommendations", insightHandler.ListRecommendations)
	insights.POST("/recommendations/:id/respond", insightHandler.RespondToRecommendation)
	insights.GET("/profile", insightHandler.GetFinancialProfile)
	insights.PATCH("/profile/preferences", insightHandler.UpdatePreferences)

	// Goal routes
	goals := protected.Group("/goals")
	goals.POST("", goalHandler.CreateGoal)
	goals.GET("", goalHandler.ListGoals)
	goals.GET("/:id", goalHandler.GetGoal)
	goals.PATCH("/:id", goalHandler.UpdateGoal)
	goals.DELETE("/:id", goalHandler.DeleteGoal)
	goals.GET("/:id/accelerate", goalHandler.AccelerateGoal)

	// Coaching routes
	coaching := protected.Group("/coaching")
	coaching.POST("/challenges/generate", coachingHandler.GenerateChallenges)
	coaching.GET("/challenges", coachingHandler.ListChallenges)
	coaching.POST("/challenges/progress", coachingHandler.UpdateChallengeProgress)
	coaching.POST("/nudges/send", coachingHandler.SendNudge)
	coaching.POST("/nudges/:id/respond", coachingHandler.RespondToNudge)
	coaching.GET("/streak", coachingHandler.GetStreak)

	log.Infof("Starting Finwise backend server on port %s", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
