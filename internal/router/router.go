// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/prompteconomy/backend/internal/blockchain"
	"github.com/prompteconomy/backend/internal/config"
	"github.com/prompteconomy/backend/internal/handlers"
	"github.com/prompteconomy/backend/internal/middleware"
	"github.com/prompteconomy/backend/internal/repository"
	"github.com/prompteconomy/backend/internal/services"
	"github.com/prompteconomy/backend/internal/utils"
)

func Initialize(db *gorm.DB, chain blockchain.Client, cfg *config.Config) *gin.Engine {
	// Repositories
	userRepo := repository.NewGormUserRepository(db)
	promptRepo := repository.NewGormPromptRepository(db)
	purchaseRepo := repository.NewGormPurchaseRepository(db)

	// Services
	storageService, _ := services.NewStorageService(cfg)
	authService := services.NewAuthService(userRepo, cfg)
	promptService := services.NewPromptService(promptRepo, userRepo)
	purchaseService := services.NewPurchaseService(purchaseRepo, promptRepo, chain, cfg.Payment.PlatformFeePercent)
	userService := services.NewUserService(userRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	promptHandler := handlers.NewPromptHandler(promptService, purchaseService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	userHandler := handlers.NewUserHandler(userService, storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.GET("/nonce/:address", authHandler.GetNonce)
			auth.POST("/wallet-login", authHandler.WalletLogin)
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", userHandler.PublicProfile)

			protected := users.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/profile", userHandler.UpdateProfile)
				protected.POST("/upload-avatar", middleware.UploadRateLimit(), userHandler.UploadAvatar)
			}
		}

		// Prompt routes
		prompts := v1.Group("/prompts")
		{
			prompts.GET("", middleware.OptionalAuth(), promptHandler.List)
			prompts.GET("/categories", promptHandler.Categories)
			prompts.GET("/:id", middleware.OptionalAuth(), promptHandler.Get)

			protected := prompts.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.POST("", promptHandler.Create)
				protected.PUT("/:id", promptHandler.Update)
				protected.DELETE("/:id", promptHandler.Delete)
				protected.GET("/:id/buyers", purchaseHandler.Buyers)
			}
		}

		// Purchase routes
		purchases := v1.Group("/purchases")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.POST("", purchaseHandler.Initiate)
			purchases.GET("/my", purchaseHandler.MyPurchases)
			purchases.GET("/access/:promptId", purchaseHandler.CheckAccess)
			purchases.GET("/:id", purchaseHandler.GetByID)
			purchases.POST("/:id/verify", middleware.VerifyRateLimit(), purchaseHandler.Verify)
			purchases.POST("/:id/review", purchaseHandler.Review)
		}

		// Earnings routes
		earnings := v1.Group("/earnings")
		earnings.Use(middleware.AuthRequired())
		{
			earnings.GET("", purchaseHandler.Earnings)
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
