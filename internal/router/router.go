package router

import (
	"context"
	"strings"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/handler"
	"github.com/GandharvMahajan/AutoExamChecker/internal/middleware"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository"
	"github.com/GandharvMahajan/AutoExamChecker/internal/response"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Test      *handler.TestHandler
	Timer     *handler.TimerHandler
	AdminTest *handler.AdminTestHandler
	AdminUser *handler.AdminUserHandler
	Dashboard *handler.DashboardHandler
	Payment   *handler.PaymentHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// ctx bounds background helpers such as the rate limiter cleanup loop.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	store repository.Store,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "x-auth-token"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))

	// PDFs are already compressed.
	router.Use(middleware.BrotliWithConfig(middleware.BrotliConfig{
		Quality:   middleware.DefaultBrotliConfig.Quality,
		MinLength: middleware.DefaultBrotliConfig.MinLength,
		Skipper: func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, service.UploadURLPrefix)
		},
	}))

	// Uploaded files get unique names, so they never change once written.
	uploadsGroup := router.Group(service.UploadURLPrefix)
	uploadsGroup.Use(middleware.CacheControl(31536000))
	{
		uploadsGroup.Static("/", cfg.UploadDir)
	}

	router.GET("/", handlers.System.Root)
	router.GET("/health", handlers.System.Health)

	requireAuth := middleware.RequireAuth(authService)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	authLimiter := middleware.NewRateLimiter(ctx, cfg.AuthRateLimit, time.Minute)
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware(), middleware.NoStore())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/setup-first-admin", handlers.Auth.SetupFirstAdmin)
		auth.GET("/me", requireAuth, handlers.Auth.Me)
	}

	// ─── 2. Tests Group (JWT) ──────────────────────────────────────────
	tests := router.Group("/api/v1/tests")
	tests.Use(requireAuth, middleware.NoStore())
	{
		tests.GET("/available", handlers.Test.Available)
		tests.GET("/userTests", handlers.Test.UserTests)
		tests.POST("/:id/start", handlers.Test.Start)
		tests.POST("/:id/upload-answer", handlers.Test.UploadAnswer)
		tests.POST("/:id/submit", handlers.Test.Submit)
		tests.GET("/:id/state", handlers.Test.State)
	}

	// ─── 3. WebSocket Group (token query) ──────────────────────────────
	ws := router.Group("/ws")
	ws.Use(requireAuth)
	{
		ws.GET("/tests/:id/timer", handlers.Timer.Stream)
	}

	// ─── 4. Admin Group (JWT + admin flag) ─────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(requireAuth, middleware.RequireAdmin(store), middleware.NoStore())
	{
		adminAPI.GET("/tests", handlers.AdminTest.ListTests)
		adminAPI.GET("/tests/:id", handlers.AdminTest.GetTest)
		adminAPI.POST("/tests", handlers.AdminTest.CreateTest)
		adminAPI.PUT("/tests/:id", handlers.AdminTest.UpdateTest)
		adminAPI.DELETE("/tests/:id", handlers.AdminTest.DeleteTest)
		adminAPI.POST("/tests/:id/question-paper", handlers.AdminTest.UploadQuestionPaper)

		adminAPI.GET("/users", handlers.AdminUser.ListUsers)
		adminAPI.GET("/users/:id", handlers.AdminUser.GetUser)
		adminAPI.PATCH("/users/:id/toggle-admin", handlers.AdminUser.ToggleAdmin)
		adminAPI.PATCH("/users/:id/credits", handlers.AdminUser.CorrectCredits)

		adminAPI.GET("/stats", handlers.Dashboard.GetStats)
	}

	// ─── 5. Payment Group ──────────────────────────────────────────────
	paymentAPI := router.Group("/api/v1/payment")
	paymentAPI.Use(middleware.NoStore())
	{
		paymentAPI.GET("/plans", handlers.Payment.Plans)
		// Stripe authenticates itself with the signature header.
		paymentAPI.POST("/webhook", handlers.Payment.Webhook)

		paymentAPI.POST("/create-checkout-session", requireAuth, handlers.Payment.CreateCheckoutSession)
		paymentAPI.GET("/payment-success", requireAuth, handlers.Payment.PaymentSuccess)
		paymentAPI.GET("/user/credits", requireAuth, handlers.Payment.Credits)
	}

	return router
}
