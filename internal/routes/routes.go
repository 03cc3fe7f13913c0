// Package routes defines the API routing configuration. It wires
// repositories, services and handlers together and groups routes by
// functionality with the appropriate middleware.
package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"gigpay/internal/config"
	"gigpay/internal/handlers"
	"gigpay/internal/middleware"
	"gigpay/internal/models"
	"gigpay/internal/repositories"
	"gigpay/internal/services/admin"
	"gigpay/internal/services/auth"
	"gigpay/internal/services/earning"
	"gigpay/internal/services/leaderboard"
	"gigpay/internal/services/ledger"
	"gigpay/internal/services/notification"
	"gigpay/internal/services/submission"
	"gigpay/internal/services/task"
	"gigpay/internal/services/user"
	ws "gigpay/internal/websocket"
)

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	uow := repositories.NewUnitOfWork(db)

	// The hub doubles as the notifier for every service.
	hub := ws.NewHub(log.Logger)
	go hub.Run()
	var notifier notification.Notifier = hub

	// Services
	jwtSecret := config.GetEnv("JWT_SECRET", "gigpay-dev-secret")
	authService := auth.NewService(uow, auth.DefaultConfig(jwtSecret))

	var walletCache ledger.CacheOperator
	var userCache user.WalletCache
	if repositories.CacheService != nil {
		walletCache = repositories.CacheService
		userCache = repositories.CacheService
	}
	ledgerService := ledger.NewService(uow, walletCache, ledger.NoopMetricsCollector{}, ledger.DefaultConfig())
	userService := user.NewService(uow, ledgerService, userCache)
	taskService := task.NewService(uow)
	submissionService := submission.NewService(uow, ledgerService, notifier, submission.DefaultConfig())
	adminService := admin.NewService(uow, ledgerService, notifier)
	leaderboardService := leaderboard.NewService(uow)

	var challengeStore earning.ChallengeStore
	if repositories.CacheService != nil {
		challengeStore = earning.NewRedisChallengeStore(repositories.CacheService)
	} else {
		challengeStore = earning.NewMemoryChallengeStore()
	}
	earningService := earning.NewService(ledgerService, uow, challengeStore, notifier, earning.DefaultPolicy())

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, ledgerService)
	earnHandler := handlers.NewEarnHandler(earningService)
	taskHandler := handlers.NewTaskHandler(taskService)
	submissionHandler := handlers.NewSubmissionHandler(submissionService)
	adminHandler := handlers.NewAdminHandler(adminService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService)
	wsHandler := handlers.NewWebsocketHandler(hub, authService)

	authMiddleware := middleware.NewAuthMiddleware(authService, userService)

	app.Get("/health", handlers.HealthCheck)
	app.Get("/ws", wsHandler.Upgrade)

	api := app.Group("/api")

	// Public endpoints
	api.Post("/auth/register", authHandler.Register)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/refresh", authHandler.Refresh)
	api.Get("/leaderboard/workers", leaderboardHandler.TopWorkers)
	api.Get("/leaderboard/creators", leaderboardHandler.TopCreators)

	authenticated := api.Group("/", authMiddleware.Handler)

	authenticated.Post("/auth/change-password", authHandler.ChangePassword)

	// Earning activities
	tasks := authenticated.Group("/tasks")
	tasks.Get("/", taskHandler.ListTasks)
	tasks.Get("/configs", taskHandler.GetTaskConfigs)
	tasks.Get("/mine", middleware.RequireRole(models.RoleCreator), taskHandler.ListMyTasks)
	tasks.Get("/earn-status", earnHandler.GetEarnStatus)
	tasks.Get("/captcha-challenge", earnHandler.GetCaptchaChallenge)
	tasks.Post("/complete-captcha", earnHandler.CompleteCaptcha)
	tasks.Post("/complete-spin-wheel", earnHandler.CompleteSpinWheel)
	tasks.Post("/complete-daily-login", earnHandler.CompleteDailyLogin)

	// Marketplace
	tasks.Post("/", middleware.RequireRole(models.RoleCreator), taskHandler.CreateTask)
	tasks.Get("/:id", taskHandler.GetTask)
	tasks.Put("/:id", taskHandler.UpdateTask)
	tasks.Delete("/:id", taskHandler.DeleteTask)
	tasks.Post("/:id/pause", taskHandler.PauseTask)
	tasks.Post("/:id/resume", taskHandler.ResumeTask)
	tasks.Get("/:taskId/my-submission", submissionHandler.GetMySubmission)
	tasks.Get("/:taskId/submissions", submissionHandler.ListTaskSubmissions)

	// Submissions
	submissions := authenticated.Group("/submissions")
	submissions.Post("/", submissionHandler.CreateSubmission)
	submissions.Get("/mine", submissionHandler.ListMySubmissions)
	submissions.Get("/:id", submissionHandler.GetSubmission)
	submissions.Post("/:id/approve", submissionHandler.ApproveSubmission)
	submissions.Post("/:id/reject", submissionHandler.RejectSubmission)

	// Account
	users := authenticated.Group("/users")
	users.Get("/profile", userHandler.GetProfile)
	users.Put("/profile", userHandler.UpdateProfile)
	users.Get("/statistics", userHandler.GetStatistics)
	users.Get("/referrals", userHandler.GetReferrals)
	users.Post("/apply-referral", earnHandler.ApplyReferral)

	// Wallet
	wallet := authenticated.Group("/wallet")
	wallet.Get("/", userHandler.GetWallet)
	wallet.Get("/transactions", userHandler.GetTransactions)
	wallet.Post("/withdraw", userHandler.RequestWithdrawal)
	wallet.Get("/withdrawals", userHandler.GetWithdrawals)

	// Leaderboard (authenticated)
	authenticated.Get("/leaderboard/my-rank", leaderboardHandler.MyRank)

	// Admin
	adminRoutes := api.Group("/admin", authMiddleware.Handler, middleware.AdminOnly)
	adminRoutes.Get("/dashboard", adminHandler.GetDashboard)
	adminRoutes.Get("/users", adminHandler.ListUsers)
	adminRoutes.Post("/users/:id/approve", adminHandler.ApproveUser)
	adminRoutes.Post("/users/:id/reject", adminHandler.RejectUser)
	adminRoutes.Post("/tasks/:id/approve", adminHandler.ApproveTask)
	adminRoutes.Post("/tasks/:id/reject", adminHandler.RejectTask)
	adminRoutes.Get("/withdrawals", adminHandler.ListWithdrawals)
	adminRoutes.Post("/withdrawals/:id/approve", adminHandler.ApproveWithdrawal)
	adminRoutes.Post("/withdrawals/:id/reject", adminHandler.RejectWithdrawal)
	adminRoutes.Get("/logs", adminHandler.ListLogs)
}
