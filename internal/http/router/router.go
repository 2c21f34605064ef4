package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/freelance-escrow/internal/config"
	"github.com/ignatzorin/freelance-escrow/internal/http/handlers"
	"github.com/ignatzorin/freelance-escrow/internal/http/middleware"
	"github.com/ignatzorin/freelance-escrow/internal/service"
)

// Handlers собирает все HTTP обработчики приложения.
type Handlers struct {
	Health       *handlers.HealthHandler
	Project      *handlers.ProjectHandler
	Proposal     *handlers.ProposalHandler
	Milestone    *handlers.MilestoneHandler
	Payment      *handlers.PaymentHandler
	Dispute      *handlers.DisputeHandler
	Profile      *handlers.ProfileHandler
	Notification *handlers.NotificationHandler
	WS           *handlers.WSHandler
}

// New настраивает маршруты приложения.
func New(cfg *config.Config, tokens *service.TokenManager, h Handlers) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.ErrorHandler())

	r.GET("/health", h.Health.Check)

	api := r.Group("/api")

	// Публичные маршруты платёжного шлюза: redirect после оплаты и webhook.
	// Ограничены rate limit, авторизация на стороне шлюза не предполагается.
	gatewayRoutes := api.Group("")
	gatewayRoutes.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		gatewayRoutes.GET("/payments/process", h.Payment.Process)
		gatewayRoutes.POST("/webhooks/payments", h.Payment.Webhook)
	}

	// Websocket авторизуется токеном в query параметре.
	api.GET("/ws", h.WS.Handle)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokens))
	{
		projects := protected.Group("/projects")
		{
			projects.POST("", h.Project.Create)
			projects.GET("", h.Project.List)
			projects.GET("/:id", middleware.UUIDValidator("id"), h.Project.Get)
			projects.POST("/:id/complete", middleware.UUIDValidator("id"), h.Project.Complete)
			projects.POST("/:id/cancel", middleware.UUIDValidator("id"), h.Project.Cancel)

			projects.POST("/:id/proposals", middleware.UUIDValidator("id"), h.Proposal.Submit)
			projects.GET("/:id/proposals", middleware.UUIDValidator("id"), h.Proposal.List)

			projects.POST("/:id/milestones", middleware.UUIDValidator("id"), h.Milestone.Create)
			projects.GET("/:id/milestones", middleware.UUIDValidator("id"), h.Milestone.List)

			projects.POST("/:id/disputes", middleware.UUIDValidator("id"), h.Dispute.Create)
			projects.GET("/:id/disputes", middleware.UUIDValidator("id"), h.Dispute.ListByProject)
		}

		proposals := protected.Group("/proposals")
		{
			proposals.POST("/:id/accept", middleware.UUIDValidator("id"), h.Proposal.Accept)
			proposals.POST("/:id/withdraw", middleware.UUIDValidator("id"), h.Proposal.Withdraw)
		}

		milestones := protected.Group("/milestones")
		{
			milestones.POST("/:id/start", middleware.UUIDValidator("id"), h.Milestone.Start)
			milestones.POST("/:id/complete", middleware.UUIDValidator("id"), h.Milestone.Complete)
			milestones.POST("/:id/pay", middleware.UUIDValidator("id"), h.Payment.Initiate)
		}

		payments := protected.Group("/payments")
		{
			payments.GET("/transactions", h.Payment.Transactions)
			payments.GET("/balance", h.Profile.Balance)
		}

		disputes := protected.Group("/disputes")
		{
			disputes.GET("", h.Dispute.ListOpen)
			disputes.GET("/:id", middleware.UUIDValidator("id"), h.Dispute.Get)
			disputes.POST("/:id/review", middleware.UUIDValidator("id"), h.Dispute.StartReview)
			disputes.POST("/:id/resolve", middleware.UUIDValidator("id"), h.Dispute.Resolve)
			disputes.POST("/:id/close", middleware.UUIDValidator("id"), h.Dispute.Close)
		}

		protected.GET("/profile", h.Profile.Me)
		protected.GET("/cashback", h.Profile.CashbackSummary)
		protected.POST("/cashback/use", h.Profile.UseCashback)

		notifications := protected.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/unread-count", h.Notification.UnreadCount)
			notifications.POST("/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
			notifications.POST("/read-all", h.Notification.MarkAllAsRead)
		}
	}

	return r
}
