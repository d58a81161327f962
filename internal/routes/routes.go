package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/01moynul/tradelink-golang/internal/auth"
	"github.com/01moynul/tradelink-golang/internal/handlers"
	"github.com/01moynul/tradelink-golang/internal/middleware"
	"github.com/01moynul/tradelink-golang/internal/models"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Options configures the router beyond the handlers themselves.
type Options struct {
	Issuer         *auth.Issuer
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(opts.Logger))

	// --- CORS Guard ---
	// Only the configured frontends may call us with credentials.
	router.Use(cors.New(cors.Config{
		AllowOrigins:     opts.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		// --- Ping Route (Public) ---
		api.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Routes ---
		api.GET("/hire/reviews/:tradesmanId", h.TradesmanReviews)
		api.GET("/users/tradesmen/filter", h.FilterTradesmen)
		api.GET("/users/tradesmen/:id/profile", h.TradesmanProfile)
		api.GET("/trades", h.ListTrades)
		api.GET("/subscriptions/plans", h.GetSubscriptionPlans)

		// --- Protected Routes (Login Required) ---
		authed := api.Group("/")
		authed.Use(middleware.Auth(opts.Issuer))
		{
			// Hire lifecycle
			authed.POST("/hire/request", h.RequestHire)
			authed.POST("/hire/respond", h.RespondHire)
			authed.POST("/hire/request-complete", h.RequestCompletion)
			authed.POST("/hire/confirm-complete", h.ConfirmCompletion)
			authed.POST("/hire/cancel", h.CancelHire)
			authed.GET("/hire/pending-complete", h.PendingCompletion)
			authed.GET("/hire/status/:userId", h.HireStatus)
			authed.GET("/hire/my", h.MyJobs)

			// Reviews
			authed.POST("/hire/review", h.AddReview)
			authed.GET("/hire/review/pending", h.PendingReviews)

			// Travel plans
			authed.POST("/locations", h.CreateTravelPlan)
			authed.GET("/locations/my", h.MyTravelPlans)
			authed.PUT("/locations/:id", h.UpdateTravelPlan)
			authed.DELETE("/locations/:id", h.DeleteTravelPlan)

			authed.PUT("/tradesman/details", h.UpdateTradesmanDetails)

			// Chat
			authed.POST("/chat/send", h.SendMessage)
			authed.GET("/chat/conversation/:userId", h.Conversation)
			authed.GET("/chat/list", h.ChatList)
			authed.PUT("/chat/mark-read", h.MarkRead)

			authed.GET("/subscriptions/me", h.MySubscription)
		}

		// --- Admin-Only Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.Auth(opts.Issuer), middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/trades", h.CreateTrade)

			admin.POST("/users/:id/subscription", h.AssignSubscription)
			admin.DELETE("/users/:id/subscription", h.CancelSubscription)

			admin.GET("/tradesmen/pending", h.PendingTradesmen)
			admin.POST("/tradesmen/:userId/approve", h.ApproveTradesman)
			admin.POST("/tradesmen/:userId/reject", h.RejectTradesman)
		}
	}

	return router
}
