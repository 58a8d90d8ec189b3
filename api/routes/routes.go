package routes

import (
	"net/http"

	"github.com/ArowuTest/mcash-backend/internal/config"
	"github.com/ArowuTest/mcash-backend/internal/handlers"
	"github.com/ArowuTest/mcash-backend/internal/middleware"
	"github.com/ArowuTest/mcash-backend/internal/models"
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the router mounts
type Handlers struct {
	Auth        *handlers.AuthHandler
	User        *handlers.UserHandler
	Transaction *handlers.TransactionHandler
	Recharge    *handlers.RechargeHandler
	Admin       *handlers.AdminHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, tokens middleware.TokenValidator, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
	}

	protected := api.Group("")
	protected.Use(middleware.JWTAuthMiddleware(tokens))

	user := protected.Group("/user")
	{
		user.GET("", h.User.Profile)
		user.GET("/balance", h.User.Balance)
		user.GET("/transaction/history", h.User.History)
	}

	transaction := protected.Group("/transaction")
	transaction.Use(middleware.RequireRoles(models.RoleUser))
	{
		transaction.POST("/send-money", h.Transaction.SendMoney)
		transaction.POST("/cash-out", h.Transaction.CashOut)
	}

	agent := protected.Group("/agent")
	agent.Use(middleware.RequireRoles(models.RoleAgent))
	{
		agent.POST("/cash-in", h.Transaction.CashIn)
		agent.POST("/request-money", h.Recharge.RequestMoney)
		agent.GET("/requests", h.Recharge.MyRequests)
	}

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", h.Admin.Users)
		admin.PUT("/users/:id/block", h.Admin.BlockAccount)
		admin.GET("/transactionhistory", h.Admin.Transactions)
		admin.GET("/agent-approvals", h.Admin.AgentApprovals)
		admin.PUT("/agent-approve/:email", h.Admin.DecideAgent)
	}

	recharge := protected.Group("/recharge")
	recharge.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		recharge.GET("", h.Recharge.ListPending)
		recharge.PUT("/:requestId", h.Recharge.Decide)
	}

	return router
}
