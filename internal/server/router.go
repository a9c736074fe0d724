package server

import (
	"net/http"

	"taskhub/internal/config"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

func NewRouter(cfg *config.Config) *gin.Engine {
	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	r.Use(sessions.Sessions("taskhub_session", store))

	r.Use(middleware.InjectUser())

	api := r.Group("/api")

	// AUTH
	api.POST("/register", handlers.Register)
	api.POST("/login", handlers.Login)
	api.POST("/logout", handlers.Logout)

	auth := api.Group("/")
	auth.Use(middleware.RequireAuth())

	// ТАЙМЕРЫ
	auth.POST("/tasks/:id/toggle-timer", handlers.ToggleTimer)
	auth.PUT("/tasks/:id/timers", handlers.UpdateTimers)
	auth.POST("/tasks/:id/unassign-member", handlers.UnassignMember)

	// ЛЕНТА АКТИВНОСТИ И ПЛАТЕЖИ
	auth.GET("/containers/:id/activities", handlers.ContainerActivities)
	auth.GET("/containers/:id/members/:userId/payment-details", handlers.MemberPaymentDetails)
	auth.POST("/containers/:id/members/:userId/payments", handlers.ProcessPayment)

	// УВЕДОМЛЕНИЯ
	auth.GET("/notifications", handlers.ListNotifications)
	auth.POST("/notifications/:id/seen", handlers.MarkNotificationSeen)

	// HEALTHCHECK
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
