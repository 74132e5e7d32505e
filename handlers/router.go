package handlers

import (
	"context"
	"net/http"
	"time"

	"musicbingo/auth"
	"musicbingo/bingo"
	"musicbingo/middlewares"
	"musicbingo/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the gateway API.
func NewRouter(registry *bingo.Registry, issuer *auth.TokenIssuer, corsOrigins []string, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	if len(corsOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     corsOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := registry.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "clients": registry.Len()})
	})

	router.POST("/api/login", func(c *gin.Context) {
		Login(c, registry, issuer, logger)
	})

	api := router.Group("/api", middlewares.TokenAuthentication(issuer, registry, logger))
	api.GET("/state", State)
	api.POST("/navigate", func(c *gin.Context) {
		Navigate(c, logger)
	})
	api.POST("/logout", func(c *gin.Context) {
		Logout(c, registry, logger)
	})
	api.POST("/games", func(c *gin.Context) {
		CreateGame(c, logger)
	})
	api.POST("/games/join", func(c *gin.Context) {
		JoinGame(c, logger)
	})
	api.POST("/games/mark", func(c *gin.Context) {
		MarkCell(c, logger)
	})
	api.POST("/games/reset", func(c *gin.Context) {
		ResetGame(c, logger)
	})
	api.GET("/games/qr", func(c *gin.Context) {
		GameQRCode(c, logger)
	})
	api.GET("/notifications", Notifications)
	api.DELETE("/notifications/:id", DismissNotification)

	return router
}
