package handlers

import (
	"net/http"

	"musicbingo/auth"
	"musicbingo/bingo"
	"musicbingo/middlewares"
	"musicbingo/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Login はクライアントIDを払い出し、コーディネーターを作成してトークンを返します。
func Login(c *gin.Context, registry *bingo.Registry, issuer *auth.TokenIssuer, logger *zap.Logger) {
	var request models.LoginRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Debug("Login request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": err.Error()})
		return
	}

	clientID := uuid.New().String()
	coord, err := registry.Register(clientID, models.User{Name: request.Name, Role: request.Role})
	if err != nil {
		respondError(c, logger, err)
		return
	}

	view := coord.Snapshot()
	token, expiresAt, err := issuer.GenerateToken(clientID, *view.User)
	if err != nil {
		registry.Remove(clientID)
		logger.Error("Token generation error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "token_error", "error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"token":     token,
		"expiresAt": expiresAt,
		"state":     view,
	})
}

// Logout はゲームを抜けてクライアントを破棄します。
// リモート削除に失敗してもローカルの状態は消える
func Logout(c *gin.Context, registry *bingo.Registry, logger *zap.Logger) {
	coord, _ := middlewares.GetCoordinator(c)
	clientID := middlewares.GetClientID(c)

	if err := coord.Logout(c.Request.Context()); err != nil {
		logger.Warn("Logout could not close the session", zap.String("client", clientID), zap.Error(err))
	}
	registry.Remove(clientID)
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
