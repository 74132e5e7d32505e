package handlers

import (
	"net/http"

	"musicbingo/middlewares"
	"musicbingo/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// State returns the client's current view.
func State(c *gin.Context) {
	coord, _ := middlewares.GetCoordinator(c)
	c.JSON(http.StatusOK, gin.H{
		"status":        "success",
		"state":         coord.Snapshot(),
		"standings":     coord.Standings(),
		"notifications": coord.Notifications(),
	})
}

// Navigate は画面遷移を行います。
func Navigate(c *gin.Context, logger *zap.Logger) {
	var request models.NavigateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": err.Error()})
		return
	}

	coord, _ := middlewares.GetCoordinator(c)
	if err := coord.Navigate(request.Screen); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "state": coord.Snapshot()})
}
