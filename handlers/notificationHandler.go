package handlers

import (
	"net/http"

	"musicbingo/middlewares"

	"github.com/gin-gonic/gin"
)

// Notifications は期限切れでない通知を返します。
func Notifications(c *gin.Context) {
	coord, _ := middlewares.GetCoordinator(c)
	c.JSON(http.StatusOK, gin.H{"status": "success", "notifications": coord.Notifications()})
}

// DismissNotification は通知を閉じます。
func DismissNotification(c *gin.Context) {
	coord, _ := middlewares.GetCoordinator(c)
	if !coord.Dismiss(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"status": "not_found", "error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
