package middlewares

import (
	"strings"

	"musicbingo/bingo"

	"github.com/gin-gonic/gin"
)

const (
	clientIDKey    = "clientID"
	coordinatorKey = "coordinator"
)

// リクエストヘッダーから Bearer トークンを取り出す
func bearerToken(c *gin.Context) string {
	tokenString := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "Bearer ") {
		tokenString = strings.TrimSpace(tokenString[7:])
	}
	return tokenString
}

// GetCoordinator returns the coordinator attached by TokenAuthentication.
func GetCoordinator(c *gin.Context) (*bingo.Coordinator, bool) {
	v, ok := c.Get(coordinatorKey)
	if !ok {
		return nil, false
	}
	coord, ok := v.(*bingo.Coordinator)
	return coord, ok
}

// GetClientID returns the client id of the verified token.
func GetClientID(c *gin.Context) string {
	return c.GetString(clientIDKey)
}
