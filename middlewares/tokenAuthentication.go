package middlewares

import (
	"net/http"

	"musicbingo/auth"
	"musicbingo/bingo"
	"musicbingo/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenAuthentication verifies the identity token and attaches the client's
// coordinator to the request.
func TokenAuthentication(issuer *auth.TokenIssuer, registry *bingo.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "token_missing",
				"error":  "Token is required",
			})
			return
		}

		claims, err := issuer.ParseToken(tokenString)
		if err != nil {
			logger.Warn("Failed to parse identity token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "token_validation_error",
				"error":  "Unauthorized",
			})
			return
		}

		coord, err := registry.Resolve(claims.ClientID, models.User{Name: claims.Name, Role: claims.Role})
		if err != nil {
			logger.Error("Failed to restore client", zap.String("client", claims.ClientID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"status": "token_validation_error",
				"error":  "Unauthorized",
			})
			return
		}

		c.Set(clientIDKey, claims.ClientID)
		c.Set(coordinatorKey, coord)
		c.Next()
	}
}
