package utils

import (
	"time"

	"musicbingo/middlewares"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ロガーを初期化 (verbose のときは開発用の設定)
func InitLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Gin のミドルウェア用関数で、リクエストのログを取得します。
// トークン認証を通ったリクエストにはクライアント ID と画面も付ける。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if clientID := middlewares.GetClientID(c); clientID != "" {
			fields = append(fields, zap.String("client", clientID))
		}
		if coord, ok := middlewares.GetCoordinator(c); ok {
			fields = append(fields, zap.String("screen", string(coord.Snapshot().Screen)))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Info("request", fields...)
	}
}
