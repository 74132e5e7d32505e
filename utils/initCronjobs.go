package utils

import (
	"time"

	"musicbingo/bingo"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// CronSweeper は一定時間リクエストのないクライアントを定期的に破棄します。
// 呼び出し側はシャットダウン時に Stop すること
func CronSweeper(registry *bingo.Registry, idleTimeout time.Duration, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc("@every 1m", func() {
		if n := registry.SweepIdle(idleTimeout); n > 0 {
			logger.Info("アイドル状態のクライアントを削除しました", zap.Int("clients_removed", n))
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
