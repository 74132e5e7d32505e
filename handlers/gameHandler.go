package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"musicbingo/bingo"
	"musicbingo/middlewares"
	"musicbingo/models"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
)

const (
	markTimeout   = 10 * time.Second
	defaultQRSize = 320
	maxQRSize     = 1024
)

// CreateGame はプレイリスト (URL またはトラック一覧) からゲームを作成します。
func CreateGame(c *gin.Context, logger *zap.Logger) {
	var request models.CreateGameRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": err.Error()})
		return
	}

	coord, _ := middlewares.GetCoordinator(c)
	var (
		code string
		err  error
	)
	switch {
	case request.PlaylistURL != "":
		code, err = coord.CreateFromPlaylistURL(c.Request.Context(), request.PlaylistURL)
	case len(request.Playlist) > 0:
		code, err = coord.Create(c.Request.Context(), request.Playlist)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": "playlistUrl or playlist is required"})
		return
	}
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status": "success",
		"code":   code,
		"state":  coord.Snapshot(),
	})
}

// JoinGame は招待客をゲームに参加させます。
func JoinGame(c *gin.Context, logger *zap.Logger) {
	var request models.JoinGameRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": err.Error()})
		return
	}

	coord, _ := middlewares.GetCoordinator(c)
	if err := coord.Join(c.Request.Context(), request.Code); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "state": coord.Snapshot()})
}

// MarkCell applies the mark at once and answers with the optimistic view.
// The remote write finishes in the background; a rollback shows up in the
// next state and as a notification.
func MarkCell(c *gin.Context, logger *zap.Logger) {
	var request models.MarkCellRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": err.Error()})
		return
	}

	coord, _ := middlewares.GetCoordinator(c)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), markTimeout)
	result, err := coord.MarkAsync(ctx, *request.Row, *request.Col)
	if err != nil {
		cancel()
		respondError(c, logger, err)
		return
	}
	clientID := middlewares.GetClientID(c)
	go func() {
		defer cancel()
		if err := <-result; err != nil {
			logger.Debug("Mark not persisted", zap.String("client", clientID), zap.Error(err))
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "success", "state": coord.Snapshot()})
}

// ResetGame はゲームを終了します。DJの場合はセッションも削除されます。
func ResetGame(c *gin.Context, logger *zap.Logger) {
	coord, _ := middlewares.GetCoordinator(c)
	if err := coord.Reset(c.Request.Context()); err != nil {
		respondError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "state": coord.Snapshot()})
}

// GameQRCode は参加コードのQRコードをPNGで返します。
func GameQRCode(c *gin.Context, logger *zap.Logger) {
	coord, _ := middlewares.GetCoordinator(c)
	code := coord.Snapshot().Code
	if code == "" {
		respondError(c, logger, bingo.ErrNoActiveGame)
		return
	}

	size := defaultQRSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > maxQRSize {
			c.JSON(http.StatusBadRequest, gin.H{"status": "validation_error", "error": "size must be between 64 and 1024"})
			return
		}
		size = n
	}

	png, err := qrcode.Encode(code, qrcode.Medium, size)
	if err != nil {
		logger.Error("QR generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"status": "qr_error", "error": "qr generation failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
