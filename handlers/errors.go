package handlers

import (
	"context"
	"errors"
	"net/http"

	"musicbingo/bingo"
	"musicbingo/database"
	"musicbingo/spotify"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// errorStatus maps a game error to the HTTP status and the short status
// string the view layer switches on.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, bingo.ErrEmptyName),
		errors.Is(err, bingo.ErrInvalidRole),
		errors.Is(err, bingo.ErrInvalidCode),
		errors.Is(err, bingo.ErrInvalidCell),
		errors.Is(err, bingo.ErrFreeCell),
		errors.Is(err, bingo.ErrPlaylistTooShort),
		errors.Is(err, bingo.ErrInvalidScreen),
		errors.Is(err, spotify.ErrInvalidPlaylistURL):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, bingo.ErrNotHost), errors.Is(err, bingo.ErrNotGuest):
		return http.StatusForbidden, "role_error"
	case errors.Is(err, bingo.ErrNotLoggedIn), errors.Is(err, bingo.ErrNoActiveGame):
		return http.StatusConflict, "state_error"
	case errors.Is(err, bingo.ErrNoTrackSource):
		return http.StatusNotImplemented, "track_source_disabled"
	case errors.Is(err, bingo.ErrSessionNotFound), errors.Is(err, spotify.ErrPlaylistNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, bingo.ErrSessionEnded):
		return http.StatusConflict, "session_ended"
	case errors.Is(err, bingo.ErrSessionVanished), errors.Is(err, bingo.ErrPlayerMissing):
		return http.StatusGone, "session_gone"
	case errors.Is(err, bingo.ErrCodeSpace):
		return http.StatusServiceUnavailable, "code_space_exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case database.IsStoreError(err),
		errors.Is(err, spotify.ErrCredentials),
		errors.Is(err, spotify.ErrTrackSource):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code, status := errorStatus(err)
	if code >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(code, gin.H{
		"status": status,
		"error":  err.Error(),
	})
}
