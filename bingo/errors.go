package bingo

import "errors"

// Validation errors: reported inline, nothing changes.
var (
	ErrEmptyName        = errors.New("name must not be empty")
	ErrInvalidRole      = errors.New("role must be DJ or Player")
	ErrInvalidCode      = errors.New("session code must not be empty")
	ErrInvalidCell      = errors.New("cell is outside the card")
	ErrFreeCell         = errors.New("the free cell is always marked")
	ErrPlaylistTooShort = errors.New("playlist needs at least 24 distinct tracks")
	ErrInvalidScreen    = errors.New("screen cannot be opened from here")
)

// State errors: the caller is not in a position to run the operation.
var (
	ErrNotLoggedIn   = errors.New("not logged in")
	ErrNotHost       = errors.New("only the DJ can do this")
	ErrNotGuest      = errors.New("only guests can do this")
	ErrNoActiveGame  = errors.New("no active game")
	ErrNoTrackSource = errors.New("playlist URLs are not supported without a track source")
)

// Not-found and session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionEnded    = errors.New("session ended")
	ErrSessionVanished = errors.New("session no longer exists")
	ErrPlayerMissing   = errors.New("player is not part of the session")
	ErrCodeSpace       = errors.New("could not find a free session code")
)
