package models

// CreateGameRequest carries either a playlist URL to resolve or a literal track list.
type CreateGameRequest struct {
	PlaylistURL string   `json:"playlistUrl"`
	Playlist    []string `json:"playlist"`
}

// JoinGameRequest carries the code typed by the guest.
type JoinGameRequest struct {
	Code string `json:"code" binding:"required"`
}

// MarkCellRequest addresses one cell of the caller's card.
type MarkCellRequest struct {
	Row *int `json:"row" binding:"required"`
	Col *int `json:"col" binding:"required"`
}

// NavigateRequest asks for a caller-driven screen change.
type NavigateRequest struct {
	Screen Screen `json:"screen" binding:"required"`
}
