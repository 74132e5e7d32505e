package models

import "time"

// Screen is the view a client is currently showing.
type Screen string

const (
	ScreenLogin       Screen = "LOGIN"
	ScreenHome        Screen = "HOME"
	ScreenCreateGame  Screen = "CREATE_GAME"
	ScreenJoinGame    Screen = "JOIN_GAME"
	ScreenGameBoard   Screen = "GAME_BOARD"
	ScreenDJDashboard Screen = "DJ_DASHBOARD"
	ScreenWinner      Screen = "WINNER"
)

// NotificationKind mirrors the toast styles of the view layer.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyInfo    NotificationKind = "info"
	NotifyError   NotificationKind = "error"
)

// Notification is a transient message for the user.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"type"`
	Message   string           `json:"message"`
	CreatedAt time.Time        `json:"createdAt"`
}

// View is a snapshot of the local state of one client. It is never stored remotely.
type View struct {
	User     *User    `json:"user"`
	Screen   Screen   `json:"currentScreen"`
	Code     string   `json:"gameCode,omitempty"`
	Playlist []string `json:"playlist"`
	Players  []Player `json:"players"`
	Status   Status   `json:"gameStatus"`
	Winner   *Player  `json:"winner"`
}

// Me returns the local record of the logged-in player, if present.
func (v View) Me() (Player, bool) {
	if v.User == nil {
		return Player{}, false
	}
	for _, p := range v.Players {
		if p.Name == v.User.Name {
			return p, true
		}
	}
	return Player{}, false
}
