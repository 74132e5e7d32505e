package models

// カードの寸法と中央のフリーマス
const (
	GridSize   = 5
	CardTracks = GridSize*GridSize - 1 // フリーマス以外のマス数
	FullMarks  = GridSize * GridSize
	CenterRow  = 2
	CenterCol  = 2
	FreeTrack  = "FREE"
)

// Status はセッションの進行状態
type Status string

const (
	StatusLobby      Status = "LOBBY"
	StatusInProgress Status = "IN_PROGRESS"
	StatusFinished   Status = "FINISHED"
)

// Cell is one square of a bingo card.
type Cell struct {
	Track  string `json:"track"`
	Marked bool   `json:"marked"`
}

// IsFree reports whether the cell is the fixed center square.
func (c Cell) IsFree() bool {
	return c.Track == FreeTrack
}

// Card is a 5x5 grid, row-major.
type Card [][]Cell

// CountMarked counts marked cells. markedCount is always derived from this,
// never incremented.
func (c Card) CountMarked() int {
	count := 0
	for _, row := range c {
		for _, cell := range row {
			if cell.Marked {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy of the card.
func (c Card) Clone() Card {
	if c == nil {
		return nil
	}
	out := make(Card, len(c))
	for i, row := range c {
		out[i] = append([]Cell(nil), row...)
	}
	return out
}

// InBounds reports whether (row, col) addresses a cell of the card.
func (c Card) InBounds(row, col int) bool {
	return row >= 0 && row < len(c) && col >= 0 && col < len(c[row])
}

// Player is a guest and their card. Name is unique within a session.
type Player struct {
	Name        string `json:"name"`
	Card        Card   `json:"card"`
	MarkedCount int    `json:"markedCount"`
}

// Clone returns a deep copy of the player.
func (p Player) Clone() Player {
	p.Card = p.Card.Clone()
	return p
}

// HasWon reports whether every cell of the card is marked.
func (p Player) HasWon() bool {
	return p.MarkedCount == FullMarks
}

// Session is the remote document stored under a session code.
type Session struct {
	Playlist []string `json:"playlist"`
	Players  []Player `json:"players"` // 参加順
	Status   Status   `json:"status"`
}

// PlayerIndex returns the index of the named player, or -1.
func (s *Session) PlayerIndex(name string) int {
	for i, p := range s.Players {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Winner returns the first player in join order with a full card.
func (s *Session) Winner() (Player, bool) {
	for _, p := range s.Players {
		if p.HasWon() {
			return p, true
		}
	}
	return Player{}, false
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := &Session{
		Playlist: append([]string(nil), s.Playlist...),
		Status:   s.Status,
		Players:  ClonePlayers(s.Players),
	}
	return out
}

// ClonePlayers deep-copies a player list. A nil list stays nil.
func ClonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

// Table is the whole remote document: session code -> session.
type Table map[string]*Session

// Clone returns a deep copy of the table.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for code, s := range t {
		out[code] = s.Clone()
	}
	return out
}
