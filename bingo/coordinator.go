package bingo

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"musicbingo/database"
	"musicbingo/models"

	"go.uber.org/zap"
)

const (
	DefaultPollInterval    = 2 * time.Second
	DefaultNotificationTTL = 5 * time.Second
)

// TrackSource resolves a playlist URL into "title - artist" strings.
type TrackSource interface {
	TracksFromURL(ctx context.Context, playlistURL string) ([]string, error)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

// WithRand makes card shuffles and session codes reproducible.
func WithRand(rnd *rand.Rand) Option {
	return func(c *Coordinator) { c.rnd = rnd }
}

func WithPollInterval(d time.Duration) Option {
	return func(c *Coordinator) { c.pollInterval = d }
}

func WithTrackSource(src TrackSource) Option {
	return func(c *Coordinator) { c.tracks = src }
}

func WithNotificationTTL(d time.Duration) Option {
	return func(c *Coordinator) { c.notifyTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// Coordinator owns the local state of one client and runs every game
// operation against the shared session table. Coordinators of different
// clients never talk to each other; they only meet in the store.
type Coordinator struct {
	store        database.Store
	logger       *zap.Logger
	tracks       TrackSource
	pollInterval time.Duration
	notifyTTL    time.Duration
	now          func() time.Time

	mu            sync.Mutex
	rnd           *rand.Rand
	view          models.View
	notifications []models.Notification
	pending       map[cellKey]bool // marks applied locally, not yet saved
	pollCancel    context.CancelFunc
	pollDone      chan struct{}
	closed        bool

	// writeMu serializes the remote writes of this client.
	writeMu sync.Mutex
}

func NewCoordinator(store database.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		logger:       zap.NewNop(),
		pollInterval: DefaultPollInterval,
		notifyTTL:    DefaultNotificationTTL,
		now:          time.Now,
		pending:      make(map[cellKey]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = createLocalRandGenerator()
	}
	c.view = initialView(nil)
	return c
}

func initialView(user *models.User) models.View {
	v := models.View{Screen: models.ScreenLogin, Status: models.StatusLobby}
	if user != nil {
		u := *user
		v.User = &u
		v.Screen = models.ScreenHome
	}
	return v
}

// Snapshot returns a copy of the local state.
func (c *Coordinator) Snapshot() models.View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() models.View {
	v := c.view
	if v.User != nil {
		u := *v.User
		v.User = &u
	}
	v.Playlist = append([]string(nil), v.Playlist...)
	v.Players = models.ClonePlayers(v.Players)
	if v.Winner != nil {
		w := v.Winner.Clone()
		v.Winner = &w
	}
	return v
}

// Standings returns the players ordered by progress, best first.
func (c *Coordinator) Standings() []models.Player {
	c.mu.Lock()
	players := models.ClonePlayers(c.view.Players)
	c.mu.Unlock()

	sort.SliceStable(players, func(i, j int) bool {
		return players[i].MarkedCount > players[j].MarkedCount
	})
	return players
}

// Login sets the local identity. Any previous local game state is dropped.
func (c *Coordinator) Login(name string, role models.Role) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if !role.Valid() {
		return ErrInvalidRole
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = initialView(&models.User{Name: name, Role: role})
	c.pending = make(map[cellKey]bool)
	c.syncPollingLocked()
	c.logger.Info("User logged in", zap.String("name", name), zap.String("role", string(role)))
	return nil
}

// Navigate performs a caller-driven screen change.
func (c *Coordinator) Navigate(screen models.Screen) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	user := c.view.User
	if user == nil {
		return ErrNotLoggedIn
	}
	switch screen {
	case models.ScreenHome, models.ScreenCreateGame, models.ScreenJoinGame:
	case models.ScreenDJDashboard:
		if !user.IsHost() || c.view.Code == "" {
			return ErrInvalidScreen
		}
	case models.ScreenGameBoard:
		if user.IsHost() || c.view.Code == "" {
			return ErrInvalidScreen
		}
	default:
		return ErrInvalidScreen
	}
	if c.view.Screen == models.ScreenWinner {
		// 勝者画面から抜けるには Reset を使う
		return ErrInvalidScreen
	}

	c.view.Screen = screen
	c.syncPollingLocked()
	return nil
}

// Create opens a new session with playlist and moves the host to the dashboard.
func (c *Coordinator) Create(ctx context.Context, playlist []string) (string, error) {
	c.mu.Lock()
	user := c.view.User
	c.mu.Unlock()
	if user == nil {
		return "", ErrNotLoggedIn
	}
	if !user.IsHost() {
		return "", ErrNotHost
	}
	if err := ValidatePlaylist(playlist); err != nil {
		return "", err
	}

	table, err := c.store.Load(ctx)
	if err != nil {
		return "", c.storeFailure("Could not create the game", err)
	}

	c.mu.Lock()
	code, err := newCode(c.rnd, func(code string) bool {
		_, exists := table[code]
		return exists
	})
	c.mu.Unlock()
	if err != nil {
		return "", err
	}

	session := &models.Session{
		Playlist: append([]string(nil), playlist...),
		Players:  []models.Player{},
		Status:   models.StatusInProgress,
	}
	table[code] = session
	if err := c.store.Save(ctx, table); err != nil {
		return "", c.storeFailure("Could not create the game", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = models.View{
		User:     c.view.User,
		Screen:   models.ScreenDJDashboard,
		Code:     code,
		Playlist: append([]string(nil), playlist...),
		Players:  []models.Player{},
		Status:   models.StatusInProgress,
	}
	c.pending = make(map[cellKey]bool)
	c.notifyLocked(models.NotifySuccess, fmt.Sprintf("Game created! Share the code %s", code))
	c.syncPollingLocked()
	c.logger.Info("Session created", zap.String("code", code), zap.Int("tracks", len(playlist)))
	return code, nil
}

// CreateFromPlaylistURL resolves the playlist through the track source and creates the session.
func (c *Coordinator) CreateFromPlaylistURL(ctx context.Context, playlistURL string) (string, error) {
	if c.tracks == nil {
		return "", ErrNoTrackSource
	}
	c.mu.Lock()
	user := c.view.User
	c.mu.Unlock()
	if user == nil {
		return "", ErrNotLoggedIn
	}
	if !user.IsHost() {
		return "", ErrNotHost
	}

	tracks, err := c.tracks.TracksFromURL(ctx, playlistURL)
	if err != nil {
		c.logger.Warn("Failed to fetch playlist", zap.String("url", playlistURL), zap.Error(err))
		return "", err
	}
	return c.Create(ctx, tracks)
}

// Join enters the session under code. A player already in the session with
// the same name gets their stored record back unchanged.
func (c *Coordinator) Join(ctx context.Context, code string) error {
	code = NormalizeCode(code)
	if code == "" {
		return ErrInvalidCode
	}
	c.mu.Lock()
	user := c.view.User
	c.mu.Unlock()
	if user == nil {
		return ErrNotLoggedIn
	}
	if user.IsHost() {
		return ErrNotGuest
	}

	table, err := c.store.Load(ctx)
	if err != nil {
		return c.storeFailure("Could not join the game", err)
	}
	session, ok := table[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, code)
	}
	if session.Status == models.StatusFinished {
		return fmt.Errorf("%w: %s", ErrSessionEnded, code)
	}

	rejoin := session.PlayerIndex(user.Name) >= 0
	if !rejoin {
		c.mu.Lock()
		card, err := GenerateCard(session.Playlist, c.rnd)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		session.Players = append(session.Players, models.Player{
			Name:        user.Name,
			Card:        card,
			MarkedCount: card.CountMarked(),
		})
		if err := c.store.Save(ctx, table); err != nil {
			return c.storeFailure("Could not join the game", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.User == nil || c.view.User.Name != user.Name {
		// ログアウトされた
		return ErrNotLoggedIn
	}
	c.view = models.View{
		User:     c.view.User,
		Screen:   models.ScreenGameBoard,
		Code:     code,
		Playlist: append([]string(nil), session.Playlist...),
		Players:  models.ClonePlayers(session.Players),
		Status:   session.Status,
	}
	c.pending = make(map[cellKey]bool)
	if rejoin {
		c.notifyLocked(models.NotifyInfo, "Welcome back! Your card is as you left it")
	} else {
		c.notifyLocked(models.NotifySuccess, "You joined the game. Good luck!")
	}
	c.syncPollingLocked()
	c.logger.Info("Joined session", zap.String("code", code), zap.String("name", user.Name), zap.Bool("rejoin", rejoin))
	return nil
}

// Reset ends the local game. For the host it also deletes the session from
// the table; a failure there is reported but the local state is reset anyway.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	user := c.view.User
	code := c.view.Code
	c.stopPollingLocked()
	c.mu.Unlock()

	var err error
	if user.IsHost() && code != "" {
		err = c.deleteSession(ctx, code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = initialView(c.view.User)
	c.pending = make(map[cellKey]bool)
	if err != nil {
		c.notifyLocked(models.NotifyError, "Could not close the game on the server")
		c.logger.Error("Failed to delete session", zap.String("code", code), zap.Error(err))
	}
	return err
}

// Leave is Reset from a guest's point of view.
func (c *Coordinator) Leave(ctx context.Context) error {
	return c.Reset(ctx)
}

// Logout resets and forgets the identity.
func (c *Coordinator) Logout(ctx context.Context) error {
	err := c.Reset(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = initialView(nil)
	c.notifications = nil
	return err
}

func (c *Coordinator) deleteSession(ctx context.Context, code string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	table, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, ok := table[code]; !ok {
		return nil
	}
	delete(table, code)
	if err := c.store.Save(ctx, table); err != nil {
		return err
	}
	c.logger.Info("Session deleted", zap.String("code", code))
	return nil
}

// Close stops background polling. The coordinator must not be used afterwards.
func (c *Coordinator) Close() {
	c.mu.Lock()
	c.closed = true
	done := c.pollDone
	c.stopPollingLocked()
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}

// storeFailure records an error notification for a failed store call.
func (c *Coordinator) storeFailure(msg string, err error) error {
	c.logger.Error(msg, zap.Error(err))
	c.mu.Lock()
	c.notifyLocked(models.NotifyError, msg)
	c.mu.Unlock()
	return err
}
