package bingo

import (
	"context"
	"sync"
	"time"

	"musicbingo/database"
	"musicbingo/models"

	"go.uber.org/zap"
)

type registryEntry struct {
	coord    *Coordinator
	lastSeen time.Time
}

// Registry hosts one Coordinator per client of the gateway. Clients are
// identified by the id carried in their identity token.
type Registry struct {
	store  database.Store
	opts   []Option
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*registryEntry
}

// NewRegistry creates a registry whose coordinators share store and opts.
func NewRegistry(store database.Store, logger *zap.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		store:   store,
		opts:    append([]Option{WithLogger(logger)}, opts...),
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*registryEntry),
	}
}

// Register creates a fresh coordinator for clientID logged in as user,
// replacing any previous one.
func (r *Registry) Register(clientID string, user models.User) (*Coordinator, error) {
	coord, err := r.login(user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	old := r.clients[clientID]
	r.clients[clientID] = &registryEntry{coord: coord, lastSeen: r.now()}
	r.mu.Unlock()

	if old != nil {
		old.coord.Close()
	}
	r.logger.Info("Client registered", zap.String("client", clientID), zap.String("name", user.Name))
	return coord, nil
}

// Resolve returns the coordinator of clientID. A client that was swept or
// lost in a restart gets a new coordinator logged in as user. Concurrent
// calls for the same client all get the same coordinator.
func (r *Registry) Resolve(clientID string, user models.User) (*Coordinator, error) {
	if coord, ok := r.touch(clientID); ok {
		return coord, nil
	}

	r.logger.Debug("Restoring client", zap.String("client", clientID))
	coord, err := r.login(user)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if e, ok := r.clients[clientID]; ok {
		// 先に復元したリクエストがある
		e.lastSeen = r.now()
		r.mu.Unlock()
		coord.Close()
		return e.coord, nil
	}
	r.clients[clientID] = &registryEntry{coord: coord, lastSeen: r.now()}
	r.mu.Unlock()
	return coord, nil
}

func (r *Registry) touch(clientID string) (*Coordinator, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.clients[clientID]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.coord, true
}

func (r *Registry) login(user models.User) (*Coordinator, error) {
	coord := NewCoordinator(r.store, r.opts...)
	if err := coord.Login(user.Name, user.Role); err != nil {
		coord.Close()
		return nil, err
	}
	return coord, nil
}

// Remove closes and forgets the coordinator of clientID.
func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	e, ok := r.clients[clientID]
	delete(r.clients, clientID)
	r.mu.Unlock()

	if ok {
		e.coord.Close()
	}
}

// SweepIdle removes the clients that have not made a request for longer
// than maxIdle. A host's open session stays in the table; only the local
// state and its polling go away.
func (r *Registry) SweepIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var idle []*Coordinator
	for id, e := range r.clients {
		if e.lastSeen.Before(cutoff) {
			idle = append(idle, e.coord)
			delete(r.clients, id)
		}
	}
	r.mu.Unlock()

	for _, coord := range idle {
		coord.Close()
	}
	if len(idle) > 0 {
		r.logger.Info("Idle clients removed", zap.Int("count", len(idle)))
	}
	return len(idle)
}

// Len returns the number of hosted clients.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Close stops every coordinator.
func (r *Registry) Close() {
	r.mu.Lock()
	clients := r.clients
	r.clients = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range clients {
		e.coord.Close()
	}
}

// Ping checks that the shared store answers.
func (r *Registry) Ping(ctx context.Context) error {
	_, err := r.store.Load(ctx)
	return err
}
