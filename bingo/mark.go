package bingo

import (
	"context"
	"errors"
	"fmt"

	"musicbingo/models"

	"go.uber.org/zap"
)

type cellKey struct {
	row, col int
}

// markOp is one optimistic mark waiting for its remote write.
type markOp struct {
	code string
	name string
	cell cellKey
}

// Mark marks a cell of the caller's card. The local state changes at once;
// the call returns when the remote write has succeeded or been rolled back.
// Marking an already marked cell is a no-op without store I/O.
func (c *Coordinator) Mark(ctx context.Context, row, col int) error {
	op, err := c.applyMark(row, col)
	if err != nil || op == nil {
		return err
	}
	return c.persistMark(ctx, op)
}

// MarkAsync applies the mark locally and persists it in the background.
// Validation errors are returned directly; the outcome of the remote write
// is delivered on the channel, which is closed afterwards.
func (c *Coordinator) MarkAsync(ctx context.Context, row, col int) (<-chan error, error) {
	op, err := c.applyMark(row, col)
	if err != nil {
		return nil, err
	}
	result := make(chan error, 1)
	if op == nil {
		close(result)
		return result, nil
	}
	go func() {
		defer close(result)
		result <- c.persistMark(ctx, op)
	}()
	return result, nil
}

// applyMark checks the preconditions and applies the mark to the local copy.
func (c *Coordinator) applyMark(row, col int) (*markOp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	user := c.view.User
	if user == nil {
		return nil, ErrNotLoggedIn
	}
	if user.IsHost() {
		return nil, ErrNotGuest
	}
	if c.view.Code == "" {
		return nil, ErrNoActiveGame
	}
	if c.view.Status == models.StatusFinished {
		return nil, ErrSessionEnded
	}
	me := c.localPlayerLocked()
	if me == nil {
		return nil, ErrNoActiveGame
	}
	if !me.Card.InBounds(row, col) {
		return nil, fmt.Errorf("%w: (%d, %d)", ErrInvalidCell, row, col)
	}
	cell := me.Card[row][col]
	if cell.IsFree() {
		return nil, ErrFreeCell
	}
	if cell.Marked {
		return nil, nil
	}

	me.Card[row][col].Marked = true
	me.MarkedCount = me.Card.CountMarked()

	op := &markOp{code: c.view.Code, name: user.Name, cell: cellKey{row, col}}
	c.pending[op.cell] = true
	return op, nil
}

// persistMark runs the remote read-modify-write for op and rolls it back on failure.
func (c *Coordinator) persistMark(ctx context.Context, op *markOp) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	table, err := c.store.Load(ctx)
	if err != nil {
		return c.rollbackMark(op, err)
	}
	session, ok := table[op.code]
	if !ok {
		return c.rollbackMark(op, ErrSessionVanished)
	}
	if session.Status == models.StatusFinished {
		c.adoptFinished(op.code, session)
		return c.rollbackMark(op, ErrSessionEnded)
	}
	idx := session.PlayerIndex(op.name)
	if idx < 0 {
		return c.rollbackMark(op, ErrPlayerMissing)
	}

	record, ok := c.recordFor(op)
	if !ok {
		// ローカル状態がリセットされた。戻すものはない
		return ErrNoActiveGame
	}
	session.Players[idx] = record
	won := record.HasWon()
	if won {
		session.Status = models.StatusFinished
	}

	if err := c.store.Save(ctx, table); err != nil {
		return c.rollbackMark(op, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, op.cell)
	if won && c.view.Code == op.code {
		winner := record.Clone()
		c.view.Status = models.StatusFinished
		c.view.Winner = &winner
		c.view.Screen = models.ScreenWinner
		c.notifyLocked(models.NotifySuccess, "BINGO! You completed your card!")
		c.syncPollingLocked()
		c.logger.Info("Player won", zap.String("code", op.code), zap.String("name", op.name))
	}
	return nil
}

// recordFor builds the player record to write for op: every confirmed mark
// plus op itself. Marks still waiting for their own write are left out, so a
// later rollback never leaves a mark behind in the store.
func (c *Coordinator) recordFor(op *markOp) (models.Player, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Code != op.code {
		return models.Player{}, false
	}
	me := c.localPlayerLocked()
	if me == nil {
		return models.Player{}, false
	}
	record := me.Clone()
	for cell := range c.pending {
		if cell != op.cell {
			record.Card[cell.row][cell.col].Marked = false
		}
	}
	record.MarkedCount = record.Card.CountMarked()
	return record, true
}

// rollbackMark undoes op locally, which restores the state it was applied on.
func (c *Coordinator) rollbackMark(op *markOp, cause error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.pending, op.cell)
	if c.view.Code == op.code {
		if me := c.localPlayerLocked(); me != nil {
			me.Card[op.cell.row][op.cell.col].Marked = false
			me.MarkedCount = me.Card.CountMarked()
		}
	}

	switch {
	case errors.Is(cause, ErrSessionEnded):
		c.notifyLocked(models.NotifyInfo, "The game is already over")
	case errors.Is(cause, ErrSessionVanished), errors.Is(cause, ErrPlayerMissing):
		c.notifyLocked(models.NotifyError, "This game is no longer available")
	default:
		c.notifyLocked(models.NotifyError, "Could not save your mark. Please try again")
	}
	c.logger.Warn("Mark rolled back",
		zap.String("code", op.code),
		zap.String("name", op.name),
		zap.Int("row", op.cell.row),
		zap.Int("col", op.cell.col),
		zap.Error(cause),
	)
	return fmt.Errorf("mark (%d, %d): %w", op.cell.row, op.cell.col, cause)
}

// adoptFinished takes over the remote end of a session.
func (c *Coordinator) adoptFinished(code string, session *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.view.Code != code || c.view.Status == models.StatusFinished {
		return
	}
	c.view.Status = models.StatusFinished
	c.view.Screen = models.ScreenWinner
	if winner, ok := session.Winner(); ok {
		w := winner.Clone()
		c.view.Winner = &w
		c.logger.Info("Session finished elsewhere", zap.String("code", code), zap.String("winner", winner.Name))
	}
	c.syncPollingLocked()
}

// localPlayerLocked returns a pointer into the local player list.
func (c *Coordinator) localPlayerLocked() *models.Player {
	if c.view.User == nil {
		return nil
	}
	for i := range c.view.Players {
		if c.view.Players[i].Name == c.view.User.Name {
			return &c.view.Players[i]
		}
	}
	return nil
}
