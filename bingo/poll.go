package bingo

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"musicbingo/models"

	"go.uber.org/zap"
)

// PollOnce reloads the table and refreshes the host's view of the session:
// the player list, and the winner once the session is finished. It is the
// only way the host learns about guest progress.
func (c *Coordinator) PollOnce(ctx context.Context) error {
	c.mu.Lock()
	user := c.view.User
	code := c.view.Code
	c.mu.Unlock()
	if !user.IsHost() {
		return ErrNotHost
	}
	if code == "" {
		return ErrNoActiveGame
	}

	table, err := c.store.Load(ctx)
	if err != nil {
		return err
	}
	session, ok := table[code]
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionVanished, code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view.Code != code {
		// 読み込み中にリセットされた
		return nil
	}
	if !reflect.DeepEqual(c.view.Players, session.Players) {
		c.view.Players = models.ClonePlayers(session.Players)
	}
	if session.Status == models.StatusFinished && c.view.Status != models.StatusFinished {
		c.view.Status = models.StatusFinished
		c.view.Screen = models.ScreenWinner
		if winner, ok := session.Winner(); ok {
			w := winner.Clone()
			c.view.Winner = &w
			c.notifyLocked(models.NotifySuccess, fmt.Sprintf("BINGO! %s completed their card", winner.Name))
			c.logger.Info("Winner observed", zap.String("code", code), zap.String("winner", winner.Name))
		} else {
			c.notifyLocked(models.NotifyInfo, "The game is over")
		}
		c.syncPollingLocked()
	}
	return nil
}

// shouldPollLocked reports whether the dashboard loop must be running.
func (c *Coordinator) shouldPollLocked() bool {
	return !c.closed &&
		c.view.User.IsHost() &&
		c.view.Screen == models.ScreenDJDashboard &&
		c.view.Code != "" &&
		c.view.Status != models.StatusFinished
}

// syncPollingLocked starts or stops the dashboard loop to match the local state.
// Must be called after every change to user, screen, code or status.
func (c *Coordinator) syncPollingLocked() {
	should := c.shouldPollLocked()
	running := c.pollCancel != nil
	switch {
	case should && !running:
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		c.pollCancel = cancel
		c.pollDone = done
		go c.pollLoop(ctx, done)
	case !should && running:
		c.stopPollingLocked()
	}
}

func (c *Coordinator) stopPollingLocked() {
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
}

// pollLoop ticks until cancelled. A failed or hung tick only delays the next one.
func (c *Coordinator) pollLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			err := c.PollOnce(ctx)
			switch {
			case err == nil:
			case errors.Is(err, context.Canceled):
				return
			case errors.Is(err, ErrSessionVanished):
				c.logger.Warn("Dashboard poll skipped", zap.Error(err))
			default:
				c.logger.Debug("Dashboard poll skipped", zap.Error(err))
			}
		}
	}
}
