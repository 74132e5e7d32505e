package bingo

import (
	"musicbingo/models"

	"github.com/google/uuid"
)

func (c *Coordinator) notifyLocked(kind models.NotificationKind, message string) {
	c.pruneLocked()
	c.notifications = append(c.notifications, models.Notification{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		CreatedAt: c.now(),
	})
}

// Notifications returns the notifications that have not expired yet, oldest first.
func (c *Coordinator) Notifications() []models.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()
	return append([]models.Notification(nil), c.notifications...)
}

// Dismiss removes a notification before it expires.
func (c *Coordinator) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.notifications {
		if n.ID == id {
			c.notifications = append(c.notifications[:i], c.notifications[i+1:]...)
			return true
		}
	}
	return false
}

func (c *Coordinator) pruneLocked() {
	if c.notifyTTL <= 0 {
		return
	}
	now := c.now()
	kept := c.notifications[:0]
	for _, n := range c.notifications {
		if now.Sub(n.CreatedAt) < c.notifyTTL {
			kept = append(kept, n)
		}
	}
	c.notifications = kept
}
