package models

import (
	"time"
)

// SessionDocument holds the whole session table as one JSON row.
type SessionDocument struct {
	Key       string    `gorm:"primaryKey"`
	Body      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time
}
