package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Notification is the durable record created on every user-facing state
// change. It persists even when no real-time connection was around to
// receive the matching event.
type Notification struct {
	bun.BaseModel `bun:"table:notifications"`

	NotificationID string    `bun:"notification_id,pk" json:"notification_id"`
	UserID         string    `bun:"user_id,notnull" json:"user_id"`
	Title          string    `bun:"title,notnull" json:"title"`
	Message        string    `bun:"message" json:"message"`
	Type           string    `bun:"type" json:"type"`
	ReferenceID    string    `bun:"reference_id" json:"reference_id"`
	IsRead         bool      `bun:"is_read" json:"is_read"`
	CreatedAt      time.Time `bun:"created_at,notnull" json:"created_at"`
}
