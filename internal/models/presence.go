package models

import "time"

// PresenceRecord is ephemeral last-write-wins state; no history is kept.
type PresenceRecord struct {
	UserID     string    `json:"user_id"`
	IsOnline   bool      `json:"is_online"`
	LastActive time.Time `json:"last_active"`
	TypingIn   string    `json:"typing_in,omitempty"`
}
