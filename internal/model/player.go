package model

import "time"

// Player is a participant in a room. Identity comes from the identity
// provider and is stable across reconnects; the connection id changes
// every time the client reconnects.
type Player struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Avatar       string    `json:"avatar,omitempty"`
	Score        int       `json:"score"`
	ConnectionID string    `json:"-"`
	Connected    bool      `json:"connected"`
	LastActive   time.Time `json:"-"`
}
