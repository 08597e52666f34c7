// Package session tracks one car's visit at a drive-thru lane.
package session

import (
	"errors"
	"time"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
)

// State represents the lifecycle state of a session.
type State string

const (
	// StateActive means a car is at the lane and ordering.
	StateActive State = "active"
	// StateConfirmed means the order was confirmed; the car is moving on.
	StateConfirmed State = "confirmed"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrLaneRequired         = errors.New("lane id is required")
)

// Session is one customer interaction at one lane.
type Session struct {
	ID           string    `json:"id"`
	LaneID       string    `json:"lane_id"`
	RestaurantID int64     `json:"restaurant_id"`
	Language     string    `json:"language"`
	OrderID      string    `json:"order_id"`
	State        State     `json:"state"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`

	Commands     *command.History      `json:"commands"`
	Conversation *conversation.History `json:"conversation"`
}

// Idle reports whether the session saw no activity for longer than ttl.
func (s *Session) Idle(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

// CreateRequest starts a session at a lane.
type CreateRequest struct {
	LaneID       string
	RestaurantID int64
	Language     string
}

// Started is the result of creating a session: the session, its order and
// the greeting to play.
type Started struct {
	Session      *Session
	Greeting     audio.PhraseType
	GreetingText string
	Replaced     string // id of the session this one displaced, if any
}
