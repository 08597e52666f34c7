// Package command keeps the per-session log of attempted order mutations.
// The log backs references such as "that", "the last one" and "undo that".
package command

import (
	"errors"
	"fmt"
	"time"
)

// Type is the kind of order mutation a command represents.
type Type string

const (
	TypeAddItem      Type = "ADD_ITEM"
	TypeRemoveItem   Type = "REMOVE_ITEM"
	TypeModifyItem   Type = "MODIFY_ITEM"
	TypeClearOrder   Type = "CLEAR_ORDER"
	TypeConfirmOrder Type = "CONFIRM_ORDER"
)

// Valid reports whether t is a known command type.
func (t Type) Valid() bool {
	switch t {
	case TypeAddItem, TypeRemoveItem, TypeModifyItem, TypeClearOrder, TypeConfirmOrder:
		return true
	}
	return false
}

// Status is the outcome of a command.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusFailed              Status = "failed"
	StatusPartial             Status = "partial"
	StatusClarificationNeeded Status = "clarification_needed"
)

// Valid reports whether s is a known command status.
func (s Status) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusPartial, StatusClarificationNeeded:
		return true
	}
	return false
}

var (
	// ErrInvalidType is returned when appending a command with an unknown type.
	ErrInvalidType = errors.New("invalid command type")
	// ErrInvalidStatus is returned when appending a command with an unknown status.
	ErrInvalidStatus = errors.New("invalid command status")
)

// Command is one immutable history record.
type Command struct {
	Type          Type              `json:"command_type"`
	Timestamp     time.Time         `json:"timestamp"`
	Status        Status            `json:"status"`
	ItemName      string            `json:"item_name,omitempty"`
	ItemID        string            `json:"item_id,omitempty"`
	MenuItemID    int64             `json:"menu_item_id,omitempty"`
	Quantity      int               `json:"quantity"`
	Modifiers     []string          `json:"modifiers,omitempty"`
	UserInput     string            `json:"user_input,omitempty"`
	ResultMessage string            `json:"result_message,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func (c Command) String() string {
	return fmt.Sprintf("Command(%s, %s, qty=%d, status=%s)", c.Type, c.ItemName, c.Quantity, c.Status)
}

// Succeeded reports whether the command completed successfully.
func (c Command) Succeeded() bool {
	return c.Status == StatusSuccess
}

// Entry is the input to History.Add. Zero values are the defaults:
// quantity 1, no modifiers, no metadata.
type Entry struct {
	Type          Type
	Status        Status
	ItemName      string
	ItemID        string
	MenuItemID    int64
	Quantity      int
	Modifiers     []string
	UserInput     string
	ResultMessage string
	Metadata      map[string]string
}
