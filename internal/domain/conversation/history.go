// Package conversation records the turns spoken in a drive-thru session.
package conversation

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

var (
	ErrEmptyContent = errors.New("conversation entry content is empty")
	ErrEmptySession = errors.New("conversation entry session id is empty")
	ErrInvalidRole  = errors.New("invalid conversation role")
)

// Entry is one immutable turn.
type Entry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// History is the append-only turn log of one session.
type History struct {
	sessionID string
	entries   []Entry
}

// NewHistory creates an empty history owned by sessionID.
func NewHistory(sessionID string) *History {
	return &History{sessionID: sessionID}
}

// SessionID returns the owning session.
func (h *History) SessionID() string {
	return h.sessionID
}

// Append records a new turn.
func (h *History) Append(role Role, content string) (Entry, error) {
	switch role {
	case RoleUser, RoleAssistant, RoleSystem:
	default:
		return Entry{}, ErrInvalidRole
	}
	if strings.TrimSpace(content) == "" {
		return Entry{}, ErrEmptyContent
	}
	if h.sessionID == "" {
		return Entry{}, ErrEmptySession
	}

	entry := Entry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
		SessionID: h.sessionID,
	}
	h.entries = append(h.entries, entry)
	return entry, nil
}

// Recent returns up to n most recent turns, oldest first.
func (h *History) Recent(n int) []Entry {
	if n <= 0 || len(h.entries) == 0 {
		return nil
	}
	if n > len(h.entries) {
		n = len(h.entries)
	}
	out := make([]Entry, n)
	copy(out, h.entries[len(h.entries)-n:])
	return out
}

// ByRole returns every turn with the given role, oldest first.
func (h *History) ByRole(role Role) []Entry {
	var out []Entry
	for _, e := range h.entries {
		if e.Role == role {
			out = append(out, e)
		}
	}
	return out
}

// LastOfRole returns the most recent turn with the given role.
func (h *History) LastOfRole(role Role) (Entry, bool) {
	for i := len(h.entries) - 1; i >= 0; i-- {
		if h.entries[i].Role == role {
			return h.entries[i], true
		}
	}
	return Entry{}, false
}

// All returns a copy of every turn.
func (h *History) All() []Entry {
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len returns the number of turns. A nil history is empty.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Transcript renders the last n turns as "role: content" lines for prompts.
func (h *History) Transcript(n int) string {
	if h == nil {
		return ""
	}
	var b strings.Builder
	for _, e := range h.Recent(n) {
		b.WriteString(string(e.Role))
		b.WriteString(": ")
		b.WriteString(e.Content)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

type historyJSON struct {
	SessionID string  `json:"session_id"`
	Entries   []Entry `json:"entries"`
}

func (h *History) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyJSON{SessionID: h.sessionID, Entries: h.entries})
}

func (h *History) UnmarshalJSON(data []byte) error {
	var raw historyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.sessionID = raw.SessionID
	h.entries = raw.Entries
	return nil
}
