package command

import (
	"encoding/json"
	"strings"
	"time"
)

// History is the ordered command log of one session. A session processes
// utterances sequentially, so History carries no locking of its own.
type History struct {
	commands []Command
	now      func() time.Time
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{now: time.Now}
}

// Add appends a new command and returns the stored record.
func (h *History) Add(e Entry) (Command, error) {
	if !e.Type.Valid() {
		return Command{}, ErrInvalidType
	}
	if !e.Status.Valid() {
		return Command{}, ErrInvalidStatus
	}

	quantity := e.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	cmd := Command{
		Type:          e.Type,
		Timestamp:     h.clock(),
		Status:        e.Status,
		ItemName:      e.ItemName,
		ItemID:        e.ItemID,
		MenuItemID:    e.MenuItemID,
		Quantity:      quantity,
		Modifiers:     append([]string(nil), e.Modifiers...),
		UserInput:     e.UserInput,
		ResultMessage: e.ResultMessage,
		Metadata:      copyMetadata(e.Metadata),
	}
	h.commands = append(h.commands, cmd)
	return cmd, nil
}

// Last returns the most recent command.
func (h *History) Last() (Command, bool) {
	if len(h.commands) == 0 {
		return Command{}, false
	}
	return h.commands[len(h.commands)-1], true
}

// LastSuccessful returns the most recent command with status success.
func (h *History) LastSuccessful() (Command, bool) {
	return h.findLast(func(c Command) bool { return c.Succeeded() })
}

// LastOfType returns the most recent command of the given type.
func (h *History) LastOfType(t Type) (Command, bool) {
	return h.findLast(func(c Command) bool { return c.Type == t })
}

// LastAdd returns the most recent ADD_ITEM command.
func (h *History) LastAdd() (Command, bool) {
	return h.LastOfType(TypeAddItem)
}

// FindByItemName returns every command whose item name contains substr,
// case-insensitively, oldest first.
func (h *History) FindByItemName(substr string) []Command {
	needle := strings.ToLower(strings.TrimSpace(substr))
	if needle == "" {
		return nil
	}
	var out []Command
	for _, c := range h.commands {
		if c.ItemName != "" && strings.Contains(strings.ToLower(c.ItemName), needle) {
			out = append(out, c)
		}
	}
	return out
}

// SuccessfulAdds returns all successful ADD_ITEM commands, oldest first.
func (h *History) SuccessfulAdds() []Command {
	var out []Command
	for _, c := range h.commands {
		if c.Type == TypeAddItem && c.Succeeded() {
			out = append(out, c)
		}
	}
	return out
}

// Recent returns up to n most recent commands, oldest first.
func (h *History) Recent(n int) []Command {
	if n <= 0 || len(h.commands) == 0 {
		return nil
	}
	if n > len(h.commands) {
		n = len(h.commands)
	}
	out := make([]Command, n)
	copy(out, h.commands[len(h.commands)-n:])
	return out
}

// All returns a copy of the full history.
func (h *History) All() []Command {
	out := make([]Command, len(h.commands))
	copy(out, h.commands)
	return out
}

// Len returns the number of recorded commands.
func (h *History) Len() int {
	return len(h.commands)
}

// Clear drops every recorded command.
func (h *History) Clear() {
	h.commands = nil
}

// MarshalJSON encodes the history as its command list.
func (h *History) MarshalJSON() ([]byte, error) {
	if h.commands == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(h.commands)
}

// UnmarshalJSON restores a history encoded by MarshalJSON.
func (h *History) UnmarshalJSON(data []byte) error {
	var commands []Command
	if err := json.Unmarshal(data, &commands); err != nil {
		return err
	}
	h.commands = commands
	return nil
}

func (h *History) findLast(match func(Command) bool) (Command, bool) {
	for i := len(h.commands) - 1; i >= 0; i-- {
		if match(h.commands[i]) {
			return h.commands[i], true
		}
	}
	return Command{}, false
}

func (h *History) clock() time.Time {
	if h.now == nil {
		return time.Now()
	}
	return h.now()
}

func copyMetadata(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
