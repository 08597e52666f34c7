// Package order holds the in-progress order aggregate for a session.
package order

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modifier"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusActive    Status = "active"
	StatusConfirmed Status = "confirmed"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrLineNotFound       = errors.New("order line not found")
	ErrOrderFinalized     = errors.New("order already confirmed")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrTooManyItems       = errors.New("too many items in order")
	ErrTooManyUniqueItems = errors.New("too many different items in order")
)

// Limits bounds the size of an order.
type Limits struct {
	MaxItemQuantity int
	MaxTotalItems   int
	MaxUniqueItems  int
}

// DefaultLimits are used when no configuration is supplied.
var DefaultLimits = Limits{MaxItemQuantity: 20, MaxTotalItems: 50, MaxUniqueItems: 15}

// Modifier is one applied ingredient change on a line.
type Modifier struct {
	Action       modifier.Action `json:"action"`
	Ingredient   string          `json:"ingredient,omitempty"`
	IngredientID int64           `json:"ingredient_id,omitempty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
}

// String renders the modifier in canonical form, e.g. "extra cheese".
func (m Modifier) String() string {
	return modifier.Format(m.Action, strings.ToLower(m.Ingredient))
}

// LineItem is one entry of an order. Name and UnitPrice are snapshots taken
// when the line was added.
type LineItem struct {
	ID                  string          `json:"id"`
	MenuItemID          int64           `json:"menu_item_id"`
	Name                string          `json:"name"`
	Quantity            int             `json:"quantity"`
	Size                menu.Size       `json:"size"`
	UnitPrice           decimal.Decimal `json:"unit_price"`
	Modifiers           []Modifier      `json:"modifiers,omitempty"`
	SpecialInstructions string          `json:"special_instructions,omitempty"`
	TotalPrice          decimal.Decimal `json:"total_price"`
}

// Surcharge is the per-unit cost of chargeable modifiers.
func (l *LineItem) Surcharge() decimal.Decimal {
	total := decimal.Zero
	for _, m := range l.Modifiers {
		if m.Action.Chargeable() {
			total = total.Add(m.UnitCost)
		}
	}
	return total
}

// Recalculate refreshes TotalPrice from quantity, unit price and surcharge.
func (l *LineItem) Recalculate() {
	l.TotalPrice = l.UnitPrice.Add(l.Surcharge()).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ModifierStrings lists the modifiers in canonical form.
func (l *LineItem) ModifierStrings() []string {
	out := make([]string, 0, len(l.Modifiers))
	for _, m := range l.Modifiers {
		out = append(out, m.String())
	}
	return out
}

// Describe renders "2x Cosmic Burger (large)".
func (l *LineItem) Describe() string {
	s := fmt.Sprintf("%dx %s", l.Quantity, l.Name)
	if l.Size != "" && l.Size != menu.SizeRegular {
		s += fmt.Sprintf(" (%s)", l.Size)
	}
	return s
}

// signature identifies lines that should be merged rather than duplicated.
func (l *LineItem) signature() string {
	mods := l.ModifierStrings()
	sort.Strings(mods)
	return fmt.Sprintf("%d|%s|%s|%s", l.MenuItemID, l.Size, strings.Join(mods, ","),
		strings.ToLower(strings.TrimSpace(l.SpecialInstructions)))
}

// Order is a session's in-progress order.
type Order struct {
	ID           string          `json:"id"`
	SessionID    string          `json:"session_id"`
	RestaurantID int64           `json:"restaurant_id"`
	Status       Status          `json:"status"`
	Items        []*LineItem     `json:"items"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// New creates an empty active order.
func New(id, sessionID string, restaurantID int64, taxRate decimal.Decimal) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:           id,
		SessionID:    sessionID,
		RestaurantID: restaurantID,
		Status:       StatusActive,
		TaxRate:      taxRate,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// IsEmpty reports whether the order has no lines.
func (o *Order) IsEmpty() bool {
	return len(o.Items) == 0
}

// ItemCount is the total quantity across lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Items {
		n += l.Quantity
	}
	return n
}

// Line returns the line with id and its position.
func (o *Order) Line(id string) (*LineItem, int, bool) {
	for i, l := range o.Items {
		if l.ID == id {
			return l, i, true
		}
	}
	return nil, -1, false
}

// AddLine appends line, or merges it into an identical existing line. The
// returned line is the one now holding the quantity.
func (o *Order) AddLine(line LineItem, limits Limits) (*LineItem, bool, error) {
	if o.Status != StatusActive {
		return nil, false, ErrOrderFinalized
	}
	if line.Quantity < 1 || line.Quantity > limits.MaxItemQuantity {
		return nil, false, ErrQuantityOutOfRange
	}
	if o.ItemCount()+line.Quantity > limits.MaxTotalItems {
		return nil, false, ErrTooManyItems
	}

	sig := line.signature()
	for _, existing := range o.Items {
		if existing.signature() != sig {
			continue
		}
		if existing.Quantity+line.Quantity > limits.MaxItemQuantity {
			return nil, false, ErrQuantityOutOfRange
		}
		existing.Quantity += line.Quantity
		existing.Recalculate()
		o.Recalculate()
		return existing, true, nil
	}

	if len(o.Items) >= limits.MaxUniqueItems {
		return nil, false, ErrTooManyUniqueItems
	}
	l := line
	l.Modifiers = append([]Modifier(nil), line.Modifiers...)
	l.Recalculate()
	o.Items = append(o.Items, &l)
	o.Recalculate()
	return &l, false, nil
}

// RemoveLine deletes a line.
func (o *Order) RemoveLine(id string) (LineItem, error) {
	l, idx, ok := o.Line(id)
	if !ok {
		return LineItem{}, ErrLineNotFound
	}
	removed := *l
	o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
	o.Recalculate()
	return removed, nil
}

// DecrementLine lowers a line's quantity by n, removing the line when
// nothing is left. It reports whether the line was removed.
func (o *Order) DecrementLine(id string, n int) (bool, error) {
	l, _, ok := o.Line(id)
	if !ok {
		return false, ErrLineNotFound
	}
	if n >= l.Quantity {
		_, err := o.RemoveLine(id)
		return true, err
	}
	l.Quantity -= n
	l.Recalculate()
	o.Recalculate()
	return false, nil
}

// SetQuantity replaces a line's quantity.
func (o *Order) SetQuantity(id string, qty int, limits Limits) error {
	l, _, ok := o.Line(id)
	if !ok {
		return ErrLineNotFound
	}
	if qty < 1 || qty > limits.MaxItemQuantity {
		return ErrQuantityOutOfRange
	}
	if o.ItemCount()-l.Quantity+qty > limits.MaxTotalItems {
		return ErrTooManyItems
	}
	l.Quantity = qty
	l.Recalculate()
	o.Recalculate()
	return nil
}

// Clear empties the order without deleting it.
func (o *Order) Clear() {
	o.Items = nil
	o.Recalculate()
}

// Recalculate refreshes every line total plus subtotal, tax and total.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	for _, l := range o.Items {
		l.Recalculate()
		subtotal = subtotal.Add(l.TotalPrice)
	}
	o.Subtotal = subtotal
	o.Tax = subtotal.Mul(o.TaxRate).Round(2)
	o.Total = o.Subtotal.Add(o.Tax)
	o.UpdatedAt = time.Now().UTC()
}

// Summary renders "2x Cosmic Burger (large); 1x Quantum Cola".
func (o *Order) Summary() string {
	parts := make([]string, 0, len(o.Items))
	for _, l := range o.Items {
		parts = append(parts, l.Describe())
	}
	return strings.Join(parts, "; ")
}

// Listing renders one line per item with its id, for prompts that must
// refer back to specific lines.
func (o *Order) Listing() string {
	if o == nil || len(o.Items) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for _, l := range o.Items {
		fmt.Fprintf(&b, "- [%s] %s", l.ID, l.Describe())
		if mods := l.ModifierStrings(); len(mods) > 0 {
			fmt.Fprintf(&b, " with %s", strings.Join(mods, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Clone returns a deep copy.
func (o *Order) Clone() *Order {
	c := *o
	c.Items = make([]*LineItem, len(o.Items))
	for i, l := range o.Items {
		line := *l
		line.Modifiers = append([]Modifier(nil), l.Modifiers...)
		c.Items[i] = &line
	}
	return &c
}
