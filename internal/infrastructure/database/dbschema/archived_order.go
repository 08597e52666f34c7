package dbschema

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(ArchivedOrder{}, ArchivedOrderItem{})
}

// ArchivedOrder is a confirmed order kept for reporting.
type ArchivedOrder struct {
	ID           uint            `gorm:"primaryKey"`
	PublicID     string          `gorm:"size:64;not null;uniqueIndex"`
	SessionID    string          `gorm:"size:64;not null;index"`
	RestaurantID int64           `gorm:"not null;index:idx_archived_orders_restaurant_confirmed,priority:1"`
	Status       string          `gorm:"size:32;not null"`
	ItemCount    int             `gorm:"not null"`
	Subtotal     decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Tax          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Total        decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Summary      string          `gorm:"type:text"`
	Snapshot     datatypes.JSON  `gorm:"type:jsonb;not null"`
	OrderedAt    time.Time       `gorm:"not null"`
	ConfirmedAt  time.Time       `gorm:"not null;index:idx_archived_orders_restaurant_confirmed,priority:2"`

	Items []ArchivedOrderItem `gorm:"foreignKey:ArchivedOrderID;constraint:OnDelete:CASCADE"`
}

// ArchivedOrderItem is one line of an archived order.
type ArchivedOrderItem struct {
	ID                  uint            `gorm:"primaryKey"`
	ArchivedOrderID     uint            `gorm:"not null;index"`
	LineID              string          `gorm:"size:64;not null"`
	MenuItemID          int64           `gorm:"not null;index"`
	Name                string          `gorm:"size:255;not null"`
	Size                string          `gorm:"size:16"`
	Quantity            int             `gorm:"not null"`
	UnitPrice           decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	TotalPrice          decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	Modifiers           pq.StringArray  `gorm:"type:text[]"`
	SpecialInstructions string          `gorm:"type:text"`
}

// NewSchemaArchivedOrder converts a confirmed order to archive rows.
func NewSchemaArchivedOrder(o *order.Order, confirmedAt time.Time) (*ArchivedOrder, error) {
	snapshot, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}

	items := make([]ArchivedOrderItem, 0, len(o.Items))
	for _, l := range o.Items {
		items = append(items, ArchivedOrderItem{
			LineID:              l.ID,
			MenuItemID:          l.MenuItemID,
			Name:                l.Name,
			Size:                string(l.Size),
			Quantity:            l.Quantity,
			UnitPrice:           l.UnitPrice,
			TotalPrice:          l.TotalPrice,
			Modifiers:           pq.StringArray(l.ModifierStrings()),
			SpecialInstructions: l.SpecialInstructions,
		})
	}

	return &ArchivedOrder{
		PublicID:     o.ID,
		SessionID:    o.SessionID,
		RestaurantID: o.RestaurantID,
		Status:       string(o.Status),
		ItemCount:    o.ItemCount(),
		Subtotal:     o.Subtotal,
		Tax:          o.Tax,
		Total:        o.Total,
		Summary:      o.Summary(),
		Snapshot:     datatypes.JSON(snapshot),
		OrderedAt:    o.CreatedAt,
		ConfirmedAt:  confirmedAt,
		Items:        items,
	}, nil
}

// EtoD restores the archived order from its snapshot.
func (a *ArchivedOrder) EtoD() (*order.Order, error) {
	var o order.Order
	if err := json.Unmarshal(a.Snapshot, &o); err != nil {
		return nil, err
	}
	return &o, nil
}
