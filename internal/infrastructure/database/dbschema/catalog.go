package dbschema

import (
	"encoding/json"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/infrastructure/database"
)

func init() {
	database.RegisterSchemaForAutoMigrate(Restaurant{}, MenuItem{}, Ingredient{})
}

// BaseModel carries the timestamps shared by catalog rows. Catalog ids are
// assigned by the restaurant, not by the database.
type BaseModel struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ===============================================
// Catalog Schema
// ===============================================

// Restaurant is one location.
type Restaurant struct {
	BaseModel
	ID      int64  `gorm:"primaryKey;autoIncrement:false"`
	Name    string `gorm:"size:255;not null"`
	Hours   string `gorm:"size:255"`
	Address string `gorm:"size:255"`
	Phone   string `gorm:"size:64"`
}

// MenuItem is one orderable entry.
type MenuItem struct {
	BaseModel
	ID            int64           `gorm:"primaryKey;autoIncrement:false"`
	RestaurantID  int64           `gorm:"index:idx_menu_items_restaurant;not null"`
	Name          string          `gorm:"size:255;not null"`
	Category      string          `gorm:"size:64"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:numeric(10,2);not null"`
	SizePrices    datatypes.JSON  `gorm:"type:jsonb"`
	Available     bool            `gorm:"not null;default:true"`
	IngredientIDs pq.Int64Array   `gorm:"column:ingredient_ids;type:bigint[]"`
}

// Ingredient is one component that can be added or removed.
type Ingredient struct {
	BaseModel
	ID           int64           `gorm:"primaryKey;autoIncrement:false"`
	RestaurantID int64           `gorm:"index:idx_ingredients_restaurant;not null"`
	Name         string          `gorm:"size:255;not null"`
	UnitCost     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0"`
	Allergen     bool            `gorm:"not null;default:false"`
	Available    bool            `gorm:"not null;default:true"`
}

// ===============================================
// Conversion Methods
// ===============================================

// EtoD converts the row to the domain restaurant.
func (r *Restaurant) EtoD() *menu.Restaurant {
	return &menu.Restaurant{ID: r.ID, Name: r.Name, Hours: r.Hours, Address: r.Address, Phone: r.Phone}
}

// RestaurantDtoE converts a domain restaurant to a row.
func RestaurantDtoE(r *menu.Restaurant) *Restaurant {
	return &Restaurant{ID: r.ID, Name: r.Name, Hours: r.Hours, Address: r.Address, Phone: r.Phone}
}

// EtoD converts the row to the domain item. A malformed size price column
// leaves the item with its base price only.
func (m *MenuItem) EtoD() menu.Item {
	item := menu.Item{
		ID:            m.ID,
		RestaurantID:  m.RestaurantID,
		Name:          m.Name,
		Category:      m.Category,
		Description:   m.Description,
		Price:         m.Price,
		Available:     m.Available,
		IngredientIDs: []int64(m.IngredientIDs),
	}
	if len(m.SizePrices) > 0 {
		var prices map[menu.Size]decimal.Decimal
		if err := json.Unmarshal(m.SizePrices, &prices); err == nil {
			item.SizePrices = prices
		}
	}
	return item
}

// MenuItemDtoE converts a domain item to a row.
func MenuItemDtoE(i menu.Item) (*MenuItem, error) {
	row := &MenuItem{
		ID:            i.ID,
		RestaurantID:  i.RestaurantID,
		Name:          i.Name,
		Category:      i.Category,
		Description:   i.Description,
		Price:         i.Price,
		Available:     i.Available,
		IngredientIDs: pq.Int64Array(i.IngredientIDs),
	}
	if len(i.SizePrices) > 0 {
		data, err := json.Marshal(i.SizePrices)
		if err != nil {
			return nil, err
		}
		row.SizePrices = datatypes.JSON(data)
	}
	return row, nil
}

// EtoD converts the row to the domain ingredient.
func (i *Ingredient) EtoD() menu.Ingredient {
	return menu.Ingredient{
		ID:           i.ID,
		RestaurantID: i.RestaurantID,
		Name:         i.Name,
		UnitCost:     i.UnitCost,
		Allergen:     i.Allergen,
		Available:    i.Available,
	}
}

// IngredientDtoE converts a domain ingredient to a row.
func IngredientDtoE(i menu.Ingredient) *Ingredient {
	return &Ingredient{
		ID:           i.ID,
		RestaurantID: i.RestaurantID,
		Name:         i.Name,
		UnitCost:     i.UnitCost,
		Allergen:     i.Allergen,
		Available:    i.Available,
	}
}
