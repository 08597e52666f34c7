// Package menu models a restaurant's catalog and resolves spoken item and
// ingredient names against it.
package menu

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// Size is a menu item size.
type Size string

const (
	SizeSmall   Size = "small"
	SizeRegular Size = "regular"
	SizeMedium  Size = "medium"
	SizeLarge   Size = "large"
)

var sizeAliases = map[string]Size{
	"small":   SizeSmall,
	"kid":     SizeSmall,
	"kids":    SizeSmall,
	"regular": SizeRegular,
	"normal":  SizeRegular,
	"medium":  SizeMedium,
	"large":   SizeLarge,
	"big":     SizeLarge,
}

// ParseSize maps a spoken size word to a Size.
func ParseSize(s string) (Size, bool) {
	size, ok := sizeAliases[strings.ToLower(strings.TrimSpace(s))]
	return size, ok
}

// SizeWords lists every word ParseSize accepts.
func SizeWords() []string {
	words := make([]string, 0, len(sizeAliases))
	for w := range sizeAliases {
		words = append(words, w)
	}
	return words
}

var (
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrItemNotFound       = errors.New("menu item not found")
)

// Restaurant holds the facts the assistant may quote to customers.
type Restaurant struct {
	ID      int64  `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Hours   string `json:"hours,omitempty" yaml:"hours"`
	Address string `json:"address,omitempty" yaml:"address"`
	Phone   string `json:"phone,omitempty" yaml:"phone"`
}

// Item is one orderable menu entry.
type Item struct {
	ID            int64                    `json:"id"`
	RestaurantID  int64                    `json:"restaurant_id"`
	Name          string                   `json:"name"`
	Category      string                   `json:"category,omitempty"`
	Description   string                   `json:"description,omitempty"`
	Price         decimal.Decimal          `json:"price"`
	SizePrices    map[Size]decimal.Decimal `json:"size_prices,omitempty"`
	Available     bool                     `json:"available"`
	IngredientIDs []int64                  `json:"ingredient_ids,omitempty"`
}

// PriceFor returns the price of the item at size, falling back to the base
// price when no size-specific price exists.
func (i Item) PriceFor(size Size) decimal.Decimal {
	if p, ok := i.SizePrices[size]; ok {
		return p
	}
	return i.Price
}

// HasIngredient reports whether the item is built with the ingredient.
func (i Item) HasIngredient(id int64) bool {
	for _, ing := range i.IngredientIDs {
		if ing == id {
			return true
		}
	}
	return false
}

// Ingredient is a component that can be added, removed or adjusted.
type Ingredient struct {
	ID           int64           `json:"id"`
	RestaurantID int64           `json:"restaurant_id"`
	Name         string          `json:"name"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Allergen     bool            `json:"allergen,omitempty"`
	Available    bool            `json:"available"`
}

// Source loads catalog data for a restaurant.
type Source interface {
	Restaurant(ctx context.Context, restaurantID int64) (*Restaurant, error)
	Items(ctx context.Context, restaurantID int64) ([]Item, error)
	Ingredients(ctx context.Context, restaurantID int64) ([]Ingredient, error)
}
