// Package catalog provides menu.Source implementations: a YAML seed file and
// an LRU cache that fronts any other source.
package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/janhq/drivethru-server/internal/domain/menu"
)

// File is the layout of a menu seed file.
type File struct {
	Restaurants []RestaurantDoc `yaml:"restaurants" validate:"required,min=1,dive"`
}

// RestaurantDoc is one restaurant in the seed file.
type RestaurantDoc struct {
	ID          int64           `yaml:"id" validate:"required,gt=0"`
	Name        string          `yaml:"name" validate:"required"`
	Hours       string          `yaml:"hours"`
	Address     string          `yaml:"address"`
	Phone       string          `yaml:"phone"`
	Ingredients []IngredientDoc `yaml:"ingredients" validate:"dive"`
	Items       []ItemDoc       `yaml:"items" validate:"required,min=1,dive"`
}

// IngredientDoc is one ingredient. Available defaults to true.
type IngredientDoc struct {
	ID        int64  `yaml:"id" validate:"required,gt=0"`
	Name      string `yaml:"name" validate:"required"`
	UnitCost  string `yaml:"unit_cost"`
	Allergen  bool   `yaml:"allergen"`
	Available *bool  `yaml:"available"`
}

// ItemDoc is one menu item. Prices are decimal strings.
type ItemDoc struct {
	ID          int64             `yaml:"id" validate:"required,gt=0"`
	Name        string            `yaml:"name" validate:"required"`
	Category    string            `yaml:"category"`
	Description string            `yaml:"description"`
	Price       string            `yaml:"price" validate:"required"`
	Sizes       map[string]string `yaml:"sizes"`
	Available   *bool             `yaml:"available"`
	Ingredients []int64           `yaml:"ingredients"`
}

type restaurantData struct {
	info        menu.Restaurant
	items       []menu.Item
	ingredients []menu.Ingredient
}

// YAMLSource serves a catalog parsed once from a seed file.
type YAMLSource struct {
	restaurants map[int64]*restaurantData
	order       []int64
}

var _ menu.Source = (*YAMLSource)(nil)

// LoadYAMLFile reads and parses a seed file.
func LoadYAMLFile(path string) (*YAMLSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read menu seed %s: %w", path, err)
	}
	return ParseYAML(data)
}

// ParseYAML parses seed file contents.
func ParseYAML(data []byte) (*YAMLSource, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode menu seed: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid menu seed: %w", err)
	}

	src := &YAMLSource{restaurants: make(map[int64]*restaurantData, len(f.Restaurants))}
	for _, doc := range f.Restaurants {
		if _, dup := src.restaurants[doc.ID]; dup {
			return nil, fmt.Errorf("invalid menu seed: duplicate restaurant id %d", doc.ID)
		}
		rd, err := convertRestaurant(doc)
		if err != nil {
			return nil, fmt.Errorf("restaurant %d: %w", doc.ID, err)
		}
		src.restaurants[doc.ID] = rd
		src.order = append(src.order, doc.ID)
	}
	return src, nil
}

func convertRestaurant(doc RestaurantDoc) (*restaurantData, error) {
	rd := &restaurantData{
		info: menu.Restaurant{ID: doc.ID, Name: doc.Name, Hours: doc.Hours, Address: doc.Address, Phone: doc.Phone},
	}

	known := make(map[int64]bool, len(doc.Ingredients))
	for _, ing := range doc.Ingredients {
		if known[ing.ID] {
			return nil, fmt.Errorf("duplicate ingredient id %d", ing.ID)
		}
		known[ing.ID] = true
		cost := decimal.Zero
		if ing.UnitCost != "" {
			c, err := decimal.NewFromString(ing.UnitCost)
			if err != nil {
				return nil, fmt.Errorf("ingredient %q: unit_cost: %w", ing.Name, err)
			}
			cost = c
		}
		rd.ingredients = append(rd.ingredients, menu.Ingredient{
			ID:           ing.ID,
			RestaurantID: doc.ID,
			Name:         ing.Name,
			UnitCost:     cost,
			Allergen:     ing.Allergen,
			Available:    boolOr(ing.Available, true),
		})
	}

	seen := make(map[int64]bool, len(doc.Items))
	for _, it := range doc.Items {
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate item id %d", it.ID)
		}
		seen[it.ID] = true

		price, err := decimal.NewFromString(it.Price)
		if err != nil {
			return nil, fmt.Errorf("item %q: price: %w", it.Name, err)
		}
		item := menu.Item{
			ID:            it.ID,
			RestaurantID:  doc.ID,
			Name:          it.Name,
			Category:      it.Category,
			Description:   it.Description,
			Price:         price,
			Available:     boolOr(it.Available, true),
			IngredientIDs: append([]int64(nil), it.Ingredients...),
		}
		for _, id := range it.Ingredients {
			if !known[id] {
				return nil, fmt.Errorf("item %q: unknown ingredient id %d", it.Name, id)
			}
		}
		if len(it.Sizes) > 0 {
			item.SizePrices = make(map[menu.Size]decimal.Decimal, len(it.Sizes))
			for word, raw := range it.Sizes {
				size, ok := menu.ParseSize(word)
				if !ok {
					return nil, fmt.Errorf("item %q: unknown size %q", it.Name, word)
				}
				p, err := decimal.NewFromString(raw)
				if err != nil {
					return nil, fmt.Errorf("item %q: size %s: %w", it.Name, word, err)
				}
				item.SizePrices[size] = p
			}
		}
		rd.items = append(rd.items, item)
	}
	return rd, nil
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// RestaurantIDs lists the restaurants in file order.
func (s *YAMLSource) RestaurantIDs() []int64 {
	return append([]int64(nil), s.order...)
}

// Restaurant implements menu.Source.
func (s *YAMLSource) Restaurant(ctx context.Context, restaurantID int64) (*menu.Restaurant, error) {
	rd, ok := s.restaurants[restaurantID]
	if !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	r := rd.info
	return &r, nil
}

// Items implements menu.Source.
func (s *YAMLSource) Items(ctx context.Context, restaurantID int64) ([]menu.Item, error) {
	rd, ok := s.restaurants[restaurantID]
	if !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	return append([]menu.Item(nil), rd.items...), nil
}

// Ingredients implements menu.Source.
func (s *YAMLSource) Ingredients(ctx context.Context, restaurantID int64) ([]menu.Ingredient, error) {
	rd, ok := s.restaurants[restaurantID]
	if !ok {
		return nil, menu.ErrRestaurantNotFound
	}
	return append([]menu.Ingredient(nil), rd.ingredients...), nil
}
