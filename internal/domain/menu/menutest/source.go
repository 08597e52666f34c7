// Package menutest provides an in-memory menu.Source with a small sample
// restaurant for tests.
package menutest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/menu"
)

// RestaurantID is the id of the sample restaurant.
const RestaurantID int64 = 1

// Source serves a fixed catalog. Err, when set, is returned by every call.
type Source struct {
	mu    sync.Mutex
	Info  menu.Restaurant
	Menu  []menu.Item
	Stock []menu.Ingredient
	Err   error
}

func (s *Source) Restaurant(ctx context.Context, restaurantID int64) (*menu.Restaurant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	if restaurantID != s.Info.ID {
		return nil, menu.ErrRestaurantNotFound
	}
	r := s.Info
	return &r, nil
}

func (s *Source) Items(ctx context.Context, restaurantID int64) ([]menu.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Menu, s.Err
}

func (s *Source) Ingredients(ctx context.Context, restaurantID int64) ([]menu.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Stock, s.Err
}

// SetErr makes every subsequent call fail with err.
func (s *Source) SetErr(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}

// Price parses a literal price.
func Price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Sample returns the Starlight Diner catalog.
func Sample() *Source {
	return &Source{
		Info: menu.Restaurant{
			ID: RestaurantID, Name: "Starlight Diner", Hours: "6am to midnight",
			Address: "12 Orbit Road", Phone: "555-0142",
		},
		Menu: []menu.Item{
			{ID: 1, RestaurantID: RestaurantID, Name: "Quantum Cheeseburger", Category: "Burgers", Price: Price("8.99"), Available: true, IngredientIDs: []int64{1, 2, 3, 6}},
			{ID: 2, RestaurantID: RestaurantID, Name: "Quantum Cola", Category: "Drinks", Price: Price("2.49"), Available: true,
				SizePrices: map[menu.Size]decimal.Decimal{menu.SizeSmall: Price("1.99"), menu.SizeLarge: Price("2.99")}},
			{ID: 3, RestaurantID: RestaurantID, Name: "Cosmic Burger", Category: "Burgers", Price: Price("7.49"), Available: true, IngredientIDs: []int64{1, 3, 6}},
			{ID: 4, RestaurantID: RestaurantID, Name: "Galaxy Burger", Category: "Burgers", Price: Price("7.99"), Available: true, IngredientIDs: []int64{1, 3, 6}},
			{ID: 5, RestaurantID: RestaurantID, Name: "Veggie Wrap", Category: "Wraps", Price: Price("6.49"), Available: true, IngredientIDs: []int64{3, 7}},
			{ID: 6, RestaurantID: RestaurantID, Name: "Asteroid Cookies", Category: "Desserts", Price: Price("1.50"), Available: true},
			{ID: 7, RestaurantID: RestaurantID, Name: "Nebula Fries", Category: "Sides", Price: Price("2.99"), Available: true,
				SizePrices: map[menu.Size]decimal.Decimal{menu.SizeLarge: Price("3.79")}},
			{ID: 8, RestaurantID: RestaurantID, Name: "Meteor Melt", Category: "Sandwiches", Price: Price("6.99"), Available: false},
		},
		Stock: []menu.Ingredient{
			{ID: 1, RestaurantID: RestaurantID, Name: "Cheese", UnitCost: Price("0.50"), Available: true},
			{ID: 2, RestaurantID: RestaurantID, Name: "Pickles", UnitCost: Price("0.25"), Available: true},
			{ID: 3, RestaurantID: RestaurantID, Name: "Mayo", UnitCost: Price("0.20"), Available: true},
			{ID: 4, RestaurantID: RestaurantID, Name: "Bacon", UnitCost: Price("1.25"), Available: true},
			{ID: 5, RestaurantID: RestaurantID, Name: "Truffle Oil", UnitCost: Price("2.00"), Available: false},
			{ID: 6, RestaurantID: RestaurantID, Name: "Onions", UnitCost: Price("0.30"), Available: true},
			{ID: 7, RestaurantID: RestaurantID, Name: "Lettuce", UnitCost: Price("0.20"), Available: true},
		},
	}
}

var _ menu.Source = (*Source)(nil)
