package menu

import (
	"context"
	"sort"
	"strings"

	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// ItemMatch is a scored item search hit.
type ItemMatch struct {
	Item  Item
	Score float64
}

// IngredientMatch is a scored ingredient search hit.
type IngredientMatch struct {
	Ingredient Ingredient
	Score      float64
}

// Catalog answers fuzzy lookups over a Source.
type Catalog struct {
	source   Source
	minScore float64
}

// NewCatalog creates a catalog that drops matches scoring below minScore.
func NewCatalog(source Source, minScore float64) *Catalog {
	return &Catalog{source: source, minScore: minScore}
}

// Restaurant returns the restaurant facts.
func (c *Catalog) Restaurant(ctx context.Context, restaurantID int64) (*Restaurant, error) {
	return c.source.Restaurant(ctx, restaurantID)
}

// RestaurantName implements the greeting lookup used by the session service.
func (c *Catalog) RestaurantName(ctx context.Context, restaurantID int64) (string, error) {
	r, err := c.source.Restaurant(ctx, restaurantID)
	if err != nil {
		return "", err
	}
	return r.Name, nil
}

// Items lists every item of the restaurant.
func (c *Catalog) Items(ctx context.Context, restaurantID int64) ([]Item, error) {
	return c.source.Items(ctx, restaurantID)
}

// Ingredients lists every ingredient of the restaurant.
func (c *Catalog) Ingredients(ctx context.Context, restaurantID int64) ([]Ingredient, error) {
	return c.source.Ingredients(ctx, restaurantID)
}

// Item returns one item by id.
func (c *Catalog) Item(ctx context.Context, restaurantID, itemID int64) (Item, error) {
	items, err := c.source.Items(ctx, restaurantID)
	if err != nil {
		return Item{}, err
	}
	for _, it := range items {
		if it.ID == itemID {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// SearchItems returns up to limit items scoring at least the catalog's
// minimum, best first. Ties keep catalog order.
func (c *Catalog) SearchItems(ctx context.Context, restaurantID int64, term string, limit int) ([]ItemMatch, error) {
	items, err := c.source.Items(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	var matches []ItemMatch
	for _, it := range items {
		if s := Score(term, it.Name); s >= c.minScore {
			matches = append(matches, ItemMatch{Item: it, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// SearchIngredients is SearchItems for ingredients. When within is
// non-empty only those ingredient ids are considered.
func (c *Catalog) SearchIngredients(ctx context.Context, restaurantID int64, term string, limit int, within []int64) ([]IngredientMatch, error) {
	ingredients, err := c.source.Ingredients(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	allowed := make(map[int64]bool, len(within))
	for _, id := range within {
		allowed[id] = true
	}
	var matches []IngredientMatch
	for _, ing := range ingredients {
		if len(allowed) > 0 && !allowed[ing.ID] {
			continue
		}
		if s := Score(term, ing.Name); s >= c.minScore {
			matches = append(matches, IngredientMatch{Ingredient: ing, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// genericNouns are food words that make an utterance explicit even when
// the restaurant does not sell anything by that exact name.
var genericNouns = []string{
	"burger", "cheeseburger", "fries", "fry", "drink", "soda", "cola", "coke", "shake",
	"milkshake", "sandwich", "wrap", "salad", "cookie", "nugget", "taco", "burrito",
	"coffee", "tea", "water", "juice", "pie", "sundae", "combo", "meal", "item",
	"chicken", "pizza", "dessert",
}

// NounHints returns the lower-case singular vocabulary that marks an
// utterance as naming something explicitly: generic food nouns plus every
// token of the restaurant's item, category and ingredient names.
func (c *Catalog) NounHints(ctx context.Context, restaurantID int64) (map[string]bool, error) {
	hints := make(map[string]bool, len(genericNouns)*2)
	for _, n := range genericNouns {
		hints[textutil.Singular(n)] = true
	}
	items, err := c.source.Items(ctx, restaurantID)
	if err != nil {
		return hints, err
	}
	for _, it := range items {
		addTokens(hints, it.Name)
		addTokens(hints, it.Category)
	}
	ingredients, err := c.source.Ingredients(ctx, restaurantID)
	if err != nil {
		return hints, err
	}
	for _, ing := range ingredients {
		addTokens(hints, ing.Name)
	}
	return hints, nil
}

func addTokens(set map[string]bool, s string) {
	for _, t := range textutil.Tokens(s) {
		if len(t) < 3 || strings.ContainsAny(t, "0123456789") {
			continue
		}
		set[textutil.Singular(t)] = true
	}
}
