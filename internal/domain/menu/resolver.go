package menu

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/modifier"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

const (
	searchLimit       = 5
	suggestionLimit   = 3
	ambiguousConf     = 0.8
	ingredientLimit   = 1
	exactMatchEpsilon = 0.5
)

// Request is one item as the customer asked for it.
type Request struct {
	Name                string
	Quantity            int
	Size                string
	Modifiers           []string
	SpecialInstructions string
}

// ItemStatus is the resolution outcome for one requested item.
type ItemStatus string

const (
	ItemResolved    ItemStatus = "resolved"
	ItemAmbiguous   ItemStatus = "ambiguous"
	ItemUnavailable ItemStatus = "unavailable"
	ItemFailed      ItemStatus = "failed"
)

// ResolvedModifier is a modifier phrase matched against the ingredient list.
type ResolvedModifier struct {
	Original       string
	Action         modifier.Action
	Term           string
	IngredientID   int64
	IngredientName string
	UnitCost       decimal.Decimal
	Score          float64
	Resolved       bool
	Available      bool
	Detail         string
}

// Usable reports whether the modifier can be applied to an order line.
func (m ResolvedModifier) Usable() bool {
	return m.Resolved && m.Available
}

// Display renders the modifier in canonical form.
func (m ResolvedModifier) Display() string {
	name := m.IngredientName
	if name == "" {
		name = m.Term
	}
	return modifier.Format(m.Action, strings.ToLower(name))
}

// ResolvedItem is the resolution of one Request.
type ResolvedItem struct {
	Request     Request
	Status      ItemStatus
	Item        Item
	Size        Size
	Quantity    int
	UnitPrice   decimal.Decimal
	Confidence  float64
	Suggestions []string
	Modifiers   []ResolvedModifier
	Message     string
}

// Ambiguous reports whether the customer must pick between candidates.
func (r ResolvedItem) Ambiguous() bool { return r.Status == ItemAmbiguous }

// Unavailable reports whether the item cannot be sold.
func (r ResolvedItem) Unavailable() bool { return r.Status == ItemUnavailable }

// ValidationErrors lists modifier problems that did not block the item.
func (r ResolvedItem) ValidationErrors() []string {
	var out []string
	for _, m := range r.Modifiers {
		if m.Detail != "" {
			out = append(out, m.Detail)
		}
	}
	return out
}

// Resolution is the outcome of resolving a batch of requests.
type Resolution struct {
	Items              []ResolvedItem
	NeedsClarification bool
	Questions          []string
}

// Resolved returns the items that can be added to an order.
func (r Resolution) Resolved() []ResolvedItem {
	var out []ResolvedItem
	for _, it := range r.Items {
		if it.Status == ItemResolved {
			out = append(out, it)
		}
	}
	return out
}

// Resolver maps requested items onto catalog entries. A candidate is
// auto-selected when it is the only match, an exact name match, or leads
// the runner-up by at least the separation margin.
type Resolver struct {
	catalog    *Catalog
	separation float64
	log        zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(catalog *Catalog, separation float64, log zerolog.Logger) *Resolver {
	return &Resolver{
		catalog:    catalog,
		separation: separation,
		log:        log.With().Str("component", "menu-resolver").Logger(),
	}
}

// Resolve resolves every request independently. Catalog failures mark the
// affected item failed instead of aborting the batch.
func (r *Resolver) Resolve(ctx context.Context, requests []Request, restaurantID int64) Resolution {
	var res Resolution
	for _, req := range requests {
		item := r.resolveItem(ctx, req, restaurantID)
		if item.Status == ItemAmbiguous || item.Status == ItemUnavailable {
			res.NeedsClarification = true
			res.Questions = append(res.Questions, item.Message)
		}
		res.Items = append(res.Items, item)
	}
	return res
}

func (r *Resolver) resolveItem(ctx context.Context, req Request, restaurantID int64) ResolvedItem {
	out := ResolvedItem{Request: req, Quantity: req.Quantity, Size: SizeRegular}
	if out.Quantity < 1 {
		out.Quantity = 1
	}
	if size, ok := ParseSize(req.Size); ok {
		out.Size = size
	}

	matches, err := r.catalog.SearchItems(ctx, restaurantID, req.Name, searchLimit)
	if err != nil {
		r.log.Error().Err(err).Str("item", req.Name).Msg("menu search failed")
		out.Status = ItemFailed
		out.Message = fmt.Sprintf("Sorry, I couldn't look up %s right now.", req.Name)
		return out
	}

	if len(matches) == 0 {
		out.Status = ItemUnavailable
		out.Suggestions = r.suggest(ctx, restaurantID, req.Name)
		out.Message = unavailableMessage(req.Name, out.Suggestions)
		return out
	}

	winner, clear := r.clearWinner(req.Name, matches)
	if !clear {
		out.Status = ItemAmbiguous
		out.Confidence = ambiguousConf
		for i, m := range matches {
			if i == suggestionLimit {
				break
			}
			out.Suggestions = append(out.Suggestions, m.Item.Name)
		}
		out.Message = fmt.Sprintf("Which %s would you like? We have %s.", req.Name, textutil.JoinList(out.Suggestions, "or"))
		return out
	}

	out.Item = winner.Item
	out.Confidence = winner.Score / MaxScore
	if !winner.Item.Available {
		out.Status = ItemUnavailable
		out.Message = fmt.Sprintf("Sorry, %s isn't available right now.", winner.Item.Name)
		return out
	}

	out.Status = ItemResolved
	out.UnitPrice = winner.Item.PriceFor(out.Size)
	for _, phrase := range req.Modifiers {
		out.Modifiers = append(out.Modifiers, r.ResolveModifier(ctx, phrase, winner.Item, restaurantID))
	}
	return out
}

func (r *Resolver) clearWinner(term string, matches []ItemMatch) (ItemMatch, bool) {
	best := matches[0]
	if len(matches) == 1 {
		return best, true
	}
	if best.Score >= MaxScore-exactMatchEpsilon || strings.EqualFold(strings.TrimSpace(term), best.Item.Name) {
		return best, true
	}
	return best, best.Score-matches[1].Score >= r.separation
}

func (r *Resolver) suggest(ctx context.Context, restaurantID int64, name string) []string {
	words := strings.Fields(name)
	if len(words) == 0 {
		return nil
	}
	matches, err := r.catalog.SearchItems(ctx, restaurantID, words[0], suggestionLimit)
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range matches {
		if m.Item.Available {
			out = append(out, m.Item.Name)
		}
	}
	return out
}

func unavailableMessage(name string, suggestions []string) string {
	if len(suggestions) == 0 {
		return fmt.Sprintf("Sorry, we don't have %s on our menu.", name)
	}
	return fmt.Sprintf("Sorry, we don't have %s. But we do have %s. Would you like one of those?",
		name, textutil.JoinList(suggestions, "and"))
}

// ResolveModifier matches the ingredient of one modifier phrase. Removal
// and lightening only make sense for ingredients the item already has;
// additions may draw on any ingredient the restaurant stocks.
func (r *Resolver) ResolveModifier(ctx context.Context, phrase string, item Item, restaurantID int64) ResolvedModifier {
	action, term := modifier.Parse(phrase)
	mod := ResolvedModifier{Original: phrase, Action: action, Term: term}

	if term == "" {
		if action.IsCooking() {
			mod.Resolved, mod.Available = true, true
			return mod
		}
		mod.Detail = fmt.Sprintf("I didn't catch which ingredient you meant in %q.", phrase)
		return mod
	}

	var matches []IngredientMatch
	var err error
	if len(item.IngredientIDs) > 0 {
		matches, err = r.catalog.SearchIngredients(ctx, restaurantID, term, ingredientLimit, item.IngredientIDs)
	}
	if err == nil && len(matches) == 0 && action.Chargeable() {
		matches, err = r.catalog.SearchIngredients(ctx, restaurantID, term, ingredientLimit, nil)
	}
	if err != nil {
		r.log.Warn().Err(err).Str("modifier", phrase).Msg("ingredient search failed")
		mod.Detail = fmt.Sprintf("I couldn't check %s right now.", term)
		return mod
	}
	if len(matches) == 0 {
		if action.Chargeable() {
			mod.Detail = fmt.Sprintf("Sorry, we don't have %s.", term)
		} else {
			mod.Detail = fmt.Sprintf("%s doesn't come with %s.", item.Name, term)
		}
		return mod
	}

	ing := matches[0].Ingredient
	mod.IngredientID = ing.ID
	mod.IngredientName = ing.Name
	mod.Score = matches[0].Score
	mod.Resolved = true
	mod.Available = ing.Available || action.Removes()
	if action.Chargeable() {
		mod.UnitCost = ing.UnitCost
	}
	if !mod.Available {
		mod.Detail = fmt.Sprintf("Sorry, we're out of %s.", strings.ToLower(ing.Name))
	}
	return mod
}
