// Package modifier normalises spoken modifier phrases ("hold the onions",
// "easy on the mayo") into a canonical action plus an ingredient term.
package modifier

import (
	"sort"
	"strings"
)

// Action is a canonical modifier action.
type Action string

const (
	ActionExtra    Action = "extra"
	ActionNo       Action = "no"
	ActionLight    Action = "light"
	ActionWellDone Action = "well_done"
	ActionRare     Action = "rare"
	ActionAdd      Action = "add"
)

// Valid reports whether a is one of the canonical actions.
func (a Action) Valid() bool {
	switch a {
	case ActionExtra, ActionNo, ActionLight, ActionWellDone, ActionRare, ActionAdd:
		return true
	}
	return false
}

// Removes reports whether the action takes the ingredient off the item.
func (a Action) Removes() bool {
	return a == ActionNo
}

// Chargeable reports whether the action adds ingredient cost to the line.
func (a Action) Chargeable() bool {
	return a == ActionExtra || a == ActionAdd
}

// IsCooking reports whether the action describes doneness rather than an ingredient.
func (a Action) IsCooking() bool {
	return a == ActionWellDone || a == ActionRare
}

var synonyms = map[Action][]string{
	ActionExtra:    {"extra", "heavy", "heavy on", "lots of", "double", "more", "additional", "ton of", "loads of"},
	ActionNo:       {"no", "without", "hold the", "hold", "remove", "exclude", "omit", "skip", "take off"},
	ActionLight:    {"light", "light on", "easy on", "easy on the", "less", "minimal", "reduced", "sparse", "go easy on"},
	ActionWellDone: {"well done", "well-done", "thoroughly cooked", "cooked through"},
	ActionRare:     {"rare", "pink", "medium rare", "bloody"},
	ActionAdd:      {"add", "include", "with", "plus"},
}

type prefix struct {
	phrase string
	action Action
}

// prefixes is every synonym sorted longest first so "easy on the" wins over
// "easy on" and "hold the" over "hold".
var prefixes = func() []prefix {
	var out []prefix
	for action, words := range synonyms {
		for _, w := range words {
			out = append(out, prefix{phrase: w, action: action})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].phrase) != len(out[j].phrase) {
			return len(out[i].phrase) > len(out[j].phrase)
		}
		return out[i].phrase < out[j].phrase
	})
	return out
}()

// Canonicalize maps a spoken action term to its canonical action. Unknown
// terms default to add.
func Canonicalize(term string) Action {
	t := normalize(term)
	if Action(t).Valid() {
		return Action(t)
	}
	for action, words := range synonyms {
		for _, w := range words {
			if t == w {
				return action
			}
		}
	}
	return ActionAdd
}

// Parse splits a modifier phrase into its canonical action and ingredient
// term using prefix matching. A leading article on the ingredient is
// dropped. Phrases without a known prefix are treated as add.
func Parse(phrase string) (Action, string) {
	p := normalize(phrase)
	for _, candidate := range prefixes {
		if p == candidate.phrase {
			return candidate.action, ""
		}
		if strings.HasPrefix(p, candidate.phrase+" ") {
			rest := strings.TrimSpace(p[len(candidate.phrase):])
			return candidate.action, stripArticle(rest)
		}
	}
	return ActionAdd, stripArticle(p)
}

// Format renders an action and ingredient the way order lines display it.
func Format(action Action, ingredient string) string {
	if action.IsCooking() && ingredient == "" {
		return strings.ReplaceAll(string(action), "_", " ")
	}
	return strings.TrimSpace(string(action) + " " + ingredient)
}

// Normalize canonicalises a full modifier phrase, e.g. "easy on the mayo"
// becomes "light mayo".
func Normalize(phrase string) string {
	action, ingredient := Parse(phrase)
	return Format(action, ingredient)
}

func stripArticle(s string) string {
	for _, article := range []string{"the ", "some ", "a ", "an "} {
		if strings.HasPrefix(s, article) {
			return strings.TrimSpace(s[len(article):])
		}
	}
	return s
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var termStops = []string{" on ", " for ", " from ", " please", " in ", " to ", " instead"}

// Find locates a modifier inside a longer clause, e.g. "make the burger
// with no pickles". The last action phrase wins, and at equal positions the
// longest one. The ingredient runs to the end of the clause, cut at a
// trailing "on the burger" style phrase.
func Find(clause string) (Action, string, bool) {
	c := " " + normalize(clause) + " "
	bestPos := -1
	var best prefix
	for _, candidate := range prefixes {
		needle := " " + candidate.phrase + " "
		pos := strings.LastIndex(c, needle)
		if pos < 0 {
			continue
		}
		if pos > bestPos || (pos == bestPos && len(candidate.phrase) > len(best.phrase)) {
			bestPos = pos
			best = candidate
		}
	}
	if bestPos < 0 {
		return "", "", false
	}
	rest := c[bestPos+len(best.phrase)+1:]
	for _, stop := range termStops {
		if i := strings.Index(rest, stop); i >= 0 {
			rest = rest[:i]
		}
	}
	term := stripArticle(strings.TrimSpace(rest))
	if term == "" && !best.action.IsCooking() {
		return "", "", false
	}
	return best.action, term, true
}
