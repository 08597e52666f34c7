// Package targeting finds the order line an edit refers to. It never
// guesses: when several lines fit equally well the caller must ask.
package targeting

import (
	"fmt"
	"strings"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// Method is how a target was identified.
type Method string

const (
	MethodName     Method = "name"
	MethodAnaphora Method = "anaphora"
	MethodPosition Method = "position"
	MethodOnlyItem Method = "only_item"
)

const (
	nameConfidence     = 0.95
	anaphoraConfidence = 0.85
	positionConfidence = 0.9
	onlyItemConfidence = 0.8
	containmentCredit  = 0.5
	minTokenLen        = 3
)

var ignored = map[string]bool{
	"the": true, "my": true, "and": true, "with": true, "please": true, "off": true,
	"remove": true, "take": true, "make": true, "change": true, "want": true, "can": true,
	"you": true, "that": true, "this": true, "those": true, "these": true, "them": true,
	"one": true, "all": true, "order": true, "item": true, "instead": true, "get": true,
	"add": true, "extra": true, "light": true, "hold": true, "size": true,
	"small": true, "regular": true, "medium": true, "large": true,
}

var pronouns = map[string]bool{"it": true, "that": true, "this": true, "those": true, "these": true, "them": true}

var ordinals = map[string]int{"first": 0, "second": 1, "third": 2, "fourth": 3, "fifth": 4}

var lastWords = map[string]bool{"last": true, "latest": true, "previous": true}

// Target is the identified line.
type Target struct {
	Line       *order.LineItem
	Method     Method
	Confidence float64
}

// Outcome is the result of Find. Exactly one of Target, Ambiguous or
// neither (nothing referenced) holds.
type Outcome struct {
	Target        *Target
	Ambiguous     bool
	Candidates    []*order.LineItem
	Clarification string
}

// Found reports whether a single target was identified.
func (o Outcome) Found() bool { return o.Target != nil }

// Find identifies the line text refers to. Precedence: explicit name,
// then a pronoun bound to the most recent add, then a position, then the
// only line of a one-line order.
func Find(text string, o *order.Order, commands *command.History) Outcome {
	if o == nil || o.IsEmpty() {
		return Outcome{}
	}
	tokens := textutil.Tokens(text)

	if out, ok := byName(tokens, o); ok {
		return out
	}
	if hasAny(tokens, pronouns) {
		if line := lastAdded(o, commands); line != nil {
			return Outcome{Target: &Target{Line: line, Method: MethodAnaphora, Confidence: anaphoraConfidence}}
		}
	}
	if line := byPosition(tokens, o); line != nil {
		return Outcome{Target: &Target{Line: line, Method: MethodPosition, Confidence: positionConfidence}}
	}
	if len(o.Items) == 1 {
		return Outcome{Target: &Target{Line: o.Items[0], Method: MethodOnlyItem, Confidence: onlyItemConfidence}}
	}
	return Outcome{}
}

// Clarify builds the question naming the candidate lines.
func Clarify(candidates []*order.LineItem) string {
	names := make([]string, 0, len(candidates))
	seen := make(map[string]bool)
	for _, c := range candidates {
		label := "the " + c.Name
		if c.Size != "" && c.Size != menu.SizeRegular {
			label = fmt.Sprintf("the %s %s", c.Size, c.Name)
		}
		if mods := c.ModifierStrings(); len(mods) > 0 {
			label += " with " + strings.Join(mods, ", ")
		}
		if !seen[label] {
			seen[label] = true
			names = append(names, label)
		}
	}
	return fmt.Sprintf("Which one do you mean: %s?", textutil.JoinList(names, "or"))
}

func byName(tokens []string, o *order.Order) (Outcome, bool) {
	var words []string
	for _, t := range tokens {
		if len(t) >= minTokenLen && !ignored[t] {
			words = append(words, textutil.Singular(t))
		}
	}
	if len(words) == 0 {
		return Outcome{}, false
	}

	best := 0.0
	var tied []*order.LineItem
	for _, line := range o.Items {
		s := nameScore(words, line.Name)
		switch {
		case s == 0:
		case s > best:
			best = s
			tied = []*order.LineItem{line}
		case s == best:
			tied = append(tied, line)
		}
	}
	if best == 0 {
		return Outcome{}, false
	}
	if len(tied) > 1 {
		tied = breakTie(tokens, tied)
	}
	if len(tied) == 1 {
		return Outcome{Target: &Target{Line: tied[0], Method: MethodName, Confidence: nameConfidence}}, true
	}
	return Outcome{Ambiguous: true, Candidates: tied, Clarification: Clarify(tied)}, true
}

// nameScore credits each name token once: a full match counts 1, a
// containment ("burger" in "cheeseburger") counts half.
func nameScore(words []string, name string) float64 {
	score := 0.0
	for _, nt := range textutil.Tokens(name) {
		nt = textutil.Singular(nt)
		credit := 0.0
		for _, w := range words {
			if w == nt {
				credit = 1
				break
			}
			if len(w) >= minTokenLen && len(nt) >= minTokenLen && (strings.Contains(nt, w) || strings.Contains(w, nt)) {
				credit = containmentCredit
			}
		}
		score += credit
	}
	return score
}

// breakTie narrows equally named lines by size or modifiers the customer
// mentioned. Lines are returned unchanged when nothing distinguishes them.
func breakTie(tokens []string, lines []*order.LineItem) []*order.LineItem {
	text := " " + strings.Join(tokens, " ") + " "
	var matched []*order.LineItem
	for _, l := range lines {
		hit := false
		if l.Size != "" && l.Size != menu.SizeRegular && strings.Contains(text, " "+string(l.Size)+" ") {
			hit = true
		}
		for _, m := range l.Modifiers {
			if m.Ingredient != "" && strings.Contains(text, " "+strings.ToLower(m.Ingredient)+" ") {
				hit = true
			}
		}
		if hit {
			matched = append(matched, l)
		}
	}
	if len(matched) == 0 {
		return lines
	}
	return matched
}

// lastAdded returns the line of the most recent successful add that is
// still on the order.
func lastAdded(o *order.Order, commands *command.History) *order.LineItem {
	if commands == nil {
		return nil
	}
	adds := commands.SuccessfulAdds()
	for i := len(adds) - 1; i >= 0; i-- {
		if line, _, ok := o.Line(adds[i].ItemID); ok {
			return line
		}
	}
	return nil
}

func byPosition(tokens []string, o *order.Order) *order.LineItem {
	for _, t := range tokens {
		if lastWords[t] {
			return o.Items[len(o.Items)-1]
		}
		if idx, ok := ordinals[t]; ok && idx < len(o.Items) {
			return o.Items[idx]
		}
	}
	return nil
}

// positional words that turn a following "one" into a reference rather
// than a count, as in "the first one".
var referenceWords = map[string]bool{
	"the": true, "that": true, "this": true, "which": true, "other": true, "every": true,
	"first": true, "second": true, "third": true, "fourth": true, "fifth": true,
	"last": true, "latest": true, "previous": true,
}

// Quantities returns every count the customer mentioned in tokens, in
// order. "one" after a reference word ("the first one", "that one") is
// not a count.
func Quantities(tokens []string) []int {
	var out []int
	for i, t := range tokens {
		n, ok := textutil.Number(t, false)
		if !ok {
			continue
		}
		if t == "one" && i > 0 && referenceWords[tokens[i-1]] {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Quantity returns the first count in tokens.
func Quantity(tokens []string) (int, bool) {
	counts := Quantities(tokens)
	if len(counts) == 0 {
		return 0, false
	}
	return counts[0], true
}

func hasAny(tokens []string, set map[string]bool) bool {
	for _, t := range tokens {
		if set[t] {
			return true
		}
	}
	return false
}
