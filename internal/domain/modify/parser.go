// Package modify parses a change to an existing order line: which line,
// and whether its quantity, size or ingredients change.
package modify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modifier"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/targeting"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// Kind is the nature of a requested change.
type Kind string

const (
	KindQuantity    Kind = "quantity"
	KindSize        Kind = "size"
	KindIngredients Kind = "ingredients"
	KindMultiple    Kind = "multiple"
)

const (
	genericClarification = "Sorry, which item would you like to change, and how?"
	emptyOrderMessage    = "There's nothing on your order to change yet. What would you like to order?"
	modelTargetConf      = 0.7
)

// IngredientChange is one requested ingredient adjustment.
type IngredientChange struct {
	Action     modifier.Action
	Ingredient string
}

// Phrase renders the change the way a customer would say it.
func (c IngredientChange) Phrase() string {
	return modifier.Format(c.Action, c.Ingredient)
}

// Request is the parsed modification. TargetLineID is empty whenever the
// target is unknown or ambiguous.
type Request struct {
	Success              bool
	TargetLineID         string
	TargetConfidence     float64
	Method               targeting.Method
	Kind                 Kind
	NewQuantity          int
	NewSize              menu.Size
	Ingredients          []IngredientChange
	ClarificationNeeded  bool
	ClarificationMessage string
}

// HasChange reports whether any field change was parsed.
func (r Request) HasChange() bool {
	return r.NewQuantity != 0 || r.NewSize != "" || len(r.Ingredients) > 0
}

// Parser turns a modify utterance into a Request. Deterministic target and
// change detection run first; the model only sees what they cannot settle.
type Parser struct {
	llm         llm.Capability
	maxQuantity int
	log         zerolog.Logger
}

// NewParser creates a parser. maxQuantity bounds quantity changes.
func NewParser(capability llm.Capability, maxQuantity int, log zerolog.Logger) *Parser {
	return &Parser{
		llm:         capability,
		maxQuantity: maxQuantity,
		log:         log.With().Str("component", "modify-parser").Logger(),
	}
}

// Parse never returns an error: failures come back as an unsuccessful
// request carrying a question for the customer.
func (p *Parser) Parse(ctx context.Context, text string, o *order.Order, conv *conversation.History, commands *command.History) Request {
	if o == nil || o.IsEmpty() {
		return Request{ClarificationNeeded: true, ClarificationMessage: emptyOrderMessage}
	}

	change := p.parseChange(text)
	if change.ClarificationNeeded {
		return change
	}

	outcome := targeting.Find(stripIngredients(text, change.Ingredients), o, commands)
	if outcome.Ambiguous {
		return Request{
			Success:              true,
			ClarificationNeeded:  true,
			ClarificationMessage: outcome.Clarification,
		}
	}

	if outcome.Found() && change.HasChange() {
		change.Success = true
		change.TargetLineID = outcome.Target.Line.ID
		change.TargetConfidence = outcome.Target.Confidence
		change.Method = outcome.Target.Method
		return change
	}

	return p.askModel(ctx, text, o, conv, commands, outcome, change)
}

// parseChange reads the quantity, size and ingredient changes out of text.
func (p *Parser) parseChange(text string) Request {
	var req Request
	tokens := textutil.Tokens(text)

	for _, clause := range clauses(text) {
		action, term, ok := modifier.Find(clause)
		if !ok || (action.IsCooking() && term != "") {
			continue
		}
		req.Ingredients = append(req.Ingredients, IngredientChange{Action: action, Ingredient: term})
	}

	for i, t := range tokens {
		size, ok := menu.ParseSize(t)
		if !ok {
			continue
		}
		// "medium rare" is doneness, not a size
		if size == menu.SizeMedium && i+1 < len(tokens) && tokens[i+1] == "rare" {
			continue
		}
		// the last size wins: "change the large fries to small"
		req.NewSize = size
	}

	if counts := targeting.Quantities(withoutIngredientCounts(tokens)); len(counts) > 0 {
		n := counts[len(counts)-1]
		if n < 1 || n > p.maxQuantity {
			req.ClarificationNeeded = true
			req.ClarificationMessage = fmt.Sprintf("I can do between 1 and %d of those. How many would you like?", p.maxQuantity)
			return req
		}
		req.NewQuantity = n
	}

	req.Kind = kindOf(req)
	return req
}

func kindOf(r Request) Kind {
	var kinds []Kind
	if r.NewQuantity != 0 {
		kinds = append(kinds, KindQuantity)
	}
	if r.NewSize != "" {
		kinds = append(kinds, KindSize)
	}
	if len(r.Ingredients) > 0 {
		kinds = append(kinds, KindIngredients)
	}
	switch len(kinds) {
	case 0:
		return ""
	case 1:
		return kinds[0]
	}
	return KindMultiple
}

func clauses(text string) []string {
	lower := strings.ToLower(text)
	lower = strings.ReplaceAll(lower, ",", " and ")
	var out []string
	for _, c := range strings.Split(lower, " and ") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// withoutIngredientCounts drops counts that belong to an ingredient, as in
// "double cheese" or "two pickles", so they are not read as the line quantity.
func withoutIngredientCounts(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i, t := range tokens {
		if _, ok := textutil.Number(t, false); ok && i > 0 {
			prev := tokens[i-1]
			if prev == "extra" || prev == "add" || prev == "with" || prev == "no" {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// stripIngredients removes ingredient terms so "add cheese to it" does not
// name-match a Quantum Cheeseburger.
func stripIngredients(text string, changes []IngredientChange) string {
	out := " " + strings.ToLower(text) + " "
	for _, c := range changes {
		if c.Ingredient == "" {
			continue
		}
		out = strings.ReplaceAll(out, " "+c.Ingredient+" ", " ")
	}
	return strings.TrimSpace(out)
}

type modelReply struct {
	Success                 bool     `json:"success"`
	Confidence              float64  `json:"confidence" validate:"gte=0,lte=1"`
	TargetItemID            string   `json:"target_item_id" jsonschema:"description=Order line id shown in brackets or empty when unsure"`
	ModificationType        string   `json:"modification_type" jsonschema:"enum=quantity,enum=size,enum=ingredients,enum=multiple"`
	NewQuantity             int      `json:"new_quantity,omitempty" validate:"gte=0"`
	NewSize                 string   `json:"new_size,omitempty"`
	IngredientModifications []string `json:"ingredient_modifications,omitempty" jsonschema:"description=Canonical phrases such as no pickles or extra cheese"`
	ClarificationNeeded     bool     `json:"clarification_needed"`
	ClarificationMessage    string   `json:"clarification_message,omitempty"`
}

func (p *Parser) askModel(ctx context.Context, text string, o *order.Order, conv *conversation.History,
	commands *command.History, outcome targeting.Outcome, parsed Request) Request {
	reply, err := llm.GenerateJSON[modelReply](ctx, p.llm, llm.Prompt{
		Stage:     llm.StageModify,
		System:    systemPrompt,
		User:      userPrompt(text, o, conv, commands),
		MaxTokens: 400,
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("modify parse failed")
		return Request{ClarificationNeeded: true, ClarificationMessage: genericClarification}
	}

	if reply.ClarificationNeeded {
		msg := strings.TrimSpace(reply.ClarificationMessage)
		if msg == "" {
			msg = genericClarification
		}
		return Request{Success: true, ClarificationNeeded: true, ClarificationMessage: msg}
	}

	req := parsed
	req.ClarificationNeeded = false
	if !req.HasChange() {
		req = p.changeFromReply(*reply)
		if req.ClarificationNeeded {
			return req
		}
	}

	switch {
	case outcome.Found():
		req.TargetLineID = outcome.Target.Line.ID
		req.TargetConfidence = outcome.Target.Confidence
		req.Method = outcome.Target.Method
	case reply.TargetItemID != "":
		line, _, ok := o.Line(strings.Trim(reply.TargetItemID, "[] "))
		if !ok {
			p.log.Warn().Str("target_item_id", reply.TargetItemID).Msg("model picked an unknown line")
			return Request{Success: true, ClarificationNeeded: true, ClarificationMessage: targeting.Clarify(o.Items)}
		}
		req.TargetLineID = line.ID
		req.TargetConfidence = reply.Confidence
		if req.TargetConfidence == 0 {
			req.TargetConfidence = modelTargetConf
		}
	default:
		return Request{Success: true, ClarificationNeeded: true, ClarificationMessage: targeting.Clarify(o.Items)}
	}

	if !req.HasChange() {
		line, _, _ := o.Line(req.TargetLineID)
		return Request{
			Success:              true,
			TargetLineID:         req.TargetLineID,
			ClarificationNeeded:  true,
			ClarificationMessage: fmt.Sprintf("What would you like to change about the %s?", line.Name),
		}
	}
	req.Success = true
	req.Kind = kindOf(req)
	return req
}

func (p *Parser) changeFromReply(reply modelReply) Request {
	var req Request
	if reply.NewQuantity != 0 {
		if reply.NewQuantity > p.maxQuantity {
			return Request{
				ClarificationNeeded:  true,
				ClarificationMessage: fmt.Sprintf("I can do between 1 and %d of those. How many would you like?", p.maxQuantity),
			}
		}
		req.NewQuantity = reply.NewQuantity
	}
	if size, ok := menu.ParseSize(reply.NewSize); ok {
		req.NewSize = size
	}
	for _, phrase := range reply.IngredientModifications {
		if strings.TrimSpace(phrase) == "" {
			continue
		}
		action, term := modifier.Parse(phrase)
		if term == "" && !action.IsCooking() {
			continue
		}
		req.Ingredients = append(req.Ingredients, IngredientChange{Action: action, Ingredient: term})
	}
	return req
}

const systemPrompt = `You work out which line of a drive-thru order the customer wants to change, and how.
Reply with one JSON object only.

- target_item_id must be one of the ids shown in brackets, or empty when you cannot tell.
- "it" or "that" usually means the most recently added item.
- Never guess between two similar lines: set clarification_needed and ask which one.
- Quantities are between 1 and 20. Sizes are small, regular, medium or large.
- Ingredient changes use canonical phrases: "no onions", "extra cheese", "light mayo", "add bacon".`

func userPrompt(text string, o *order.Order, conv *conversation.History, commands *command.History) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current order:\n%s\n\n", o.Listing())
	if commands != nil && commands.Len() > 0 {
		b.WriteString("Recent actions:\n")
		for _, c := range commands.Recent(3) {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}
	if t := conv.Transcript(3); t != "" {
		fmt.Fprintf(&b, "Recent conversation:\n%s\n\n", t)
	}
	fmt.Fprintf(&b, "Customer said: %q\n\nJSON schema:\n%s", text, llm.SchemaFor(modelReply{}))
	return b.String()
}
