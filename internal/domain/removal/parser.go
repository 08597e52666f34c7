// Package removal works out which order lines a remove request refers to,
// and how many of each.
package removal

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/targeting"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

const (
	genericClarification = "Sorry, which item would you like to remove?"
	modelConfidence      = 0.7
)

// words that carry no item information in a remove request
var fillers = map[string]bool{
	"remove": true, "take": true, "off": true, "the": true, "please": true, "delete": true,
	"cancel": true, "drop": true, "get": true, "rid": true, "of": true, "don": true, "want": true,
	"no": true, "longer": true, "actually": true, "and": true, "also": true, "my": true,
	"order": true, "from": true, "out": true, "need": true, "can": true, "you": true, "just": true,
	"scratch": true, "lose": true, "anymore": true, "never": true, "mind": true, "i": true,
	"that": true, "this": true, "those": true, "these": true, "them": true, "one": true,
	"item": true, "thing": true, "last": true, "first": true, "second": true, "third": true,
	"too": true, "instead": true, "don't": true,
}

// Target is one line to remove. Quantity zero removes the whole line.
type Target struct {
	LineID     string
	Name       string
	Quantity   int
	Method     targeting.Method
	Confidence float64
}

// Request is the parsed removal. Targets holds every line that could be
// identified with certainty; anything ambiguous is left for the
// clarification question.
type Request struct {
	Success              bool
	Targets              []Target
	NotFound             []string
	ClarificationNeeded  bool
	ClarificationMessage string
}

// Parser parses removal requests.
type Parser struct {
	llm llm.Capability
	log zerolog.Logger
}

// NewParser creates a parser.
func NewParser(capability llm.Capability, log zerolog.Logger) *Parser {
	return &Parser{
		llm: capability,
		log: log.With().Str("component", "removal-parser").Logger(),
	}
}

// Parse splits text into segments ("the burger and the fries") and targets
// each one independently. The model is consulted only when no segment
// yields a line.
func (p *Parser) Parse(ctx context.Context, text string, o *order.Order, conv *conversation.History, commands *command.History) Request {
	if o == nil || o.IsEmpty() {
		return Request{}
	}

	var req Request
	seen := make(map[string]bool)
	var ambiguous [][]*order.LineItem

	for _, segment := range segments(text) {
		tokens := textutil.Tokens(segment)
		outcome := targeting.Find(segment, o, commands)
		rest := leftover(tokens)
		// a one-line order is not a license to drop it for "remove the pizza"
		if outcome.Found() && outcome.Target.Method == targeting.MethodOnlyItem && rest != "" {
			outcome = targeting.Outcome{}
		}
		switch {
		case outcome.Ambiguous:
			ambiguous = append(ambiguous, outcome.Candidates)
		case outcome.Found():
			line := outcome.Target.Line
			if seen[line.ID] {
				continue
			}
			seen[line.ID] = true
			req.Targets = append(req.Targets, Target{
				LineID:     line.ID,
				Name:       line.Name,
				Quantity:   partialQuantity(tokens, line),
				Method:     outcome.Target.Method,
				Confidence: outcome.Target.Confidence,
			})
		default:
			if rest != "" {
				req.NotFound = append(req.NotFound, rest)
			}
		}
	}

	if len(ambiguous) > 0 {
		var candidates []*order.LineItem
		for _, group := range ambiguous {
			candidates = append(candidates, group...)
		}
		req.Success = true
		req.ClarificationNeeded = true
		req.ClarificationMessage = targeting.Clarify(candidates)
		return req
	}
	if len(req.Targets) > 0 {
		req.Success = true
		return req
	}

	// Descriptions such as "the sweet stuff" need the model. Names it
	// cannot place are still reported as not on the order.
	fromModel, ok := p.askModel(ctx, text, o, conv, commands)
	if !ok && len(req.NotFound) > 0 {
		req.Success = true
		return req
	}
	return fromModel
}

// segments splits on commas and conjunctions.
func segments(text string) []string {
	lower := strings.ToLower(text)
	for _, sep := range []string{",", " and ", " also ", " plus "} {
		lower = strings.ReplaceAll(lower, sep, "|")
	}
	var out []string
	for _, s := range strings.Split(lower, "|") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// partialQuantity reads "one of the cookies" or "two cookies" when the line
// holds more than that. Zero means the whole line.
func partialQuantity(tokens []string, line *order.LineItem) int {
	n, ok := targeting.Quantity(tokens)
	if !ok || n < 1 || n >= line.Quantity {
		return 0
	}
	return n
}

// leftover returns the words of a segment that could name an item, so
// "remove the pizza" reports "pizza" as not on the order.
func leftover(tokens []string) string {
	var words []string
	for _, t := range tokens {
		if fillers[t] || len(t) < 3 {
			continue
		}
		if _, ok := textutil.Number(t, false); ok {
			continue
		}
		words = append(words, t)
	}
	return strings.Join(words, " ")
}

type modelTarget struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity int    `json:"quantity,omitempty" validate:"gte=0"`
}

type modelReply struct {
	Success              bool          `json:"success"`
	Confidence           float64       `json:"confidence" validate:"gte=0,lte=1"`
	Targets              []modelTarget `json:"targets" validate:"dive"`
	NotFound             []string      `json:"not_found,omitempty"`
	ClarificationNeeded  bool          `json:"clarification_needed"`
	ClarificationMessage string        `json:"clarification_message,omitempty"`
}

// askModel reports false when the model could not be used at all.
func (p *Parser) askModel(ctx context.Context, text string, o *order.Order, conv *conversation.History, commands *command.History) (Request, bool) {
	reply, err := llm.GenerateJSON[modelReply](ctx, p.llm, llm.Prompt{
		Stage:     llm.StageRemove,
		System:    systemPrompt,
		User:      userPrompt(text, o, conv, commands),
		MaxTokens: 300,
	})
	if err != nil {
		p.log.Warn().Err(err).Msg("removal parse failed")
		return Request{ClarificationNeeded: true, ClarificationMessage: genericClarification}, false
	}
	if reply.ClarificationNeeded {
		msg := strings.TrimSpace(reply.ClarificationMessage)
		if msg == "" {
			msg = genericClarification
		}
		return Request{Success: true, ClarificationNeeded: true, ClarificationMessage: msg}, true
	}

	req := Request{Success: true, NotFound: reply.NotFound}
	seen := make(map[string]bool)
	for _, t := range reply.Targets {
		line, _, ok := o.Line(strings.Trim(t.ItemID, "[] "))
		if !ok {
			p.log.Warn().Str("item_id", t.ItemID).Msg("model picked an unknown line")
			continue
		}
		if seen[line.ID] {
			continue
		}
		seen[line.ID] = true
		qty := t.Quantity
		if qty >= line.Quantity {
			qty = 0
		}
		conf := reply.Confidence
		if conf == 0 {
			conf = modelConfidence
		}
		req.Targets = append(req.Targets, Target{LineID: line.ID, Name: line.Name, Quantity: qty, Confidence: conf})
	}
	if len(req.Targets) == 0 && len(req.NotFound) == 0 {
		return Request{Success: true, ClarificationNeeded: true, ClarificationMessage: targeting.Clarify(o.Items)}, true
	}
	return req, true
}

const systemPrompt = `You work out which lines of a drive-thru order the customer wants removed.
Reply with one JSON object only.

- Every item_id must be one of the ids shown in brackets.
- quantity is how many to take off that line; leave it out to remove the whole line.
- "it" or "that" usually means the most recently added item.
- Items the customer names that are not on the order go in not_found.
- Never guess between two similar lines: set clarification_needed and ask which one.`

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
