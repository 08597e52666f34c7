// Package extraction splits an add-item utterance into individual item
// requests with quantities, sizes and canonical modifiers.
package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modifier"
)

// LowConfidence marks items the customer should confirm.
const LowConfidence = 0.8

// Item is one requested item before menu resolution.
type Item struct {
	Name                string   `json:"item_name" validate:"required" jsonschema:"description=The item as the customer said it"`
	Quantity            int      `json:"quantity" validate:"gte=0,lte=100"`
	Size                string   `json:"size,omitempty" jsonschema:"description=small or regular or medium or large when mentioned"`
	Modifiers           []string `json:"modifiers,omitempty" jsonschema:"description=Modifier phrases that include the ingredient such as no pickles"`
	SpecialInstructions string   `json:"special_instructions,omitempty"`
	Confidence          float64  `json:"confidence" validate:"gte=0,lte=1"`
}

// Result is the outcome of extraction.
type Result struct {
	Success                bool     `json:"success"`
	Confidence             float64  `json:"confidence" validate:"gte=0,lte=1"`
	Items                  []Item   `json:"extracted_items" validate:"dive"`
	NeedsClarification     bool     `json:"needs_clarification"`
	ClarificationQuestions []string `json:"clarification_questions,omitempty"`
}

// Requests converts the extracted items into menu resolution requests.
func (r Result) Requests() []menu.Request {
	out := make([]menu.Request, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, menu.Request{
			Name:                it.Name,
			Quantity:            it.Quantity,
			Size:                it.Size,
			Modifiers:           it.Modifiers,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	return out
}

// LowConfidenceItems lists items extracted with doubt.
func (r Result) LowConfidenceItems() []Item {
	var out []Item
	for _, it := range r.Items {
		if it.Confidence < LowConfidence {
			out = append(out, it)
		}
	}
	return out
}

// Extractor extracts items with the language capability.
type Extractor struct {
	llm llm.Capability
	log zerolog.Logger
}

// NewExtractor creates an extractor.
func NewExtractor(capability llm.Capability, log zerolog.Logger) *Extractor {
	return &Extractor{
		llm: capability,
		log: log.With().Str("component", "item-extractor").Logger(),
	}
}

// Extract fails closed: when nothing usable comes back the result is
// unsuccessful and carries a question for the customer.
func (e *Extractor) Extract(ctx context.Context, text string, history *conversation.History) Result {
	out, err := llm.GenerateJSON[Result](ctx, e.llm, llm.Prompt{
		Stage:     llm.StageExtraction,
		System:    systemPrompt,
		User:      userPrompt(text, history),
		MaxTokens: 600,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("item extraction failed")
		return Result{
			NeedsClarification:     true,
			ClarificationQuestions: []string{"Sorry, what would you like to order?"},
		}
	}

	res := *out
	items := res.Items[:0]
	for _, it := range res.Items {
		it.Name = strings.TrimSpace(it.Name)
		if it.Name == "" {
			continue
		}
		if it.Quantity < 1 {
			it.Quantity = 1
		}
		it.Size = strings.ToLower(strings.TrimSpace(it.Size))
		mods := make([]string, 0, len(it.Modifiers))
		for _, m := range it.Modifiers {
			if strings.TrimSpace(m) != "" {
				mods = append(mods, modifier.Normalize(m))
			}
		}
		it.Modifiers = mods
		it.SpecialInstructions = strings.TrimSpace(it.SpecialInstructions)
		items = append(items, it)
	}
	res.Items = items

	if len(res.Items) == 0 {
		res.Success = false
		if len(res.ClarificationQuestions) == 0 {
			res.ClarificationQuestions = []string{"Sorry, what would you like to order?"}
		}
		res.NeedsClarification = true
		return res
	}
	res.Success = true
	return res
}

const systemPrompt = `You extract the items a drive-thru customer is ordering. Reply with one JSON object only.

- Split compound requests into separate items: "two burgers and three fries" is two items.
- Quantity defaults to 1.
- Keep the item name as the customer said it; menu matching happens later.
- Modifiers always include the ingredient in canonical form: "hold the pickles" -> "no pickles",
  "easy on the mayo" -> "light mayo", "a ton of cheese" -> "extra cheese".
- Doneness goes in modifiers as "well done" or "rare".
- Anything else about preparation goes in special_instructions.
- Set an item's confidence below 0.8 when it is unclear ("the special"), and use
  needs_clarification with a question when you cannot tell what is meant.`

func userPrompt(text string, history *conversation.History) string {
	var b strings.Builder
	if t := history.Transcript(3); t != "" {
		fmt.Fprintf(&b, "Recent conversation:\n%s\n\n", t)
	}
	fmt.Fprintf(&b, "Customer said: %q\n\nJSON schema:\n%s", text, llm.SchemaFor(Result{}))
	return b.String()
}
