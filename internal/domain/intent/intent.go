// Package intent classifies a cleaned utterance into one of the fixed
// drive-thru intents.
package intent

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// Intent is what the customer wants done.
type Intent string

const (
	AddItem      Intent = "ADD_ITEM"
	RemoveItem   Intent = "REMOVE_ITEM"
	ModifyItem   Intent = "MODIFY_ITEM"
	ClearOrder   Intent = "CLEAR_ORDER"
	ConfirmOrder Intent = "CONFIRM_ORDER"
	Question     Intent = "QUESTION"
	Unknown      Intent = "UNKNOWN"
)

// All lists every intent.
var All = []Intent{AddItem, RemoveItem, ModifyItem, ClearOrder, ConfirmOrder, Question, Unknown}

// Parse maps a label to an intent, tolerating case and spacing.
func Parse(s string) (Intent, bool) {
	label := Intent(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", "_")))
	for _, i := range All {
		if i == label {
			return i, true
		}
	}
	return Unknown, false
}

// CommandType maps an order-mutating intent to its command type.
func (i Intent) CommandType() (command.Type, bool) {
	switch i {
	case AddItem:
		return command.TypeAddItem, true
	case RemoveItem:
		return command.TypeRemoveItem, true
	case ModifyItem:
		return command.TypeModifyItem, true
	case ClearOrder:
		return command.TypeClearOrder, true
	case ConfirmOrder:
		return command.TypeConfirmOrder, true
	}
	return "", false
}

const (
	// MaxUnknownConfidence caps the confidence of an UNKNOWN classification.
	MaxUnknownConfidence = 0.5
	failureConfidence    = 0.1
	// anaphoraPenalty scales confidence when a pronoun has nothing to refer to.
	anaphoraPenalty = 0.75
	historyWindow   = 5
)

// Classification is the classifier's verdict.
type Classification struct {
	Intent     Intent
	Confidence float64
	Rationale  string
}

type llmVerdict struct {
	Intent     string  `json:"intent" validate:"required" jsonschema:"enum=ADD_ITEM,enum=REMOVE_ITEM,enum=MODIFY_ITEM,enum=CLEAR_ORDER,enum=CONFIRM_ORDER,enum=QUESTION,enum=UNKNOWN"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1" jsonschema:"minimum=0,maximum=1"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Classifier classifies utterances with the language capability.
type Classifier struct {
	llm llm.Capability
	log zerolog.Logger
}

// NewClassifier creates a classifier.
func NewClassifier(capability llm.Capability, log zerolog.Logger) *Classifier {
	return &Classifier{
		llm: capability,
		log: log.With().Str("component", "intent-classifier").Logger(),
	}
}

// Classify never fails: unintelligible input and capability failures both
// come back as UNKNOWN with low confidence.
func (c *Classifier) Classify(ctx context.Context, text string, history *conversation.History, current *order.Order) Classification {
	if !intelligible(text) {
		return Classification{Intent: Unknown, Confidence: 0, Rationale: "empty or unintelligible input"}
	}

	verdict, err := llm.GenerateJSON[llmVerdict](ctx, c.llm, llm.Prompt{
		Stage:     llm.StageIntent,
		System:    systemPrompt,
		User:      userPrompt(text, history, current),
		MaxTokens: 200,
	})
	if err != nil {
		c.log.Warn().Err(err).Msg("intent classification failed")
		return Classification{Intent: Unknown, Confidence: failureConfidence, Rationale: "classification unavailable"}
	}

	intent, ok := Parse(verdict.Intent)
	out := Classification{Intent: intent, Confidence: verdict.Confidence, Rationale: verdict.Reasoning}
	if !ok {
		out.Rationale = fmt.Sprintf("unrecognised intent %q", verdict.Intent)
	}
	if HasAnaphora(text) && history.Len() == 0 {
		out.Confidence *= anaphoraPenalty
	}
	if out.Intent == Unknown && out.Confidence > MaxUnknownConfidence {
		out.Confidence = MaxUnknownConfidence
	}
	return out
}

var anaphora = map[string]bool{"it": true, "that": true, "this": true, "those": true, "these": true, "them": true}

// HasAnaphora reports whether text contains a pronoun that needs an antecedent.
func HasAnaphora(text string) bool {
	for _, t := range textutil.Tokens(text) {
		if anaphora[t] {
			return true
		}
	}
	return false
}

func intelligible(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

const systemPrompt = `You classify what a drive-thru customer wants. Reply with one JSON object only.

Intents:
- ADD_ITEM: order new food or drinks.
- REMOVE_ITEM: take specific items off the order.
- MODIFY_ITEM: change an item already in the order (quantity, size, ingredients).
- CLEAR_ORDER: start over or remove everything.
- CONFIRM_ORDER: the customer is finished ("that's it", "that's all", "done").
- QUESTION: a question about the menu, prices, the order or the restaurant.
- UNKNOWN: nothing order related or impossible to tell.

Choose MODIFY_ITEM only when the customer points at something that is already in the order.
With an empty order a change request is ADD_ITEM. "Cancel my fries" is REMOVE_ITEM, not CLEAR_ORDER.
Confidence: 0.9+ very clear, 0.7-0.8 minor doubt, 0.5-0.6 unclear, below 0.5 use UNKNOWN.`

func userPrompt(text string, history *conversation.History, current *order.Order) string {
	var b strings.Builder
	items := "(empty)"
	if current != nil && !current.IsEmpty() {
		items = current.Summary()
	}
	fmt.Fprintf(&b, "Order items: %s\n", items)
	if t := history.Transcript(historyWindow); t != "" {
		fmt.Fprintf(&b, "Recent conversation:\n%s\n", t)
	}
	fmt.Fprintf(&b, "\nCustomer said: %q\n\nJSON schema:\n%s", text, llm.SchemaFor(llmVerdict{}))
	return b.String()
}
