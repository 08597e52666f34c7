// Package question answers customer questions about the menu, their order
// or the restaurant.
package question

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// Category is the topic of a question.
type Category string

const (
	CategoryMenu           Category = "menu"
	CategoryOrder          Category = "order"
	CategoryRestaurantInfo Category = "restaurant_info"
	CategoryGeneral        Category = "general"
)

// Phrase selects the audio phrase for an answer in this category.
func (c Category) Phrase() audio.PhraseType {
	switch c {
	case CategoryRestaurantInfo:
		return audio.RestaurantInfo
	case CategoryMenu, CategoryOrder:
		return audio.QuestionAnswered
	case CategoryGeneral:
		return audio.QuestionNotFound
	}
	return audio.CustomResponse
}

// Answer is the reply to one question.
type Answer struct {
	Success    bool
	Category   Category
	Text       string
	Confidence float64
}

type modelAnswer struct {
	Answer     string  `json:"answer" validate:"required"`
	Category   string  `json:"category" jsonschema:"enum=menu,enum=order,enum=restaurant_info,enum=general"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

// Menu is the catalog view the answerer needs.
type Menu interface {
	Restaurant(ctx context.Context, restaurantID int64) (*menu.Restaurant, error)
	Items(ctx context.Context, restaurantID int64) ([]menu.Item, error)
}

// Answerer answers questions with the language capability, grounded on
// restaurant facts, the menu and the current order.
type Answerer struct {
	llm  llm.Capability
	menu Menu
	log  zerolog.Logger
}

// NewAnswerer creates an answerer.
func NewAnswerer(capability llm.Capability, m Menu, log zerolog.Logger) *Answerer {
	return &Answerer{
		llm:  capability,
		menu: m,
		log:  log.With().Str("component", "question-answerer").Logger(),
	}
}

// Answer replies to text. A missing menu still lets order and general
// questions through; a model failure yields an unsuccessful answer with
// the canned "not sure" text.
func (a *Answerer) Answer(ctx context.Context, text string, restaurantID int64, o *order.Order, conv *conversation.History) Answer {
	facts := a.facts(ctx, restaurantID)

	reply, err := llm.GenerateJSON[modelAnswer](ctx, a.llm, llm.Prompt{
		Stage:     llm.StageQuestion,
		System:    systemPrompt,
		User:      userPrompt(text, facts, o, conv),
		MaxTokens: 300,
	})
	if err != nil {
		a.log.Warn().Err(err).Msg("question answering failed")
		return Answer{Category: CategoryGeneral, Text: audio.Text(audio.QuestionNotFound, nil)}
	}

	category := Category(strings.ToLower(strings.TrimSpace(reply.Category)))
	switch category {
	case CategoryMenu, CategoryOrder, CategoryRestaurantInfo, CategoryGeneral:
	default:
		category = ""
	}
	return Answer{
		Success:    true,
		Category:   category,
		Text:       strings.TrimSpace(reply.Answer),
		Confidence: reply.Confidence,
	}
}

func (a *Answerer) facts(ctx context.Context, restaurantID int64) string {
	var b strings.Builder
	if r, err := a.menu.Restaurant(ctx, restaurantID); err == nil {
		fmt.Fprintf(&b, "Restaurant: %s\n", r.Name)
		if r.Hours != "" {
			fmt.Fprintf(&b, "Hours: %s\n", r.Hours)
		}
		if r.Address != "" {
			fmt.Fprintf(&b, "Address: %s\n", r.Address)
		}
		if r.Phone != "" {
			fmt.Fprintf(&b, "Phone: %s\n", r.Phone)
		}
	} else {
		a.log.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("restaurant lookup failed")
	}

	items, err := a.menu.Items(ctx, restaurantID)
	if err != nil {
		a.log.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("menu lookup failed")
		return b.String()
	}
	b.WriteString("Menu:\n")
	for _, it := range items {
		fmt.Fprintf(&b, "- %s (%s) %s", it.Name, it.Category, textutil.Money(it.Price))
		if !it.Available {
			b.WriteString(", sold out")
		}
		if it.Description != "" {
			fmt.Fprintf(&b, ": %s", it.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

const systemPrompt = `You answer a drive-thru customer's question in one or two short spoken sentences.
Reply with one JSON object only.

- Use only the restaurant facts, menu and order given. Do not invent prices or items.
- category is menu, order, restaurant_info or general.
- If the answer is not in the facts, say you're not sure and offer to help with the order.`

func userPrompt(text, facts string, o *order.Order, conv *conversation.History) string {
	var b strings.Builder
	b.WriteString(facts)
	b.WriteString("\nCurrent order:\n")
	if o == nil || o.IsEmpty() {
		b.WriteString("(empty)\n")
	} else {
		fmt.Fprintf(&b, "%s\nTotal: %s\n", o.Summary(), textutil.Money(o.Total))
	}
	if t := conv.Transcript(3); t != "" {
		fmt.Fprintf(&b, "\nRecent conversation:\n%s\n", t)
	}
	fmt.Fprintf(&b, "\nCustomer asked: %q\n\nJSON schema:\n%s", text, llm.SchemaFor(modelAnswer{}))
	return b.String()
}
