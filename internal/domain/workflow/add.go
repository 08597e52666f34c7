package workflow

import (
	"context"
	"strings"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/extraction"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/idgen"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// AddItem extracts the requested items, resolves them against the menu and
// adds every one that resolved cleanly. Items that need a decision from the
// customer are asked about without holding back their siblings.
func (e *Executor) AddItem(ctx context.Context, in Input) Result {
	o, fail := e.loadOrder(ctx, TypeAddItem, in.Session)
	if fail != nil {
		return *fail
	}
	if o.Status != order.StatusActive {
		return finalized(TypeAddItem)
	}

	extracted := e.deps.Extractor.Extract(ctx, in.Text, in.Session.Conversation)
	if !extracted.Success {
		msg := strings.Join(extracted.ClarificationQuestions, " ")
		e.record(in.Session, command.Entry{
			Type: command.TypeAddItem, Status: command.StatusClarificationNeeded,
			UserInput: in.Text, ResultMessage: msg,
		})
		return failure(TypeAddItem, OutcomeClarification, audio.ItemAddClarification, msg)
	}

	// doubtful items are asked about instead of guessed
	var questions []string
	confident := extracted
	confident.Items = nil
	for _, it := range extracted.Items {
		if extracted.NeedsClarification && it.Confidence < extraction.LowConfidence {
			continue
		}
		confident.Items = append(confident.Items, it)
	}
	if len(confident.Items) < len(extracted.Items) {
		questions = append(questions, extracted.ClarificationQuestions...)
	}

	resolution := e.deps.Resolver.Resolve(ctx, confident.Requests(), o.RestaurantID)

	var (
		added        []LineChange
		entries      []command.Entry
		validation   []string
		unavailable  int
		failedLookup int
	)
	for _, item := range resolution.Items {
		switch item.Status {
		case menu.ItemAmbiguous:
			questions = append(questions, item.Message)
			entries = append(entries, command.Entry{
				Type: command.TypeAddItem, Status: command.StatusClarificationNeeded,
				ItemName: item.Request.Name, Quantity: item.Quantity, UserInput: in.Text, ResultMessage: item.Message,
			})
			continue
		case menu.ItemUnavailable:
			unavailable++
			questions = append(questions, item.Message)
			entries = append(entries, command.Entry{
				Type: command.TypeAddItem, Status: command.StatusFailed,
				ItemName: item.Request.Name, Quantity: item.Quantity, UserInput: in.Text, ResultMessage: item.Message,
			})
			continue
		case menu.ItemFailed:
			failedLookup++
			continue
		}

		line := order.LineItem{
			ID:                  idgen.NewSortableID("line"),
			MenuItemID:          item.Item.ID,
			Name:                item.Item.Name,
			Quantity:            item.Quantity,
			Size:                item.Size,
			UnitPrice:           item.UnitPrice,
			SpecialInstructions: item.Request.SpecialInstructions,
		}
		for _, m := range item.Modifiers {
			if m.Usable() {
				line.Modifiers = append(line.Modifiers, order.Modifier{
					Action: m.Action, Ingredient: m.IngredientName, IngredientID: m.IngredientID, UnitCost: m.UnitCost,
				})
			}
		}
		validation = append(validation, item.ValidationErrors()...)

		stored, merged, err := o.AddLine(line, e.limits)
		if err != nil {
			msg, ok := e.limitMessage(err, item.Item.Name)
			if !ok {
				return e.systemError(ctx, TypeAddItem, err, "add line")
			}
			validation = append(validation, msg)
			entries = append(entries, command.Entry{
				Type: command.TypeAddItem, Status: command.StatusFailed, ItemName: item.Item.Name,
				MenuItemID: item.Item.ID, Quantity: item.Quantity, UserInput: in.Text, ResultMessage: msg,
			})
			continue
		}
		added = append(added, LineChange{
			LineID: stored.ID, Name: stored.Name, Quantity: line.Quantity, Size: string(stored.Size),
			Modifiers: stored.ModifierStrings(), Merged: merged,
		})
		entries = append(entries, command.Entry{
			Type: command.TypeAddItem, Status: command.StatusSuccess, ItemName: stored.Name, ItemID: stored.ID,
			MenuItemID: stored.MenuItemID, Quantity: line.Quantity, Modifiers: stored.ModifierStrings(), UserInput: in.Text,
		})
	}

	if len(added) > 0 {
		if err := e.deps.Orders.Save(ctx, o); err != nil {
			return e.systemError(ctx, TypeAddItem, err, "save order")
		}
	}
	for _, entry := range entries {
		e.record(in.Session, entry)
	}

	if len(added) == 0 && len(questions) == 0 && len(validation) == 0 && failedLookup > 0 {
		return failure(TypeAddItem, OutcomeError, audio.SystemErrorRetry, "")
	}

	res := Result{
		Workflow:         TypeAddItem,
		Success:          len(added) > 0,
		OrderUpdated:     len(added) > 0,
		Added:            added,
		ValidationErrors: validation,
	}
	if failedLookup > 0 {
		questions = append(questions, "I couldn't look up part of your order, could you repeat the rest?")
	}
	res.Message = addMessage(added, validation, questions)

	switch {
	case len(added) > 0 && len(questions) == 0:
		res.Outcome = OutcomeSuccess
		res.Phrase = audio.ItemAddedSuccess
		if len(validation) > 0 {
			res.Phrase = audio.CustomResponse
		}
	case len(added) > 0:
		res.Outcome = OutcomePartial
		res.Phrase = audio.CustomResponse
	case len(questions) > 0 && unavailable == len(questions):
		res.Outcome = OutcomeRejected
		res.Phrase = audio.ItemUnavailable
	case len(questions) > 0:
		res.Outcome = OutcomeClarification
		res.Phrase = audio.ItemAddClarification
	default:
		res.Outcome = OutcomeRejected
		res.Phrase = audio.ItemAddError
		if res.Message == "" {
			res.Message = audio.Text(audio.ItemAddError, nil)
		}
	}
	if res.OrderUpdated {
		res.withTotal(o.Total)
	}
	return res
}

func addMessage(added []LineChange, validation, questions []string) string {
	var parts []string
	if len(added) > 0 {
		names := make([]string, 0, len(added))
		for _, a := range added {
			names = append(names, describeLine(a))
		}
		parts = append(parts, "Added "+textutil.JoinList(names, "and")+" to your order.")
	}
	parts = append(parts, validation...)
	parts = append(parts, questions...)
	if len(added) > 0 && len(questions) == 0 {
		parts = append(parts, "Would you like anything else?")
	}
	return strings.Join(parts, " ")
}

// describeLine renders "2 large Nebula Fries with no onions".
func describeLine(c LineChange) string {
	name := c.Name
	if c.Size != "" && c.Size != string(menu.SizeRegular) {
		name = c.Size + " " + name
	}
	s := textutil.QuantityName(name, c.Quantity)
	if c.Quantity <= 1 {
		article := "a "
		if strings.ContainsRune("aeiouAEIOU", rune(name[0])) {
			article = "an "
		}
		s = article + name
	}
	if len(c.Modifiers) > 0 {
		s += " with " + textutil.JoinList(c.Modifiers, "and")
	}
	return s
}
