package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// RemoveItem removes the lines the customer identified with certainty and
// asks about the rest.
func (e *Executor) RemoveItem(ctx context.Context, in Input) Result {
	o, fail := e.loadOrder(ctx, TypeRemoveItem, in.Session)
	if fail != nil {
		return *fail
	}
	if o.IsEmpty() {
		return failure(TypeRemoveItem, OutcomeRejected, audio.OrderAlreadyEmpty, "")
	}
	if o.Status != order.StatusActive {
		return finalized(TypeRemoveItem)
	}

	req := e.deps.Removal.Parse(ctx, in.Text, o, in.Session.Conversation, in.Session.Commands)
	if !req.Success {
		e.record(in.Session, command.Entry{
			Type: command.TypeRemoveItem, Status: command.StatusClarificationNeeded,
			UserInput: in.Text, ResultMessage: req.ClarificationMessage,
		})
		return failure(TypeRemoveItem, OutcomeClarification, audio.ItemRemoveClarification, req.ClarificationMessage)
	}

	var (
		removed    []LineChange
		entries    []command.Entry
		validation []string
	)
	for _, t := range req.Targets {
		line, _, ok := o.Line(t.LineID)
		if !ok {
			msg, _ := e.limitMessage(order.ErrLineNotFound, t.Name)
			validation = append(validation, msg)
			continue
		}
		change := LineChange{LineID: line.ID, Name: line.Name, Size: string(line.Size), Modifiers: line.ModifierStrings()}
		if t.Quantity > 0 {
			change.Quantity = t.Quantity
			change.Partial = true
			if _, err := o.DecrementLine(t.LineID, t.Quantity); err != nil {
				return e.systemError(ctx, TypeRemoveItem, err, "decrement line")
			}
		} else {
			change.Quantity = line.Quantity
			if _, err := o.RemoveLine(t.LineID); err != nil {
				return e.systemError(ctx, TypeRemoveItem, err, "remove line")
			}
		}
		removed = append(removed, change)
		entries = append(entries, command.Entry{
			Type: command.TypeRemoveItem, Status: command.StatusSuccess, ItemName: change.Name, ItemID: change.LineID,
			Quantity: change.Quantity, Modifiers: change.Modifiers, UserInput: in.Text,
			Metadata: map[string]string{"partial": fmt.Sprint(change.Partial)},
		})
	}

	if len(removed) > 0 {
		if err := e.deps.Orders.Save(ctx, o); err != nil {
			return e.systemError(ctx, TypeRemoveItem, err, "save order")
		}
	}

	var notes []string
	for _, name := range req.NotFound {
		notes = append(notes, fmt.Sprintf("I don't see %s on your order.", name))
		entries = append(entries, command.Entry{
			Type: command.TypeRemoveItem, Status: command.StatusFailed, ItemName: name, UserInput: in.Text,
			ResultMessage: "not on order",
		})
	}
	if req.ClarificationNeeded {
		notes = append(notes, req.ClarificationMessage)
		entries = append(entries, command.Entry{
			Type: command.TypeRemoveItem, Status: command.StatusClarificationNeeded, UserInput: in.Text,
			ResultMessage: req.ClarificationMessage,
		})
	}
	for _, entry := range entries {
		e.record(in.Session, entry)
	}

	res := Result{
		Workflow:         TypeRemoveItem,
		Success:          len(removed) > 0,
		OrderUpdated:     len(removed) > 0,
		Removed:          removed,
		ValidationErrors: validation,
		Message:          removeMessage(removed, validation, notes, req.ClarificationNeeded),
	}
	switch {
	case len(removed) > 0 && len(notes) == 0:
		res.Outcome = OutcomeSuccess
		res.Phrase = audio.ItemRemovedSuccess
	case len(removed) > 0:
		res.Outcome = OutcomePartial
		res.Phrase = audio.CustomResponse
	case req.ClarificationNeeded:
		res.Outcome = OutcomeClarification
		res.Phrase = audio.ItemRemoveClarification
	case len(req.NotFound) > 0:
		res.Outcome = OutcomeRejected
		res.Phrase = audio.ItemNotFound
	default:
		res.Outcome = OutcomeRejected
		res.Phrase = audio.ItemRemoveError
		if res.Message == "" {
			res.Message = audio.Text(audio.ItemRemoveError, nil)
		}
	}
	if res.OrderUpdated {
		res.withTotal(o.Total)
	}
	return res
}

func removeMessage(removed []LineChange, validation, notes []string, asking bool) string {
	var parts []string
	if len(removed) > 0 {
		names := make([]string, 0, len(removed))
		for _, r := range removed {
			if r.Partial {
				names = append(names, fmt.Sprintf("%d of the %s", r.Quantity, r.Name))
				continue
			}
			names = append(names, "the "+textutil.QuantityName(r.Name, r.Quantity))
		}
		parts = append(parts, "Removed "+textutil.JoinList(names, "and")+".")
	}
	parts = append(parts, validation...)
	parts = append(parts, notes...)
	if len(removed) > 0 && !asking {
		parts = append(parts, "Would you like anything else?")
	}
	return strings.Join(parts, " ")
}
