package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modify"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// ModifyItem changes the size, quantity or ingredients of one line. Changes
// are applied to a copy of the order and only saved when all of them hold.
func (e *Executor) ModifyItem(ctx context.Context, in Input) Result {
	o, fail := e.loadOrder(ctx, TypeModifyItem, in.Session)
	if fail != nil {
		return *fail
	}
	if o.IsEmpty() {
		return failure(TypeModifyItem, OutcomeRejected, audio.NoOrderYet, "")
	}
	if o.Status != order.StatusActive {
		return finalized(TypeModifyItem)
	}

	req := e.deps.Modify.Parse(ctx, in.Text, o, in.Session.Conversation, in.Session.Commands)
	if req.ClarificationNeeded {
		e.record(in.Session, command.Entry{
			Type: command.TypeModifyItem, Status: command.StatusClarificationNeeded,
			UserInput: in.Text, ResultMessage: req.ClarificationMessage,
		})
		return failure(TypeModifyItem, OutcomeClarification, audio.ModificationClarification, req.ClarificationMessage)
	}
	if !req.Success || req.TargetLineID == "" || !req.HasChange() {
		e.record(in.Session, command.Entry{
			Type: command.TypeModifyItem, Status: command.StatusFailed, UserInput: in.Text,
		})
		return failure(TypeModifyItem, OutcomeRejected, audio.ModificationError, "")
	}

	updated := o.Clone()
	line, _, ok := updated.Line(req.TargetLineID)
	if !ok {
		return failure(TypeModifyItem, OutcomeRejected, audio.ModificationError, "")
	}
	before := line.TotalPrice
	name := line.Name

	changes, rejections, err := e.applyChange(ctx, updated, line, req)
	if err != nil {
		return e.systemError(ctx, TypeModifyItem, err, "load menu item")
	}
	if len(rejections) > 0 {
		msg := strings.Join(rejections, " ")
		e.record(in.Session, command.Entry{
			Type: command.TypeModifyItem, Status: command.StatusFailed, ItemName: name, ItemID: req.TargetLineID,
			UserInput: in.Text, ResultMessage: msg,
		})
		res := failure(TypeModifyItem, OutcomeRejected, audio.CustomResponse, msg)
		res.ValidationErrors = rejections
		return res
	}

	if err := e.deps.Orders.Save(ctx, updated); err != nil {
		return e.systemError(ctx, TypeModifyItem, err, "save order")
	}

	line, _, _ = updated.Line(req.TargetLineID)
	mod := &Modification{
		LineID:         line.ID,
		Name:           name,
		Changes:        changes,
		AdditionalCost: line.TotalPrice.Sub(before),
	}
	e.record(in.Session, command.Entry{
		Type: command.TypeModifyItem, Status: command.StatusSuccess, ItemName: name, ItemID: line.ID,
		MenuItemID: line.MenuItemID, Quantity: line.Quantity, Modifiers: line.ModifierStrings(), UserInput: in.Text,
		Metadata: map[string]string{"kind": string(req.Kind), "changes": strings.Join(changes, "; ")},
	})

	res := Result{
		Workflow:     TypeModifyItem,
		Success:      true,
		Outcome:      OutcomeSuccess,
		Phrase:       audio.ItemModifiedSuccess,
		OrderUpdated: true,
		Modified:     mod,
		Message:      modifyMessage(name, changes, mod.AdditionalCost),
	}
	res.withTotal(updated.Total)
	return res
}

// applyChange mutates line inside o. Customer-facing rejections come back
// as messages; only catalog failures are errors.
func (e *Executor) applyChange(ctx context.Context, o *order.Order, line *order.LineItem, req modify.Request) ([]string, []string, error) {
	var changes, rejections []string

	needItem := req.NewSize != "" || len(req.Ingredients) > 0
	var item menu.Item
	if needItem {
		var err error
		item, err = e.deps.Catalog.Item(ctx, o.RestaurantID, line.MenuItemID)
		if err != nil {
			return nil, nil, err
		}
	}

	if req.NewSize != "" && req.NewSize != line.Size {
		line.Size = req.NewSize
		line.UnitPrice = item.PriceFor(req.NewSize)
		changes = append(changes, fmt.Sprintf("size to %s", req.NewSize))
	}

	for _, change := range req.Ingredients {
		resolved := e.deps.Resolver.ResolveModifier(ctx, change.Phrase(), item, o.RestaurantID)
		if !resolved.Usable() {
			detail := resolved.Detail
			if detail == "" {
				detail = fmt.Sprintf("I couldn't make it %s.", change.Phrase())
			}
			rejections = append(rejections, detail)
			continue
		}
		applied := order.Modifier{
			Action: resolved.Action, Ingredient: resolved.IngredientName,
			IngredientID: resolved.IngredientID, UnitCost: resolved.UnitCost,
		}
		line.Modifiers = replaceModifier(line.Modifiers, applied)
		changes = append(changes, applied.String())
	}

	if req.NewQuantity > 0 && req.NewQuantity != line.Quantity {
		if err := o.SetQuantity(line.ID, req.NewQuantity, e.limits); err != nil {
			msg, ok := e.limitMessage(err, line.Name)
			if !ok {
				return nil, nil, err
			}
			rejections = append(rejections, msg)
		} else {
			changes = append(changes, fmt.Sprintf("quantity to %d", req.NewQuantity))
		}
	}

	if len(changes) == 0 && len(rejections) == 0 {
		rejections = append(rejections, fmt.Sprintf("Your %s is already like that.", line.Name))
	}
	o.Recalculate()
	return changes, rejections, nil
}

// replaceModifier drops any modifier on the same ingredient, or the same
// cooking instruction, before appending m.
func replaceModifier(mods []order.Modifier, m order.Modifier) []order.Modifier {
	out := make([]order.Modifier, 0, len(mods)+1)
	for _, existing := range mods {
		sameIngredient := m.IngredientID != 0 && existing.IngredientID == m.IngredientID
		sameCooking := m.Action.IsCooking() && existing.Action.IsCooking()
		if sameIngredient || sameCooking {
			continue
		}
		out = append(out, existing)
	}
	return append(out, m)
}

func modifyMessage(name string, changes []string, extra decimal.Decimal) string {
	msg := fmt.Sprintf("Updated your %s: %s.", name, textutil.JoinList(changes, "and"))
	if extra.IsPositive() {
		msg += fmt.Sprintf(" That adds %s.", textutil.Money(extra))
	}
	return msg + " Would you like anything else?"
}
