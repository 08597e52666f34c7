package workflow

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/order"
)

// ClearOrder empties the order. The command history is kept so later
// references still have something to resolve against.
func (e *Executor) ClearOrder(ctx context.Context, in Input) Result {
	if in.Session.OrderID == "" {
		e.log.Error().Str("session_id", in.Session.ID).Msg("order id not found")
		return failure(TypeClearOrder, OutcomeError, audio.ErrorMessage, "Sorry, I can't find your order. Please start again.")
	}
	o, err := e.deps.Orders.Get(ctx, in.Session.OrderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		return failure(TypeClearOrder, OutcomeRejected, audio.NoOrderYet, "")
	}
	if err != nil {
		return e.systemError(ctx, TypeClearOrder, err, "load order")
	}
	if o.Status != order.StatusActive {
		return finalized(TypeClearOrder)
	}
	if o.IsEmpty() {
		return failure(TypeClearOrder, OutcomeRejected, audio.OrderAlreadyEmpty, "")
	}

	count := o.ItemCount()
	if err := e.deps.Orders.Clear(ctx, o.ID); err != nil {
		return e.systemError(ctx, TypeClearOrder, err, "clear order")
	}
	e.record(in.Session, command.Entry{
		Type: command.TypeClearOrder, Status: command.StatusSuccess, Quantity: count, UserInput: in.Text,
	})

	res := Result{
		Workflow:     TypeClearOrder,
		Success:      true,
		Outcome:      OutcomeSuccess,
		Phrase:       audio.OrderClearedSuccess,
		OrderUpdated: true,
		Message:      audio.Text(audio.OrderClearedSuccess, nil),
	}
	res.withTotal(decimal.Zero)
	return res
}
