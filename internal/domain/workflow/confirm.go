package workflow

import (
	"context"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

// ConfirmOrder closes the order. Archiving and finalizing are best effort:
// the customer is told the total either way and the failures are logged.
func (e *Executor) ConfirmOrder(ctx context.Context, in Input) Result {
	o, fail := e.loadOrder(ctx, TypeConfirmOrder, in.Session)
	if fail != nil {
		return *fail
	}
	if o.IsEmpty() {
		return failure(TypeConfirmOrder, OutcomeRejected, audio.NoOrderYet, "")
	}
	if o.Status != order.StatusActive {
		return finalized(TypeConfirmOrder)
	}

	detail := &Confirmation{
		OrderID:   o.ID,
		Total:     o.Total,
		ItemCount: o.ItemCount(),
		Summary:   o.Summary(),
	}

	if e.deps.Archiver != nil {
		archived := o.Clone()
		archived.Status = order.StatusConfirmed
		if err := e.deps.Archiver.Archive(ctx, archived); err != nil {
			e.log.Error().Err(err).Str("order_id", o.ID).Msg("failed to archive order")
		} else {
			detail.Archived = true
		}
	}

	if err := e.deps.Sessions.Finalize(ctx, in.Session.ID); err != nil {
		e.log.Error().Err(err).Str("session_id", in.Session.ID).Str("order_id", o.ID).Msg("failed to finalize session")
	} else {
		detail.Finalized = true
		in.Session.State = session.StateConfirmed
	}

	e.record(in.Session, command.Entry{
		Type: command.TypeConfirmOrder, Status: command.StatusSuccess, Quantity: detail.ItemCount, UserInput: in.Text,
		Metadata: map[string]string{"total": o.Total.StringFixed(2)},
	})
	e.log.Info().Str("order_id", o.ID).Str("total", o.Total.StringFixed(2)).Int("items", detail.ItemCount).
		Bool("archived", detail.Archived).Msg("order confirmed")

	res := Result{
		Workflow:     TypeConfirmOrder,
		Success:      true,
		Outcome:      OutcomeSuccess,
		Phrase:       audio.OrderConfirmed,
		OrderUpdated: detail.Finalized,
		Confirmation: detail,
		Message:      audio.Text(audio.OrderConfirmed, map[string]string{"total": textutil.Money(o.Total)}),
	}
	res.withTotal(o.Total)
	return res
}
