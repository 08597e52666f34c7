package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/extraction"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modify"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/question"
	"github.com/janhq/drivethru-server/internal/domain/removal"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/utils/platformerrors"
)

// Finalizer marks a session and its order confirmed.
type Finalizer interface {
	Finalize(ctx context.Context, sessionID string) error
}

// Dependencies are the collaborators the executors share.
type Dependencies struct {
	Orders    order.Store
	Sessions  Finalizer
	Archiver  order.Archiver
	Catalog   *menu.Catalog
	Resolver  *menu.Resolver
	Extractor *extraction.Extractor
	Modify    *modify.Parser
	Removal   *removal.Parser
	Answerer  *question.Answerer
}

// Input is one explicit instruction for a session.
type Input struct {
	Session *session.Session
	Text    string
}

// Executor runs the workflows.
type Executor struct {
	deps   Dependencies
	limits order.Limits
	log    zerolog.Logger
}

// NewExecutor creates an executor.
func NewExecutor(deps Dependencies, limits order.Limits, log zerolog.Logger) *Executor {
	return &Executor{
		deps:   deps,
		limits: limits,
		log:    log.With().Str("component", "workflow-executor").Logger(),
	}
}

// loadOrder fetches the session's order. The second return is a terminal
// result for the caller when the order cannot be used.
func (e *Executor) loadOrder(ctx context.Context, workflow Type, sess *session.Session) (*order.Order, *Result) {
	if sess.OrderID == "" {
		e.log.Error().Str("session_id", sess.ID).Str("workflow", string(workflow)).Msg("session has no order id")
		r := failure(workflow, OutcomeError, audio.ErrorMessage, "Sorry, I can't find your order. Please start again.")
		return nil, &r
	}
	o, err := e.deps.Orders.Get(ctx, sess.OrderID)
	if errors.Is(err, order.ErrOrderNotFound) {
		r := failure(workflow, OutcomeRejected, audio.NoOrderYet, "")
		return nil, &r
	}
	if err != nil {
		r := e.systemError(ctx, workflow, err, "load order")
		return nil, &r
	}
	return o, nil
}

// systemError logs err and returns the generic retry response. The detail
// is never spoken.
func (e *Executor) systemError(ctx context.Context, workflow Type, err error, action string) Result {
	perr := platformerrors.AsError(ctx, platformerrors.LayerDomain, err, fmt.Sprintf("%s: %s", workflow, action))
	platformerrors.LogError(e.log, perr)
	return failure(workflow, OutcomeError, audio.SystemErrorRetry, "")
}

// record appends to the session's command log. Only invalid enums fail,
// which is a programming error worth a log line rather than a response.
func (e *Executor) record(sess *session.Session, entry command.Entry) {
	if sess.Commands == nil {
		sess.Commands = command.NewHistory()
	}
	if _, err := sess.Commands.Add(entry); err != nil {
		e.log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to record command")
	}
}

// limitMessage explains a domain rejection of an order mutation.
func (e *Executor) limitMessage(err error, name string) (string, bool) {
	switch {
	case errors.Is(err, order.ErrQuantityOutOfRange):
		return fmt.Sprintf("I can only do between 1 and %d of the %s.", e.limits.MaxItemQuantity, name), true
	case errors.Is(err, order.ErrTooManyItems):
		return fmt.Sprintf("An order can hold up to %d items, so I couldn't add the %s.", e.limits.MaxTotalItems, name), true
	case errors.Is(err, order.ErrTooManyUniqueItems):
		return fmt.Sprintf("An order can hold up to %d different items, so I couldn't add the %s.", e.limits.MaxUniqueItems, name), true
	case errors.Is(err, order.ErrOrderFinalized):
		return "Your order is already confirmed. Please pull forward to the window.", true
	case errors.Is(err, order.ErrLineNotFound):
		return fmt.Sprintf("I don't see the %s on your order anymore.", name), true
	}
	return "", false
}

func finalized(workflow Type) Result {
	return failure(workflow, OutcomeRejected, audio.DriveToWindow,
		"Your order is already confirmed. Please pull forward to the window.")
}
