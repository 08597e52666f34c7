// Package pipeline runs one customer utterance through the conversation
// stages: noise filter, intent classification, context resolution and the
// workflow executor for the intent.
package pipeline

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/contextres"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/intent"
	"github.com/janhq/drivethru-server/internal/domain/noise"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/domain/workflow"
)

// Stage names reported to the Observer.
const (
	StageNoise    = "noise_filter"
	StageIntent   = "intent"
	StageContext  = "context_resolution"
	StageWorkflow = "workflow"
)

// Sessions is the part of the session service the pipeline needs.
type Sessions interface {
	GetSession(ctx context.Context, id string) (*session.Session, error)
	Touch(ctx context.Context, s *session.Session) error
}

// Vocabulary supplies the restaurant's noun hints.
type Vocabulary interface {
	NounHints(ctx context.Context, restaurantID int64) (map[string]bool, error)
}

// Observer is told about stage timings and finished turns.
type Observer interface {
	StartStage(ctx context.Context, stage string) (context.Context, func(outcome string))
	ContextResolved(status contextres.Status, used bool)
	TurnCompleted(in intent.Intent, res workflow.Result, elapsed time.Duration)
}

// Redactor renders customer speech safe for logs.
type Redactor interface {
	Redact(text string) string
}

// Turn is everything one utterance produced.
type Turn struct {
	SessionID   string                `json:"session_id"`
	Utterance   string                `json:"utterance"`
	Cleaned     string                `json:"cleaned"`
	Intent      intent.Classification `json:"intent"`
	Context     *contextres.Result    `json:"context,omitempty"`
	Instruction string                `json:"instruction"`
	Result      workflow.Result       `json:"result"`
	Order       *order.Order          `json:"order,omitempty"`
	Elapsed     time.Duration         `json:"elapsed"`
}

// Config holds the collaborators of a Pipeline.
type Config struct {
	Sessions   Sessions
	Orders     order.Store
	Vocabulary Vocabulary
	Noise      *noise.Filter
	Classifier *intent.Classifier
	Context    *contextres.Resolver
	Executor   *workflow.Executor
	Observer   Observer
	Redactor   Redactor
}

// Pipeline processes utterances. It holds no per-session state; callers
// submit a session's utterances one at a time.
type Pipeline struct {
	cfg Config
	now func() time.Time
	log zerolog.Logger
}

// New creates a pipeline. Observer and Redactor may be nil.
func New(cfg Config, log zerolog.Logger) *Pipeline {
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if cfg.Redactor == nil {
		cfg.Redactor = dropRedactor{}
	}
	return &Pipeline{
		cfg: cfg,
		now: time.Now,
		log: log.With().Str("component", "pipeline").Logger(),
	}
}

// Process runs one utterance. The only errors are failures to load the
// session; everything after that ends in a spoken result.
func (p *Pipeline) Process(ctx context.Context, sessionID, utterance string) (*Turn, error) {
	started := p.now()
	sess, err := p.cfg.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Conversation == nil {
		sess.Conversation = conversation.NewHistory(sess.ID)
	}

	turn := &Turn{SessionID: sess.ID, Utterance: utterance}
	current := p.currentOrder(ctx, sess)

	hints, err := p.cfg.Vocabulary.NounHints(ctx, sess.RestaurantID)
	if err != nil {
		p.log.Warn().Err(err).Int64("restaurant_id", sess.RestaurantID).Msg("noun hints unavailable")
	}

	stageCtx, end := p.cfg.Observer.StartStage(ctx, StageNoise)
	turn.Cleaned = p.cfg.Noise.Filter(stageCtx, utterance, hints)
	end(outcomeOf(turn.Cleaned != utterance, "filtered", "kept"))

	stageCtx, end = p.cfg.Observer.StartStage(ctx, StageIntent)
	turn.Intent = p.cfg.Classifier.Classify(stageCtx, turn.Cleaned, sess.Conversation, current)
	end(string(turn.Intent.Intent))

	turn.Instruction = turn.Cleaned
	var clarify *workflow.Result
	if contextres.CheckEligibility(turn.Cleaned, turn.Intent.Intent, hints) {
		stageCtx, end = p.cfg.Observer.StartStage(ctx, StageContext)
		res := p.cfg.Context.Resolve(stageCtx, contextres.Request{
			Text:         turn.Cleaned,
			Conversation: sess.Conversation,
			Commands:     sess.Commands,
			Order:        current,
			Hints:        hints,
		})
		end(string(res.Status))
		turn.Context = &res

		used := false
		switch res.Status {
		case contextres.StatusClarificationNeeded, contextres.StatusUnresolvable:
			r := workflow.Clarification(res.ClarificationMessage)
			clarify = &r
		default:
			if p.cfg.Context.ShouldUse(res) && res.ResolvedText != "" {
				turn.Instruction = res.ResolvedText
				used = true
			}
		}
		p.cfg.Observer.ContextResolved(res.Status, used)
	}

	if clarify != nil {
		turn.Result = *clarify
	} else {
		stageCtx, end = p.cfg.Observer.StartStage(ctx, StageWorkflow)
		turn.Result = p.dispatch(stageCtx, turn.Intent.Intent, workflow.Input{Session: sess, Text: turn.Instruction})
		end(string(turn.Result.Outcome))
	}

	p.remember(ctx, sess, utterance, turn.Result.Message)
	turn.Order = p.currentOrder(ctx, sess)
	turn.Elapsed = p.now().Sub(started)

	p.cfg.Observer.TurnCompleted(turn.Intent.Intent, turn.Result, turn.Elapsed)
	p.log.Info().
		Str("session_id", sess.ID).
		Str("utterance", p.cfg.Redactor.Redact(utterance)).
		Str("intent", string(turn.Intent.Intent)).
		Float64("confidence", turn.Intent.Confidence).
		Str("workflow", string(turn.Result.Workflow)).
		Str("outcome", string(turn.Result.Outcome)).
		Dur("elapsed", turn.Elapsed).
		Msg("utterance processed")
	return turn, nil
}

func (p *Pipeline) dispatch(ctx context.Context, in intent.Intent, input workflow.Input) workflow.Result {
	exec := p.cfg.Executor
	switch in {
	case intent.AddItem:
		return exec.AddItem(ctx, input)
	case intent.RemoveItem:
		return exec.RemoveItem(ctx, input)
	case intent.ModifyItem:
		return exec.ModifyItem(ctx, input)
	case intent.ClearOrder:
		return exec.ClearOrder(ctx, input)
	case intent.ConfirmOrder:
		return exec.ConfirmOrder(ctx, input)
	case intent.Question:
		return exec.Question(ctx, input)
	}
	return workflow.Unknown()
}

// currentOrder is context for the classifier and resolver; a missing order
// is not fatal here, the executors report it.
func (p *Pipeline) currentOrder(ctx context.Context, sess *session.Session) *order.Order {
	if sess.OrderID == "" {
		return nil
	}
	o, err := p.cfg.Orders.Get(ctx, sess.OrderID)
	if err != nil {
		p.log.Warn().Err(err).Str("order_id", sess.OrderID).Msg("order unavailable for context")
		return nil
	}
	return o
}

// remember appends both sides of the exchange and persists the session.
func (p *Pipeline) remember(ctx context.Context, sess *session.Session, utterance, reply string) {
	if _, err := sess.Conversation.Append(conversation.RoleUser, utterance); err != nil {
		p.log.Debug().Err(err).Msg("user turn not recorded")
	}
	if _, err := sess.Conversation.Append(conversation.RoleAssistant, reply); err != nil {
		p.log.Debug().Err(err).Msg("assistant turn not recorded")
	}
	if err := p.cfg.Sessions.Touch(ctx, sess); err != nil {
		p.log.Error().Err(err).Str("session_id", sess.ID).Msg("failed to save session")
	}
}

func outcomeOf(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

type nopObserver struct{}

func (nopObserver) StartStage(ctx context.Context, _ string) (context.Context, func(string)) {
	return ctx, func(string) {}
}
func (nopObserver) ContextResolved(contextres.Status, bool) {}
func (nopObserver) TurnCompleted(intent.Intent, workflow.Result, time.Duration) {}

type dropRedactor struct{}

func (dropRedactor) Redact(string) string { return "[redacted]" }
