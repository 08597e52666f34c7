// Package contextres rewrites utterances that lean on earlier turns
// ("take that off", "I'll take two") into explicit text.
package contextres

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/order"
)

// Status is the outcome class of a resolution.
type Status string

const (
	StatusSuccess             Status = "SUCCESS"
	StatusClarificationNeeded Status = "CLARIFICATION_NEEDED"
	StatusUnresolvable        Status = "UNRESOLVABLE"
)

// Source records which tier produced a result.
type Source string

const (
	SourceFastPath   Source = "fast_path"
	SourceAntecedent Source = "antecedent"
	SourceModel      Source = "model"
	SourceFallback   Source = "fallback"
)

const (
	fastPathConf = 0.98
	fallbackConf = 0.95
	summaryTurns = 3
)

const (
	defaultClarification = "Sorry, which item do you mean?"
	defaultRestate       = "Sorry, I didn't quite get that. Could you tell me your whole request again?"
)

// Result is the resolver's verdict.
type Result struct {
	Status               Status
	ResolvedText         string
	ClarificationMessage string
	Confidence           float64
	Rationale            string
	Source               Source
}

// Bands maps confidence to status: at or above Success is SUCCESS, at or
// above Clarify is CLARIFICATION_NEEDED, anything lower is UNRESOLVABLE.
type Bands struct {
	Success float64
	Clarify float64
}

// DefaultBands are the standard 0.8 / 0.3 bands.
var DefaultBands = Bands{Success: 0.8, Clarify: 0.3}

// StatusFor classifies a confidence.
func (b Bands) StatusFor(confidence float64) Status {
	switch {
	case confidence >= b.Success:
		return StatusSuccess
	case confidence >= b.Clarify:
		return StatusClarificationNeeded
	default:
		return StatusUnresolvable
	}
}

// ShouldUse reports whether a result is trustworthy enough to replace the
// original text. threshold is independent of the bands.
func ShouldUse(r Result, threshold float64) bool {
	return r.Status == StatusSuccess && r.ResolvedText != "" && r.Confidence >= threshold
}

// Request carries the utterance and everything it may refer to.
type Request struct {
	Text         string
	Conversation *conversation.History
	Commands     *command.History
	Order        *order.Order
	Hints        map[string]bool
}

type llmResolution struct {
	Status               string  `json:"status" validate:"required" jsonschema:"enum=SUCCESS,enum=CLARIFICATION_NEEDED,enum=UNRESOLVABLE"`
	ResolvedText         string  `json:"resolved_text,omitempty"`
	ClarificationMessage string  `json:"clarification_message,omitempty"`
	Confidence           float64 `json:"confidence" validate:"gte=0,lte=1" jsonschema:"minimum=0,maximum=1"`
	Rationale            string  `json:"rationale,omitempty"`
}

// Resolver resolves context in three tiers: an explicit-text fast path, a
// deterministic antecedent binder for order edits, and the language model
// for everything else.
type Resolver struct {
	llm       llm.Capability
	bands     Bands
	threshold float64
	log       zerolog.Logger
}

// NewResolver creates a resolver.
func NewResolver(capability llm.Capability, bands Bands, threshold float64, log zerolog.Logger) *Resolver {
	return &Resolver{
		llm:       capability,
		bands:     bands,
		threshold: threshold,
		log:       log.With().Str("component", "context-resolver").Logger(),
	}
}

// ShouldUse applies the configured threshold.
func (r *Resolver) ShouldUse(res Result) bool {
	return ShouldUse(res, r.threshold)
}

// Resolve never returns an error. When the model is unavailable or its
// answer unreadable the text passes through as if it were explicit.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	cues := DetectCues(req.Text, req.Hints)
	if cues.Explicit() {
		return Result{
			Status:       StatusSuccess,
			ResolvedText: req.Text,
			Confidence:   fastPathConf,
			Rationale:    "input already explicit",
			Source:       SourceFastPath,
		}
	}

	if res, ok := resolveAntecedent(req.Text, cues, req); ok {
		r.log.Debug().Str("rationale", res.Rationale).Msg("antecedent resolved deterministically")
		return res
	}

	out, err := llm.GenerateJSON[llmResolution](ctx, r.llm, llm.Prompt{
		Stage:     llm.StageContext,
		System:    systemPrompt,
		User:      userPrompt(req),
		MaxTokens: 300,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("context resolution failed, passing input through")
		return Result{
			Status:       StatusSuccess,
			ResolvedText: req.Text,
			Confidence:   fallbackConf,
			Rationale:    "resolution unavailable: " + err.Error(),
			Source:       SourceFallback,
		}
	}

	res := Result{
		Status:               r.bands.StatusFor(out.Confidence),
		ResolvedText:         strings.TrimSpace(out.ResolvedText),
		ClarificationMessage: strings.TrimSpace(out.ClarificationMessage),
		Confidence:           out.Confidence,
		Rationale:            out.Rationale,
		Source:               SourceModel,
	}
	switch res.Status {
	case StatusSuccess:
		if res.ResolvedText == "" {
			res.ResolvedText = req.Text
		}
		res.ClarificationMessage = ""
	case StatusClarificationNeeded:
		res.ResolvedText = ""
		if res.ClarificationMessage == "" {
			res.ClarificationMessage = defaultClarification
		}
	case StatusUnresolvable:
		res.ResolvedText = ""
		if res.ClarificationMessage == "" {
			res.ClarificationMessage = defaultRestate
		}
	}
	if Status(out.Status) != res.Status {
		r.log.Debug().
			Str("model_status", out.Status).
			Str("status", string(res.Status)).
			Float64("confidence", out.Confidence).
			Msg("status re-derived from confidence band")
	}
	return res
}

// Summary renders the context the model sees: recent turns, the current
// order and the recent commands.
func Summary(req Request) string {
	var parts []string
	if t := req.Conversation.Transcript(summaryTurns); t != "" {
		parts = append(parts, "Recent conversation:\n"+t)
	}
	if req.Order != nil && !req.Order.IsEmpty() {
		lines := make([]string, 0, len(req.Order.Items))
		for _, l := range req.Order.Items {
			lines = append(lines, fmt.Sprintf("%dx %s", l.Quantity, l.Name))
		}
		parts = append(parts, "Current order: "+strings.Join(lines, ", "))
	}
	if req.Commands != nil {
		if recent := req.Commands.Recent(summaryTurns); len(recent) > 0 {
			lines := make([]string, 0, len(recent))
			for _, c := range recent {
				lines = append(lines, fmt.Sprintf("%s %s x%d (%s)", c.Type, c.ItemName, c.Quantity, c.Status))
			}
			parts = append(parts, "Recent commands:\n"+strings.Join(lines, "\n"))
		}
	}
	if len(parts) == 0 {
		return "(no prior context)"
	}
	return strings.Join(parts, "\n\n")
}

const systemPrompt = `You rewrite a drive-thru customer's utterance into explicit text using the context provided.
Reply with one JSON object only.

Rules:
- Replace pronouns and vague references ("it", "that", "those", "the same", "another") with item names from the context.
- Plural references ("those", "them") only match items ordered in quantity above one; singular ones only match single items.
- Prefer the most recent change. "Scratch that" or "undo that" refers to the last command.
- Never expand one pronoun into several different items unless the customer says "both", "all" or lists them.
- A quantity in the previous turn supports, but does not decide, which item is meant.
- Confidence 0.8 to 1.0: status SUCCESS with resolved_text.
- Confidence 0.3 to 0.79: status CLARIFICATION_NEEDED with a short, specific question in clarification_message.
- Confidence below 0.3: status UNRESOLVABLE with clarification_message asking the customer to restate.`

func userPrompt(req Request) string {
	return fmt.Sprintf("Context:\n%s\n\nCustomer said: %q\n\nJSON schema:\n%s",
		Summary(req), req.Text, llm.SchemaFor(llmResolution{}))
}
