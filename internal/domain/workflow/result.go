// Package workflow holds one executor per intent. Each applies a validated
// change to the session's order and returns the same Result envelope, so
// the voice channel always has something to say.
package workflow

import (
	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/audio"
)

// Type tags the workflow that produced a result.
type Type string

const (
	TypeAddItem       Type = "add_item"
	TypeRemoveItem    Type = "remove_item"
	TypeModifyItem    Type = "modify_item"
	TypeClearOrder    Type = "clear_order"
	TypeConfirmOrder  Type = "confirm_order"
	TypeQuestion      Type = "question"
	TypeClarification Type = "clarification"
	TypeUnknown       Type = "unknown"
)

// Outcome distinguishes the branches a caller must handle.
type Outcome string

const (
	OutcomeSuccess       Outcome = "success"
	OutcomePartial       Outcome = "partial"
	OutcomeClarification Outcome = "clarification"
	OutcomeRejected      Outcome = "rejected"
	OutcomeError         Outcome = "error"
)

// LineChange describes a line that was added or removed.
type LineChange struct {
	LineID    string   `json:"line_id"`
	Name      string   `json:"name"`
	Quantity  int      `json:"quantity"`
	Size      string   `json:"size,omitempty"`
	Modifiers []string `json:"modifiers,omitempty"`
	Merged    bool     `json:"merged,omitempty"`
	Partial   bool     `json:"partial,omitempty"`
}

// Modification describes an applied change to one line.
type Modification struct {
	LineID         string          `json:"line_id"`
	Name           string          `json:"name"`
	Changes        []string        `json:"changes"`
	AdditionalCost decimal.Decimal `json:"additional_cost"`
}

// Confirmation describes a confirmed order.
type Confirmation struct {
	OrderID   string          `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
	Summary   string          `json:"summary"`
	Archived  bool            `json:"archived"`
	Finalized bool            `json:"finalized"`
}

// Result is the envelope every executor returns.
type Result struct {
	Success          bool             `json:"success"`
	Message          string           `json:"message"`
	Workflow         Type             `json:"workflow_type"`
	Phrase           audio.PhraseType `json:"audio_phrase_type"`
	OrderUpdated     bool             `json:"order_updated"`
	ValidationErrors []string         `json:"validation_errors,omitempty"`
	Total            *decimal.Decimal `json:"total,omitempty"`
	Outcome          Outcome          `json:"outcome"`

	Added            []LineChange  `json:"added_items,omitempty"`
	Removed          []LineChange  `json:"removed_items,omitempty"`
	Modified         *Modification `json:"modification,omitempty"`
	Confirmation     *Confirmation `json:"confirmation,omitempty"`
	QuestionCategory string        `json:"question_category,omitempty"`
}

func (r *Result) withTotal(total decimal.Decimal) {
	t := total
	r.Total = &t
}

func failure(workflow Type, outcome Outcome, phrase audio.PhraseType, message string) Result {
	if message == "" {
		message = audio.Text(phrase, nil)
	}
	return Result{
		Workflow: workflow,
		Outcome:  outcome,
		Phrase:   phrase,
		Message:  message,
	}
}

// Clarification answers with a question produced upstream, such as an
// unresolved reference.
func Clarification(message string) Result {
	if message == "" {
		message = audio.Text(audio.ClarificationQuestion, nil)
	}
	return Result{
		Workflow: TypeClarification,
		Outcome:  OutcomeClarification,
		Phrase:   audio.LLMGenerated,
		Message:  message,
	}
}

// Unknown answers an utterance no workflow could take.
func Unknown() Result {
	return failure(TypeUnknown, OutcomeRejected, audio.DidntUnderstand, "")
}
