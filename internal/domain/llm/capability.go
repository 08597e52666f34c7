// Package llm defines the narrow text-generation capability the pipeline
// stages depend on, plus helpers to decode its structured output.
package llm

import (
	"context"
	"errors"
)

// Stage names the pipeline stage issuing a prompt. Providers use it for
// metrics and logging only.
type Stage string

const (
	StageNoiseFilter Stage = "noise_filter"
	StageIntent      Stage = "intent"
	StageContext     Stage = "context_resolution"
	StageExtraction  Stage = "item_extraction"
	StageModify      Stage = "modify_item"
	StageRemove      Stage = "remove_item"
	StageQuestion    Stage = "question_answer"
)

// Prompt is one generation request.
type Prompt struct {
	Stage     Stage
	System    string
	User      string
	JSON      bool // ask the provider for a single JSON object
	MaxTokens int
}

// Capability turns a prompt into text. Implementations must honour ctx.
type Capability interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
}

// CapabilityFunc adapts a function to Capability.
type CapabilityFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f CapabilityFunc) Generate(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrEmptyOutput is returned when the model produced no usable text.
	ErrEmptyOutput = errors.New("llm returned empty output")
	// ErrNoJSONObject is returned when no JSON object can be located in the output.
	ErrNoJSONObject = errors.New("llm output contains no JSON object")
)
