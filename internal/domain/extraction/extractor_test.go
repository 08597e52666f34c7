package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/llm/llmtest"
)

func TestExtractCompound(t *testing.T) {
	stub := llmtest.NewStub().Respond(llm.StageExtraction, `{
		"success": true, "confidence": 0.9,
		"extracted_items": [
			{"item_name": "burgers", "quantity": 2, "modifiers": ["hold the pickles", "  "], "confidence": 0.9},
			{"item_name": "fries", "quantity": 3, "size": " Large ", "confidence": 0.95},
			{"item_name": "cola", "quantity": 0, "modifiers": ["easy on the ice"], "confidence": 0.9}
		]
	}`)

	res := NewExtractor(stub, zerolog.Nop()).Extract(context.Background(), "two burgers no pickles, three large fries and a cola", nil)

	require.True(t, res.Success)
	require.Len(t, res.Items, 3)
	assert.Equal(t, []string{"no pickles"}, res.Items[0].Modifiers)
	assert.Equal(t, "large", res.Items[1].Size)
	assert.Equal(t, 1, res.Items[2].Quantity)
	assert.Equal(t, []string{"light ice"}, res.Items[2].Modifiers)

	reqs := res.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "fries", reqs[1].Name)
	assert.Equal(t, 3, reqs[1].Quantity)
	assert.Empty(t, res.LowConfidenceItems())
}

func TestExtractLowConfidence(t *testing.T) {
	stub := llmtest.NewStub().Respond(llm.StageExtraction,
		`{"success": true, "confidence": 0.6, "extracted_items": [{"item_name": "special", "quantity": 1, "confidence": 0.6}],
		  "needs_clarification": true, "clarification_questions": ["Which special would you like?"]}`)

	res := NewExtractor(stub, zerolog.Nop()).Extract(context.Background(), "I'll have the special", nil)

	assert.True(t, res.Success)
	assert.True(t, res.NeedsClarification)
	assert.Len(t, res.LowConfidenceItems(), 1)
}

func TestExtractFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		stub *llmtest.Stub
	}{
		{"capability error", llmtest.NewStub().Fail(llm.StageExtraction, errors.New("boom"))},
		{"no json", llmtest.NewStub().Respond(llm.StageExtraction, "a burger I think")},
		{"no items", llmtest.NewStub().Respond(llm.StageExtraction, `{"success": true, "confidence": 0.9, "extracted_items": []}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewExtractor(tt.stub, zerolog.Nop()).Extract(context.Background(), "uh", nil)
			assert.False(t, res.Success)
			assert.True(t, res.NeedsClarification)
			assert.NotEmpty(t, res.ClarificationQuestions)
		})
	}
}

func TestExtractDropsBlankNames(t *testing.T) {
	stub := llmtest.NewStub().Respond(llm.StageExtraction, `{"success": true, "confidence": 0.9, "extracted_items": [
		{"item_name": "veggie wrap", "quantity": 1, "confidence": 0.9},
		{"item_name": " ", "quantity": 1, "confidence": 0.9}]}`)

	res := NewExtractor(stub, zerolog.Nop()).Extract(context.Background(), "a veggie wrap", nil)

	assert.True(t, res.Success)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "veggie wrap", res.Items[0].Name)
}
