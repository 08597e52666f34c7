package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/llm/llmtest"
)

func TestClassifyUnintelligibleSkipsModel(t *testing.T) {
	stub := llmtest.NewStub()
	c := NewClassifier(stub, zerolog.Nop())

	for _, in := range []string{"", "   ", "...", "123 !!"} {
		got := c.Classify(context.Background(), in, nil, nil)
		assert.Equal(t, Unknown, got.Intent, in)
		assert.LessOrEqual(t, got.Confidence, MaxUnknownConfidence)
	}
	assert.Zero(t, stub.CallsFor(llm.StageIntent))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		fail     bool
		want     Intent
		wantConf float64
	}{
		{name: "add", reply: `{"intent":"ADD_ITEM","confidence":0.95}`, want: AddItem, wantConf: 0.95},
		{name: "fenced", reply: "```json\n{\"intent\":\"confirm_order\",\"confidence\":0.9}\n```", want: ConfirmOrder, wantConf: 0.9},
		{name: "unknown is capped", reply: `{"intent":"UNKNOWN","confidence":0.9}`, want: Unknown, wantConf: 0.5},
		{name: "unrecognised label", reply: `{"intent":"ORDER_PIZZA","confidence":0.9}`, want: Unknown, wantConf: 0.5},
		{name: "malformed", reply: `intent: add`, want: Unknown, wantConf: 0.1},
		{name: "capability down", fail: true, want: Unknown, wantConf: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub()
			if tt.fail {
				stub.Fail(llm.StageIntent, errors.New("timeout"))
			} else {
				stub.Respond(llm.StageIntent, tt.reply)
			}
			c := NewClassifier(stub, zerolog.Nop())

			got := c.Classify(context.Background(), "I'd like a veggie wrap", nil, nil)
			assert.Equal(t, tt.want, got.Intent)
			assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
		})
	}
}

func TestClassifyHistoryRaisesAnaphoraConfidence(t *testing.T) {
	reply := `{"intent":"REMOVE_ITEM","confidence":0.8}`

	without := NewClassifier(llmtest.NewStub().Respond(llm.StageIntent, reply), zerolog.Nop()).
		Classify(context.Background(), "remove it", nil, nil)

	history := conversation.NewHistory("sess_1")
	_, err := history.Append(conversation.RoleUser, "a veggie wrap please")
	require.NoError(t, err)
	with := NewClassifier(llmtest.NewStub().Respond(llm.StageIntent, reply), zerolog.Nop()).
		Classify(context.Background(), "remove it", history, nil)

	assert.Equal(t, RemoveItem, without.Intent)
	assert.Equal(t, RemoveItem, with.Intent)
	assert.Greater(t, with.Confidence, without.Confidence)
}

func TestClassifyPromptCarriesContext(t *testing.T) {
	stub := llmtest.NewStub().Respond(llm.StageIntent, `{"intent":"QUESTION","confidence":0.9}`)
	history := conversation.NewHistory("sess_1")
	_, _ = history.Append(conversation.RoleAssistant, "Welcome to Starlight Diner")

	NewClassifier(stub, zerolog.Nop()).Classify(context.Background(), "what's in the cosmic burger?", history, nil)

	calls := stub.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].JSON)
	assert.Contains(t, calls[0].User, "assistant: Welcome to Starlight Diner")
	assert.Contains(t, calls[0].User, "Order items: (empty)")
}

func TestParseAndCommandType(t *testing.T) {
	i, ok := Parse(" remove item ")
	assert.True(t, ok)
	assert.Equal(t, RemoveItem, i)

	ct, ok := ModifyItem.CommandType()
	assert.True(t, ok)
	assert.Equal(t, "MODIFY_ITEM", string(ct))

	_, ok = Question.CommandType()
	assert.False(t, ok)
}
