package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Intent     string  `json:"intent" validate:"required" jsonschema:"enum=ADD_ITEM,enum=UNKNOWN"`
	Confidence float64 `json:"confidence" validate:"gte=0,lte=1"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "plain", raw: `{"intent":"ADD_ITEM"}`, want: `{"intent":"ADD_ITEM"}`},
		{name: "fenced", raw: "```json\n{\"intent\":\"ADD_ITEM\"}\n```", want: `{"intent":"ADD_ITEM"}`},
		{name: "fenced without tag", raw: "```\n{\"a\":1}\n```", want: `{"a":1}`},
		{name: "prose around", raw: `Sure! {"intent":"UNKNOWN"} hope that helps`, want: `{"intent":"UNKNOWN"}`},
		{name: "empty", raw: "  ", wantErr: ErrEmptyOutput},
		{name: "no object", raw: "I cannot help", wantErr: ErrNoJSONObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.raw)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeJSONValidates(t *testing.T) {
	var p samplePayload
	require.NoError(t, DecodeJSON("```json\n{\"intent\":\"ADD_ITEM\",\"confidence\":0.9}\n```", &p))
	assert.Equal(t, "ADD_ITEM", p.Intent)

	assert.Error(t, DecodeJSON(`{"intent":"ADD_ITEM","confidence":3}`, &p))
	assert.Error(t, DecodeJSON(`{"intent":`, &p))
}

func TestGenerateJSON(t *testing.T) {
	var seen Prompt
	capability := CapabilityFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		seen = prompt
		return `{"intent":"UNKNOWN","confidence":0.2}`, nil
	})

	out, err := GenerateJSON[samplePayload](context.Background(), capability, Prompt{Stage: StageIntent, User: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "UNKNOWN", out.Intent)
	assert.True(t, seen.JSON)

	failing := CapabilityFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		return "", errors.New("unreachable")
	})
	_, err = GenerateJSON[samplePayload](context.Background(), failing, Prompt{})
	assert.Error(t, err)
}

func TestSchemaFor(t *testing.T) {
	schema := SchemaFor(samplePayload{})
	assert.Contains(t, schema, `"intent"`)
	assert.Contains(t, schema, `"confidence"`)
	assert.Equal(t, schema, SchemaFor(samplePayload{}))
}
