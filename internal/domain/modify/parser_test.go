package modify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/llm/llmtest"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modifier"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/targeting"
)

func orderWith(t *testing.T, names ...string) (*order.Order, *command.History) {
	t.Helper()
	o := order.New("ord", "sess", 1, decimal.Zero)
	h := command.NewHistory()
	for i, name := range names {
		id := string(rune('a' + i))
		_, _, err := o.AddLine(order.LineItem{ID: id, MenuItemID: int64(i + 1), Name: name, Quantity: 1, UnitPrice: decimal.NewFromInt(5)}, order.DefaultLimits)
		require.NoError(t, err)
		_, err = h.Add(command.Entry{Type: command.TypeAddItem, Status: command.StatusSuccess, ItemName: name, ItemID: id, Quantity: 1})
		require.NoError(t, err)
	}
	return o, h
}

func TestParseDeterministic(t *testing.T) {
	tests := []struct {
		name     string
		items    []string
		text     string
		wantLine string
		wantKind Kind
		wantQty  int
		wantSize menu.Size
		wantMods []IngredientChange
		wantVia  targeting.Method
	}{
		{
			name: "size by name", items: []string{"Cosmic Burger", "Quantum Cola"},
			text: "make the cola large", wantLine: "b", wantKind: KindSize, wantSize: menu.SizeLarge, wantVia: targeting.MethodName,
		},
		{
			name: "quantity by pronoun", items: []string{"Cosmic Burger", "Quantum Cola"},
			text: "actually make it three", wantLine: "b", wantKind: KindQuantity, wantQty: 3, wantVia: targeting.MethodAnaphora,
		},
		{
			name: "ingredient term does not name-match", items: []string{"Quantum Cheeseburger", "Veggie Wrap"},
			text: "add cheese to it", wantLine: "b", wantKind: KindIngredients,
			wantMods: []IngredientChange{{Action: modifier.ActionAdd, Ingredient: "cheese"}}, wantVia: targeting.MethodAnaphora,
		},
		{
			name: "size and ingredient", items: []string{"Cosmic Burger", "Quantum Cola"},
			text: "make the burger a large with no onions", wantLine: "a", wantKind: KindMultiple, wantSize: menu.SizeLarge,
			wantMods: []IngredientChange{{Action: modifier.ActionNo, Ingredient: "onions"}}, wantVia: targeting.MethodName,
		},
		{
			name: "medium rare is doneness", items: []string{"Cosmic Burger", "Quantum Cola"},
			text: "make the burger medium rare", wantLine: "a", wantKind: KindIngredients,
			wantMods: []IngredientChange{{Action: modifier.ActionRare}}, wantVia: targeting.MethodName,
		},
		{
			name: "last size wins", items: []string{"Nebula Fries", "Quantum Cola"},
			text: "change the large fries to small", wantLine: "a", wantKind: KindSize, wantSize: menu.SizeSmall, wantVia: targeting.MethodName,
		},
		{
			name: "position", items: []string{"Cosmic Burger", "Quantum Cola", "Veggie Wrap"},
			text: "make the first one two", wantLine: "a", wantKind: KindQuantity, wantQty: 2, wantVia: targeting.MethodPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := llmtest.NewStub()
			o, h := orderWith(t, tt.items...)

			req := NewParser(stub, 20, zerolog.Nop()).Parse(context.Background(), tt.text, o, nil, h)

			require.True(t, req.Success, req.ClarificationMessage)
			assert.False(t, req.ClarificationNeeded)
			assert.Equal(t, tt.wantLine, req.TargetLineID)
			assert.Equal(t, tt.wantKind, req.Kind)
			assert.Equal(t, tt.wantQty, req.NewQuantity)
			assert.Equal(t, tt.wantSize, req.NewSize)
			assert.Equal(t, tt.wantMods, req.Ingredients)
			assert.Equal(t, tt.wantVia, req.Method)
			assert.Zero(t, stub.CallsFor(llm.StageModify))
		})
	}
}

func TestParseAmbiguousTargetNeverGuesses(t *testing.T) {
	stub := llmtest.NewStub()
	o, h := orderWith(t, "Cosmic Burger", "Galaxy Burger")

	req := NewParser(stub, 20, zerolog.Nop()).Parse(context.Background(), "make the burger a large", o, nil, h)

	assert.True(t, req.ClarificationNeeded)
	assert.Empty(t, req.TargetLineID)
	assert.Contains(t, req.ClarificationMessage, "Cosmic Burger")
	assert.Contains(t, req.ClarificationMessage, "Galaxy Burger")
	assert.Zero(t, stub.CallsFor(llm.StageModify))
}

func TestParseQuantityOutOfRange(t *testing.T) {
	o, h := orderWith(t, "Asteroid Cookies")

	req := NewParser(llmtest.NewStub(), 20, zerolog.Nop()).Parse(context.Background(), "make it 25", o, nil, h)

	assert.False(t, req.Success)
	assert.True(t, req.ClarificationNeeded)
	assert.Contains(t, req.ClarificationMessage, "between 1 and 20")
}

func TestParseEmptyOrder(t *testing.T) {
	req := NewParser(llmtest.NewStub(), 20, zerolog.Nop()).
		Parse(context.Background(), "make it large", order.New("ord", "sess", 1, decimal.Zero), nil, nil)

	assert.False(t, req.Success)
	assert.True(t, req.ClarificationNeeded)
	assert.Equal(t, emptyOrderMessage, req.ClarificationMessage)
}

func TestParseModelFallback(t *testing.T) {
	o, _ := orderWith(t, "Cosmic Burger", "Quantum Cola")
	text := "the drink, make it bigger"

	tests := []struct {
		name     string
		stub     *llmtest.Stub
		wantOK   bool
		wantLine string
		wantSize menu.Size
		wantClar string
	}{
		{
			name: "model picks a line",
			stub: llmtest.NewStub().Respond(llm.StageModify,
				"```json\n{\"success\": true, \"confidence\": 0.85, \"target_item_id\": \"[b]\", \"modification_type\": \"size\", \"new_size\": \"large\"}\n```"),
			wantOK: true, wantLine: "b", wantSize: menu.SizeLarge,
		},
		{
			name: "model invents a line",
			stub: llmtest.NewStub().Respond(llm.StageModify,
				`{"success": true, "confidence": 0.9, "target_item_id": "zzz", "modification_type": "size", "new_size": "large"}`),
			wantOK: true, wantClar: "Which one do you mean: the Cosmic Burger or the Quantum Cola?",
		},
		{
			name: "model asks",
			stub: llmtest.NewStub().Respond(llm.StageModify,
				`{"success": true, "confidence": 0.4, "clarification_needed": true, "clarification_message": "Which drink do you mean?"}`),
			wantOK: true, wantClar: "Which drink do you mean?",
		},
		{
			name:     "model unavailable",
			stub:     llmtest.NewStub().Fail(llm.StageModify, errors.New("timeout")),
			wantClar: genericClarification,
		},
		{
			name:     "unparseable reply",
			stub:     llmtest.NewStub().Respond(llm.StageModify, "sure, the drink"),
			wantClar: genericClarification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := NewParser(tt.stub, 20, zerolog.Nop()).Parse(context.Background(), text, o, nil, nil)

			assert.Equal(t, tt.wantOK, req.Success)
			assert.Equal(t, tt.wantLine, req.TargetLineID)
			assert.Equal(t, tt.wantSize, req.NewSize)
			if tt.wantClar != "" {
				assert.True(t, req.ClarificationNeeded)
				assert.Equal(t, tt.wantClar, req.ClarificationMessage)
			}
			assert.Equal(t, 1, tt.stub.CallsFor(llm.StageModify))
		})
	}
}

func TestParseModelKeepsDeterministicChange(t *testing.T) {
	o, _ := orderWith(t, "Cosmic Burger", "Quantum Cola")
	stub := llmtest.NewStub().Respond(llm.StageModify,
		`{"success": true, "confidence": 0.9, "target_item_id": "a", "modification_type": "size", "new_size": "small"}`)

	req := NewParser(stub, 20, zerolog.Nop()).Parse(context.Background(), "no pickles on that", o, nil, nil)

	require.True(t, req.Success)
	assert.Equal(t, "a", req.TargetLineID)
	assert.Empty(t, req.NewSize, "parsed change wins over the model's")
	assert.Equal(t, []IngredientChange{{Action: modifier.ActionNo, Ingredient: "pickles"}}, req.Ingredients)
}
