package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRecencyQueries(t *testing.T) {
	h := NewHistory()

	_, err := h.Add(Entry{Type: TypeAddItem, Status: StatusSuccess, ItemName: "Burger"})
	require.NoError(t, err)
	_, err = h.Add(Entry{Type: TypeModifyItem, Status: StatusSuccess, ItemName: "Burger", Quantity: 2})
	require.NoError(t, err)

	lastAdd, ok := h.LastAdd()
	require.True(t, ok)
	assert.Equal(t, "Burger", lastAdd.ItemName)

	last, ok := h.Last()
	require.True(t, ok)
	assert.Equal(t, TypeModifyItem, last.Type)
	assert.Equal(t, 2, last.Quantity)
}

func TestHistoryAddDefaultsAndValidation(t *testing.T) {
	h := NewHistory()

	cmd, err := h.Add(Entry{Type: TypeAddItem, Status: StatusSuccess, ItemName: "Fries"})
	require.NoError(t, err)
	assert.Equal(t, 1, cmd.Quantity)
	assert.False(t, cmd.Timestamp.IsZero())

	_, err = h.Add(Entry{Type: "UNDO", Status: StatusSuccess})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = h.Add(Entry{Type: TypeAddItem, Status: "maybe"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	assert.Equal(t, 1, h.Len())
}

func TestHistoryQueries(t *testing.T) {
	h := NewHistory()
	entries := []Entry{
		{Type: TypeAddItem, Status: StatusSuccess, ItemName: "Cosmic Burger"},
		{Type: TypeAddItem, Status: StatusFailed, ItemName: "Unicorn Shake"},
		{Type: TypeRemoveItem, Status: StatusSuccess, ItemName: "Cosmic Burger"},
		{Type: TypeAddItem, Status: StatusClarificationNeeded, ItemName: "Fries"},
	}
	for _, e := range entries {
		_, err := h.Add(e)
		require.NoError(t, err)
	}

	lastOK, ok := h.LastSuccessful()
	require.True(t, ok)
	assert.Equal(t, TypeRemoveItem, lastOK.Type)

	lastAdd, ok := h.LastAdd()
	require.True(t, ok)
	assert.Equal(t, "Fries", lastAdd.ItemName)

	_, ok = h.LastOfType(TypeConfirmOrder)
	assert.False(t, ok)

	matches := h.FindByItemName("cosmic")
	assert.Len(t, matches, 2)

	adds := h.SuccessfulAdds()
	require.Len(t, adds, 1)
	assert.Equal(t, "Cosmic Burger", adds[0].ItemName)

	recent := h.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, TypeRemoveItem, recent[0].Type)
	assert.Equal(t, TypeAddItem, recent[1].Type)
	assert.Len(t, h.Recent(10), 4)
	assert.Nil(t, h.Recent(0))
}

func TestHistoryQueriesDoNotMutate(t *testing.T) {
	h := NewHistory()
	_, err := h.Add(Entry{Type: TypeAddItem, Status: StatusSuccess, ItemName: "Burger", Modifiers: []string{"no onion"}})
	require.NoError(t, err)

	all := h.All()
	all[0].ItemName = "changed"

	last, _ := h.Last()
	assert.Equal(t, "Burger", last.ItemName)
}

func TestHistoryClearAndJSON(t *testing.T) {
	h := NewHistory()
	_, err := h.Add(Entry{Type: TypeClearOrder, Status: StatusSuccess})
	require.NoError(t, err)

	data, err := json.Marshal(h)
	require.NoError(t, err)

	restored := NewHistory()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, 1, restored.Len())

	h.Clear()
	assert.Equal(t, 0, h.Len())
	_, ok := h.Last()
	assert.False(t, ok)
}
