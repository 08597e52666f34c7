package targeting

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modifier"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/textutil"
)

type line struct {
	id   string
	name string
	qty  int
	size menu.Size
	mods []order.Modifier
}

func build(t *testing.T, lines ...line) (*order.Order, *command.History) {
	t.Helper()
	o := order.New("ord", "sess", 1, decimal.Zero)
	h := command.NewHistory()
	for i, l := range lines {
		_, _, err := o.AddLine(order.LineItem{
			ID: l.id, MenuItemID: int64(i + 1), Name: l.name, Quantity: l.qty, Size: l.size, Modifiers: l.mods,
		}, order.DefaultLimits)
		require.NoError(t, err)
		_, err = h.Add(command.Entry{Type: command.TypeAddItem, Status: command.StatusSuccess, ItemName: l.name, ItemID: l.id, Quantity: l.qty})
		require.NoError(t, err)
	}
	return o, h
}

func TestFindByName(t *testing.T) {
	o, h := build(t,
		line{id: "a", name: "Cosmic Burger", qty: 1},
		line{id: "b", name: "Quantum Cheeseburger", qty: 1},
		line{id: "c", name: "Asteroid Cookies", qty: 2},
	)

	tests := []struct {
		text string
		want string
	}{
		{"remove the cosmic burger", "a"},
		{"take off the cookies", "c"},
		{"make the cheeseburger large", "b"},
		{"remove the quantum", "b"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			out := Find(tt.text, o, h)
			require.True(t, out.Found())
			assert.Equal(t, tt.want, out.Target.Line.ID)
			assert.Equal(t, MethodName, out.Target.Method)
		})
	}
}

func TestFindAmbiguousNeverGuesses(t *testing.T) {
	o, h := build(t,
		line{id: "a", name: "Cosmic Burger", qty: 1},
		line{id: "b", name: "Galaxy Burger", qty: 1},
	)

	out := Find("remove the burger", o, h)

	assert.False(t, out.Found())
	assert.True(t, out.Ambiguous)
	assert.Len(t, out.Candidates, 2)
	assert.Equal(t, "Which one do you mean: the Cosmic Burger or the Galaxy Burger?", out.Clarification)
}

func TestFindTieBrokenBySizeOrModifier(t *testing.T) {
	o, h := build(t,
		line{id: "a", name: "Cosmic Burger", qty: 1},
		line{id: "b", name: "Cosmic Burger", qty: 1, size: menu.SizeLarge},
		line{id: "c", name: "Cosmic Burger", qty: 1, mods: []order.Modifier{{Action: modifier.ActionNo, Ingredient: "Pickles"}}},
	)

	out := Find("remove the large cosmic burger", o, h)
	require.True(t, out.Found())
	assert.Equal(t, "b", out.Target.Line.ID)

	out = Find("the cosmic burger with no pickles", o, h)
	require.True(t, out.Found())
	assert.Equal(t, "c", out.Target.Line.ID)

	out = Find("the cosmic burger", o, h)
	assert.True(t, out.Ambiguous)
	assert.Contains(t, out.Clarification, "the large Cosmic Burger")
	assert.Contains(t, out.Clarification, "with no pickles")
}

func TestFindAnaphoraUsesLastSurvivingAdd(t *testing.T) {
	o, h := build(t,
		line{id: "a", name: "Cosmic Burger", qty: 1},
		line{id: "b", name: "Veggie Wrap", qty: 1},
	)
	_, err := o.RemoveLine("b")
	require.NoError(t, err)
	_, _, err = o.AddLine(order.LineItem{ID: "c", MenuItemID: 9, Name: "Quantum Cola", Quantity: 1}, order.DefaultLimits)
	require.NoError(t, err)

	out := Find("make it large", o, h)

	require.True(t, out.Found())
	assert.Equal(t, "a", out.Target.Line.ID, "the wrap is gone and the cola was never logged")
	assert.Equal(t, MethodAnaphora, out.Target.Method)
}

func TestFindPosition(t *testing.T) {
	o, _ := build(t,
		line{id: "a", name: "Cosmic Burger", qty: 1},
		line{id: "b", name: "Veggie Wrap", qty: 1},
		line{id: "c", name: "Quantum Cola", qty: 1},
	)

	out := Find("change the first one", o, nil)
	require.True(t, out.Found())
	assert.Equal(t, "a", out.Target.Line.ID)
	assert.Equal(t, MethodPosition, out.Target.Method)

	out = Find("remove the last item", o, nil)
	require.True(t, out.Found())
	assert.Equal(t, "c", out.Target.Line.ID)
}

func TestFindOnlyItemAndNothing(t *testing.T) {
	o, _ := build(t, line{id: "a", name: "Cosmic Burger", qty: 1})
	out := Find("make it a large", o, nil)
	require.True(t, out.Found())
	assert.Equal(t, MethodOnlyItem, out.Target.Method)

	empty := order.New("ord", "sess", 1, decimal.Zero)
	assert.False(t, Find("remove it", empty, nil).Found())

	two, _ := build(t, line{id: "a", name: "Cosmic Burger", qty: 1}, line{id: "b", name: "Veggie Wrap", qty: 1})
	out = Find("hmm", two, nil)
	assert.False(t, out.Found())
	assert.False(t, out.Ambiguous)
}

func TestQuantity(t *testing.T) {
	tests := []struct {
		text   string
		want   int
		wantOK bool
	}{
		{"make it three", 3, true},
		{"change the cookies to 4", 4, true},
		{"remove one of the cookies", 1, true},
		{"make the first one large", 0, false},
		{"take that one off", 0, false},
		{"a burger", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Quantity(textutil.Tokens(tt.text))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
