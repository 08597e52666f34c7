package dbschema

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/modifier"
	"github.com/janhq/drivethru-server/internal/domain/order"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMenuItemConversionKeepsSizePrices(t *testing.T) {
	item := menu.Item{
		ID: 2, RestaurantID: 1, Name: "Quantum Cola", Category: "Drinks",
		Price: price("2.49"), Available: true, IngredientIDs: []int64{9},
		SizePrices: map[menu.Size]decimal.Decimal{menu.SizeLarge: price("2.99")},
	}

	row, err := MenuItemDtoE(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"large": "2.99"}`, string(row.SizePrices))

	back := row.EtoD()
	assert.Equal(t, "Quantum Cola", back.Name)
	assert.Equal(t, []int64{9}, back.IngredientIDs)
	assert.True(t, back.PriceFor(menu.SizeLarge).Equal(price("2.99")))
	assert.True(t, back.PriceFor(menu.SizeSmall).Equal(price("2.49")))
}

func TestMenuItemIgnoresMalformedSizePrices(t *testing.T) {
	row := &MenuItem{ID: 1, Name: "Nebula Fries", Price: price("2.99"), SizePrices: []byte(`not json`)}
	item := row.EtoD()
	assert.Nil(t, item.SizePrices)
	assert.True(t, item.PriceFor(menu.SizeLarge).Equal(price("2.99")))
}

func TestNewSchemaArchivedOrder(t *testing.T) {
	o := order.New("ord_1", "sess_1", 1, decimal.Zero)
	_, _, err := o.AddLine(order.LineItem{
		ID: "line_1", MenuItemID: 3, Name: "Cosmic Burger", Quantity: 2, Size: menu.SizeRegular,
		UnitPrice: price("7.49"),
		Modifiers: []order.Modifier{{Action: modifier.ActionExtra, Ingredient: "Cheese", IngredientID: 1, UnitCost: price("0.50")}},
	}, order.DefaultLimits)
	require.NoError(t, err)
	o.Status = order.StatusConfirmed

	confirmedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	row, err := NewSchemaArchivedOrder(o, confirmedAt)
	require.NoError(t, err)

	assert.Equal(t, "ord_1", row.PublicID)
	assert.Equal(t, "confirmed", row.Status)
	assert.Equal(t, 2, row.ItemCount)
	assert.Equal(t, "15.98", row.Total.StringFixed(2))
	assert.Equal(t, confirmedAt, row.ConfirmedAt)
	require.Len(t, row.Items, 1)
	assert.Equal(t, []string{"extra cheese"}, []string(row.Items[0].Modifiers))

	restored, err := row.EtoD()
	require.NoError(t, err)
	assert.Equal(t, o.ID, restored.ID)
	assert.True(t, restored.Total.Equal(o.Total))
}
