package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/extraction"
	"github.com/janhq/drivethru-server/internal/domain/llm"
	"github.com/janhq/drivethru-server/internal/domain/llm/llmtest"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/menu/menutest"
	"github.com/janhq/drivethru-server/internal/domain/modify"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/question"
	"github.com/janhq/drivethru-server/internal/domain/removal"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/infrastructure/store"
)

type countingStore struct {
	*store.MemoryOrderStore
	clears int
	getErr error
}

func (s *countingStore) Get(ctx context.Context, id string) (*order.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryOrderStore.Get(ctx, id)
}

func (s *countingStore) Clear(ctx context.Context, id string) error {
	s.clears++
	return s.MemoryOrderStore.Clear(ctx, id)
}

type fakeFinalizer struct {
	orders *countingStore
	err    error
	calls  []string
}

func (f *fakeFinalizer) Finalize(ctx context.Context, sessionID string) error {
	f.calls = append(f.calls, sessionID)
	if f.err != nil {
		return f.err
	}
	return f.orders.Finalize(ctx, "ord")
}

type fakeArchiver struct {
	err      error
	archived []*order.Order
}

func (a *fakeArchiver) Archive(ctx context.Context, o *order.Order) error {
	if a.err != nil {
		return a.err
	}
	a.archived = append(a.archived, o)
	return nil
}

type harness struct {
	exec     *Executor
	orders   *countingStore
	final    *fakeFinalizer
	archiver *fakeArchiver
	stub     *llmtest.Stub
	sess     *session.Session
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	orders := &countingStore{MemoryOrderStore: store.NewMemoryOrderStore(log)}
	require.NoError(t, orders.Create(context.Background(), order.New("ord", "sess", menutest.RestaurantID, decimal.Zero)))

	src := menutest.Sample()
	catalog := menu.NewCatalog(src, 60)
	stub := llmtest.NewStub()
	h := &harness{
		orders:   orders,
		final:    &fakeFinalizer{orders: orders},
		archiver: &fakeArchiver{},
		stub:     stub,
		sess: &session.Session{
			ID: "sess", LaneID: "lane-1", RestaurantID: menutest.RestaurantID, OrderID: "ord",
			State: session.StateActive, Commands: command.NewHistory(), Conversation: conversation.NewHistory("sess"),
		},
	}
	h.exec = NewExecutor(Dependencies{
		Orders:    orders,
		Sessions:  h.final,
		Archiver:  h.archiver,
		Catalog:   catalog,
		Resolver:  menu.NewResolver(catalog, 15, log),
		Extractor: extraction.NewExtractor(stub, log),
		Modify:    modify.NewParser(stub, order.DefaultLimits.MaxItemQuantity, log),
		Removal:   removal.NewParser(stub, log),
		Answerer:  question.NewAnswerer(stub, src, log),
	}, order.DefaultLimits, log)
	return h
}

// seed puts a line on the stored order and records its add command.
func (h *harness) seed(t *testing.T, id string, menuItemID int64, name string, qty int, size menu.Size, price string) {
	t.Helper()
	ctx := context.Background()
	o, err := h.orders.Get(ctx, "ord")
	require.NoError(t, err)
	_, _, err = o.AddLine(order.LineItem{
		ID: id, MenuItemID: menuItemID, Name: name, Quantity: qty, Size: size, UnitPrice: menutest.Price(price),
	}, order.DefaultLimits)
	require.NoError(t, err)
	require.NoError(t, h.orders.Save(ctx, o))
	_, err = h.sess.Commands.Add(command.Entry{
		Type: command.TypeAddItem, Status: command.StatusSuccess, ItemName: name, ItemID: id, MenuItemID: menuItemID, Quantity: qty,
	})
	require.NoError(t, err)
}

func (h *harness) order(t *testing.T) *order.Order {
	t.Helper()
	o, err := h.orders.Get(context.Background(), "ord")
	require.NoError(t, err)
	return o
}

func (h *harness) run(fn func(context.Context, Input) Result, text string) Result {
	return fn(context.Background(), Input{Session: h.sess, Text: text})
}

func TestAddItem(t *testing.T) {
	h := newHarness(t)
	h.stub.Respond(llm.StageExtraction, `{"success": true, "confidence": 0.95, "extracted_items": [
		{"item_name": "cosmic burger", "quantity": 1, "confidence": 0.95},
		{"item_name": "nebula fries", "quantity": 2, "size": "large", "confidence": 0.9}]}`)

	res := h.run(h.exec.AddItem, "a cosmic burger and two large nebula fries")

	require.True(t, res.Success)
	assert.Equal(t, OutcomeSuccess, res.Outcome)
	assert.Equal(t, audio.ItemAddedSuccess, res.Phrase)
	assert.True(t, res.OrderUpdated)
	assert.Equal(t, "Added a Cosmic Burger and 2 large Nebula Fries to your order. Would you like anything else?", res.Message)
	require.NotNil(t, res.Total)
	assert.Equal(t, "15.07", res.Total.StringFixed(2))

	o := h.order(t)
	require.Len(t, o.Items, 2)
	assert.Equal(t, menu.SizeLarge, o.Items[1].Size)
	assert.Equal(t, 2, h.sess.Commands.Len())
}

func TestAddItemPartial(t *testing.T) {
	h := newHarness(t)
	h.stub.Respond(llm.StageExtraction, `{"success": true, "confidence": 0.9, "extracted_items": [
		{"item_name": "cosmic burger", "quantity": 1, "confidence": 0.95},
		{"item_name": "meteor melt", "quantity": 1, "confidence": 0.95}]}`)

	res := h.run(h.exec.AddItem, "a cosmic burger and a meteor melt")

	assert.True(t, res.Success)
	assert.Equal(t, OutcomePartial, res.Outcome)
	assert.Equal(t, audio.CustomResponse, res.Phrase)
	require.Len(t, res.Added, 1)
	assert.Equal(t, "Cosmic Burger", res.Added[0].Name)
	assert.Contains(t, res.Message, "Added a Cosmic Burger to your order.")
	assert.Len(t, h.order(t).Items, 1)
}

func TestAddItemExtractionFails(t *testing.T) {
	h := newHarness(t)
	h.stub.Fail(llm.StageExtraction, errors.New("model down"))

	res := h.run(h.exec.AddItem, "gimme the thing")

	assert.False(t, res.Success)
	assert.Equal(t, OutcomeClarification, res.Outcome)
	assert.Equal(t, audio.ItemAddClarification, res.Phrase)
	assert.NotEmpty(t, res.Message)
	assert.True(t, h.order(t).IsEmpty())

	last, ok := h.sess.Commands.Last()
	require.True(t, ok)
	assert.Equal(t, command.StatusClarificationNeeded, last.Status)
}

func TestRemoveAmbiguousAsks(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", 3, "Cosmic Burger", 1, menu.SizeRegular, "7.49")
	h.seed(t, "b", 4, "Galaxy Burger", 1, menu.SizeRegular, "7.99")

	res := h.run(h.exec.RemoveItem, "take off the burger")

	assert.False(t, res.Success)
	assert.Equal(t, OutcomeClarification, res.Outcome)
	assert.Equal(t, audio.ItemRemoveClarification, res.Phrase)
	assert.Equal(t, "Which one do you mean: the Cosmic Burger or the Galaxy Burger?", res.Message)
	assert.Len(t, h.order(t).Items, 2)
	assert.Empty(t, h.stub.CallsFor(llm.StageRemove))
}

func TestRemovePartialQuantity(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", 6, "Asteroid Cookies", 3, menu.SizeRegular, "1.50")

	res := h.run(h.exec.RemoveItem, "remove one of the cookies")

	require.True(t, res.Success)
	assert.Equal(t, audio.ItemRemovedSuccess, res.Phrase)
	assert.Equal(t, "Removed 1 of the Asteroid Cookies. Would you like anything else?", res.Message)
	o := h.order(t)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, "3.00", res.Total.StringFixed(2))
}

func TestRemoveEmptyOrder(t *testing.T) {
	h := newHarness(t)

	res := h.run(h.exec.RemoveItem, "remove the fries")

	assert.Equal(t, audio.OrderAlreadyEmpty, res.Phrase)
	assert.Empty(t, h.stub.Calls())
}

func TestModifySize(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", 3, "Cosmic Burger", 1, menu.SizeRegular, "7.49")
	h.seed(t, "b", 2, "Quantum Cola", 1, menu.SizeRegular, "2.49")

	res := h.run(h.exec.ModifyItem, "make the cola large")

	require.True(t, res.Success)
	assert.Equal(t, audio.ItemModifiedSuccess, res.Phrase)
	require.NotNil(t, res.Modified)
	assert.Equal(t, "b", res.Modified.LineID)
	assert.Equal(t, []string{"size to large"}, res.Modified.Changes)
	assert.Equal(t, "0.50", res.Modified.AdditionalCost.StringFixed(2))
	assert.Equal(t, "Updated your Quantum Cola: size to large. That adds $0.50. Would you like anything else?", res.Message)

	line, _, ok := h.order(t).Line("b")
	require.True(t, ok)
	assert.Equal(t, menu.SizeLarge, line.Size)
	assert.Equal(t, "2.99", line.UnitPrice.StringFixed(2))
}

func TestModifyIngredients(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantOK    bool
		wantCost  string
		wantIngID int64
	}{
		{name: "adds stocked ingredient", text: "add bacon to it", wantOK: true, wantCost: "1.25", wantIngID: 4},
		{name: "removes own ingredient", text: "no onions on it", wantOK: true, wantCost: "0.00", wantIngID: 6},
		{name: "rejects sold out ingredient", text: "add truffle oil to it", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.seed(t, "a", 3, "Cosmic Burger", 1, menu.SizeRegular, "7.49")

			res := h.run(h.exec.ModifyItem, tt.text)

			line, _, ok := h.order(t).Line("a")
			require.True(t, ok)
			if !tt.wantOK {
				assert.False(t, res.Success)
				assert.Equal(t, OutcomeRejected, res.Outcome)
				assert.NotEmpty(t, res.ValidationErrors)
				assert.Empty(t, line.Modifiers)
				return
			}
			require.True(t, res.Success, res.Message)
			assert.Equal(t, tt.wantCost, res.Modified.AdditionalCost.StringFixed(2))
			require.Len(t, line.Modifiers, 1)
			assert.Equal(t, tt.wantIngID, line.Modifiers[0].IngredientID)
		})
	}
}

func TestModifyReplacesExistingModifier(t *testing.T) {
	mods := []order.Modifier{
		{Action: "extra", Ingredient: "Cheese", IngredientID: 1},
		{Action: "well_done"},
	}

	out := replaceModifier(mods, order.Modifier{Action: "no", Ingredient: "Cheese", IngredientID: 1})
	out = replaceModifier(out, order.Modifier{Action: "rare"})

	require.Len(t, out, 2)
	assert.Equal(t, "no", string(out[0].Action))
	assert.Equal(t, "rare", string(out[1].Action))
}

func TestModifyAmbiguousAsks(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", 3, "Cosmic Burger", 1, menu.SizeRegular, "7.49")
	h.seed(t, "b", 4, "Galaxy Burger", 1, menu.SizeRegular, "7.99")

	res := h.run(h.exec.ModifyItem, "make the burger a double")

	assert.Equal(t, OutcomeClarification, res.Outcome)
	assert.Equal(t, audio.ModificationClarification, res.Phrase)
	assert.Contains(t, res.Message, "Which one do you mean")
}

func TestClearOrder(t *testing.T) {
	t.Run("empty order never clears", func(t *testing.T) {
		h := newHarness(t)

		res := h.run(h.exec.ClearOrder, "start over")

		assert.False(t, res.Success)
		assert.Equal(t, audio.OrderAlreadyEmpty, res.Phrase)
		assert.Equal(t, 0, h.orders.clears)
	})

	t.Run("clears once and keeps history", func(t *testing.T) {
		h := newHarness(t)
		h.seed(t, "a", 3, "Cosmic Burger", 2, menu.SizeRegular, "7.49")

		res := h.run(h.exec.ClearOrder, "cancel everything")

		require.True(t, res.Success)
		assert.Equal(t, audio.OrderClearedSuccess, res.Phrase)
		assert.True(t, res.OrderUpdated)
		assert.True(t, res.Total.IsZero())
		assert.Equal(t, 1, h.orders.clears)
		assert.True(t, h.order(t).IsEmpty())
		assert.Equal(t, 2, h.sess.Commands.Len())
		last, ok := h.sess.Commands.Last()
		require.True(t, ok)
		assert.Equal(t, command.TypeClearOrder, last.Type)
	})

	t.Run("missing order id", func(t *testing.T) {
		h := newHarness(t)
		h.sess.OrderID = ""

		res := h.run(h.exec.ClearOrder, "cancel")

		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, 0, h.orders.clears)
	})
}

func TestConfirmOrder(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", 3, "Cosmic Burger", 1, menu.SizeRegular, "7.49")

	res := h.run(h.exec.ConfirmOrder, "that's all")

	require.True(t, res.Success)
	assert.Equal(t, audio.OrderConfirmed, res.Phrase)
	assert.Equal(t, "Perfect! If everything looks correct on your screen, that'll be $7.49. Pull around to the next window!", res.Message)
	require.NotNil(t, res.Confirmation)
	assert.True(t, res.Confirmation.Archived)
	assert.True(t, res.Confirmation.Finalized)
	assert.Equal(t, session.StateConfirmed, h.sess.State)
	require.Len(t, h.archiver.archived, 1)
	assert.Equal(t, order.StatusConfirmed, h.archiver.archived[0].Status)

	again := h.run(h.exec.AddItem, "and a cola")
	assert.Equal(t, audio.DriveToWindow, again.Phrase)
}

func TestConfirmOrderArchiveFailure(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "a", 3, "Cosmic Burger", 1, menu.SizeRegular, "7.49")
	h.archiver.err = errors.New("database down")

	res := h.run(h.exec.ConfirmOrder, "that's it")

	require.True(t, res.Success)
	assert.False(t, res.Confirmation.Archived)
	assert.True(t, res.Confirmation.Finalized)
	assert.Equal(t, []string{"sess"}, h.final.calls)
}

func TestConfirmEmptyOrder(t *testing.T) {
	h := newHarness(t)

	res := h.run(h.exec.ConfirmOrder, "that's all")

	assert.False(t, res.Success)
	assert.Equal(t, audio.NoOrderYet, res.Phrase)
	assert.Empty(t, h.final.calls)
}

func TestStoreFailureIsSystemError(t *testing.T) {
	h := newHarness(t)
	h.orders.getErr = errors.New("redis: connection refused")

	for _, fn := range []func(context.Context, Input) Result{h.exec.AddItem, h.exec.RemoveItem, h.exec.ModifyItem, h.exec.ConfirmOrder} {
		res := h.run(fn, "whatever")
		assert.Equal(t, OutcomeError, res.Outcome)
		assert.Equal(t, audio.SystemErrorRetry, res.Phrase)
		assert.NotContains(t, res.Message, "redis")
	}
}

func TestQuestion(t *testing.T) {
	h := newHarness(t)
	h.stub.Respond(llm.StageQuestion, `{"answer": "We're at 12 Orbit Road.", "category": "restaurant_info", "confidence": 0.9}`)

	res := h.run(h.exec.Question, "where are you located?")

	assert.True(t, res.Success)
	assert.Equal(t, audio.RestaurantInfo, res.Phrase)
	assert.Equal(t, "We're at 12 Orbit Road.", res.Message)
	assert.False(t, res.OrderUpdated)
}

func TestClarificationAndUnknown(t *testing.T) {
	c := Clarification("Which burger did you mean?")
	assert.Equal(t, audio.LLMGenerated, c.Phrase)
	assert.Equal(t, "Which burger did you mean?", c.Message)

	u := Unknown()
	assert.Equal(t, audio.DidntUnderstand, u.Phrase)
	assert.Equal(t, audio.Text(audio.DidntUnderstand, nil), u.Message)
}
