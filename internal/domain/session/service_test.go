package session_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/infrastructure/store"
)

type namer struct {
	name string
	err  error
}

func (n namer) RestaurantName(ctx context.Context, id int64) (string, error) {
	return n.name, n.err
}

func newService(t *testing.T, n session.RestaurantNamer) (session.Service, *store.MemorySessionStore, *store.MemoryOrderStore) {
	t.Helper()
	sessions := store.NewMemorySessionStore(zerolog.Nop())
	orders := store.NewMemoryOrderStore(zerolog.Nop())
	return session.NewService(sessions, orders, n, 0.08, zerolog.Nop()), sessions, orders
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	svc, _, orders := newService(t, namer{name: "Starlight Diner"})

	started, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-1", RestaurantID: 7})
	require.NoError(t, err)

	sess := started.Session
	assert.Equal(t, audio.Greeting, started.Greeting)
	assert.Equal(t, "Welcome to Starlight Diner, may I take your order?", started.GreetingText)
	assert.Equal(t, "en", sess.Language)
	assert.Equal(t, session.StateActive, sess.State)
	assert.Empty(t, started.Replaced)
	require.NotNil(t, sess.Commands)
	require.Equal(t, 1, sess.Conversation.Len())

	o, err := orders.GetBySession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.OrderID, o.ID)
	assert.Equal(t, int64(7), o.RestaurantID)
	assert.True(t, o.IsEmpty())
	assert.Equal(t, "0.08", o.TaxRate.String())
}

func TestCreateSessionRequiresLane(t *testing.T) {
	svc, _, _ := newService(t, nil)
	_, err := svc.CreateSession(context.Background(), session.CreateRequest{LaneID: "  "})
	assert.ErrorIs(t, err, session.ErrLaneRequired)
}

func TestCreateSessionReplacesLaneSession(t *testing.T) {
	ctx := context.Background()
	svc, _, orders := newService(t, namer{err: errors.New("catalog down")})

	first, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-1", RestaurantID: 1})
	require.NoError(t, err)
	assert.Contains(t, first.GreetingText, "our restaurant")

	second, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-1", RestaurantID: 1})
	require.NoError(t, err)
	assert.Equal(t, first.Session.ID, second.Replaced)

	_, err = svc.GetSession(ctx, first.Session.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = orders.Get(ctx, first.Session.OrderID)
	assert.ErrorIs(t, err, order.ErrOrderNotFound)

	current, err := svc.CurrentForLane(ctx, "lane-1")
	require.NoError(t, err)
	assert.Equal(t, second.Session.ID, current.ID)

	other, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-2", RestaurantID: 1})
	require.NoError(t, err)
	assert.Empty(t, other.Replaced)
}

func TestClearSessionKeepsConfirmedOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, orders := newService(t, nil)

	started, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-1", RestaurantID: 1})
	require.NoError(t, err)
	require.NoError(t, svc.Finalize(ctx, started.Session.ID))

	o, err := orders.Get(ctx, started.Session.OrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, o.Status)

	require.NoError(t, svc.ClearSession(ctx, started.Session.ID))
	_, err = orders.Get(ctx, started.Session.OrderID)
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.ClearSession(ctx, started.Session.ID), session.ErrSessionNotFound)
}

func TestReapIdle(t *testing.T) {
	ctx := context.Background()
	svc, sessions, _ := newService(t, nil)

	stale, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-1", RestaurantID: 1})
	require.NoError(t, err)
	fresh, err := svc.CreateSession(ctx, session.CreateRequest{LaneID: "lane-2", RestaurantID: 1})
	require.NoError(t, err)

	stale.Session.LastActivity = time.Now().Add(-time.Hour)
	require.NoError(t, sessions.Save(ctx, stale.Session))

	n, err := svc.ReapIdle(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = svc.GetSession(ctx, stale.Session.ID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = svc.GetSession(ctx, fresh.Session.ID)
	assert.NoError(t, err)
}
