package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
)

func newSession(id, lane string) *session.Session {
	now := time.Now().UTC()
	return &session.Session{
		ID:           id,
		LaneID:       lane,
		RestaurantID: 1,
		OrderID:      "ord_" + id,
		State:        session.StateActive,
		CreatedAt:    now,
		LastActivity: now,
		Commands:     command.NewHistory(),
		Conversation: conversation.NewHistory(id),
	}
}

func TestMemorySessionStoreLaneIndex(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySessionStore(zerolog.Nop())

	require.NoError(t, s.Create(ctx, newSession("a", "lane-1")))
	assert.ErrorIs(t, s.Create(ctx, newSession("a", "lane-1")), session.ErrSessionAlreadyExists)

	require.NoError(t, s.Create(ctx, newSession("b", "lane-1")))
	current, err := s.GetByLane(ctx, "lane-1")
	require.NoError(t, err)
	assert.Equal(t, "b", current.ID)

	// deleting the displaced session leaves the lane pointer alone
	require.NoError(t, s.Delete(ctx, "a"))
	current, err = s.GetByLane(ctx, "lane-1")
	require.NoError(t, err)
	assert.Equal(t, "b", current.ID)

	require.NoError(t, s.Delete(ctx, "b"))
	_, err = s.GetByLane(ctx, "lane-1")
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	assert.ErrorIs(t, s.Save(ctx, newSession("c", "lane-2")), session.ErrSessionNotFound)
}

func TestMemoryOrderStoreCopiesOrders(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOrderStore(zerolog.Nop())
	o := order.New("ord_1", "sess_1", 1, decimal.Zero)
	require.NoError(t, s.Create(ctx, o))

	loaded, err := s.Get(ctx, "ord_1")
	require.NoError(t, err)
	_, _, err = loaded.AddLine(order.LineItem{MenuItemID: 3, Name: "Cosmic Burger", Quantity: 1, Size: menu.SizeRegular, UnitPrice: decimal.RequireFromString("7.49")}, order.DefaultLimits)
	require.NoError(t, err)

	again, err := s.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.True(t, again.IsEmpty(), "unsaved changes must not leak into the store")

	require.NoError(t, s.Save(ctx, loaded))
	bySession, err := s.GetBySession(ctx, "sess_1")
	require.NoError(t, err)
	assert.Equal(t, 1, bySession.ItemCount())

	require.NoError(t, s.Clear(ctx, "ord_1"))
	require.NoError(t, s.Finalize(ctx, "ord_1"))
	final, err := s.Get(ctx, "ord_1")
	require.NoError(t, err)
	assert.True(t, final.IsEmpty())
	assert.Equal(t, order.StatusConfirmed, final.Status)

	require.NoError(t, s.Delete(ctx, "ord_1"))
	_, err = s.GetBySession(ctx, "sess_1")
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	assert.ErrorIs(t, s.Clear(ctx, "ord_1"), order.ErrOrderNotFound)
}

func TestRedisKeyLayout(t *testing.T) {
	assert.Equal(t, "drivethru:v1:session:sess_1", sessionKey("sess_1"))
	assert.Equal(t, "drivethru:v1:lane:lane-2", laneKey("lane-2"))
	assert.Equal(t, "drivethru:v1:sessions", sessionSetKey())
	assert.Equal(t, "drivethru:v1:order:ord_1", orderKey("ord_1"))
	assert.Equal(t, "drivethru:v1:session-order:sess_1", sessionOrderKey("sess_1"))
}

// Redis stores persist sessions as JSON; the histories must survive the trip.
func TestSessionSurvivesJSONPersistence(t *testing.T) {
	sess := newSession("sess_1", "lane-1")
	_, err := sess.Conversation.Append(conversation.RoleAssistant, "Welcome to Starlight Diner!")
	require.NoError(t, err)
	_, err = sess.Commands.Add(command.Entry{Type: command.TypeAddItem, Status: command.StatusSuccess, ItemName: "Cosmic Burger", ItemID: "line_1"})
	require.NoError(t, err)

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	var loaded session.Session
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.Equal(t, "lane-1", loaded.LaneID)
	require.NotNil(t, loaded.Conversation)
	assert.Equal(t, "sess_1", loaded.Conversation.SessionID())
	assert.Equal(t, 1, loaded.Conversation.Len())
	require.NotNil(t, loaded.Commands)
	last, ok := loaded.Commands.LastAdd()
	require.True(t, ok)
	assert.Equal(t, "line_1", last.ItemID)
}

type fakeReaperService struct {
	session.Service
	calls chan time.Duration
}

func (f *fakeReaperService) ReapIdle(ctx context.Context, ttl time.Duration) (int, error) {
	f.calls <- ttl
	return 1, nil
}

func TestReaperRunsOnInterval(t *testing.T) {
	svc := &fakeReaperService{calls: make(chan time.Duration, 4)}
	r := NewReaper(svc, time.Minute, 5*time.Millisecond, zerolog.Nop())
	r.Start(context.Background())
	r.Start(context.Background())

	select {
	case ttl := <-svc.calls:
		assert.Equal(t, time.Minute, ttl)
	case <-time.After(time.Second):
		t.Fatal("reaper never ran")
	}
	r.Stop()
	r.Stop()
}
