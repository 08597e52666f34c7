package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/janhq/drivethru-server/internal/domain/audio"
	"github.com/janhq/drivethru-server/internal/domain/command"
	"github.com/janhq/drivethru-server/internal/domain/conversation"
	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/utils/idgen"
)

const defaultLanguage = "en"

// RestaurantNamer looks up the restaurant name used in the greeting.
type RestaurantNamer interface {
	RestaurantName(ctx context.Context, restaurantID int64) (string, error)
}

// Service defines the business operations for session management.
type Service interface {
	CreateSession(ctx context.Context, req CreateRequest) (*Started, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	CurrentForLane(ctx context.Context, laneID string) (*Session, error)
	ClearSession(ctx context.Context, id string) error
	Touch(ctx context.Context, s *Session) error
	Finalize(ctx context.Context, id string) error
	ReapIdle(ctx context.Context, ttl time.Duration) (int, error)
}

type service struct {
	sessions    Store
	orders      order.Store
	restaurants RestaurantNamer
	taxRate     decimal.Decimal
	now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a new session service.
func NewService(sessions Store, orders order.Store, restaurants RestaurantNamer, taxRate float64, log zerolog.Logger) Service {
	return &service{
		sessions:    sessions,
		orders:      orders,
		restaurants: restaurants,
		taxRate:     decimal.NewFromFloat(taxRate),
		now:         func() time.Time { return time.Now().UTC() },
		log:         log.With().Str("component", "session-service").Logger(),
	}
}

// CreateSession starts a session and its empty order. A session still open
// on the same lane is ended first.
func (s *service) CreateSession(ctx context.Context, req CreateRequest) (*Started, error) {
	laneID := strings.TrimSpace(req.LaneID)
	if laneID == "" {
		return nil, ErrLaneRequired
	}

	var replaced string
	if prev, err := s.sessions.GetByLane(ctx, laneID); err == nil {
		if err := s.ClearSession(ctx, prev.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		replaced = prev.ID
		s.log.Info().Str("session_id", prev.ID).Str("lane_id", laneID).Msg("previous lane session ended")
	} else if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}

	sessionID := idgen.NewSortableID("sess")
	orderID := idgen.NewSortableID("ord")
	now := s.now()

	language := req.Language
	if language == "" {
		language = defaultLanguage
	}
	sess := &Session{
		ID:           sessionID,
		LaneID:       laneID,
		RestaurantID: req.RestaurantID,
		Language:     language,
		OrderID:      orderID,
		State:        StateActive,
		CreatedAt:    now,
		LastActivity: now,
		Commands:     command.NewHistory(),
		Conversation: conversation.NewHistory(sessionID),
	}

	if err := s.orders.Create(ctx, order.New(orderID, sessionID, req.RestaurantID, s.taxRate)); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to create order")
		return nil, err
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to store session")
		if derr := s.orders.Delete(ctx, orderID); derr != nil {
			s.log.Warn().Err(derr).Str("order_id", orderID).Msg("failed to roll back order")
		}
		return nil, err
	}

	name := "our restaurant"
	if s.restaurants != nil {
		if n, err := s.restaurants.RestaurantName(ctx, req.RestaurantID); err == nil && n != "" {
			name = n
		} else if err != nil {
			s.log.Warn().Err(err).Int64("restaurant_id", req.RestaurantID).Msg("restaurant lookup failed")
		}
	}
	greeting := audio.Text(audio.Greeting, map[string]string{"restaurant": name})
	if _, err := sess.Conversation.Append(conversation.RoleAssistant, greeting); err == nil {
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("failed to record greeting")
		}
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("lane_id", laneID).
		Str("order_id", orderID).
		Int64("restaurant_id", req.RestaurantID).
		Msg("session created")

	return &Started{Session: sess, Greeting: audio.Greeting, GreetingText: greeting, Replaced: replaced}, nil
}

func (s *service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Get(ctx, id)
}

func (s *service) CurrentForLane(ctx context.Context, laneID string) (*Session, error) {
	return s.sessions.GetByLane(ctx, laneID)
}

// ClearSession ends a session. An order that was never confirmed is
// destroyed with it.
func (s *service) ClearSession(ctx context.Context, id string) error {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if sess.OrderID != "" && sess.State != StateConfirmed {
		if err := s.orders.Delete(ctx, sess.OrderID); err != nil && !errors.Is(err, order.ErrOrderNotFound) {
			s.log.Error().Err(err).Str("order_id", sess.OrderID).Msg("failed to delete order")
			return err
		}
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Str("session_id", id).Str("lane_id", sess.LaneID).Msg("session ended")
	return nil
}

// Touch records activity on the session and persists its histories.
func (s *service) Touch(ctx context.Context, sess *Session) error {
	sess.LastActivity = s.now()
	return s.sessions.Save(ctx, sess)
}

// Finalize marks the session confirmed and its order finalized.
func (s *service) Finalize(ctx context.Context, id string) error {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.orders.Finalize(ctx, sess.OrderID); err != nil {
		return err
	}
	sess.State = StateConfirmed
	sess.LastActivity = s.now()
	return s.sessions.Save(ctx, sess)
}

// ReapIdle ends every session idle for longer than ttl.
func (s *service) ReapIdle(ctx context.Context, ttl time.Duration) (int, error) {
	all, err := s.sessions.List(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	reaped := 0
	for _, sess := range all {
		if !sess.Idle(now, ttl) {
			continue
		}
		if err := s.ClearSession(ctx, sess.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to reap idle session")
			continue
		}
		reaped++
	}
	return reaped, nil
}
