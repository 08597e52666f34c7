package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/domain/session"
	"github.com/janhq/drivethru-server/internal/infrastructure/cache"
)

// Key layout:
//
//	drivethru:v1:session:{id}        session JSON
//	drivethru:v1:lane:{lane}         current session id of a lane
//	drivethru:v1:sessions            set of live session ids
//	drivethru:v1:order:{id}          order JSON
//	drivethru:v1:session-order:{id}  order id of a session
func sessionKey(id string) string      { return cache.Key("session", id) }
func laneKey(lane string) string       { return cache.Key("lane", lane) }
func sessionSetKey() string            { return cache.Key("sessions") }
func orderKey(id string) string        { return cache.Key("order", id) }
func sessionOrderKey(id string) string { return cache.Key("session-order", id) }

// RedisSessionStore keeps sessions in Redis so several API replicas can
// serve the same lanes.
type RedisSessionStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
	log   zerolog.Logger
}

// NewRedisSessionStore creates a Redis-backed session store. Keys expire
// after ttl without a write.
func NewRedisSessionStore(c *cache.RedisCache, ttl time.Duration, log zerolog.Logger) *RedisSessionStore {
	return &RedisSessionStore{
		cache: c,
		ttl:   ttl,
		log:   log.With().Str("component", "redis-session-store").Logger(),
	}
}

// Create stores a new session and makes it current for its lane.
func (s *RedisSessionStore) Create(ctx context.Context, sess *session.Session) error {
	ok, err := s.cache.Client().SetNX(ctx, sessionKey(sess.ID), "", s.ttl).Result()
	if err != nil {
		return fmt.Errorf("reserve session key: %w", err)
	}
	if !ok {
		return session.ErrSessionAlreadyExists
	}
	if err := cache.SetJSON(ctx, s.cache, sessionKey(sess.ID), sess, s.ttl); err != nil {
		return err
	}

	pipe := s.cache.Client().TxPipeline()
	pipe.Set(ctx, laneKey(sess.LaneID), sess.ID, s.ttl)
	pipe.SAdd(ctx, sessionSetKey(), sess.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *RedisSessionStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := cache.GetJSON[session.Session](ctx, s.cache, sessionKey(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, session.ErrSessionNotFound
	}
	return sess, err
}

// GetByLane retrieves the current session of a lane.
func (s *RedisSessionStore) GetByLane(ctx context.Context, laneID string) (*session.Session, error) {
	id, err := s.cache.Get(ctx, laneKey(laneID))
	if errors.Is(err, cache.ErrMiss) {
		return nil, session.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Save replaces a stored session and refreshes its TTL.
func (s *RedisSessionStore) Save(ctx context.Context, sess *session.Session) error {
	return s.cache.WithLock(ctx, "session:"+sess.ID, lockTTL, func() error {
		exists, err := s.cache.Client().Exists(ctx, sessionKey(sess.ID)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return session.ErrSessionNotFound
		}
		if err := cache.SetJSON(ctx, s.cache, sessionKey(sess.ID), sess, s.ttl); err != nil {
			return err
		}
		return s.cache.Expire(ctx, laneKey(sess.LaneID), s.ttl)
	})
}

// Delete removes a session by ID.
func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	pipe := s.cache.Client().TxPipeline()
	pipe.Del(ctx, sessionKey(id))
	pipe.SRem(ctx, sessionSetKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	// only drop the lane pointer if it still names this session
	current, err := s.cache.Get(ctx, laneKey(sess.LaneID))
	if err == nil && current == id {
		return s.cache.Delete(ctx, laneKey(sess.LaneID))
	}
	return nil
}

// List returns all live sessions. Ids whose key already expired are pruned
// from the index.
func (s *RedisSessionStore) List(ctx context.Context) ([]*session.Session, error) {
	ids, err := s.cache.Client().SMembers(ctx, sessionSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	result := make([]*session.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.Get(ctx, id)
		if errors.Is(err, session.ErrSessionNotFound) {
			if err := s.cache.Client().SRem(ctx, sessionSetKey(), id).Err(); err != nil {
				s.log.Warn().Err(err).Str("session_id", id).Msg("failed to prune session index")
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		result = append(result, sess)
	}
	return result, nil
}

const lockTTL = 5 * time.Second

// RedisOrderStore keeps orders in Redis. Every mutation runs under a
// per-order distributed lock.
type RedisOrderStore struct {
	cache   *cache.RedisCache
	ttl     time.Duration
	lockTTL time.Duration
	log     zerolog.Logger
}

// NewRedisOrderStore creates a Redis-backed order store.
func NewRedisOrderStore(c *cache.RedisCache, ttl, lockTTL time.Duration, log zerolog.Logger) *RedisOrderStore {
	return &RedisOrderStore{
		cache:   c,
		ttl:     ttl,
		lockTTL: lockTTL,
		log:     log.With().Str("component", "redis-order-store").Logger(),
	}
}

// Create stores a new order.
func (s *RedisOrderStore) Create(ctx context.Context, o *order.Order) error {
	if err := cache.SetJSON(ctx, s.cache, orderKey(o.ID), o, s.ttl); err != nil {
		return err
	}
	return s.cache.Set(ctx, sessionOrderKey(o.SessionID), o.ID, s.ttl)
}

// Get retrieves an order by ID.
func (s *RedisOrderStore) Get(ctx context.Context, id string) (*order.Order, error) {
	o, err := cache.GetJSON[order.Order](ctx, s.cache, orderKey(id))
	if errors.Is(err, cache.ErrMiss) {
		return nil, order.ErrOrderNotFound
	}
	return o, err
}

// GetBySession retrieves the order linked to a session.
func (s *RedisOrderStore) GetBySession(ctx context.Context, sessionID string) (*order.Order, error) {
	id, err := s.cache.Get(ctx, sessionOrderKey(sessionID))
	if errors.Is(err, cache.ErrMiss) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Save replaces the stored order.
func (s *RedisOrderStore) Save(ctx context.Context, o *order.Order) error {
	return s.update(ctx, o.ID, func(*order.Order) *order.Order { return o })
}

// Clear empties an order's lines.
func (s *RedisOrderStore) Clear(ctx context.Context, id string) error {
	return s.update(ctx, id, func(o *order.Order) *order.Order {
		o.Clear()
		return o
	})
}

// Finalize marks an order confirmed.
func (s *RedisOrderStore) Finalize(ctx context.Context, id string) error {
	return s.update(ctx, id, func(o *order.Order) *order.Order {
		o.Status = order.StatusConfirmed
		return o
	})
}

// Delete removes an order.
func (s *RedisOrderStore) Delete(ctx context.Context, id string) error {
	o, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, orderKey(id), sessionOrderKey(o.SessionID))
}

// update loads, mutates and writes back an order under its lock.
func (s *RedisOrderStore) update(ctx context.Context, id string, mutate func(*order.Order) *order.Order) error {
	return s.cache.WithLock(ctx, "order:"+id, s.lockTTL, func() error {
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		next := mutate(current)
		if err := cache.SetJSON(ctx, s.cache, orderKey(id), next, s.ttl); err != nil {
			return err
		}
		if err := s.cache.Expire(ctx, sessionOrderKey(next.SessionID), s.ttl); err != nil {
			s.log.Warn().Err(err).Str("order_id", id).Msg("failed to refresh session index ttl")
		}
		return nil
	})
}

var (
	_ session.Store = (*RedisSessionStore)(nil)
	_ order.Store   = (*RedisOrderStore)(nil)
)
