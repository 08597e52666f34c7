package archiverepo

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/infrastructure/metrics"
)

// LogArchiver stands in when no database is configured: it records the
// confirmed order in the service log.
type LogArchiver struct {
	log zerolog.Logger
}

var _ order.Archiver = (*LogArchiver)(nil)

func NewLogArchiver(log zerolog.Logger) *LogArchiver {
	return &LogArchiver{log: log.With().Str("component", "order-archive").Logger()}
}

func (a *LogArchiver) Archive(ctx context.Context, o *order.Order) error {
	a.log.Info().
		Str("order_id", o.ID).
		Str("session_id", o.SessionID).
		Int64("restaurant_id", o.RestaurantID).
		Int("items", o.ItemCount()).
		Str("summary", o.Summary()).
		Str("total", o.Total.StringFixed(2)).
		Msg("order confirmed (not persisted)")
	metrics.RecordArchive(nil)
	return nil
}
