package archiverepo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/drivethru-server/internal/domain/order"
	"github.com/janhq/drivethru-server/internal/infrastructure/database/dbschema"
	"github.com/janhq/drivethru-server/internal/infrastructure/metrics"
	"github.com/janhq/drivethru-server/internal/utils/platformerrors"
)

// OrderArchiveGormRepository writes confirmed orders to Postgres.
type OrderArchiveGormRepository struct {
	db  *gorm.DB
	now func() time.Time
	log zerolog.Logger
}

var _ order.Archiver = (*OrderArchiveGormRepository)(nil)

func NewOrderArchiveGormRepository(db *gorm.DB, log zerolog.Logger) *OrderArchiveGormRepository {
	return &OrderArchiveGormRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
		log: log.With().Str("component", "order-archive").Logger(),
	}
}

// Archive implements order.Archiver. Archiving the same order twice is a
// no-op.
func (repo *OrderArchiveGormRepository) Archive(ctx context.Context, o *order.Order) error {
	err := repo.archive(ctx, o)
	metrics.RecordArchive(err)
	return err
}

func (repo *OrderArchiveGormRepository) archive(ctx context.Context, o *order.Order) error {
	row, err := dbschema.NewSchemaArchivedOrder(o, repo.now())
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to encode order snapshot")
	}

	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing dbschema.ArchivedOrder
		err := tx.Where("public_id = ?", o.ID).Select("id").First(&existing).Error
		if err == nil {
			repo.log.Debug().Str("order_id", o.ID).Msg("order already archived")
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to look up archived order")
		}
		if err := tx.Create(row).Error; err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to archive order")
		}
		repo.log.Info().
			Str("order_id", o.ID).
			Int("items", row.ItemCount).
			Str("total", row.Total.StringFixed(2)).
			Msg("order archived")
		return nil
	})
}

// FindByPublicID loads an archived order.
func (repo *OrderArchiveGormRepository) FindByPublicID(ctx context.Context, publicID string) (*order.Order, error) {
	var row dbschema.ArchivedOrder
	if err := repo.db.WithContext(ctx).Where("public_id = ?", publicID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, order.ErrOrderNotFound
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find archived order")
	}
	return row.EtoD()
}
