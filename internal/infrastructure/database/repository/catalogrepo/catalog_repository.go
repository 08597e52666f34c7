package catalogrepo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/drivethru-server/internal/domain/menu"
	"github.com/janhq/drivethru-server/internal/infrastructure/database/dbschema"
	"github.com/janhq/drivethru-server/internal/utils/platformerrors"
)

// CatalogGormRepository serves the menu catalog from Postgres.
type CatalogGormRepository struct {
	db *gorm.DB
}

var _ menu.Source = (*CatalogGormRepository)(nil)

func NewCatalogGormRepository(db *gorm.DB) *CatalogGormRepository {
	return &CatalogGormRepository{db: db}
}

// Restaurant implements menu.Source.
func (repo *CatalogGormRepository) Restaurant(ctx context.Context, restaurantID int64) (*menu.Restaurant, error) {
	var row dbschema.Restaurant
	if err := repo.db.WithContext(ctx).First(&row, "id = ?", restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, menu.ErrRestaurantNotFound
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to find restaurant")
	}
	return row.EtoD(), nil
}

// Items implements menu.Source.
func (repo *CatalogGormRepository) Items(ctx context.Context, restaurantID int64) ([]menu.Item, error) {
	var rows []dbschema.MenuItem
	if err := repo.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list menu items")
	}
	items := make([]menu.Item, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].EtoD())
	}
	return items, nil
}

// Ingredients implements menu.Source.
func (repo *CatalogGormRepository) Ingredients(ctx context.Context, restaurantID int64) ([]menu.Ingredient, error) {
	var rows []dbschema.Ingredient
	if err := repo.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to list ingredients")
	}
	out := make([]menu.Ingredient, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].EtoD())
	}
	return out, nil
}

// Upsert writes a restaurant and its catalog, replacing rows with the same
// ids. Used to seed the database from the YAML menu.
func (repo *CatalogGormRepository) Upsert(ctx context.Context, r *menu.Restaurant, items []menu.Item, ingredients []menu.Ingredient) error {
	return repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{UpdateAll: true})
		if err := upsert.Create(dbschema.RestaurantDtoE(r)).Error; err != nil {
			return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to upsert restaurant")
		}
		for _, ing := range ingredients {
			ing.RestaurantID = r.ID
			if err := upsert.Create(dbschema.IngredientDtoE(ing)).Error; err != nil {
				return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to upsert ingredient")
			}
		}
		for _, item := range items {
			item.RestaurantID = r.ID
			row, err := dbschema.MenuItemDtoE(item)
			if err != nil {
				return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to encode menu item")
			}
			if err := upsert.Create(row).Error; err != nil {
				return platformerrors.AsError(ctx, platformerrors.LayerRepository, err, "failed to upsert menu item")
			}
		}
		return nil
	})
}
