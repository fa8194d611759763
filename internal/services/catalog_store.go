// internal/services/catalog_store.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/jewelry-backend/internal/database"
	"github.com/javajoker/jewelry-backend/internal/models"
)

// PriceUpdate sets the two derived price fields of one product.
type PriceUpdate struct {
	ProductID       uuid.UUID
	CalculatedPrice float64
	FinalPrice      float64
}

// CatalogStore is the persistence boundary of the pricing engine.
type CatalogStore interface {
	// FindActiveMetals returns metals that are not soft-deleted. An empty
	// id list means all of them.
	FindActiveMetals(ctx context.Context, ids []uuid.UUID) ([]models.Metal, error)
	FindActiveGemstones(ctx context.Context, ids []uuid.UUID) ([]models.Gemstone, error)
	FindAllProducts(ctx context.Context) ([]models.Product, error)
	FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	BulkUpdatePrices(ctx context.Context, updates []PriceUpdate, history []models.PriceHistory) error
	SaveRecalculationRun(ctx context.Context, run *models.RecalculationRun) error
	ListRecalculationRuns(ctx context.Context, limit, offset int) ([]models.RecalculationRun, int64, error)
}

type GormCatalogStore struct {
	db *gorm.DB
}

func NewGormCatalogStore(db *gorm.DB) *GormCatalogStore {
	return &GormCatalogStore{db: db}
}

func (s *GormCatalogStore) FindActiveMetals(ctx context.Context, ids []uuid.UUID) ([]models.Metal, error) {
	var metals []models.Metal
	query := s.db.WithContext(ctx).Order("created_at, id")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if err := query.Find(&metals).Error; err != nil {
		return nil, fmt.Errorf("failed to load metals: %w", err)
	}
	return metals, nil
}

func (s *GormCatalogStore) FindActiveGemstones(ctx context.Context, ids []uuid.UUID) ([]models.Gemstone, error) {
	var gemstones []models.Gemstone
	query := s.db.WithContext(ctx).Order("created_at, id")
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	if err := query.Find(&gemstones).Error; err != nil {
		return nil, fmt.Errorf("failed to load gemstones: %w", err)
	}
	return gemstones, nil
}

func (s *GormCatalogStore) FindAllProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

func (s *GormCatalogStore) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// BulkUpdatePrices writes every update with a single UPDATE statement and
// records the history rows in the same transaction.
func (s *GormCatalogStore) BulkUpdatePrices(ctx context.Context, updates []PriceUpdate, history []models.PriceHistory) error {
	if len(updates) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(updates))
	calculatedArgs := make([]interface{}, 0, len(updates)*2)
	finalArgs := make([]interface{}, 0, len(updates)*2)
	var calculatedCase, finalCase strings.Builder

	calculatedCase.WriteString("CASE id")
	finalCase.WriteString("CASE id")
	for _, u := range updates {
		ids = append(ids, u.ProductID)
		calculatedCase.WriteString(" WHEN ? THEN CAST(? AS NUMERIC)")
		finalCase.WriteString(" WHEN ? THEN CAST(? AS NUMERIC)")
		calculatedArgs = append(calculatedArgs, u.ProductID, u.CalculatedPrice)
		finalArgs = append(finalArgs, u.ProductID, u.FinalPrice)
	}
	calculatedCase.WriteString(" ELSE calculated_price END")
	finalCase.WriteString(" ELSE final_price END")

	return database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"calculated_price": gorm.Expr(calculatedCase.String(), calculatedArgs...),
				"final_price":      gorm.Expr(finalCase.String(), finalArgs...),
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update prices: %w", result.Error)
		}

		if len(history) > 0 {
			if err := tx.CreateInBatches(history, 100).Error; err != nil {
				return fmt.Errorf("failed to record price history: %w", err)
			}
		}
		return nil
	})
}

func (s *GormCatalogStore) SaveRecalculationRun(ctx context.Context, run *models.RecalculationRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("failed to save recalculation run: %w", err)
	}
	return nil
}

func (s *GormCatalogStore) ListRecalculationRuns(ctx context.Context, limit, offset int) ([]models.RecalculationRun, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.RecalculationRun{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recalculation runs: %w", err)
	}

	var runs []models.RecalculationRun
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recalculation runs: %w", err)
	}
	return runs, total, nil
}
