package services

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/database"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

// ringPrice is the price of ringProduct at the goldMetal 22K rate:
// 6900×5 = 34500, wastage 3% = 1035, making 500 flat, GST 3% on 36035.
const ringPrice = 37116.05

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenInMemory(strings.NewReplacer("/", "_", " ", "_").Replace(t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Environment: "test",
		Payment:     config.PaymentConfig{Currency: "inr"},
		Pricing:     config.PricingConfig{BatchSize: 100, DefaultGSTPercentage: 3},
	}
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func goldMetal() models.Metal {
	metal := models.Metal{
		Name: "Gold",
		Variants: []models.MetalVariant{
			{ID: uuid.New(), Name: "24K", PricePerGram: 7500, IsActive: true},
			{ID: uuid.New(), Name: "22K", PricePerGram: 6900, IsActive: true},
		},
		DefaultWastagePercentage: 3,
		DefaultMakingCharges:     500,
		DefaultMakingChargeType:  models.MakingChargeFlat,
		IsActive:                 true,
	}
	metal.ID = uuid.New()
	return metal
}

func diamondGemstone() models.Gemstone {
	gemstone := models.Gemstone{
		Name: "Diamond",
		Type: models.GemstoneTypeDiamond,
		Variants: []models.GemstoneVariant{
			{ID: uuid.New(), Name: "VVS1", PricePerCarat: 50000, IsActive: true},
		},
		IsActive: true,
	}
	gemstone.ID = uuid.New()
	return gemstone
}

// ringProduct is a 5g 22K ring stored at the given prices.
func ringProduct(metalID uuid.UUID, storedPrice float64) models.Product {
	product := models.Product{
		Name:   "Classic Band",
		Status: models.ProductStatusActive,
		MetalComposition: []models.MetalComposition{{
			MetalID:          metalID,
			VariantIndex:     1,
			VariantName:      "22K",
			WeightInGrams:    5,
			MakingCharges:    floatPtr(500),
			MakingChargeType: models.MakingChargeFlat,
		}},
		CalculatedPrice: storedPrice,
		FinalPrice:      storedPrice,
	}
	product.ID = uuid.New()
	product.Slug = "classic-band-" + product.ID.String()[:8]
	return product
}

type mockCatalogStore struct {
	mock.Mock
}

func (m *mockCatalogStore) FindActiveMetals(ctx context.Context, ids []uuid.UUID) ([]models.Metal, error) {
	args := m.Called(ctx, ids)
	metals, _ := args.Get(0).([]models.Metal)
	return metals, args.Error(1)
}

func (m *mockCatalogStore) FindActiveGemstones(ctx context.Context, ids []uuid.UUID) ([]models.Gemstone, error) {
	args := m.Called(ctx, ids)
	gemstones, _ := args.Get(0).([]models.Gemstone)
	return gemstones, args.Error(1)
}

func (m *mockCatalogStore) FindAllProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	products, _ := args.Get(0).([]models.Product)
	return products, args.Error(1)
}

func (m *mockCatalogStore) FindProductByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	args := m.Called(ctx, id)
	product, _ := args.Get(0).(*models.Product)
	return product, args.Error(1)
}

func (m *mockCatalogStore) BulkUpdatePrices(ctx context.Context, updates []PriceUpdate, history []models.PriceHistory) error {
	args := m.Called(ctx, updates, history)
	return args.Error(0)
}

func (m *mockCatalogStore) SaveRecalculationRun(ctx context.Context, run *models.RecalculationRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *mockCatalogStore) ListRecalculationRuns(ctx context.Context, limit, offset int) ([]models.RecalculationRun, int64, error) {
	args := m.Called(ctx, limit, offset)
	runs, _ := args.Get(0).([]models.RecalculationRun)
	return runs, args.Get(1).(int64), args.Error(2)
}

// catalogFixture stubs the three catalog reads of a run.
func catalogFixture(metals []models.Metal, gemstones []models.Gemstone, products []models.Product) *mockCatalogStore {
	store := &mockCatalogStore{}
	store.On("FindActiveMetals", mock.Anything, mock.Anything).Return(metals, nil)
	store.On("FindActiveGemstones", mock.Anything, mock.Anything).Return(gemstones, nil)
	store.On("FindAllProducts", mock.Anything).Return(products, nil)
	return store
}

func pageParams(page, limit int) utils.PaginationParams {
	return utils.PaginationParams{Page: page, Limit: limit, Sort: "created_at", Order: "desc"}
}
