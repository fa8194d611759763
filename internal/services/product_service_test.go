package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/jewelry-backend/internal/cache"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/pricing"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *gorm.DB
	svc     *ProductService
	prices  *PriceCache
	gold    models.Metal
	diamond models.Gemstone
}

func (s *ProductServiceTestSuite) SetupTest() {
	db := newTestDB(s.T())
	s.db = db
	s.ctx = context.Background()

	s.gold = goldMetal()
	s.diamond = diamondGemstone()
	s.Require().NoError(db.Create(&s.gold).Error)
	s.Require().NoError(db.Create(&s.diamond).Error)

	s.prices = NewPriceCache(cache.NewMemoryClient(), time.Minute)
	s.svc = NewProductService(db, NewGormCatalogStore(db), s.prices, testConfig())
}

func (s *ProductServiceTestSuite) ringRequest() *CreateProductRequest {
	return &CreateProductRequest{
		Name:     "Classic Band",
		Category: "rings",
		ProductPricingRequest: ProductPricingRequest{
			MetalComposition: []MetalLineRequest{{
				MetalID:       s.gold.ID,
				VariantIndex:  1,
				WeightInGrams: 5,
			}},
		},
	}
}

func (s *ProductServiceTestSuite) TestCreateAppliesMetalDefaults() {
	result, err := s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.Require().NoError(err)

	product := result.Product
	s.Equal(ringPrice, product.FinalPrice)
	s.Equal(ringPrice, product.CalculatedPrice)
	s.Equal("classic-band", product.Slug)
	s.Equal(models.ProductStatusDraft, product.Status)
	s.Contains(product.SKU, "RIN-")

	line := product.MetalComposition[0]
	s.Equal(s.gold.Variants[1].ID, line.VariantID)
	s.Equal("22K", line.VariantName)
	s.Require().NotNil(line.WastagePercentage)
	s.Equal(3.0, *line.WastagePercentage)
	s.Require().NotNil(line.MakingCharges)
	s.Equal(500.0, *line.MakingCharges)
	s.Equal(models.MakingChargeFlat, line.MakingChargeType)

	s.Require().NotNil(result.Breakdown)
	s.Equal(1081.05, result.Breakdown.GSTAmount)
}

func (s *ProductServiceTestSuite) TestCreateRejectsDuplicateSlug() {
	_, err := s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.Require().NoError(err)

	_, err = s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.ErrorIs(err, ErrSlugTaken)
}

func (s *ProductServiceTestSuite) TestCreateWithDanglingReferenceIsNotSaved() {
	req := s.ringRequest()
	req.MetalComposition[0].MetalID = uuid.New()

	_, err := s.svc.CreateProduct(s.ctx, req)
	s.Require().Error(err)
	var refErr *pricing.ReferenceError
	s.ErrorAs(err, &refErr)
	s.True(errors.Is(err, pricing.ErrMaterialNotFound))

	products, total, err := s.svc.ListProducts(s.ctx, ProductListParams{PaginationParams: pageParams(1, 10)})
	s.Require().NoError(err)
	s.Zero(total)
	s.Empty(products)
}

func (s *ProductServiceTestSuite) TestPreviewWithGemstones() {
	req := &ProductPricingRequest{
		GemstoneComposition: []GemstoneLineRequest{{
			GemstoneID:       s.diamond.ID,
			TotalCaratWeight: 0.5,
			StoneCharges:     1200,
		}},
		GSTPercentage: floatPtr(0),
	}

	breakdown, err := s.svc.PreviewPrice(s.ctx, req)
	s.Require().NoError(err)
	s.Require().Len(breakdown.Gemstones, 1)
	s.Equal(1, breakdown.Gemstones[0].Quantity)
	s.Equal("VVS1", breakdown.Gemstones[0].VariantName)
	s.Equal(25000.0, breakdown.Gemstones[0].RawGemstoneCost)
	s.Equal(26200.0, breakdown.FinalPrice)
}

func (s *ProductServiceTestSuite) TestPreviewRejectsInvalidInput() {
	req := &ProductPricingRequest{
		MetalComposition: []MetalLineRequest{{
			MetalID:          s.gold.ID,
			WeightInGrams:    -1,
			MakingChargeType: "per_piece",
		}},
	}

	_, err := s.svc.PreviewPrice(s.ctx, req)
	s.Require().Error(err)
	s.Len(utils.GetValidationErrors(err), 2)
}

func (s *ProductServiceTestSuite) TestUpdateRepricesAndRecordsHistory() {
	created, err := s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.Require().NoError(err)
	id := created.Product.ID

	_, err = s.svc.GetPrice(s.ctx, id)
	s.Require().ErrorIs(err, ErrProductNotFound) // still a draft

	active := models.ProductStatusActive
	_, err = s.svc.UpdateProduct(s.ctx, id, &UpdateProductRequest{Status: active})
	s.Require().NoError(err)

	price, err := s.svc.GetPrice(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(ringPrice, price.FinalPrice)
	s.Equal("inr", price.Currency)

	updated, err := s.svc.UpdateProduct(s.ctx, id, &UpdateProductRequest{
		Discount: &DiscountRequest{Type: models.DiscountTypePercentage, Value: 10},
	})
	s.Require().NoError(err)
	s.Equal(33404.44, updated.Product.FinalPrice)
	s.Equal(ringPrice, updated.Product.CalculatedPrice)
	s.Require().NotNil(updated.Breakdown)
	s.Equal(3711.61, updated.Breakdown.DiscountAmount)

	// The cached price was dropped by the update.
	cached, ok := s.prices.Get(s.ctx, id)
	s.False(ok)
	s.Nil(cached)

	history, err := s.svc.GetPriceHistory(s.ctx, id, 0)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal("product_update", history[0].Reason)
	s.Equal(ringPrice, history[0].OldFinalPrice)
	s.Equal(33404.44, history[0].NewFinalPrice)
	s.Equal(-3711.61, history[0].Diff)

	removed, err := s.svc.UpdateProduct(s.ctx, id, &UpdateProductRequest{RemoveDiscount: true})
	s.Require().NoError(err)
	s.Nil(removed.Product.Discount)
	s.Equal(ringPrice, removed.Product.FinalPrice)
}

func (s *ProductServiceTestSuite) TestPriceBySlugServedFromCache() {
	req := s.ringRequest()
	req.Status = models.ProductStatusActive
	created, err := s.svc.CreateProduct(s.ctx, req)
	s.Require().NoError(err)

	queries := 0
	s.Require().NoError(s.db.Callback().Query().After("gorm:query").
		Register("test:count_queries", func(*gorm.DB) { queries++ }))

	first, err := s.svc.GetPriceBySlug(s.ctx, "classic-band")
	s.Require().NoError(err)
	s.Equal(ringPrice, first.FinalPrice)
	s.Equal(created.Product.ID, first.ProductID)
	s.Equal(1, queries)

	second, err := s.svc.GetPriceBySlug(s.ctx, "classic-band")
	s.Require().NoError(err)
	s.Equal(ringPrice, second.FinalPrice)
	s.Equal(1, queries, "a cached price is served without a database read")

	_, err = s.svc.UpdateProduct(s.ctx, created.Product.ID, &UpdateProductRequest{Status: models.ProductStatusDraft})
	s.Require().NoError(err)

	_, err = s.svc.GetPriceBySlug(s.ctx, "classic-band")
	s.ErrorIs(err, ErrProductNotFound)

	_, err = s.svc.GetPriceBySlug(s.ctx, "no-such-ring")
	s.ErrorIs(err, ErrProductNotFound)
}

func (s *ProductServiceTestSuite) TestUpdateWithoutPricingFieldsKeepsPrice() {
	created, err := s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.Require().NoError(err)

	name := "Classic Band II"
	updated, err := s.svc.UpdateProduct(s.ctx, created.Product.ID, &UpdateProductRequest{Name: &name})
	s.Require().NoError(err)
	s.Nil(updated.Breakdown)
	s.Equal(name, updated.Product.Name)
	s.Equal(ringPrice, updated.Product.FinalPrice)

	history, err := s.svc.GetPriceHistory(s.ctx, created.Product.ID, 10)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ProductServiceTestSuite) TestPublicProductAndList() {
	req := s.ringRequest()
	req.Status = models.ProductStatusActive
	active, err := s.svc.CreateProduct(s.ctx, req)
	s.Require().NoError(err)

	draftReq := s.ringRequest()
	draftReq.Name = "Draft Band"
	_, err = s.svc.CreateProduct(s.ctx, draftReq)
	s.Require().NoError(err)

	found, err := s.svc.GetPublicProduct(s.ctx, active.Product.Slug)
	s.Require().NoError(err)
	s.Equal(active.Product.ID, found.ID)

	_, err = s.svc.GetPublicProduct(s.ctx, "draft-band")
	s.ErrorIs(err, ErrProductNotFound)

	products, total, err := s.svc.ListProducts(s.ctx, ProductListParams{PaginationParams: pageParams(1, 10), PublicOnly: true})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Len(products, 1)

	params := ProductListParams{PaginationParams: pageParams(1, 10), PriceMin: floatPtr(40000)}
	_, total, err = s.svc.ListProducts(s.ctx, params)
	s.Require().NoError(err)
	s.Zero(total)

	params = ProductListParams{PaginationParams: pageParams(1, 10)}
	params.Search = "draft"
	products, total, err = s.svc.ListProducts(s.ctx, params)
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("Draft Band", products[0].Name)
}

func (s *ProductServiceTestSuite) TestDeleteProduct() {
	created, err := s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.Require().NoError(err)

	s.Require().NoError(s.svc.DeleteProduct(s.ctx, created.Product.ID))
	s.ErrorIs(s.svc.DeleteProduct(s.ctx, created.Product.ID), ErrProductNotFound)

	_, err = s.svc.GetProduct(s.ctx, created.Product.ID)
	s.ErrorIs(err, ErrProductNotFound)

	// Soft-deleted slugs stay reserved.
	_, err = s.svc.CreateProduct(s.ctx, s.ringRequest())
	s.ErrorIs(err, ErrSlugTaken)
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}

func TestFreezeMetalLinePrefersStableID(t *testing.T) {
	gold := goldMetal()
	line := models.MetalComposition{MetalID: gold.ID, VariantID: gold.Variants[0].ID, VariantIndex: 1}

	freezeMetalLine(&line, gold)

	assert.Equal(t, 0, line.VariantIndex)
	assert.Equal(t, "24K", line.VariantName)
	assert.Equal(t, models.MakingChargeFlat, line.MakingChargeType)
}

func TestFreezeMetalLineKeepsExplicitValues(t *testing.T) {
	gold := goldMetal()
	line := models.MetalComposition{
		MetalID:           gold.ID,
		VariantIndex:      1,
		VariantName:       "22K Hallmarked",
		WastagePercentage: floatPtr(0),
		MakingCharges:     floatPtr(12),
		MakingChargeType:  models.MakingChargePercentage,
	}

	freezeMetalLine(&line, gold)

	assert.Equal(t, "22K Hallmarked", line.VariantName)
	assert.Equal(t, 0.0, *line.WastagePercentage)
	assert.Equal(t, 12.0, *line.MakingCharges)
	assert.Equal(t, models.MakingChargePercentage, line.MakingChargeType)
}

func TestFreezeGemstoneLineDefaultsQuantity(t *testing.T) {
	diamond := diamondGemstone()
	line := models.GemstoneComposition{GemstoneID: diamond.ID}

	freezeGemstoneLine(&line, diamond)

	require.NotNil(t, line.Quantity)
	assert.Equal(t, 1, *line.Quantity)
	assert.Equal(t, diamond.Variants[0].ID, line.VariantID)

	explicit := models.GemstoneComposition{GemstoneID: diamond.ID, Quantity: intPtr(4)}
	freezeGemstoneLine(&explicit, diamond)
	assert.Equal(t, 4, *explicit.Quantity)
}
