// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/database"
	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/pricing"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

type ProductService struct {
	db         *gorm.DB
	store      CatalogStore
	prices     *PriceCache
	defaultGST float64
	currency   string
}

type MetalLineRequest struct {
	MetalID           uuid.UUID               `json:"metal_id" validate:"required"`
	VariantID         uuid.UUID               `json:"variant_id,omitempty"`
	VariantIndex      int                     `json:"variant_index" validate:"min=0"`
	VariantName       string                  `json:"variant_name,omitempty" validate:"max=100"`
	WeightInGrams     float64                 `json:"weight_in_grams" validate:"gte=0"`
	Part              string                  `json:"part,omitempty" validate:"max=100"`
	WastagePercentage *float64                `json:"wastage_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	MakingCharges     *float64                `json:"making_charges,omitempty" validate:"omitempty,gte=0"`
	MakingChargeType  models.MakingChargeType `json:"making_charge_type,omitempty" validate:"making_charge_type"`
}

type GemstoneLineRequest struct {
	GemstoneID       uuid.UUID `json:"gemstone_id" validate:"required"`
	VariantID        uuid.UUID `json:"variant_id,omitempty"`
	VariantIndex     int       `json:"variant_index" validate:"min=0"`
	VariantName      string    `json:"variant_name,omitempty" validate:"max=100"`
	Quantity         *int      `json:"quantity,omitempty" validate:"omitempty,min=1"`
	TotalCaratWeight float64   `json:"total_carat_weight" validate:"gte=0"`
	StoneCharges     float64   `json:"stone_charges" validate:"gte=0"`
	Setting          string    `json:"setting,omitempty"`
	Position         string    `json:"position,omitempty"`
	Certification    string    `json:"certification,omitempty"`
}

type AdditionalChargeRequest struct {
	Label  string  `json:"label" validate:"required,max=100"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

type DiscountRequest struct {
	Type  models.DiscountType `json:"type" validate:"required,discount_type"`
	Value float64             `json:"value" validate:"gte=0"`
}

// ProductPricingRequest is the part of a product that determines its price.
type ProductPricingRequest struct {
	MetalComposition    []MetalLineRequest        `json:"metal_composition" validate:"dive"`
	GemstoneComposition []GemstoneLineRequest     `json:"gemstone_composition" validate:"dive"`
	AdditionalCharges   []AdditionalChargeRequest `json:"additional_charges" validate:"dive"`
	GSTPercentage       *float64                  `json:"gst_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Discount            *DiscountRequest          `json:"discount,omitempty"`
}

type CreateProductRequest struct {
	ProductPricingRequest
	Name           string                 `json:"name" validate:"required,min=2,max=255"`
	Slug           string                 `json:"slug,omitempty" validate:"omitempty,max=280"`
	SKU            string                 `json:"sku,omitempty" validate:"omitempty,max=64"`
	Description    string                 `json:"description,omitempty"`
	Category       string                 `json:"category" validate:"required,max=100"`
	Images         []string               `json:"images,omitempty" validate:"omitempty,dive,url"`
	Tags           []string               `json:"tags,omitempty"`
	Status         models.ProductStatus   `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

// UpdateProductRequest changes only the fields that are set. The product is
// re-priced when any pricing field is present.
type UpdateProductRequest struct {
	Name                *string                    `json:"name,omitempty" validate:"omitempty,min=2,max=255"`
	Description         *string                    `json:"description,omitempty"`
	Category            *string                    `json:"category,omitempty" validate:"omitempty,max=100"`
	Images              []string                   `json:"images,omitempty" validate:"omitempty,dive,url"`
	Tags                []string                   `json:"tags,omitempty"`
	Status              models.ProductStatus       `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
	Specifications      map[string]interface{}     `json:"specifications,omitempty"`
	MetalComposition    *[]MetalLineRequest        `json:"metal_composition,omitempty" validate:"omitempty,dive"`
	GemstoneComposition *[]GemstoneLineRequest     `json:"gemstone_composition,omitempty" validate:"omitempty,dive"`
	AdditionalCharges   *[]AdditionalChargeRequest `json:"additional_charges,omitempty" validate:"omitempty,dive"`
	GSTPercentage       *float64                   `json:"gst_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	Discount            *DiscountRequest           `json:"discount,omitempty"`
	RemoveDiscount      bool                       `json:"remove_discount,omitempty"`
}

func (r *UpdateProductRequest) touchesPricing() bool {
	return r.MetalComposition != nil || r.GemstoneComposition != nil || r.AdditionalCharges != nil ||
		r.GSTPercentage != nil || r.Discount != nil || r.RemoveDiscount
}

type ProductListParams struct {
	utils.PaginationParams
	PublicOnly bool
	PriceMin   *float64
	PriceMax   *float64
}

// PricedComposition is a normalized composition together with its price.
type PricedComposition struct {
	MetalComposition    []models.MetalComposition    `json:"metal_composition"`
	GemstoneComposition []models.GemstoneComposition `json:"gemstone_composition"`
	AdditionalCharges   []models.AdditionalCharge    `json:"additional_charges"`
	GSTPercentage       *float64                     `json:"gst_percentage,omitempty"`
	Discount            *models.Discount             `json:"discount,omitempty"`
	Breakdown           pricing.PriceBreakdown       `json:"breakdown"`
}

type ProductWithBreakdown struct {
	Product   *models.Product         `json:"product"`
	Breakdown *pricing.PriceBreakdown `json:"breakdown,omitempty"`
}

func NewProductService(db *gorm.DB, store CatalogStore, prices *PriceCache, cfg *config.Config) *ProductService {
	defaultGST := cfg.Pricing.DefaultGSTPercentage
	if defaultGST <= 0 {
		defaultGST = pricing.DefaultGSTPercentage
	}
	return &ProductService{
		db:         db,
		store:      store,
		prices:     prices,
		defaultGST: defaultGST,
		currency:   cfg.Payment.Currency,
	}
}

// PriceProduct prices a proposed composition against current material
// rates without saving anything. A reference to a missing material or
// variant is returned as a *pricing.ReferenceError.
func (s *ProductService) PriceProduct(ctx context.Context, req *ProductPricingRequest) (*PricedComposition, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return s.priceComposition(ctx,
		metalLinesToModel(req.MetalComposition),
		gemstoneLinesToModel(req.GemstoneComposition),
		chargesToModel(req.AdditionalCharges),
		req.GSTPercentage,
		discountToModel(req.Discount),
	)
}

// PreviewPrice returns the full breakdown for a live form preview.
func (s *ProductService) PreviewPrice(ctx context.Context, req *ProductPricingRequest) (*pricing.PriceBreakdown, error) {
	priced, err := s.PriceProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	return &priced.Breakdown, nil
}

func (s *ProductService) priceComposition(
	ctx context.Context,
	metalLines []models.MetalComposition,
	gemstoneLines []models.GemstoneComposition,
	charges []models.AdditionalCharge,
	gst *float64,
	discount *models.Discount,
) (*PricedComposition, error) {
	probe := models.Product{MetalComposition: metalLines, GemstoneComposition: gemstoneLines}
	metalIDs, gemstoneIDs := probe.MaterialIDs()

	var metals []models.Metal
	var gemstones []models.Gemstone
	var err error
	if len(metalIDs) > 0 {
		if metals, err = s.store.FindActiveMetals(ctx, metalIDs); err != nil {
			return nil, err
		}
	}
	if len(gemstoneIDs) > 0 {
		if gemstones, err = s.store.FindActiveGemstones(ctx, gemstoneIDs); err != nil {
			return nil, err
		}
	}
	snapshot := pricing.NewCatalogSnapshot(metals, gemstones)

	for i := range metalLines {
		if metal, ok := snapshot.Metals[metalLines[i].MetalID.String()]; ok {
			freezeMetalLine(&metalLines[i], metal)
		}
	}
	for i := range gemstoneLines {
		if gemstone, ok := snapshot.Gemstones[gemstoneLines[i].GemstoneID.String()]; ok {
			freezeGemstoneLine(&gemstoneLines[i], gemstone)
		}
	}

	resolvedMetals, err := pricing.ResolveMetalPrices(metalLines, snapshot.Metals)
	if err != nil {
		return nil, err
	}
	resolvedGemstones, err := pricing.ResolveGemstonePrices(gemstoneLines, snapshot.Gemstones)
	if err != nil {
		return nil, err
	}

	breakdown := pricing.Calculate(pricing.PriceInput{
		MetalEntries:      resolvedMetals,
		GemstoneEntries:   resolvedGemstones,
		AdditionalCharges: charges,
		GSTPercentage:     pricing.GSTOrDefault(gst, s.defaultGST),
		Discount:          discount,
	})
	if !breakdown.Valid() {
		return nil, errors.New("computed price is not a finite number")
	}

	return &PricedComposition{
		MetalComposition:    metalLines,
		GemstoneComposition: gemstoneLines,
		AdditionalCharges:   charges,
		GSTPercentage:       gst,
		Discount:            discount,
		Breakdown:           breakdown,
	}, nil
}

// freezeMetalLine records the variant's stable id and label and fills
// missing charge fields from the metal's defaults.
func freezeMetalLine(line *models.MetalComposition, metal models.Metal) {
	index := line.VariantIndex
	if line.VariantID != uuid.Nil {
		index = -1
		for i, v := range metal.Variants {
			if v.ID == line.VariantID {
				index = i
				break
			}
		}
	}
	if index >= 0 && index < len(metal.Variants) {
		variant := metal.Variants[index]
		line.VariantIndex = index
		line.VariantID = variant.ID
		if line.VariantName == "" {
			line.VariantName = variant.Name
		}
	}

	if line.WastagePercentage == nil && metal.DefaultWastagePercentage > 0 {
		wastage := metal.DefaultWastagePercentage
		line.WastagePercentage = &wastage
	}
	if line.MakingCharges == nil && metal.DefaultMakingCharges > 0 {
		making := metal.DefaultMakingCharges
		line.MakingCharges = &making
		if line.MakingChargeType == "" {
			line.MakingChargeType = metal.DefaultMakingChargeType
		}
	}
	if line.MakingChargeType == "" {
		line.MakingChargeType = models.MakingChargePercentage
	}
}

func freezeGemstoneLine(line *models.GemstoneComposition, gemstone models.Gemstone) {
	index := line.VariantIndex
	if line.VariantID != uuid.Nil {
		index = -1
		for i, v := range gemstone.Variants {
			if v.ID == line.VariantID {
				index = i
				break
			}
		}
	}
	if index >= 0 && index < len(gemstone.Variants) {
		variant := gemstone.Variants[index]
		line.VariantIndex = index
		line.VariantID = variant.ID
		if line.VariantName == "" {
			line.VariantName = variant.Name
		}
	}
	if line.Quantity == nil {
		qty := pricing.DefaultGemstoneQuantity
		line.Quantity = &qty
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*ProductWithBreakdown, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	priced, err := s.PriceProduct(ctx, &req.ProductPricingRequest)
	if err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = utils.Slugify(req.Name)
	}
	if err := s.ensureSlugAvailable(ctx, slug, uuid.Nil); err != nil {
		return nil, err
	}

	sku := req.SKU
	if sku == "" {
		if sku, err = utils.GenerateSKU(req.Category); err != nil {
			return nil, fmt.Errorf("failed to generate SKU: %w", err)
		}
	}

	status := req.Status
	if status == "" {
		status = models.ProductStatusDraft
	}

	product := &models.Product{
		Name:                req.Name,
		Slug:                slug,
		SKU:                 sku,
		Description:         req.Description,
		Category:            req.Category,
		Images:              req.Images,
		Tags:                req.Tags,
		Status:              status,
		MetalComposition:    priced.MetalComposition,
		GemstoneComposition: priced.GemstoneComposition,
		AdditionalCharges:   priced.AdditionalCharges,
		GSTPercentage:       priced.GSTPercentage,
		Discount:            priced.Discount,
		CalculatedPrice:     priced.Breakdown.CalculatedPrice,
		FinalPrice:          priced.Breakdown.FinalPrice,
		Specifications:      datatypes.JSONMap(req.Specifications),
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id":  product.ID,
		"final_price": product.FinalPrice,
	}).Info("Product created")

	return &ProductWithBreakdown{Product: product, Breakdown: &priced.Breakdown}, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*ProductWithBreakdown, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.store.FindProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Images != nil {
		product.Images = req.Images
	}
	if req.Tags != nil {
		product.Tags = req.Tags
	}
	if req.Status != "" {
		product.Status = req.Status
	}
	if req.Specifications != nil {
		product.Specifications = datatypes.JSONMap(req.Specifications)
	}

	var breakdown *pricing.PriceBreakdown
	var history *models.PriceHistory

	if req.touchesPricing() {
		metalLines := product.MetalComposition
		if req.MetalComposition != nil {
			metalLines = metalLinesToModel(*req.MetalComposition)
		}
		gemstoneLines := product.GemstoneComposition
		if req.GemstoneComposition != nil {
			gemstoneLines = gemstoneLinesToModel(*req.GemstoneComposition)
		}
		charges := product.AdditionalCharges
		if req.AdditionalCharges != nil {
			charges = chargesToModel(*req.AdditionalCharges)
		}
		gst := product.GSTPercentage
		if req.GSTPercentage != nil {
			gst = req.GSTPercentage
		}
		discount := product.Discount
		if req.Discount != nil {
			discount = discountToModel(req.Discount)
		}
		if req.RemoveDiscount {
			discount = nil
		}

		priced, err := s.priceComposition(ctx, metalLines, gemstoneLines, charges, gst, discount)
		if err != nil {
			return nil, err
		}

		if priced.Breakdown.FinalPrice != product.FinalPrice || priced.Breakdown.CalculatedPrice != product.CalculatedPrice {
			history = &models.PriceHistory{
				ProductID:          product.ID,
				OldCalculatedPrice: product.CalculatedPrice,
				NewCalculatedPrice: priced.Breakdown.CalculatedPrice,
				OldFinalPrice:      product.FinalPrice,
				NewFinalPrice:      priced.Breakdown.FinalPrice,
				Diff:               pricing.RoundPrice(priced.Breakdown.FinalPrice - product.FinalPrice),
				Reason:             "product_update",
			}
		}

		product.MetalComposition = priced.MetalComposition
		product.GemstoneComposition = priced.GemstoneComposition
		product.AdditionalCharges = priced.AdditionalCharges
		product.GSTPercentage = priced.GSTPercentage
		product.Discount = priced.Discount
		product.CalculatedPrice = priced.Breakdown.CalculatedPrice
		product.FinalPrice = priced.Breakdown.FinalPrice
		breakdown = &priced.Breakdown
	}

	err = database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Save(product).Error; err != nil {
			return fmt.Errorf("failed to update product: %w", err)
		}
		if history != nil {
			if err := tx.Create(history).Error; err != nil {
				return fmt.Errorf("failed to record price history: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidatePrice(ctx, product.ID)

	return &ProductWithBreakdown{Product: product, Breakdown: breakdown}, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	return s.store.FindProductByID(ctx, id)
}

// GetPublicProduct returns an active product by slug for the storefront.
func (s *ProductService) GetPublicProduct(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("slug = ? AND status = ?", slug, models.ProductStatusActive).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

// GetPrice serves the price of an active product, cache-aside.
func (s *ProductService) GetPrice(ctx context.Context, id uuid.UUID) (*CachedPrice, error) {
	if s.prices != nil {
		if price, ok := s.prices.Get(ctx, id); ok {
			return price, nil
		}
	}

	product, err := s.store.FindProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductStatusActive {
		return nil, ErrProductNotFound
	}
	return s.cachePrice(ctx, product), nil
}

// GetPriceBySlug is the storefront price lookup. With the slug mapping and
// the price both cached it answers without a database read.
func (s *ProductService) GetPriceBySlug(ctx context.Context, slug string) (*CachedPrice, error) {
	if s.prices != nil {
		if id, ok := s.prices.ProductIDForSlug(ctx, slug); ok {
			return s.GetPrice(ctx, id)
		}
	}

	product, err := s.GetPublicProduct(ctx, slug)
	if err != nil {
		return nil, err
	}
	price := s.cachePrice(ctx, product)
	if s.prices != nil {
		if err := s.prices.RememberSlug(ctx, slug, product.ID); err != nil {
			logrus.WithError(err).Warn("Failed to cache product slug")
		}
	}
	return price, nil
}

func (s *ProductService) cachePrice(ctx context.Context, product *models.Product) *CachedPrice {
	price := &CachedPrice{
		ProductID:       product.ID,
		CalculatedPrice: product.CalculatedPrice,
		FinalPrice:      product.FinalPrice,
		Currency:        s.currency,
	}
	if s.prices != nil {
		if err := s.prices.Set(ctx, price); err != nil {
			logrus.WithError(err).Warn("Failed to cache product price")
		}
	}
	return price
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	s.invalidatePrice(ctx, id)
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context, params ProductListParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.PublicOnly {
		query = query.Where("status = ?", models.ProductStatusActive)
	} else if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(sku) LIKE ?", searchTerm, searchTerm, searchTerm)
	}

	if params.PriceMin != nil {
		query = query.Where("final_price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("final_price <= ?", *params.PriceMax)
	}

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "name", "final_price"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}

	return products, total, nil
}

func (s *ProductService) GetPriceHistory(ctx context.Context, productID uuid.UUID, limit int) ([]models.PriceHistory, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var history []models.PriceHistory
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Limit(limit).
		Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load price history: %w", err)
	}
	return history, nil
}

func (s *ProductService) ensureSlugAvailable(ctx context.Context, slug string, exceptID uuid.UUID) error {
	var count int64
	query := s.db.WithContext(ctx).Unscoped().Model(&models.Product{}).Where("slug = ?", slug)
	if exceptID != uuid.Nil {
		query = query.Where("id <> ?", exceptID)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("database error: %w", err)
	}
	if count > 0 {
		return ErrSlugTaken
	}
	return nil
}

func (s *ProductService) invalidatePrice(ctx context.Context, id uuid.UUID) {
	if s.prices == nil {
		return
	}
	if err := s.prices.Invalidate(ctx, id); err != nil {
		logrus.WithError(err).WithField("product_id", id).Warn("Failed to invalidate cached price")
	}
}

func metalLinesToModel(lines []MetalLineRequest) []models.MetalComposition {
	out := make([]models.MetalComposition, len(lines))
	for i, l := range lines {
		out[i] = models.MetalComposition{
			MetalID:           l.MetalID,
			VariantID:         l.VariantID,
			VariantIndex:      l.VariantIndex,
			VariantName:       l.VariantName,
			WeightInGrams:     l.WeightInGrams,
			Part:              l.Part,
			WastagePercentage: l.WastagePercentage,
			MakingCharges:     l.MakingCharges,
			MakingChargeType:  l.MakingChargeType,
		}
	}
	return out
}

func gemstoneLinesToModel(lines []GemstoneLineRequest) []models.GemstoneComposition {
	out := make([]models.GemstoneComposition, len(lines))
	for i, l := range lines {
		out[i] = models.GemstoneComposition{
			GemstoneID:       l.GemstoneID,
			VariantID:        l.VariantID,
			VariantIndex:     l.VariantIndex,
			VariantName:      l.VariantName,
			Quantity:         l.Quantity,
			TotalCaratWeight: l.TotalCaratWeight,
			StoneCharges:     l.StoneCharges,
			Setting:          l.Setting,
			Position:         l.Position,
			Certification:    l.Certification,
		}
	}
	return out
}

func chargesToModel(charges []AdditionalChargeRequest) []models.AdditionalCharge {
	out := make([]models.AdditionalCharge, len(charges))
	for i, c := range charges {
		out[i] = models.AdditionalCharge{Label: c.Label, Amount: c.Amount}
	}
	return out
}

func discountToModel(d *DiscountRequest) *models.Discount {
	if d == nil {
		return nil
	}
	return &models.Discount{Type: d.Type, Value: d.Value}
}
