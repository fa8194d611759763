// internal/services/material_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/jewelry-backend/internal/models"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

// MaterialService manages metals and gemstones. Variant lists are only ever
// appended to or edited in place; no operation here reorders or removes a
// variant.
type MaterialService struct {
	db *gorm.DB
}

type MetalVariantRequest struct {
	Name         string  `json:"name" validate:"required,max=100"`
	PricePerGram float64 `json:"price_per_gram" validate:"gte=0"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

type GemstoneVariantRequest struct {
	Name          string  `json:"name" validate:"required,max=100"`
	PricePerCarat float64 `json:"price_per_carat" validate:"gte=0"`
	IsActive      *bool   `json:"is_active,omitempty"`
}

// UpdateVariantRequest edits one variant in place.
type UpdateVariantRequest struct {
	Name     *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	IsActive *bool    `json:"is_active,omitempty"`
}

type CreateMetalRequest struct {
	Name                     string                  `json:"name" validate:"required,min=2,max=100"`
	Description              string                  `json:"description,omitempty"`
	Variants                 []MetalVariantRequest   `json:"variants" validate:"dive"`
	DefaultWastagePercentage float64                 `json:"default_wastage_percentage" validate:"gte=0,lte=100"`
	DefaultMakingCharges     float64                 `json:"default_making_charges" validate:"gte=0"`
	DefaultMakingChargeType  models.MakingChargeType `json:"default_making_charge_type,omitempty" validate:"making_charge_type"`
}

type UpdateMetalRequest struct {
	Name                     *string                 `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Description              *string                 `json:"description,omitempty"`
	DefaultWastagePercentage *float64                `json:"default_wastage_percentage,omitempty" validate:"omitempty,gte=0,lte=100"`
	DefaultMakingCharges     *float64                `json:"default_making_charges,omitempty" validate:"omitempty,gte=0"`
	DefaultMakingChargeType  models.MakingChargeType `json:"default_making_charge_type,omitempty" validate:"making_charge_type"`
	IsActive                 *bool                   `json:"is_active,omitempty"`
}

type CreateGemstoneRequest struct {
	Name        string                   `json:"name" validate:"required,min=2,max=100"`
	Type        models.GemstoneType      `json:"type" validate:"required,oneof=diamond precious semi_precious organic"`
	Description string                   `json:"description,omitempty"`
	Variants    []GemstoneVariantRequest `json:"variants" validate:"dive"`
}

type UpdateGemstoneRequest struct {
	Name        *string             `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Type        models.GemstoneType `json:"type,omitempty" validate:"omitempty,oneof=diamond precious semi_precious organic"`
	Description *string             `json:"description,omitempty"`
	IsActive    *bool               `json:"is_active,omitempty"`
}

var errStopScan = errors.New("stop scan")

func NewMaterialService(db *gorm.DB) *MaterialService {
	return &MaterialService{db: db}
}

func boolOrDefault(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}

// Metals

func (s *MaterialService) CreateMetal(ctx context.Context, req *CreateMetalRequest) (*models.Metal, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	chargeType := req.DefaultMakingChargeType
	if chargeType == "" {
		chargeType = models.MakingChargePercentage
	}

	metal := &models.Metal{
		Name:                     req.Name,
		Description:              req.Description,
		Variants:                 make([]models.MetalVariant, 0, len(req.Variants)),
		DefaultWastagePercentage: req.DefaultWastagePercentage,
		DefaultMakingCharges:     req.DefaultMakingCharges,
		DefaultMakingChargeType:  chargeType,
		IsActive:                 true,
	}
	for _, v := range req.Variants {
		metal.Variants = append(metal.Variants, models.MetalVariant{
			ID:           uuid.New(),
			Name:         v.Name,
			PricePerGram: v.PricePerGram,
			IsActive:     boolOrDefault(v.IsActive, true),
		})
	}

	if err := s.db.WithContext(ctx).Create(metal).Error; err != nil {
		return nil, fmt.Errorf("failed to create metal: %w", err)
	}
	return metal, nil
}

func (s *MaterialService) ListMetals(ctx context.Context, params utils.PaginationParams) ([]models.Metal, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Metal{})
	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count metals: %w", err)
	}

	var metals []models.Metal
	query = utils.ApplySort(query, params, []string{"created_at", "name"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&metals).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list metals: %w", err)
	}
	return metals, total, nil
}

func (s *MaterialService) GetMetal(ctx context.Context, id uuid.UUID) (*models.Metal, error) {
	var metal models.Metal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&metal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMetalNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &metal, nil
}

func (s *MaterialService) UpdateMetal(ctx context.Context, id uuid.UUID, req *UpdateMetalRequest) (*models.Metal, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	metal, err := s.GetMetal(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		metal.Name = *req.Name
	}
	if req.Description != nil {
		metal.Description = *req.Description
	}
	if req.DefaultWastagePercentage != nil {
		metal.DefaultWastagePercentage = *req.DefaultWastagePercentage
	}
	if req.DefaultMakingCharges != nil {
		metal.DefaultMakingCharges = *req.DefaultMakingCharges
	}
	if req.DefaultMakingChargeType != "" {
		metal.DefaultMakingChargeType = req.DefaultMakingChargeType
	}
	if req.IsActive != nil {
		metal.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(metal).Error; err != nil {
		return nil, fmt.Errorf("failed to update metal: %w", err)
	}
	return metal, nil
}

// AddMetalVariant appends a variant. Existing indices are unchanged.
func (s *MaterialService) AddMetalVariant(ctx context.Context, metalID uuid.UUID, req *MetalVariantRequest) (*models.Metal, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	metal, err := s.GetMetal(ctx, metalID)
	if err != nil {
		return nil, err
	}

	metal.Variants = append(metal.Variants, models.MetalVariant{
		ID:           uuid.New(),
		Name:         req.Name,
		PricePerGram: req.PricePerGram,
		IsActive:     boolOrDefault(req.IsActive, true),
	})

	if err := s.db.WithContext(ctx).Save(metal).Error; err != nil {
		return nil, fmt.Errorf("failed to add metal variant: %w", err)
	}
	return metal, nil
}

// UpdateMetalVariant edits the variant at index in place. Product prices
// follow on the next recalculation run.
func (s *MaterialService) UpdateMetalVariant(ctx context.Context, metalID uuid.UUID, index int, req *UpdateVariantRequest) (*models.Metal, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	metal, err := s.GetMetal(ctx, metalID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(metal.Variants) {
		return nil, ErrVariantNotFound
	}

	variant := &metal.Variants[index]
	old := *variant
	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.Price != nil {
		variant.PricePerGram = *req.Price
	}
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(metal).Error; err != nil {
		return nil, fmt.Errorf("failed to update metal variant: %w", err)
	}

	if old.PricePerGram != variant.PricePerGram {
		logrus.WithFields(logrus.Fields{
			"metal_id":  metal.ID,
			"variant":   variant.Name,
			"old_price": old.PricePerGram,
			"new_price": variant.PricePerGram,
		}).Info("Metal rate changed")
	}
	return metal, nil
}

// DeleteMetal soft-deletes a metal. Unless force is set, a metal still used
// by a product is refused; forced deletes leave those products failing in
// recalculation until they are edited.
func (s *MaterialService) DeleteMetal(ctx context.Context, id uuid.UUID, force bool) error {
	if !force {
		inUse, err := s.materialInUse(ctx, func(p *models.Product) bool {
			for _, line := range p.MetalComposition {
				if line.MetalID == id {
					return true
				}
			}
			return false
		})
		if err != nil {
			return err
		}
		if inUse {
			return ErrMaterialInUse
		}
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Metal{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete metal: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrMetalNotFound
	}
	return nil
}

// Gemstones

func (s *MaterialService) CreateGemstone(ctx context.Context, req *CreateGemstoneRequest) (*models.Gemstone, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	gemstone := &models.Gemstone{
		Name:        req.Name,
		Type:        req.Type,
		Description: req.Description,
		Variants:    make([]models.GemstoneVariant, 0, len(req.Variants)),
		IsActive:    true,
	}
	for _, v := range req.Variants {
		gemstone.Variants = append(gemstone.Variants, models.GemstoneVariant{
			ID:            uuid.New(),
			Name:          v.Name,
			PricePerCarat: v.PricePerCarat,
			IsActive:      boolOrDefault(v.IsActive, true),
		})
	}

	if err := s.db.WithContext(ctx).Create(gemstone).Error; err != nil {
		return nil, fmt.Errorf("failed to create gemstone: %w", err)
	}
	return gemstone, nil
}

func (s *MaterialService) ListGemstones(ctx context.Context, params utils.PaginationParams) ([]models.Gemstone, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Gemstone{})
	if params.Search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+params.Search+"%")
	}
	if params.Category != "" {
		query = query.Where("type = ?", params.Category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count gemstones: %w", err)
	}

	var gemstones []models.Gemstone
	query = utils.ApplySort(query, params, []string{"created_at", "name", "type"})
	query = utils.ApplyPagination(query, params)
	if err := query.Find(&gemstones).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list gemstones: %w", err)
	}
	return gemstones, total, nil
}

func (s *MaterialService) GetGemstone(ctx context.Context, id uuid.UUID) (*models.Gemstone, error) {
	var gemstone models.Gemstone
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&gemstone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGemstoneNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &gemstone, nil
}

func (s *MaterialService) UpdateGemstone(ctx context.Context, id uuid.UUID, req *UpdateGemstoneRequest) (*models.Gemstone, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	gemstone, err := s.GetGemstone(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		gemstone.Name = *req.Name
	}
	if req.Type != "" {
		gemstone.Type = req.Type
	}
	if req.Description != nil {
		gemstone.Description = *req.Description
	}
	if req.IsActive != nil {
		gemstone.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(gemstone).Error; err != nil {
		return nil, fmt.Errorf("failed to update gemstone: %w", err)
	}
	return gemstone, nil
}

func (s *MaterialService) AddGemstoneVariant(ctx context.Context, gemstoneID uuid.UUID, req *GemstoneVariantRequest) (*models.Gemstone, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	gemstone, err := s.GetGemstone(ctx, gemstoneID)
	if err != nil {
		return nil, err
	}

	gemstone.Variants = append(gemstone.Variants, models.GemstoneVariant{
		ID:            uuid.New(),
		Name:          req.Name,
		PricePerCarat: req.PricePerCarat,
		IsActive:      boolOrDefault(req.IsActive, true),
	})

	if err := s.db.WithContext(ctx).Save(gemstone).Error; err != nil {
		return nil, fmt.Errorf("failed to add gemstone variant: %w", err)
	}
	return gemstone, nil
}

func (s *MaterialService) UpdateGemstoneVariant(ctx context.Context, gemstoneID uuid.UUID, index int, req *UpdateVariantRequest) (*models.Gemstone, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	gemstone, err := s.GetGemstone(ctx, gemstoneID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(gemstone.Variants) {
		return nil, ErrVariantNotFound
	}

	variant := &gemstone.Variants[index]
	if req.Name != nil {
		variant.Name = *req.Name
	}
	if req.Price != nil {
		variant.PricePerCarat = *req.Price
	}
	if req.IsActive != nil {
		variant.IsActive = *req.IsActive
	}

	if err := s.db.WithContext(ctx).Save(gemstone).Error; err != nil {
		return nil, fmt.Errorf("failed to update gemstone variant: %w", err)
	}
	return gemstone, nil
}

func (s *MaterialService) DeleteGemstone(ctx context.Context, id uuid.UUID, force bool) error {
	if !force {
		inUse, err := s.materialInUse(ctx, func(p *models.Product) bool {
			for _, line := range p.GemstoneComposition {
				if line.GemstoneID == id {
					return true
				}
			}
			return false
		})
		if err != nil {
			return err
		}
		if inUse {
			return ErrMaterialInUse
		}
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Gemstone{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete gemstone: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrGemstoneNotFound
	}
	return nil
}

// materialInUse scans product compositions in batches. Compositions are JSON
// columns, so the match is done in Go to stay portable across drivers.
func (s *MaterialService) materialInUse(ctx context.Context, uses func(*models.Product) bool) (bool, error) {
	var products []models.Product
	found := false
	err := s.db.WithContext(ctx).
		Select("id", "metal_composition", "gemstone_composition").
		FindInBatches(&products, 200, func(tx *gorm.DB, batch int) error {
			for i := range products {
				if uses(&products[i]) {
					found = true
					return errStopScan
				}
			}
			return nil
		}).Error
	if found {
		return true, nil
	}
	if err != nil && !errors.Is(err, errStopScan) {
		return false, fmt.Errorf("failed to check material usage: %w", err)
	}
	return false, nil
}
