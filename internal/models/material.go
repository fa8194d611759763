// internal/models/material.go
package models

import (
	"github.com/google/uuid"
)

// Variants are stored as an ordered list on their material. Products reference
// them by position (and by stable ID when one was recorded), so the list is
// append-only: variants may be renamed, re-priced or deactivated but never
// removed or reordered.

type MetalVariant struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PricePerGram float64   `json:"price_per_gram"`
	IsActive     bool      `json:"is_active"`
}

type Metal struct {
	BaseModel
	Name                     string           `json:"name" gorm:"size:100;not null;index"`
	Description              string           `json:"description" gorm:"type:text"`
	Variants                 []MetalVariant   `json:"variants" gorm:"type:jsonb;serializer:json"`
	DefaultWastagePercentage float64          `json:"default_wastage_percentage" gorm:"type:decimal(5,2)"`
	DefaultMakingCharges     float64          `json:"default_making_charges" gorm:"type:decimal(12,2)"`
	DefaultMakingChargeType  MakingChargeType `json:"default_making_charge_type" gorm:"type:varchar(20)"`
	IsActive                 bool             `json:"is_active"`
}

type GemstoneVariant struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	PricePerCarat float64   `json:"price_per_carat"`
	IsActive      bool      `json:"is_active"`
}

type Gemstone struct {
	BaseModel
	Name        string            `json:"name" gorm:"size:100;not null;index"`
	Type        GemstoneType      `json:"type" gorm:"type:varchar(30);index"`
	Description string            `json:"description" gorm:"type:text"`
	Variants    []GemstoneVariant `json:"variants" gorm:"type:jsonb;serializer:json"`
	IsActive    bool              `json:"is_active"`
}
