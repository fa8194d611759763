// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MetalComposition is one metal line of a product. VariantName is the label
// frozen when the line was composed; later renames of the variant do not
// change it.
type MetalComposition struct {
	MetalID           uuid.UUID        `json:"metal_id"`
	VariantID         uuid.UUID        `json:"variant_id,omitempty"`
	VariantIndex      int              `json:"variant_index"`
	VariantName       string           `json:"variant_name"`
	WeightInGrams     float64          `json:"weight_in_grams"`
	Part              string           `json:"part,omitempty"`
	WastagePercentage *float64         `json:"wastage_percentage,omitempty"`
	MakingCharges     *float64         `json:"making_charges,omitempty"`
	MakingChargeType  MakingChargeType `json:"making_charge_type,omitempty"`
}

type GemstoneComposition struct {
	GemstoneID       uuid.UUID `json:"gemstone_id"`
	VariantID        uuid.UUID `json:"variant_id,omitempty"`
	VariantIndex     int       `json:"variant_index"`
	VariantName      string    `json:"variant_name"`
	Quantity         *int      `json:"quantity,omitempty"`
	TotalCaratWeight float64   `json:"total_carat_weight"`
	StoneCharges     float64   `json:"stone_charges"`
	Setting          string    `json:"setting,omitempty"`
	Position         string    `json:"position,omitempty"`
	Certification    string    `json:"certification,omitempty"`
}

type AdditionalCharge struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Product stores only the two derived price fields; the full breakdown is
// recomputed on demand from the composition and current material rates.
type Product struct {
	BaseModel
	Name                string                `json:"name" gorm:"size:255;not null"`
	Slug                string                `json:"slug" gorm:"size:280;uniqueIndex"`
	SKU                 string                `json:"sku" gorm:"size:64;index"`
	Description         string                `json:"description" gorm:"type:text"`
	Category            string                `json:"category" gorm:"size:100;index"`
	Images              []string              `json:"images" gorm:"type:jsonb;serializer:json"`
	Tags                []string              `json:"tags" gorm:"type:jsonb;serializer:json"`
	Status              ProductStatus         `json:"status" gorm:"type:varchar(20);index"`
	MetalComposition    []MetalComposition    `json:"metal_composition" gorm:"type:jsonb;serializer:json"`
	GemstoneComposition []GemstoneComposition `json:"gemstone_composition" gorm:"type:jsonb;serializer:json"`
	AdditionalCharges   []AdditionalCharge    `json:"additional_charges" gorm:"type:jsonb;serializer:json"`
	GSTPercentage       *float64              `json:"gst_percentage" gorm:"type:decimal(5,2)"`
	Discount            *Discount             `json:"discount,omitempty" gorm:"type:jsonb;serializer:json"`
	CalculatedPrice     float64               `json:"calculated_price" gorm:"type:decimal(12,2);not null"`
	FinalPrice          float64               `json:"final_price" gorm:"type:decimal(12,2);not null;index"`
	Specifications      datatypes.JSONMap     `json:"specifications,omitempty" gorm:"type:jsonb"`
}

// HasComposition reports whether the product has anything to price.
func (p *Product) HasComposition() bool {
	return len(p.MetalComposition) > 0 || len(p.GemstoneComposition) > 0
}

// MaterialIDs returns the distinct metal and gemstone ids the product references.
func (p *Product) MaterialIDs() (metalIDs, gemstoneIDs []uuid.UUID) {
	seen := make(map[uuid.UUID]bool)
	for _, entry := range p.MetalComposition {
		if !seen[entry.MetalID] {
			seen[entry.MetalID] = true
			metalIDs = append(metalIDs, entry.MetalID)
		}
	}
	for _, entry := range p.GemstoneComposition {
		if !seen[entry.GemstoneID] {
			seen[entry.GemstoneID] = true
			gemstoneIDs = append(gemstoneIDs, entry.GemstoneID)
		}
	}
	return metalIDs, gemstoneIDs
}
