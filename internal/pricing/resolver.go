package pricing

import (
	"github.com/google/uuid"

	"github.com/javajoker/jewelry-backend/internal/models"
)

const (
	DefaultWastagePercentage = 3.0
	DefaultGSTPercentage     = 3.0
	DefaultGemstoneQuantity  = 1
)

type ResolvedMetalEntry struct {
	MetalID           string                  `json:"metal_id"`
	VariantIndex      int                     `json:"variant_index"`
	VariantName       string                  `json:"variant_name"`
	Part              string                  `json:"part,omitempty"`
	WeightInGrams     float64                 `json:"weight_in_grams"`
	WastagePercentage float64                 `json:"wastage_percentage"`
	MakingCharges     float64                 `json:"making_charges"`
	MakingChargeType  models.MakingChargeType `json:"making_charge_type"`
	PricePerGram      float64                 `json:"price_per_gram"`
}

type ResolvedGemstoneEntry struct {
	GemstoneID       string  `json:"gemstone_id"`
	VariantIndex     int     `json:"variant_index"`
	VariantName      string  `json:"variant_name"`
	Quantity         int     `json:"quantity"`
	TotalCaratWeight float64 `json:"total_carat_weight"`
	StoneCharges     float64 `json:"stone_charges"`
	Setting          string  `json:"setting,omitempty"`
	Position         string  `json:"position,omitempty"`
	Certification    string  `json:"certification,omitempty"`
	PricePerCarat    float64 `json:"price_per_carat"`
}

// CatalogSnapshot is the set of material rates a pricing pass runs against.
// It is built once and read-only afterwards.
type CatalogSnapshot struct {
	Metals    map[string]models.Metal
	Gemstones map[string]models.Gemstone
}

func NewCatalogSnapshot(metals []models.Metal, gemstones []models.Gemstone) CatalogSnapshot {
	snapshot := CatalogSnapshot{
		Metals:    make(map[string]models.Metal, len(metals)),
		Gemstones: make(map[string]models.Gemstone, len(gemstones)),
	}
	for _, metal := range metals {
		snapshot.Metals[metal.ID.String()] = metal
	}
	for _, gemstone := range gemstones {
		snapshot.Gemstones[gemstone.ID.String()] = gemstone
	}
	return snapshot
}

// Resolve resolves both composition lists of a product against the snapshot.
func (s CatalogSnapshot) Resolve(product *models.Product) ([]ResolvedMetalEntry, []ResolvedGemstoneEntry, error) {
	metals, err := ResolveMetalPrices(product.MetalComposition, s.Metals)
	if err != nil {
		return nil, nil, err
	}
	gemstones, err := ResolveGemstonePrices(product.GemstoneComposition, s.Gemstones)
	if err != nil {
		return nil, nil, err
	}
	return metals, gemstones, nil
}

// ResolveMetalPrices attaches the current price per gram to every metal line.
func ResolveMetalPrices(entries []models.MetalComposition, metalsByID map[string]models.Metal) ([]ResolvedMetalEntry, error) {
	resolved := make([]ResolvedMetalEntry, 0, len(entries))

	for _, entry := range entries {
		metalID := entry.MetalID.String()
		metal, ok := metalsByID[metalID]
		if !ok {
			return nil, &ReferenceError{Kind: ErrMaterialNotFound, Material: "metal", MaterialID: metalID}
		}

		variant, ok := findMetalVariant(metal.Variants, entry.VariantID, entry.VariantIndex)
		if !ok {
			return nil, &ReferenceError{
				Kind:         ErrVariantNotFound,
				Material:     "metal",
				MaterialID:   metalID,
				VariantIndex: entry.VariantIndex,
				VariantName:  entry.VariantName,
			}
		}

		name := entry.VariantName
		if name == "" {
			name = variant.Name
		}

		resolved = append(resolved, ResolvedMetalEntry{
			MetalID:           metalID,
			VariantIndex:      entry.VariantIndex,
			VariantName:       name,
			Part:              entry.Part,
			WeightInGrams:     SafeNumber(entry.WeightInGrams, 0),
			WastagePercentage: SafeNumber(entry.WastagePercentage, DefaultWastagePercentage),
			MakingCharges:     SafeNumber(entry.MakingCharges, 0),
			MakingChargeType:  makingChargeTypeOrDefault(entry.MakingChargeType),
			PricePerGram:      SafeNumber(variant.PricePerGram, 0),
		})
	}

	return resolved, nil
}

// ResolveGemstonePrices attaches the current price per carat to every
// gemstone line.
func ResolveGemstonePrices(entries []models.GemstoneComposition, gemstonesByID map[string]models.Gemstone) ([]ResolvedGemstoneEntry, error) {
	resolved := make([]ResolvedGemstoneEntry, 0, len(entries))

	for _, entry := range entries {
		gemstoneID := entry.GemstoneID.String()
		gemstone, ok := gemstonesByID[gemstoneID]
		if !ok {
			return nil, &ReferenceError{Kind: ErrMaterialNotFound, Material: "gemstone", MaterialID: gemstoneID}
		}

		variant, ok := findGemstoneVariant(gemstone.Variants, entry.VariantID, entry.VariantIndex)
		if !ok {
			return nil, &ReferenceError{
				Kind:         ErrVariantNotFound,
				Material:     "gemstone",
				MaterialID:   gemstoneID,
				VariantIndex: entry.VariantIndex,
				VariantName:  entry.VariantName,
			}
		}

		name := entry.VariantName
		if name == "" {
			name = variant.Name
		}

		resolved = append(resolved, ResolvedGemstoneEntry{
			GemstoneID:       gemstoneID,
			VariantIndex:     entry.VariantIndex,
			VariantName:      name,
			Quantity:         int(SafeNumber(entry.Quantity, DefaultGemstoneQuantity)),
			TotalCaratWeight: SafeNumber(entry.TotalCaratWeight, 0),
			StoneCharges:     SafeNumber(entry.StoneCharges, 0),
			Setting:          entry.Setting,
			Position:         entry.Position,
			Certification:    entry.Certification,
			PricePerCarat:    SafeNumber(variant.PricePerCarat, 0),
		})
	}

	return resolved, nil
}

// A recorded stable id wins over the positional index; an id that no longer
// exists is a missing variant even if the index is still in range.
func findMetalVariant(variants []models.MetalVariant, id uuid.UUID, index int) (models.MetalVariant, bool) {
	if id != uuid.Nil {
		for _, v := range variants {
			if v.ID == id {
				return v, true
			}
		}
		return models.MetalVariant{}, false
	}
	if index < 0 || index >= len(variants) {
		return models.MetalVariant{}, false
	}
	return variants[index], true
}

func findGemstoneVariant(variants []models.GemstoneVariant, id uuid.UUID, index int) (models.GemstoneVariant, bool) {
	if id != uuid.Nil {
		for _, v := range variants {
			if v.ID == id {
				return v, true
			}
		}
		return models.GemstoneVariant{}, false
	}
	if index < 0 || index >= len(variants) {
		return models.GemstoneVariant{}, false
	}
	return variants[index], true
}

func makingChargeTypeOrDefault(t models.MakingChargeType) models.MakingChargeType {
	if t == models.MakingChargeFlat {
		return models.MakingChargeFlat
	}
	return models.MakingChargePercentage
}
