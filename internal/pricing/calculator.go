package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/javajoker/jewelry-backend/internal/models"
)

// PriceInput is everything the calculator needs. Entries must already carry
// resolved unit prices; the calculator never looks at the catalog.
type PriceInput struct {
	MetalEntries      []ResolvedMetalEntry
	GemstoneEntries   []ResolvedGemstoneEntry
	AdditionalCharges []models.AdditionalCharge
	GSTPercentage     float64
	Discount          *models.Discount
}

type MetalCost struct {
	ResolvedMetalEntry
	RawMetalCost float64 `json:"raw_metal_cost"`
	WastageCost  float64 `json:"wastage_cost"`
	MakingCost   float64 `json:"making_cost"`
	Subtotal     float64 `json:"subtotal"`
}

type GemstoneCost struct {
	ResolvedGemstoneEntry
	RawGemstoneCost float64 `json:"raw_gemstone_cost"`
	Subtotal        float64 `json:"subtotal"`
}

type PriceBreakdown struct {
	Metals                 []MetalCost      `json:"metals"`
	Gemstones              []GemstoneCost   `json:"gemstones"`
	TotalMetalCost         float64          `json:"total_metal_cost"`
	TotalWastageCost       float64          `json:"total_wastage_cost"`
	TotalMakingCharges     float64          `json:"total_making_charges"`
	TotalGemstoneCost      float64          `json:"total_gemstone_cost"`
	TotalStoneCharges      float64          `json:"total_stone_charges"`
	TotalAdditionalCharges float64          `json:"total_additional_charges"`
	Subtotal               float64          `json:"subtotal"`
	GSTPercentage          float64          `json:"gst_percentage"`
	GSTAmount              float64          `json:"gst_amount"`
	CalculatedPrice        float64          `json:"calculated_price"`
	Discount               *models.Discount `json:"discount,omitempty"`
	DiscountAmount         float64          `json:"discount_amount"`
	FinalPrice             float64          `json:"final_price"`
}

// Calculate prices a resolved composition. Every monetary step is rounded to
// cents as soon as it is computed, so multi-line products total to exactly
// the stored prices.
func Calculate(input PriceInput) PriceBreakdown {
	breakdown := PriceBreakdown{
		Metals:        make([]MetalCost, 0, len(input.MetalEntries)),
		Gemstones:     make([]GemstoneCost, 0, len(input.GemstoneEntries)),
		GSTPercentage: SafeNumber(input.GSTPercentage, 0),
		Discount:      input.Discount,
	}

	totalMetal := decimal.Zero
	totalWastage := decimal.Zero
	totalMaking := decimal.Zero
	for _, entry := range input.MetalEntries {
		raw := roundDecimal(toDecimal(entry.PricePerGram).Mul(toDecimal(entry.WeightInGrams)))
		wastage := roundDecimal(percentOf(raw, entry.WastagePercentage))

		var making decimal.Decimal
		if entry.MakingChargeType == models.MakingChargeFlat {
			making = toDecimal(entry.MakingCharges)
		} else {
			making = roundDecimal(percentOf(raw, entry.MakingCharges))
		}

		subtotal := roundDecimal(raw.Add(wastage).Add(making))

		breakdown.Metals = append(breakdown.Metals, MetalCost{
			ResolvedMetalEntry: entry,
			RawMetalCost:       raw.InexactFloat64(),
			WastageCost:        wastage.InexactFloat64(),
			MakingCost:         making.InexactFloat64(),
			Subtotal:           subtotal.InexactFloat64(),
		})

		totalMetal = totalMetal.Add(raw)
		totalWastage = totalWastage.Add(wastage)
		totalMaking = totalMaking.Add(making)
	}

	totalGemstone := decimal.Zero
	totalStone := decimal.Zero
	for _, entry := range input.GemstoneEntries {
		raw := roundDecimal(toDecimal(entry.PricePerCarat).Mul(toDecimal(entry.TotalCaratWeight)))
		stone := toDecimal(entry.StoneCharges)
		subtotal := roundDecimal(raw.Add(stone))

		breakdown.Gemstones = append(breakdown.Gemstones, GemstoneCost{
			ResolvedGemstoneEntry: entry,
			RawGemstoneCost:       raw.InexactFloat64(),
			Subtotal:              subtotal.InexactFloat64(),
		})

		totalGemstone = totalGemstone.Add(raw)
		totalStone = totalStone.Add(stone)
	}

	totalAdditional := decimal.Zero
	for _, charge := range input.AdditionalCharges {
		totalAdditional = totalAdditional.Add(toDecimal(SafeNumber(charge.Amount, 0)))
	}

	subtotal := roundDecimal(totalMetal.
		Add(totalWastage).
		Add(totalMaking).
		Add(totalGemstone).
		Add(totalStone).
		Add(totalAdditional))

	gstAmount := roundDecimal(percentOf(subtotal, breakdown.GSTPercentage))
	calculated := roundDecimal(subtotal.Add(gstAmount))

	discountAmount := discountFor(input.Discount, calculated)

	final := calculated.Sub(discountAmount)
	if final.IsNegative() {
		final = decimal.Zero
	}
	final = roundDecimal(final)

	breakdown.TotalMetalCost = totalMetal.InexactFloat64()
	breakdown.TotalWastageCost = totalWastage.InexactFloat64()
	breakdown.TotalMakingCharges = totalMaking.InexactFloat64()
	breakdown.TotalGemstoneCost = totalGemstone.InexactFloat64()
	breakdown.TotalStoneCharges = totalStone.InexactFloat64()
	breakdown.TotalAdditionalCharges = totalAdditional.InexactFloat64()
	breakdown.Subtotal = subtotal.InexactFloat64()
	breakdown.GSTAmount = gstAmount.InexactFloat64()
	breakdown.CalculatedPrice = calculated.InexactFloat64()
	breakdown.DiscountAmount = discountAmount.InexactFloat64()
	breakdown.FinalPrice = final.InexactFloat64()

	return breakdown
}

// Valid reports whether both headline prices are finite numbers.
func (b PriceBreakdown) Valid() bool {
	return isFinite(b.CalculatedPrice, b.FinalPrice)
}

// discountFor rounds a percentage discount on its own before it is
// subtracted. A flat discount is capped at the calculated price.
func discountFor(discount *models.Discount, calculated decimal.Decimal) decimal.Decimal {
	if discount == nil {
		return decimal.Zero
	}

	value := SafeNumber(discount.Value, 0)
	if value <= 0 {
		return decimal.Zero
	}

	switch discount.Type {
	case models.DiscountTypePercentage:
		if value > 100 {
			value = 100
		}
		return roundDecimal(percentOf(calculated, value))
	case models.DiscountTypeFlat:
		return decimal.Min(toDecimal(value), calculated)
	default:
		return decimal.Zero
	}
}

// GSTOrDefault returns the stored rate when it is a usable percentage and
// fallback otherwise. A fallback outside 0..100 is replaced by
// DefaultGSTPercentage.
func GSTOrDefault(gst *float64, fallback float64) float64 {
	if !isFinite(fallback) || fallback < 0 || fallback > 100 {
		fallback = DefaultGSTPercentage
	}
	rate := SafeNumber(gst, fallback)
	if rate < 0 {
		return fallback
	}
	return rate
}
