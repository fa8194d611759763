package pricing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/jewelry-backend/internal/models"
)

type CalculatorTestSuite struct {
	suite.Suite
	ring PriceInput
}

func (s *CalculatorTestSuite) SetupTest() {
	s.ring = PriceInput{
		MetalEntries: []ResolvedMetalEntry{{
			VariantName:       "22K",
			PricePerGram:      6900,
			WeightInGrams:     5,
			WastagePercentage: 3,
			MakingCharges:     500,
			MakingChargeType:  models.MakingChargeFlat,
		}},
		GSTPercentage: 3,
	}
}

func (s *CalculatorTestSuite) TestSimpleRing() {
	b := Calculate(s.ring)

	s.Require().Len(b.Metals, 1)
	s.Equal(34500.0, b.Metals[0].RawMetalCost)
	s.Equal(1035.0, b.Metals[0].WastageCost)
	s.Equal(500.0, b.Metals[0].MakingCost)
	s.Equal(36035.0, b.Metals[0].Subtotal)
	s.Equal(36035.0, b.Subtotal)
	s.Equal(1081.05, b.GSTAmount)
	s.Equal(37116.05, b.CalculatedPrice)
	s.Equal(0.0, b.DiscountAmount)
	s.Equal(37116.05, b.FinalPrice)
}

func (s *CalculatorTestSuite) TestPercentageDiscount() {
	s.ring.Discount = &models.Discount{Type: models.DiscountTypePercentage, Value: 10}

	b := Calculate(s.ring)

	s.Equal(37116.05, b.CalculatedPrice)
	s.Equal(3711.61, b.DiscountAmount)
	s.Equal(33404.44, b.FinalPrice)
	s.Equal(s.ring.Discount, b.Discount)
}

// The discount is rounded on its own before subtraction. Rounding the
// subtraction as a whole would give 33404.45 here.
func (s *CalculatorTestSuite) TestPercentageDiscountRoundsDiscountFirst() {
	s.ring.Discount = &models.Discount{Type: models.DiscountTypePercentage, Value: 10}

	b := Calculate(s.ring)

	s.NotEqual(RoundPrice(37116.05*0.9), b.FinalPrice)
	s.Equal(RoundPrice(b.CalculatedPrice-b.DiscountAmount), b.FinalPrice)
}

func (s *CalculatorTestSuite) TestPercentageDiscountClampedAt100() {
	s.ring.Discount = &models.Discount{Type: models.DiscountTypePercentage, Value: 250}

	b := Calculate(s.ring)

	s.Equal(b.CalculatedPrice, b.DiscountAmount)
	s.Equal(0.0, b.FinalPrice)
}

func (s *CalculatorTestSuite) TestFlatDiscountExceedingPrice() {
	input := PriceInput{
		AdditionalCharges: []models.AdditionalCharge{{Label: "custom piece", Amount: 5000}},
		GSTPercentage:     0,
		Discount:          &models.Discount{Type: models.DiscountTypeFlat, Value: 8000},
	}

	b := Calculate(input)

	s.Equal(5000.0, b.CalculatedPrice)
	s.Equal(5000.0, b.DiscountAmount)
	s.Equal(0.0, b.FinalPrice)
}

func (s *CalculatorTestSuite) TestIgnoredDiscounts() {
	for _, d := range []*models.Discount{
		nil,
		{Type: models.DiscountTypeFlat, Value: 0},
		{Type: models.DiscountTypePercentage, Value: -10},
		{Type: "bogo", Value: 50},
	} {
		s.ring.Discount = d
		b := Calculate(s.ring)
		s.Equal(0.0, b.DiscountAmount)
		s.Equal(b.CalculatedPrice, b.FinalPrice)
	}
}

func (s *CalculatorTestSuite) TestGemstoneWithSettingCharge() {
	b := Calculate(PriceInput{
		GemstoneEntries: []ResolvedGemstoneEntry{{
			VariantName:      "VVS1",
			Quantity:         1,
			PricePerCarat:    50000,
			TotalCaratWeight: 0.5,
			StoneCharges:     1200,
		}},
		GSTPercentage: 3,
	})

	s.Require().Len(b.Gemstones, 1)
	s.Equal(25000.0, b.Gemstones[0].RawGemstoneCost)
	s.Equal(26200.0, b.Gemstones[0].Subtotal)
	s.Equal(26200.0, b.Subtotal)
	s.Equal(786.0, b.GSTAmount)
	s.Equal(26986.0, b.CalculatedPrice)
	s.Equal(26986.0, b.FinalPrice)
}

func (s *CalculatorTestSuite) TestPercentageMakingCharge() {
	s.ring.MetalEntries[0].MakingChargeType = models.MakingChargePercentage
	s.ring.MetalEntries[0].MakingCharges = 12.5

	b := Calculate(s.ring)

	// 34500 × 12.5% = 4312.5
	s.Equal(4312.5, b.Metals[0].MakingCost)
	s.Equal(39847.5, b.Subtotal)
}

func (s *CalculatorTestSuite) TestRoundsEachLine() {
	// 1.333 g at 6900.55 = 9198.43315 → 9198.43; wastage 3% of that is
	// 275.9529 → 275.95; each line rounded before totals are summed.
	line := ResolvedMetalEntry{
		PricePerGram:      6900.55,
		WeightInGrams:     1.333,
		WastagePercentage: 3,
		MakingChargeType:  models.MakingChargeFlat,
	}

	b := Calculate(PriceInput{MetalEntries: []ResolvedMetalEntry{line, line}})

	s.Equal(9198.43, b.Metals[0].RawMetalCost)
	s.Equal(275.95, b.Metals[0].WastageCost)
	s.Equal(18396.86, b.TotalMetalCost)
	s.Equal(551.9, b.TotalWastageCost)
	s.Equal(18948.76, b.Subtotal)
}

func (s *CalculatorTestSuite) TestAdditionalChargesJoinLumpSubtotal() {
	s.ring.AdditionalCharges = []models.AdditionalCharge{
		{Label: "enamel", Amount: 450},
		{Label: "packaging", Amount: 50.5},
	}

	b := Calculate(s.ring)

	s.Equal(500.5, b.TotalAdditionalCharges)
	s.Equal(36535.5, b.Subtotal)
	// gst on the lump subtotal: 36535.5 × 3% = 1096.065
	s.Equal(1096.07, b.GSTAmount)
	s.Equal(37631.57, b.CalculatedPrice)
}

func (s *CalculatorTestSuite) TestEmptyInput() {
	b := Calculate(PriceInput{GSTPercentage: 3})

	s.Equal(0.0, b.Subtotal)
	s.Equal(0.0, b.FinalPrice)
	s.NotNil(b.Metals)
	s.NotNil(b.Gemstones)
	s.True(b.Valid())
}

func TestCalculatorTestSuite(t *testing.T) {
	suite.Run(t, new(CalculatorTestSuite))
}

func TestCalculateIsDeterministic(t *testing.T) {
	input := PriceInput{
		MetalEntries: []ResolvedMetalEntry{
			{PricePerGram: 6923.17, WeightInGrams: 3.271, WastagePercentage: 7.5, MakingCharges: 14, MakingChargeType: models.MakingChargePercentage},
			{PricePerGram: 88.1, WeightInGrams: 12.07, WastagePercentage: 2, MakingCharges: 350, MakingChargeType: models.MakingChargeFlat},
		},
		GemstoneEntries: []ResolvedGemstoneEntry{
			{PricePerCarat: 123456.78, TotalCaratWeight: 0.037, StoneCharges: 99.99, Quantity: 6},
		},
		AdditionalCharges: []models.AdditionalCharge{{Label: "rhodium", Amount: 199.99}},
		GSTPercentage:     3,
		Discount:          &models.Discount{Type: models.DiscountTypePercentage, Value: 7.5},
	}

	first := Calculate(input)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Calculate(input))
	}
}

func TestCalculateFinalPriceBounds(t *testing.T) {
	discounts := []*models.Discount{
		nil,
		{Type: models.DiscountTypePercentage, Value: 0.01},
		{Type: models.DiscountTypePercentage, Value: 33.33},
		{Type: models.DiscountTypePercentage, Value: 100},
		{Type: models.DiscountTypePercentage, Value: 1000},
		{Type: models.DiscountTypeFlat, Value: 0.01},
		{Type: models.DiscountTypeFlat, Value: 1234.56},
		{Type: models.DiscountTypeFlat, Value: 1e9},
	}
	weights := []float64{0, 0.001, 1.5, 17.25, 250}

	for _, d := range discounts {
		for _, w := range weights {
			b := Calculate(PriceInput{
				MetalEntries: []ResolvedMetalEntry{{
					PricePerGram:      6543.21,
					WeightInGrams:     w,
					WastagePercentage: 4,
					MakingCharges:     11,
					MakingChargeType:  models.MakingChargePercentage,
				}},
				GSTPercentage: 3,
				Discount:      d,
			})

			require.True(t, b.Valid())
			assert.GreaterOrEqual(t, b.FinalPrice, 0.0)
			assert.LessOrEqual(t, b.FinalPrice, b.CalculatedPrice)
		}
	}
}

func TestGSTOrDefault(t *testing.T) {
	assert.Equal(t, DefaultGSTPercentage, GSTOrDefault(nil, DefaultGSTPercentage))
	assert.Equal(t, DefaultGSTPercentage, GSTOrDefault(floatPtr(-1), DefaultGSTPercentage))
	assert.Equal(t, DefaultGSTPercentage, GSTOrDefault(floatPtr(math.NaN()), DefaultGSTPercentage))
	assert.Equal(t, 0.0, GSTOrDefault(floatPtr(0), DefaultGSTPercentage))
	assert.Equal(t, 18.0, GSTOrDefault(floatPtr(18), DefaultGSTPercentage))
	assert.Equal(t, 5.0, GSTOrDefault(nil, 5))
	assert.Equal(t, DefaultGSTPercentage, GSTOrDefault(nil, -2))
}
