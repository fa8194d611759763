package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jewelry-backend/internal/models"
)

func TestMetalVariantsAreAppendOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db)
	ctx := context.Background()

	metal, err := svc.CreateMetal(ctx, &CreateMetalRequest{
		Name: "Gold",
		Variants: []MetalVariantRequest{
			{Name: "24K", PricePerGram: 7500},
			{Name: "22K", PricePerGram: 6900},
		},
		DefaultWastagePercentage: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, models.MakingChargePercentage, metal.DefaultMakingChargeType)
	require.Len(t, metal.Variants, 2)
	firstID := metal.Variants[0].ID
	assert.NotEqual(t, uuid.Nil, firstID)
	assert.True(t, metal.Variants[1].IsActive)

	inactive := false
	metal, err = svc.AddMetalVariant(ctx, metal.ID, &MetalVariantRequest{Name: "18K", PricePerGram: 5600, IsActive: &inactive})
	require.NoError(t, err)
	require.Len(t, metal.Variants, 3)
	assert.Equal(t, "18K", metal.Variants[2].Name)
	assert.False(t, metal.Variants[2].IsActive)

	price := 7600.0
	name := "24K Fine"
	_, err = svc.UpdateMetalVariant(ctx, metal.ID, 0, &UpdateVariantRequest{Name: &name, Price: &price})
	require.NoError(t, err)

	reloaded, err := svc.GetMetal(ctx, metal.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Variants, 3)
	assert.Equal(t, firstID, reloaded.Variants[0].ID)
	assert.Equal(t, "24K Fine", reloaded.Variants[0].Name)
	assert.Equal(t, 7600.0, reloaded.Variants[0].PricePerGram)
	assert.Equal(t, "22K", reloaded.Variants[1].Name)

	_, err = svc.UpdateMetalVariant(ctx, metal.ID, 3, &UpdateVariantRequest{Price: &price})
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestUpdateMetalDefaults(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db)
	ctx := context.Background()

	metal, err := svc.CreateMetal(ctx, &CreateMetalRequest{Name: "Silver"})
	require.NoError(t, err)

	making := 250.0
	updated, err := svc.UpdateMetal(ctx, metal.ID, &UpdateMetalRequest{
		DefaultMakingCharges:    &making,
		DefaultMakingChargeType: models.MakingChargeFlat,
	})
	require.NoError(t, err)
	assert.Equal(t, 250.0, updated.DefaultMakingCharges)
	assert.Equal(t, models.MakingChargeFlat, updated.DefaultMakingChargeType)

	_, err = svc.UpdateMetal(ctx, uuid.New(), &UpdateMetalRequest{})
	assert.ErrorIs(t, err, ErrMetalNotFound)

	_, err = svc.UpdateMetal(ctx, metal.ID, &UpdateMetalRequest{DefaultMakingChargeType: "weekly"})
	assert.Error(t, err)
}

func TestDeleteMetalInUse(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db)
	ctx := context.Background()

	gold := goldMetal()
	require.NoError(t, db.Create(&gold).Error)
	product := ringProduct(gold.ID, ringPrice)
	require.NoError(t, db.Create(&product).Error)

	assert.ErrorIs(t, svc.DeleteMetal(ctx, gold.ID, false), ErrMaterialInUse)

	require.NoError(t, svc.DeleteMetal(ctx, gold.ID, true))
	_, err := svc.GetMetal(ctx, gold.ID)
	assert.ErrorIs(t, err, ErrMetalNotFound)

	assert.ErrorIs(t, svc.DeleteMetal(ctx, gold.ID, true), ErrMetalNotFound)
}

func TestGemstoneLifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db)
	ctx := context.Background()

	_, err := svc.CreateGemstone(ctx, &CreateGemstoneRequest{Name: "Opal", Type: "glass"})
	require.Error(t, err)

	ruby, err := svc.CreateGemstone(ctx, &CreateGemstoneRequest{
		Name:     "Ruby",
		Type:     models.GemstoneTypePrecious,
		Variants: []GemstoneVariantRequest{{Name: "Burmese", PricePerCarat: 45000}},
	})
	require.NoError(t, err)

	ruby, err = svc.AddGemstoneVariant(ctx, ruby.ID, &GemstoneVariantRequest{Name: "Mozambique", PricePerCarat: 18000})
	require.NoError(t, err)
	require.Len(t, ruby.Variants, 2)

	inactive := false
	_, err = svc.UpdateGemstoneVariant(ctx, ruby.ID, 0, &UpdateVariantRequest{IsActive: &inactive})
	require.NoError(t, err)

	list, total, err := svc.ListGemstones(ctx, pageParams(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.False(t, list[0].Variants[0].IsActive)
	assert.Equal(t, 45000.0, list[0].Variants[0].PricePerCarat)

	product := models.Product{
		Name:                "Ruby Studs",
		Slug:                "ruby-studs",
		GemstoneComposition: []models.GemstoneComposition{{GemstoneID: ruby.ID, TotalCaratWeight: 1}},
	}
	require.NoError(t, db.Create(&product).Error)
	assert.ErrorIs(t, svc.DeleteGemstone(ctx, ruby.ID, false), ErrMaterialInUse)

	require.NoError(t, db.Where("id = ?", product.ID).Delete(&models.Product{}).Error)
	require.NoError(t, svc.DeleteGemstone(ctx, ruby.ID, false))
}

func TestListMetalsSearch(t *testing.T) {
	db := newTestDB(t)
	svc := NewMaterialService(db)
	ctx := context.Background()

	for _, name := range []string{"Gold", "Rose Gold", "Platinum"} {
		_, err := svc.CreateMetal(ctx, &CreateMetalRequest{Name: name})
		require.NoError(t, err)
	}

	params := pageParams(1, 10)
	params.Search = "gold"
	metals, total, err := svc.ListMetals(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, metals, 2)
}
