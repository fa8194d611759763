// internal/handlers/material.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/jewelry-backend/internal/i18n"
	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

// MaterialHandler serves the metal and gemstone catalog to the back office.
type MaterialHandler struct {
	materialService *services.MaterialService
}

func NewMaterialHandler(materialService *services.MaterialService) *MaterialHandler {
	return &MaterialHandler{
		materialService: materialService,
	}
}

func parseVariantIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, "index"), nil)
		return 0, false
	}
	return index, true
}

// GET /admin/metals
func (h *MaterialHandler) GetMetals(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	metals, total, err := h.materialService.ListMetals(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(metals, total, params))
}

// GET /admin/metals/:id
func (h *MaterialHandler) GetMetal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	metal, err := h.materialService.GetMetal(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"metal": metal})
}

// POST /admin/metals
func (h *MaterialHandler) CreateMetal(c *gin.Context) {
	var req services.CreateMetalRequest
	if !bindAndValidate(c, &req) {
		return
	}

	metal, err := h.materialService.CreateMetal(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"metal": metal})
}

// PUT /admin/metals/:id
func (h *MaterialHandler) UpdateMetal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateMetalRequest
	if !bindAndValidate(c, &req) {
		return
	}

	metal, err := h.materialService.UpdateMetal(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"metal": metal})
}

// POST /admin/metals/:id/variants
func (h *MaterialHandler) AddMetalVariant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.MetalVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	metal, err := h.materialService.AddMetalVariant(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"metal": metal})
}

// PUT /admin/metals/:id/variants/:index
func (h *MaterialHandler) UpdateMetalVariant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	index, ok := parseVariantIndex(c)
	if !ok {
		return
	}

	var req services.UpdateVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	metal, err := h.materialService.UpdateMetalVariant(c.Request.Context(), id, index, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"metal": metal})
}

// DELETE /admin/metals/:id?force=true
func (h *MaterialHandler) DeleteMetal(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(c.Query("force"))
	if err := h.materialService.DeleteMetal(c.Request.Context(), id, force); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}

// GET /admin/gemstones
func (h *MaterialHandler) GetGemstones(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	gemstones, total, err := h.materialService.ListGemstones(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(gemstones, total, params))
}

// GET /admin/gemstones/:id
func (h *MaterialHandler) GetGemstone(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	gemstone, err := h.materialService.GetGemstone(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"gemstone": gemstone})
}

// POST /admin/gemstones
func (h *MaterialHandler) CreateGemstone(c *gin.Context) {
	var req services.CreateGemstoneRequest
	if !bindAndValidate(c, &req) {
		return
	}

	gemstone, err := h.materialService.CreateGemstone(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"gemstone": gemstone})
}

// PUT /admin/gemstones/:id
func (h *MaterialHandler) UpdateGemstone(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateGemstoneRequest
	if !bindAndValidate(c, &req) {
		return
	}

	gemstone, err := h.materialService.UpdateGemstone(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"gemstone": gemstone})
}

// POST /admin/gemstones/:id/variants
func (h *MaterialHandler) AddGemstoneVariant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.GemstoneVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	gemstone, err := h.materialService.AddGemstoneVariant(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{"gemstone": gemstone})
}

// PUT /admin/gemstones/:id/variants/:index
func (h *MaterialHandler) UpdateGemstoneVariant(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	index, ok := parseVariantIndex(c)
	if !ok {
		return
	}

	var req services.UpdateVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}

	gemstone, err := h.materialService.UpdateGemstoneVariant(c.Request.Context(), id, index, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"gemstone": gemstone})
}

// DELETE /admin/gemstones/:id?force=true
func (h *MaterialHandler) DeleteGemstone(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	force, _ := strconv.ParseBool(c.Query("force"))
	if err := h.materialService.DeleteGemstone(c.Request.Context(), id, force); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": true})
}
