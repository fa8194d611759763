// internal/handlers/product.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/jewelry-backend/internal/i18n"
	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func listParams(c *gin.Context, publicOnly bool) services.ProductListParams {
	params := services.ProductListParams{
		PaginationParams: utils.GetPaginationParams(c),
		PublicOnly:       publicOnly,
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseFloat(priceMinStr, 64); err == nil {
			params.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseFloat(priceMaxStr, 64); err == nil {
			params.PriceMax = &priceMax
		}
	}

	return params
}

// GET /products
func (h *ProductHandler) GetPublicProducts(c *gin.Context) {
	params := listParams(c, true)

	products, total, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /products/:slug
func (h *ProductHandler) GetPublicProduct(c *gin.Context) {
	product, err := h.productService.GetPublicProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// GET /products/:slug/price
func (h *ProductHandler) GetPrice(c *gin.Context) {
	price, err := h.productService.GetPriceBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"price": price,
	})
}

// GET /admin/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := listParams(c, false)

	products, total, err := h.productService.ListProducts(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params.PaginationParams))
}

// GET /admin/products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// POST /admin/products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.productService.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyProductCreated),
		"product":   result.Product,
		"breakdown": result.Breakdown,
	})
}

// PUT /admin/products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}

	result, err := h.productService.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":   i18n.T(lang, i18n.KeyProductUpdated),
		"product":   result.Product,
		"breakdown": result.Breakdown,
	})
}

// DELETE /admin/products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// POST /admin/products/preview-price
func (h *ProductHandler) PreviewPrice(c *gin.Context) {
	var req services.ProductPricingRequest
	if !bindAndValidate(c, &req) {
		return
	}

	breakdown, err := h.productService.PreviewPrice(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"breakdown": breakdown,
	})
}

// GET /admin/products/:id/price-history
func (h *ProductHandler) GetPriceHistory(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	history, err := h.productService.GetPriceHistory(c.Request.Context(), id, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"history": history,
	})
}
