// internal/handlers/pricing.go
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/jewelry-backend/internal/i18n"
	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PricingHandler struct {
	recalcService *services.RecalculationService
}

func NewPricingHandler(recalcService *services.RecalculationService) *PricingHandler {
	return &PricingHandler{
		recalcService: recalcService,
	}
}

type recalculateRequest struct {
	DryRun bool `json:"dry_run"`
}

// POST /admin/pricing/recalculate
func (h *PricingHandler) Recalculate(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req recalculateRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}

	summary, err := h.recalcService.RecalculateAll(c.Request.Context(), services.RecalculateOptions{
		DryRun:      req.DryRun,
		TriggeredBy: currentUserID(c),
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		if summary == nil {
			respondServiceError(c, err)
			return
		}
		// Some batches may already be written; the caller needs the counts.
		utils.ErrorResponse(c, http.StatusInternalServerError, "RECALCULATION_PARTIAL",
			i18n.T(lang, i18n.KeyPricingRecalcPartial), summary)
		return
	}

	messageKey := i18n.KeyPricingRecalcCompleted
	if summary.DryRun {
		messageKey = i18n.KeyPricingRecalcPreview
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, messageKey),
		"summary": summary,
	})
}

// GET /admin/pricing/preview/export
func (h *PricingHandler) ExportPreview(c *gin.Context) {
	report, err := h.recalcService.Preview(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data, err := services.ExportReportXLSX(report)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("price-preview-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// GET /admin/pricing/runs
func (h *PricingHandler) GetRuns(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	runs, total, err := h.recalcService.ListRuns(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(runs, total, params))
}
