// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

type AdminHandler struct {
	authService  *services.AuthService
	auditService *services.AuditService
}

func NewAdminHandler(authService *services.AuthService, auditService *services.AuditService) *AdminHandler {
	return &AdminHandler{
		authService:  authService,
		auditService: auditService,
	}
}

// POST /admin/staff
func (h *AdminHandler) CreateStaff(c *gin.Context) {
	var req services.CreateStaffRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.authService.CreateStaff(&req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"user": user,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	// Build filter parameters
	filter := services.AuditLogFilter{
		PaginationParams: params,
		Action:           c.Query("action"),
		ResourceType:     c.Query("resource_type"),
	}

	if userIDStr := c.Query("user_id"); userIDStr != "" {
		if userID, err := uuid.Parse(userIDStr); err == nil {
			filter.UserID = &userID
		}
	}

	logs, total, err := h.auditService.List(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(logs, total, params))
}
