// internal/handlers/checkout.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

type CheckoutHandler struct {
	checkoutService *services.CheckoutService
}

func NewCheckoutHandler(checkoutService *services.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// POST /checkout/intent
func (h *CheckoutHandler) CreatePaymentIntent(c *gin.Context) {
	var req services.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}

	response, err := h.checkoutService.CreatePaymentIntent(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}
