// internal/handlers/common.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/jewelry-backend/internal/i18n"
	"github.com/javajoker/jewelry-backend/internal/pricing"
	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

// bindAndValidate decodes the JSON body into req and runs struct validation.
// It writes the error response itself and reports whether the handler may
// continue.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	// Validate request
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyValidationInvalid, name), nil)
		return uuid.Nil, false
	}
	return id, true
}

func currentUserID(c *gin.Context) *uuid.UUID {
	idStr, ok := utils.GetUserIDFromContext(c)
	if !ok {
		return nil
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil
	}
	return &id
}

// respondServiceError maps the service error vocabulary onto HTTP responses.
func respondServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var refErr *pricing.ReferenceError
	switch {
	case errors.As(err, &refErr):
		utils.UnprocessableResponse(c, "PRICING_REFERENCE_ERROR", i18n.T(lang, i18n.KeyPricingReferenceError, refErr.Error()), nil)
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, "product")
	case errors.Is(err, services.ErrMetalNotFound):
		utils.NotFoundResponse(c, "metal")
	case errors.Is(err, services.ErrGemstoneNotFound):
		utils.NotFoundResponse(c, "gemstone")
	case errors.Is(err, services.ErrVariantNotFound):
		utils.NotFoundResponse(c, "variant")
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, "user")
	case errors.Is(err, services.ErrUserExists):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyUserExists))
	case errors.Is(err, services.ErrSlugTaken):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyProductSlugTaken))
	case errors.Is(err, services.ErrMaterialInUse):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyMaterialInUse))
	case errors.Is(err, services.ErrCatalogUnavailable):
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyPricingCatalogFailed))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		utils.ServiceUnavailableResponse(c, i18n.T(lang, i18n.KeyCheckoutUnavailable))
	case errors.Is(err, services.ErrProductNotForSale):
		utils.UnprocessableResponse(c, "NOT_FOR_SALE", i18n.T(lang, i18n.KeyCheckoutNotForSale), nil)
	default:
		if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
			utils.ValidationErrorResponse(c, validationErrors)
			return
		}
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", i18n.T(lang, i18n.KeyError), nil)
	}
}
