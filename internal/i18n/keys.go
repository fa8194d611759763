// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthAccountSuspended   = "auth.account_suspended"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAdminAccessDenied      = "admin.access_denied"

	// Users
	KeyUserNotFound = "user.not_found"
	KeyUserExists   = "user.exists"

	// Products
	KeyProductCreated   = "product.created"
	KeyProductUpdated   = "product.updated"
	KeyProductDeleted   = "product.deleted"
	KeyProductNotFound  = "product.not_found"
	KeyProductSlugTaken = "product.slug_taken"

	// Materials
	KeyMetalNotFound    = "metal.not_found"
	KeyGemstoneNotFound = "gemstone.not_found"
	KeyVariantNotFound  = "variant.not_found"
	KeyMaterialInUse    = "material.in_use"

	// Pricing
	KeyPricingReferenceError  = "pricing.reference_error"
	KeyPricingRecalcCompleted = "pricing.recalculation_completed"
	KeyPricingRecalcPreview   = "pricing.recalculation_preview"
	KeyPricingRecalcPartial   = "pricing.recalculation_partial"
	KeyPricingCatalogFailed   = "pricing.catalog_unavailable"

	// Checkout
	KeyCheckoutUnavailable = "checkout.unavailable"
	KeyCheckoutNotForSale  = "checkout.not_for_sale"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"
)
