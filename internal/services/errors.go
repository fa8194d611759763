// internal/services/errors.go
package services

import "errors"

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrMetalNotFound       = errors.New("metal not found")
	ErrGemstoneNotFound    = errors.New("gemstone not found")
	ErrVariantNotFound     = errors.New("variant not found")
	ErrSlugTaken           = errors.New("product slug already exists")
	ErrMaterialInUse       = errors.New("material is referenced by products")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserExists          = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountSuspended    = errors.New("account is suspended")
	ErrCheckoutUnavailable = errors.New("checkout is not configured")
	ErrProductNotForSale   = errors.New("product is not available for purchase")
)
