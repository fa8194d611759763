package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrMaterialNotFound = errors.New("material not found")
	ErrVariantNotFound  = errors.New("variant not found")
)

// ReferenceError reports a composition line pointing at a material or variant
// that is not in the catalog snapshot. It is fatal for the product being
// priced.
type ReferenceError struct {
	Kind         error
	Material     string
	MaterialID   string
	VariantIndex int
	VariantName  string
}

func (e *ReferenceError) Error() string {
	if errors.Is(e.Kind, ErrVariantNotFound) {
		return fmt.Sprintf("%s variant not found: %s index %d (%q)", e.Material, e.MaterialID, e.VariantIndex, e.VariantName)
	}
	return fmt.Sprintf("%s not found: %s", e.Material, e.MaterialID)
}

func (e *ReferenceError) Unwrap() error { return e.Kind }
