package enums

import (
	"fmt"
	"strings"
)

// ProductSortField is a product listing column the backend can sort by.
type ProductSortField string

const (
	ProductSortName        ProductSortField = "nama"
	ProductSortRetailPrice ProductSortField = "hargaJualRetail"
)

var validProductSortFields = []ProductSortField{
	ProductSortName,
	ProductSortRetailPrice,
}

// String implements fmt.Stringer.
func (f ProductSortField) String() string {
	return string(f)
}

// IsValid reports whether the value is a known ProductSortField.
func (f ProductSortField) IsValid() bool {
	for _, candidate := range validProductSortFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseProductSortField converts raw input into a ProductSortField; empty
// input sorts by name.
func ParseProductSortField(value string) (ProductSortField, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ProductSortName, nil
	}
	for _, candidate := range validProductSortFields {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product sort field %q", value)
}
