package enums

import "fmt"

// PriceTier names the price break a cart or receipt line was charged at.
type PriceTier string

const (
	PriceTierRetail    PriceTier = "Eceran"
	PriceTierWholesale PriceTier = "Grosir"
)

var validPriceTiers = []PriceTier{
	PriceTierRetail,
	PriceTierWholesale,
}

// String implements fmt.Stringer.
func (p PriceTier) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PriceTier.
func (p PriceTier) IsValid() bool {
	for _, candidate := range validPriceTiers {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceTier converts raw input into a PriceTier.
func ParsePriceTier(value string) (PriceTier, error) {
	for _, candidate := range validPriceTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price tier %q", value)
}
