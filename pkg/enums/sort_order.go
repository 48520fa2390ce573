package enums

import (
	"fmt"
	"strings"
)

// SortOrder is the direction accepted by the backend list endpoints.
type SortOrder string

const (
	SortOrderAsc  SortOrder = "asc"
	SortOrderDesc SortOrder = "desc"
)

// String implements fmt.Stringer.
func (s SortOrder) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SortOrder.
func (s SortOrder) IsValid() bool {
	return s == SortOrderAsc || s == SortOrderDesc
}

// ParseSortOrder converts raw input into a SortOrder; empty input yields asc.
func ParseSortOrder(value string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "asc":
		return SortOrderAsc, nil
	case "desc":
		return SortOrderDesc, nil
	}
	return "", fmt.Errorf("invalid sort order %q", value)
}
