package enums

import "fmt"

// CashierRole mirrors the roles the Kasir backend issues in its tokens.
type CashierRole string

const (
	CashierRoleKasir CashierRole = "Kasir"
	CashierRoleAdmin CashierRole = "Admin"
)

var validCashierRoles = []CashierRole{
	CashierRoleKasir,
	CashierRoleAdmin,
}

// String implements fmt.Stringer.
func (c CashierRole) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CashierRole.
func (c CashierRole) IsValid() bool {
	for _, candidate := range validCashierRoles {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCashierRole converts raw input into a CashierRole.
func ParseCashierRole(value string) (CashierRole, error) {
	for _, candidate := range validCashierRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cashier role %q", value)
}
