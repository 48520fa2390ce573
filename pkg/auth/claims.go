package auth

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
)

// CashierID holds the backend user id, which the backend encodes as either a
// JSON number or a string.
type CashierID string

func (id *CashierID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*id = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = CashierID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("cashier id: %w", err)
	}
	*id = CashierID(n.String())
	return nil
}

// CashierClaims is the token payload the Kasir backend issues at sign-in.
type CashierClaims struct {
	UserID CashierID         `json:"userId"`
	Role   enums.CashierRole `json:"role"`
	jwt.RegisteredClaims

	verified bool
}

// Verified reports whether the claims passed a local signature check.
func (c *CashierClaims) Verified() bool {
	return c != nil && c.verified
}

// Identity returns the most specific stable identifier in the claims.
func (c *CashierClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return string(c.UserID)
	}
	return strings.TrimSpace(c.Subject)
}
