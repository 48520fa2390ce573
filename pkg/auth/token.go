package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kasirpos/kasir-terminal/pkg/config"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrOpaqueToken means the bearer credential is not a JWT. The backend may
// still accept it, so callers key the session on a digest instead.
var ErrOpaqueToken = errors.New("bearer token is not a jwt")

// MintCashierToken issues an HS256 token shaped like the backend's.
func MintCashierToken(cfg config.JWTConfig, now time.Time, ttl time.Duration, userID string, role enums.CashierRole) (string, error) {
	if !cfg.Verifies() {
		return "", fmt.Errorf("jwt secret is required")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("invalid cashier role %q", role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}
	claims := CashierClaims{
		UserID: CashierID(userID),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwtSigningMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseCashierToken reads the cashier claims. With a configured secret the
// signature and issuer are verified; otherwise the payload is decoded and
// only the time-based claims are checked.
func ParseCashierToken(cfg config.JWTConfig, tokenString string) (*CashierClaims, error) {
	claims := &CashierClaims{}
	if cfg.Verifies() {
		opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwtSigningMethod.Alg()})}
		if cfg.Issuer != "" {
			opts = append(opts, jwt.WithIssuer(cfg.Issuer))
		}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		}, opts...)
		if err != nil {
			return nil, err
		}
		claims.verified = true
		return claims, nil
	}

	if strings.Count(tokenString, ".") != 2 {
		return nil, ErrOpaqueToken
	}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpaqueToken, err)
	}
	if err := jwt.NewValidator().Validate(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// SessionKey derives the cart session key for a request. Signature-checked
// tokens carrying a cashier identity share one cart across re-logins.
// Anything else, unverified claims included, is keyed on a digest of the raw
// credential so a forged identity cannot reach another cashier's cart.
func SessionKey(claims *CashierClaims, rawToken string) string {
	if id := claims.Identity(); id != "" && claims.Verified() {
		return "cashier-" + id
	}
	sum := sha256.Sum256([]byte(rawToken))
	return "token-" + hex.EncodeToString(sum[:16])
}
