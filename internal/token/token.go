package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in the access token. The backend also issues admin tokens,
// but the client core only distinguishes the two roles it gates on.
const (
	RoleCustomer   = "customer"
	RoleTechnician = "technician"
)

// ErrInvalidToken is returned for any credential that cannot be decoded.
// It is never fatal: callers treat the holder as unauthenticated.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the cleartext content of an access token. Signature
// verification is the backend's responsibility; the client only reads
// claims for expiry pre-checks and identity display.
type Claims struct {
	Subject      string
	Role         string
	Name         string
	TechnicianID string
	CustomerID   string
	ExpiresAt    time.Time
	Raw          string
}

// Expired reports whether the claims are expired at the given instant.
// A zero ExpiresAt counts as expired.
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}

// Decode parses the raw token without verifying its signature. Every
// parse failure maps to ErrInvalidToken.
func Decode(raw string) (Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		Raw:          raw,
		Subject:      stringClaim(mc, "sub"),
		Role:         stringClaim(mc, "role"),
		Name:         stringClaim(mc, "name"),
		TechnicianID: stringClaim(mc, "technician_id"),
		CustomerID:   stringClaim(mc, "customer_id"),
	}

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}

	return claims, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	if v, ok := mc[key].(string); ok {
		return v
	}
	return ""
}
