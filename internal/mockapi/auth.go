package mockapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Context keys set by the auth middleware.
const (
	ctxUserID       = "user_id"
	ctxRole         = "role"
	ctxTechnicianID = "technician_id"
	ctxCustomerID   = "customer_id"
)

// Issuer mints HS256 access tokens for fixture users.
type Issuer struct {
	Secret []byte
	TTL    time.Duration
	Clock  func() time.Time
}

func (i *Issuer) now() time.Time {
	if i.Clock != nil {
		return i.Clock()
	}
	return time.Now()
}

// Issue creates a signed access token carrying the user's identity.
func (i *Issuer) Issue(u User) (string, error) {
	now := i.now()
	claims := jwt.MapClaims{
		"sub":  u.ID,
		"name": u.Name,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(i.TTL).Unix(),
	}
	if u.TechnicianID != "" {
		claims["technician_id"] = u.TechnicianID
	}
	if u.CustomerID != "" {
		claims["customer_id"] = u.CustomerID
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// AuthMiddleware verifies the bearer token and loads its identity into
// the request context. A 401 is the only failure it produces.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractBearer(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Missing authorization token",
			})
			return
		}

		parsed, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid or expired token",
			})
			return
		}

		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Invalid token claims",
			})
			return
		}

		c.Set(ctxUserID, stringClaim(claims, "sub"))
		c.Set(ctxRole, stringClaim(claims, "role"))
		c.Set(ctxTechnicianID, stringClaim(claims, "technician_id"))
		c.Set(ctxCustomerID, stringClaim(claims, "customer_id"))
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
