package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const addressContextKey = "wallet_address"

type authClaims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and puts the caller's wallet
// address into the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			Error(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		claims := &authClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid || claims.Address == "" {
			Error(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}
		c.Set(addressContextKey, strings.ToLower(claims.Address))
		c.Next()
	}
}

// callerAddress returns the authenticated wallet address, empty when the
// route is not behind AuthMiddleware.
func callerAddress(c *gin.Context) string {
	return c.GetString(addressContextKey)
}

// bearerAddress parses an optional bearer token on a public route. Returns
// empty when the token is absent or invalid instead of failing the request.
func bearerAddress(c *gin.Context, secret string) string {
	header := c.GetHeader("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return ""
	}
	claims := &authClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return ""
	}
	return strings.ToLower(claims.Address)
}
