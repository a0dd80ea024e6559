package middleware

import (
	"context"
	"strings"

	"probsvc/pkg/errors"
	"probsvc/pkg/utils/contextkey"
	"probsvc/pkg/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDContextKey   = "user_id"
	userRoleContextKey = "user_role"
)

// AccessClaims are the JWT claims issued by the auth service.
type AccessClaims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token issued by the auth service and
// places the caller's identity into both gin and request context. Token
// issuance itself lives in the auth service; this only verifies.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			response.AbortWithErrorCode(c, errors.Unauthorized, "missing bearer token")
			return
		}

		claims := &AccessClaims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New(errors.TokenInvalid)
			}
			return []byte(secret), nil
		})
		if err != nil || !parsed.Valid {
			response.AbortWithErrorCode(c, errors.TokenInvalid, "")
			return
		}
		if claims.UserID == "" {
			response.AbortWithErrorCode(c, errors.TokenInvalid, "token has no subject")
			return
		}

		c.Set(userIDContextKey, claims.UserID)
		c.Set(userRoleContextKey, claims.Role)
		ctx := context.WithValue(c.Request.Context(), contextkey.UserID, claims.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole rejects requests whose authenticated role does not match.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, _ := c.Get(userRoleContextKey)
		if current != role {
			response.AbortWithErrorCode(c, errors.Forbidden, "insufficient role")
			return
		}
		c.Next()
	}
}

// UserID returns the authenticated user id from gin context.
func UserID(c *gin.Context) string {
	if id, ok := c.Get(userIDContextKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

func extractBearerToken(authHeader string) string {
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
