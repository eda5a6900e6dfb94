package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"tillbook/internal/core/apperror"
	appctx "tillbook/internal/core/context"
	"tillbook/internal/core/id"
)

// JWTValidator interface for token validation.
type JWTValidator interface {
	ValidateToken(tokenString string) (*appctx.UserContext, error)
}

// TokenValidator validates HMAC-signed JWTs carrying user and tenant claims.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator with the given signing secret.
func NewTokenValidator(secret string) *TokenValidator {
	return &TokenValidator{secret: []byte(secret)}
}

// ValidateToken parses and validates a token, returning the user context.
func (v *TokenValidator) ValidateToken(tokenString string) (*appctx.UserContext, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	userID, err := parseIDClaim(claims, "user_id")
	if err != nil {
		return nil, err
	}
	tenantID, err := parseIDClaim(claims, "tenant_id")
	if err != nil {
		return nil, err
	}

	user := &appctx.UserContext{
		UserID:   userID,
		TenantID: tenantID,
	}
	if email, ok := claims["email"].(string); ok {
		user.Email = email
	}
	if role, ok := claims["role"].(string); ok {
		user.Role = role
	}
	return user, nil
}

func parseIDClaim(claims jwt.MapClaims, key string) (id.ID, error) {
	raw, ok := claims[key].(string)
	if !ok || raw == "" {
		return id.Nil(), fmt.Errorf("missing %s claim", key)
	}
	parsed, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), fmt.Errorf("invalid %s claim: %w", key, err)
	}
	return parsed, nil
}

// Auth middleware validates JWT tokens and populates user context.
func Auth(validator JWTValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		user, err := validator.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		ctx := appctx.WithUser(c.Request.Context(), user)
		c.Request = c.Request.WithContext(ctx)

		c.Set("user_id", user.UserID.String())
		c.Set("tenant_id", user.TenantID.String())

		c.Next()
	}
}

// RequireRole middleware checks if the user has one of the required roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			abortUnauthorized(c, "authentication required")
			return
		}

		for _, required := range roles {
			if user.Role == required {
				c.Next()
				return
			}
		}
		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_roles", roles),
		)
		c.Abort()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	_ = c.Error(apperror.NewUnauthorized(message))
	c.Abort()
}
