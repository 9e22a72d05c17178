package middleware

import (
	"errors"
	"net/http"
	"strings"

	"restaurant-service/repository"
	"restaurant-service/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const (
	UserContextKey  = "userID"
	RolesContextKey = "roles"
)

const permissionDenied = "You do not have permission to perform this action."

// TokenValidator checks bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenStr, expectedType string) (jwt.MapClaims, error)
}

// Authenticate rejects requests without a valid access token.
func Authenticate(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}
		if !setUser(c, tokens, raw) {
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a token is sent but lets anonymous
// requests through. An invalid token is still a 401.
func OptionalAuth(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw := bearerToken(c); raw != "" && !setUser(c, tokens, raw) {
			return
		}
		c.Next()
	}
}

func setUser(c *gin.Context, tokens TokenValidator, raw string) bool {
	claims, err := tokens.ValidateToken(raw, services.TokenTypeAccess)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return false
	}
	userID, err := services.UserIDFromClaims(claims)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
		return false
	}
	c.Set(UserContextKey, userID)
	return true
}

// bearerToken accepts both "Bearer" and "Token" schemes.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	for _, scheme := range []string{"Bearer ", "Token "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimSpace(header[len(scheme):])
		}
	}
	return ""
}

// LoadRoles resolves the authenticated caller's groups once per request.
func LoadRoles(resolver services.RoleResolver, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := GetUserID(c)
		if err != nil {
			c.Next()
			return
		}
		roles, err := resolver.Roles(c.Request.Context(), userID)
		if err != nil {
			if repository.IsNotFound(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			logger.Error("Failed to resolve roles", zap.Uint("user_id", userID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve roles"})
			return
		}
		c.Set(RolesContextKey, roles)
		c.Next()
	}
}

// RequireManager allows managers only.
func RequireManager() gin.HandlerFunc {
	return require(func(r services.Roles) bool { return r.IsManager() })
}

// RequireManagerOrCrew allows managers and delivery crew.
func RequireManagerOrCrew() gin.HandlerFunc {
	return require(func(r services.Roles) bool { return r.IsManager() || r.IsDeliveryCrew() })
}

// RequireStaffOrManager allows administrators and managers.
func RequireStaffOrManager() gin.HandlerFunc {
	return require(func(r services.Roles) bool { return r.IsStaff || r.IsManager() })
}

func require(allowed func(services.Roles) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := GetRoles(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
			return
		}
		if !allowed(roles) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": permissionDenied})
			return
		}
		c.Next()
	}
}

// GetUserID extracts the user ID from the Gin context.
func GetUserID(c *gin.Context) (uint, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(uint); ok && id != 0 {
			return id, nil
		}
	}
	return 0, errors.New("user ID not found in context")
}

// GetRoles returns the roles loaded by LoadRoles.
func GetRoles(c *gin.Context) (services.Roles, bool) {
	if val, ok := c.Get(RolesContextKey); ok {
		if roles, ok := val.(services.Roles); ok {
			return roles, true
		}
	}
	return services.Roles{}, false
}
