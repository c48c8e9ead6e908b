package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/bursary-match-api/internal/models"
	appErrors "github.com/noah-isme/bursary-match-api/pkg/errors"
	"github.com/noah-isme/bursary-match-api/pkg/response"
)

// RequireRoles admits only principals holding one of the roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	names := make([]string, len(roles))
	for i, r := range roles {
		allowed[r] = struct{}{}
		names[i] = strings.ToLower(string(r))
	}
	message := fmt.Sprintf("this endpoint is for %s accounts only", strings.Join(names, " or "))

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, message))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LearnerOnly restricts a route group to learners.
func LearnerOnly() gin.HandlerFunc { return RequireRoles(models.RoleLearner) }

// ProviderOnly restricts a route group to providers.
func ProviderOnly() gin.HandlerFunc { return RequireRoles(models.RoleProvider) }
