package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campushub/college-api/internal/models"
	appErrors "github.com/campushub/college-api/pkg/errors"
	"github.com/campushub/college-api/pkg/response"
)

// RequireRoles narrows a route to the listed roles. There is no role
// hierarchy; a route open to admins and faculty must list both.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrAuthentication)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.TokenClaims)
		if !ok {
			response.Error(c, appErrors.ErrAuthentication)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrAuthorization)
			c.Abort()
			return
		}

		c.Next()
	}
}
