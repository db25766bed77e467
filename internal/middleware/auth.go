package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/college-api/internal/service"
	appErrors "github.com/campushub/college-api/pkg/errors"
	"github.com/campushub/college-api/pkg/response"
)

// ContextUserKey is the gin context key storing verified token claims.
const ContextUserKey = "currentUser"

// Auth protects routes by requiring a verifiable bearer token. Signature and
// expiry are checked here; per-operation policy stays with the service layer.
func Auth(gate *service.AccessGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.ErrAuthentication)
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrAuthentication, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := gate.Authenticate(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
