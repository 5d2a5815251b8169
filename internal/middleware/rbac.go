package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/response"
)

// RequireRoles allows a request only when the session role is in the allowed
// set. A protected operation is declared purely by its role set; the check
// itself never changes.
func RequireRoles(allowed ...models.Role) gin.HandlerFunc {
	allowedRoles := make(map[models.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedRoles[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden,
				fmt.Sprintf("role %s cannot access this resource", claims.Role)))
			c.Abort()
			return
		}

		c.Next()
	}
}
