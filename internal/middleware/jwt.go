package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/models"
	appErrors "github.com/noah-isme/zyntra-exam-api/pkg/errors"
	"github.com/noah-isme/zyntra-exam-api/pkg/response"
)

// ContextUserKey is the gin context key storing session claims.
const ContextUserKey = "currentUser"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(tokenString string) (*models.SessionClaims, error)
}

// Authenticate protects routes by requiring a valid session credential. A
// missing, malformed or expired credential yields 401, never 403.
func Authenticate(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "no token provided"))
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := verifier.VerifyToken(parts[1])
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the verified session claims, or nil when the
// request was not authenticated.
func ClaimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}
