package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/zyntra-exam-api/internal/middleware"
	"github.com/noah-isme/zyntra-exam-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	return middleware.ClaimsFromContext(c)
}

// actorFromClaims maps session claims to an audit actor. The superadmin
// carries a synthetic id in its claims but is recorded with no id.
func actorFromClaims(claims *models.SessionClaims) models.Actor {
	if claims.UserID == models.SuperAdminActorID {
		return models.SuperAdminActor()
	}
	return models.UserActor(claims.UserID, claims.Role)
}
