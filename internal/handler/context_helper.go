package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/drivedrcc-eng/central-senai-api/internal/middleware"
	"github.com/drivedrcc-eng/central-senai-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.AccessClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (id string, role models.UserRole) {
	claims := claimsFromContext(c)
	if claims == nil {
		return "", ""
	}
	return claims.Subject, claims.Role
}
