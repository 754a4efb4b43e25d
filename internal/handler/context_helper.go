package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/schedule-api/internal/middleware"
	"github.com/noah-isme/schedule-api/internal/models"
	appErrors "github.com/noah-isme/schedule-api/pkg/errors"
	"github.com/noah-isme/schedule-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// pathID parses the :id parameter and writes a 400 when it is not a positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid id"))
		return 0, false
	}
	return id, true
}
