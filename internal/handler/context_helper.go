package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/middleware"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	return middleware.Claims(c)
}
