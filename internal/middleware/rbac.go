package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	appErrors "github.com/Dharnipatel21/SmartCampus-AI/pkg/errors"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/response"
)

// RequireRoles allows the request through only when the token carries one of roles.
// Fine-grained stage permissions are checked by the workflow service.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireStaff admits faculty and administrators.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleTeacher, models.RoleAdmin, models.RoleSuperAdmin)
}
