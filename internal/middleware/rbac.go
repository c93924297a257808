package middleware

import (
	"net/http"

	"github.com/examwizards/examwizards-backend/internal/model"
	"github.com/examwizards/examwizards-backend/internal/response"
	"github.com/gin-gonic/gin"
)

// RequireStudent allows only student tokens through.
func RequireStudent() gin.HandlerFunc {
	return requireRole(model.RoleStudent, response.ErrStudentAccessOnly)
}

// RequireInstructor allows only instructor tokens through.
func RequireInstructor() gin.HandlerFunc {
	return requireRole(model.RoleInstructor, response.ErrInstructorOnly)
}

func requireRole(role model.Role, code response.ErrCode) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.Role != role {
			response.AbortFail(c, http.StatusForbidden, code)
			return
		}
		c.Next()
	}
}
