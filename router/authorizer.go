package router

import (
	"net/http"

	"reflectionsmatch/controllers"
	"reflectionsmatch/models"

	"github.com/gin-gonic/gin"
)

// Authorizer blocks access to protected routes when user is not active.
func Authorizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondUnauthenticated(c)
			c.Abort()
			return
		}
		if user.Status == models.USER_STATUS_BLOCKED {
			controllers.RespondError(c, "sem acesso ao aplicativo", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// Adminizer blocks access when user is not admin.
func Adminizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondUnauthenticated(c)
			c.Abort()
			return
		}
		if !user.Admin {
			controllers.RespondError(c, "acesso restrito a administradores", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
