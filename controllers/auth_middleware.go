package controllers

import (
	"strings"

	"reflectionsmatch/models"

	"github.com/gin-gonic/gin"
)

const ctxUserKey = "auth_user"

// AuthRequired validates the access token and loads the user into the
// context. The token comes from the Authorization header or, for websocket
// upgrades, the access_token query parameter.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		s, ok := mustServices(c)
		if !ok {
			c.Abort()
			return
		}

		token := bearerToken(c)
		if token == "" {
			RespondUnauthenticated(c)
			c.Abort()
			return
		}
		userID, err := parseAccessToken(s.Config.Security.JwtSecret, token)
		if err != nil {
			RespondUnauthenticated(c)
			c.Abort()
			return
		}

		user, err := s.Store.GetUser(userID)
		if err != nil {
			RespondUnauthenticated(c)
			c.Abort()
			return
		}

		c.Set(ctxUserKey, user)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return strings.TrimSpace(c.Query("access_token"))
}

// GetUserLogged returns the user loaded by AuthRequired.
func GetUserLogged(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}
