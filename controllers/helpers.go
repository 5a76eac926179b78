package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func ParamID(c *gin.Context, name string) (int64, bool) {
	v := c.Param(name)
	if v == "" {
		RespondError(c, name+" é obrigatório", http.StatusBadRequest)
		return 0, false
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		RespondError(c, name+" inválido", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func requestCtx(c *gin.Context) context.Context {
	if c != nil && c.Request != nil {
		return c.Request.Context()
	}
	return context.Background()
}

// mustServices aborts with 500 when the services were not injected.
func mustServices(c *gin.Context) (*Services, bool) {
	s := ServicesInstance(c)
	if s == nil || s.Store == nil {
		RespondError(c, "services não configurados no contexto", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}

// loggedUser is GetUserLogged plus the 401 response.
func loggedUser(c *gin.Context) (int64, bool) {
	user, ok := GetUserLogged(c)
	if !ok {
		RespondUnauthenticated(c)
		return 0, false
	}
	return user.ID, true
}
