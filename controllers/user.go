package controllers

import (
	"net/http"
	"strings"
	"time"

	"reflectionsmatch/models"
	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
)

type SignUpRequest struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	DisplayName string `json:"display_name" form:"display_name"`
}

// CreateUser registers an account and opens a session for it.
func CreateUser(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	user := models.User{
		Email:       normalizeEmail(req.Email),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
	}
	if missing := user.MissingFields(); missing != "" {
		RespondError(c, "Faltando campo "+missing, http.StatusBadRequest)
		return
	}
	if !tools.ValidateEmail(user.Email) {
		RespondError(c, "E-mail inválido!", http.StatusBadRequest)
		return
	}
	if _, err := s.Store.GetUserByEmail(user.Email); err == nil {
		RespondError(c, "Usuário já existe", http.StatusConflict)
		return
	}

	hash, err := tools.HashPassword(user.Password)
	if err != nil {
		RespondError(c, "erro ao salvar senha", http.StatusInternalServerError)
		return
	}
	user.Password = hash
	user.Admin = false
	user.Status = models.USER_STATUS_AVAILABLE

	if err := s.Store.CreateUser(&user); err != nil {
		s.Log.Warn("create user failed", "error", err)
		RespondError(c, "não foi possível criar o usuário", http.StatusBadRequest)
		return
	}

	resp, err := issueSession(c, s, user, time.Now())
	if err != nil {
		RespondError(c, "erro ao gerar sessão", http.StatusInternalServerError)
		return
	}
	user.Password = ""
	resp.User = &user
	c.JSON(http.StatusCreated, resp)
}
