package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type TokenResponse struct {
	AccessToken        string       `json:"access_token"`
	AccessExpiresAt    int64        `json:"access_expires_at"`     // unix seconds
	AccessExpiresAtISO string       `json:"access_expires_at_iso"` // RFC3339
	RefreshToken       string       `json:"refresh_token"`
	User               *models.User `json:"user,omitempty"`
}

func Login(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		RespondError(c, "email e password são obrigatórios", http.StatusBadRequest)
		return
	}

	user, err := s.Store.GetUserByEmail(req.Email)
	if err != nil || !tools.PasswordMatches(user.Password, req.Password) {
		RespondError(c, "usuário ou senha inválidos", http.StatusUnauthorized)
		return
	}
	if user.Status == models.USER_STATUS_BLOCKED {
		RespondError(c, "usuário bloqueado", http.StatusForbidden)
		return
	}

	resp, err := issueSession(c, s, user, time.Now())
	if err != nil {
		RespondError(c, "erro ao gerar sessão", http.StatusInternalServerError)
		return
	}
	user.Password = ""
	resp.User = &user
	RespondSuccess(c, resp)
}

// issueSession revokes the user's previous refresh tokens and returns a new
// access/refresh pair (single session).
func issueSession(c *gin.Context, s *Services, user models.User, now time.Time) (TokenResponse, error) {
	db := dbpkg.DBInstance(c)
	if err := revokeAllUserRefreshTokens(db, user.ID, now); err != nil {
		return TokenResponse{}, err
	}

	ttl := time.Duration(s.Config.Security.AccessTTLMinutes) * time.Minute
	access, exp, err := signAccessToken(s.Config.Security.JwtSecret, user.ID, user.Email, now, ttl)
	if err != nil {
		return TokenResponse{}, err
	}
	refresh, err := issueRefreshToken(c, s, user.ID, now)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{
		AccessToken:        access,
		AccessExpiresAt:    exp.Unix(),
		AccessExpiresAtISO: exp.UTC().Format(time.RFC3339),
		RefreshToken:       refresh,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
