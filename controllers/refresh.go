package controllers

import (
	"net/http"
	"time"

	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Refresh troca um refresh token válido por um novo par (access+refresh).
// Só o hash do token fica no banco; ao usar, todos os tokens ativos do
// usuário são revogados (sessão única).
func Refresh(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if req.RefreshToken == "" {
		RespondError(c, "refresh_token é obrigatório", http.StatusBadRequest)
		return
	}

	db := dbpkg.DBInstance(c)
	now := time.Now()
	hash := tools.EncryptTextSHA512(req.RefreshToken)

	var stored models.RefreshToken
	if err := db.Where("token_hash = ?", hash).First(&stored).Error; err != nil {
		RespondError(c, "refresh token inválido", http.StatusUnauthorized)
		return
	}
	if !stored.IsActive(now) {
		RespondError(c, "refresh token expirado", http.StatusUnauthorized)
		return
	}

	user, err := s.Store.GetUser(stored.UserID)
	if err != nil || user.Status == models.USER_STATUS_BLOCKED {
		RespondError(c, "refresh token inválido", http.StatusUnauthorized)
		return
	}

	resp, err := issueSession(c, s, user, now)
	if err != nil {
		RespondError(c, "erro ao gerar sessão", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, resp)
}

// Logout revokes every refresh token of the caller.
func Logout(c *gin.Context) {
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	if err := revokeAllUserRefreshTokens(dbpkg.DBInstance(c), userID, time.Now()); err != nil {
		RespondError(c, "erro ao revogar sessões", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, true)
}

func issueRefreshToken(c *gin.Context, s *Services, userID int64, now time.Time) (string, error) {
	token := tools.RandomString(s.Config.Security.RefreshCodeLen)
	exp := now.AddDate(0, 0, s.Config.Security.RefreshCodeMaxValid)
	rt := models.RefreshToken{
		UserID:    userID,
		TokenHash: tools.EncryptTextSHA512(token),
		UserAgent: c.Request.UserAgent(),
		ExpiresAt: &exp,
	}
	if err := dbpkg.DBInstance(c).Create(&rt).Error; err != nil {
		return "", err
	}
	return token, nil
}

func revokeAllUserRefreshTokens(db *gorm.DB, userID int64, now time.Time) error {
	return db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", &now).Error
}
