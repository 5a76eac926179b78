package controllers

import (
	"fmt"
	"strings"
	"time"

	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

const resetCodeTTL = 15 * time.Minute

// POST /api/password/forgot (public)
// Body: { "email": "..." }
// Retorna sempre true (anti enumeração).
func ForgotPasswordSendCode(c *gin.Context) {
	type Request struct {
		Email string `json:"email" form:"email"`
	}

	s := ServicesInstance(c)
	var req Request
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" || s == nil {
		RespondSuccess(c, true)
		return
	}

	db := dbpkg.DBInstance(c)
	user, err := s.Store.GetUserByEmail(req.Email)
	if err != nil {
		RespondSuccess(c, true)
		return
	}

	// Mantém 1 token ativo por usuário
	_ = db.Where("user_id = ? AND used_at IS NULL", user.ID).Delete(&models.PasswordReset{}).Error

	code := tools.RandomNumbers(6)
	exp := time.Now().Add(resetCodeTTL)
	reset := models.PasswordReset{
		UserID:    user.ID,
		TokenHash: tools.EncryptTextSHA512(code),
		Channel:   models.RESET_CHANNEL_EMAIL,
		ExpiresAt: &exp,
	}
	if err := db.Create(&reset).Error; err != nil {
		s.Log.Warn("forgot password: create reset failed", "user_id", user.ID, "error", err)
		RespondSuccess(c, true)
		return
	}

	if s.Mailer == nil {
		s.Log.Warn("forgot password: no mailer configured", "user_id", user.ID)
		RespondSuccess(c, true)
		return
	}
	html := fmt.Sprintf(`<p>Seu código para redefinir a senha é:</p><h2>%s</h2><p>Ele expira em 15 minutos. Nossa equipe nunca vai pedir este código.</p>`, code)
	if _, err := s.Mailer.Send(requestCtx(c), tools.Email{
		To:      []string{user.Email},
		Subject: "Seu código de redefinição de senha",
		HTML:    html,
	}); err != nil {
		s.Log.Warn("forgot password: email send failed", "user_id", user.ID, "error", err)
	}
	RespondSuccess(c, true)
}

// POST /api/password/check-token (public)
// Body: { "email": "...", "token": "123456" }
// Retorna true/false (não consome o token).
func CheckResetToken(c *gin.Context) {
	type Request struct {
		Email string `json:"email" form:"email"`
		Token string `json:"token" form:"token"`
	}

	var req Request
	if err := c.Bind(&req); err != nil {
		RespondSuccess(c, false)
		return
	}
	_, _, ok := findUsableReset(c, req.Email, req.Token)
	RespondSuccess(c, ok)
}

// POST /api/password/reset (public)
// Body: { "email": "...", "token": "123456", "new_password": "..." }
// Retorna true/false. Consome o token e revoga refresh tokens.
func ResetPassword(c *gin.Context) {
	type Request struct {
		Email       string `json:"email" form:"email"`
		Token       string `json:"token" form:"token"`
		NewPassword string `json:"new_password" form:"new_password"`
	}

	var req Request
	if err := c.Bind(&req); err != nil {
		RespondSuccess(c, false)
		return
	}
	req.NewPassword = strings.TrimSpace(req.NewPassword)
	if tools.CheckPassword(req.NewPassword) != "" {
		RespondSuccess(c, false)
		return
	}

	user, reset, ok := findUsableReset(c, req.Email, req.Token)
	if !ok {
		RespondSuccess(c, false)
		return
	}

	hash, err := tools.HashPassword(req.NewPassword)
	if err != nil {
		RespondSuccess(c, false)
		return
	}

	now := time.Now()
	err = dbpkg.DBInstance(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("password", hash).Error; err != nil {
			return err
		}
		if err := tx.Model(&reset).Update("used_at", &now).Error; err != nil {
			return err
		}
		// força novo login
		return tx.Model(&models.RefreshToken{}).
			Where("user_id = ? AND revoked_at IS NULL", user.ID).
			Update("revoked_at", &now).Error
	})
	RespondSuccess(c, err == nil)
}

func findUsableReset(c *gin.Context, email, token string) (models.User, models.PasswordReset, bool) {
	email = strings.TrimSpace(email)
	token = strings.TrimSpace(token)
	s := ServicesInstance(c)
	if email == "" || token == "" || s == nil {
		return models.User{}, models.PasswordReset{}, false
	}

	user, err := s.Store.GetUserByEmail(email)
	if err != nil {
		return models.User{}, models.PasswordReset{}, false
	}

	var reset models.PasswordReset
	err = dbpkg.DBInstance(c).
		Where("user_id = ? AND token_hash = ? AND used_at IS NULL", user.ID, tools.EncryptTextSHA512(token)).
		Order("id desc").
		First(&reset).Error
	if err != nil || !reset.IsUsable(time.Now()) {
		return models.User{}, models.PasswordReset{}, false
	}
	return user, reset, true
}
