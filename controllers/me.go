package controllers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"reflectionsmatch/insights"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
)

func Me(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	user, err := s.Store.GetUser(userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	user.Password = ""
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type UpdateMeRequest struct {
	DisplayName       *string  `json:"display_name"`
	Tagline           *string  `json:"tagline"`
	ExplicitInterests []string `json:"explicit_interests"`
}

// UpdateMe merges the user-editable profile fields. Everything else on the
// row is owned by the pipeline or the auth flow.
func UpdateMe(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var req UpdateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	fields := map[string]any{}
	if req.DisplayName != nil {
		fields["display_name"] = strings.TrimSpace(*req.DisplayName)
	}
	if req.Tagline != nil {
		fields["tagline"] = strings.TrimSpace(*req.Tagline)
	}
	if req.ExplicitInterests != nil {
		var interests models.StringList
		for _, i := range req.ExplicitInterests {
			if i = strings.TrimSpace(i); i != "" {
				interests = append(interests, i)
			}
		}
		if interests == nil {
			interests = models.StringList{}
		}
		fields["explicit_interests"] = interests
	}
	if err := s.Store.MergeUser(userID, fields); err != nil {
		RespondServiceError(c, err)
		return
	}
	Me(c)
}

// ClearMilestone is called once the celebration has been shown.
func ClearMilestone(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	if err := s.Store.ClearMilestone(userID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, true)
}

// GeneratePersona runs an explicit persona synthesis. A run already in flight
// for the user answers 409.
func GeneratePersona(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var (
		persona models.Persona
		err     error
	)
	if s.Synthesis != nil {
		persona, err = s.Synthesis.RunNow(requestCtx(c), userID)
	} else {
		persona, err = s.Persona.Synthesize(requestCtx(c), userID, insights.PERSONA_TRIGGER_MANUAL)
	}
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, persona)
}

type PersonaEditRequest struct {
	Summary *string  `json:"summary"`
	Traits  []string `json:"traits"`
}

// UpdatePersona lets the user edit the synthesized text. Analysis bookkeeping
// is untouched so the auto-retrigger keeps its baseline.
func UpdatePersona(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var req PersonaEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	user, err := s.Store.GetUser(userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	persona := models.Persona{}
	if user.Persona != nil {
		persona = *user.Persona
	}
	if req.Summary != nil {
		persona.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Traits != nil {
		persona.Traits = req.Traits
	}
	if err := s.Store.MergeUser(userID, map[string]any{"persona": &persona}); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, persona)
}

// PutLinkedIn stores the scraped professional profile and copies the
// headline into the tagline.
func PutLinkedIn(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var profile models.LinkedInProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		RespondBindError(c, err)
		return
	}
	profile.Headline = strings.TrimSpace(profile.Headline)
	if profile.Headline == "" && strings.TrimSpace(profile.About) == "" && strings.TrimSpace(profile.DeepProfileText) == "" {
		RespondError(c, "perfil vazio", http.StatusBadRequest)
		return
	}
	now := time.Now()
	if profile.ScrapedAt == nil {
		profile.ScrapedAt = &now
	}

	fields := map[string]any{
		"linkedin_data":      &profile,
		"linkedin_synced_at": &now,
	}
	if profile.Headline != "" {
		fields["tagline"] = profile.Headline
	}
	if err := s.Store.MergeExternalProfile(userID, fields); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, profile)
}

// UploadResume extracts the text of a pdf, docx or plain text resume.
// Nothing is stored when extraction fails.
func UploadResume(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	data, name, ok := readFormFile(c, "file", maxDocumentBytes)
	if !ok {
		return
	}
	text, err := tools.ExtractDocumentText(name, data)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := s.Store.MergeExternalProfile(userID, map[string]any{
		"resume_text":      text,
		"resume_file_name": name,
	}); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"file_name": name, "characters": len([]rune(text))})
}

func UploadPhoto(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	if s.Bucket == nil {
		RespondError(c, "armazenamento não configurado", http.StatusServiceUnavailable)
		return
	}
	img, ok := readImage(c, "image")
	if !ok {
		return
	}
	key := objectKey("profile_photos", userID, img.MIMEType, time.Now())
	url, err := s.Bucket.Upload(requestCtx(c), key, img.MIMEType, bytes.NewReader(img.Data))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := s.Store.MergeUser(userID, map[string]any{"photo_url": url}); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"photo_url": url})
}
