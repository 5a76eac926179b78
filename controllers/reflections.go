package controllers

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"reflectionsmatch/insights"
	"reflectionsmatch/models"

	"github.com/gin-gonic/gin"
)

type CreatedReflection struct {
	Reflection models.Reflection `json:"reflection"`
	// Milestone is the threshold this creation reached, 0 when none.
	Milestone int `json:"milestone"`
}

// GET /api/reflections?q=
func ListReflections(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	records, err := s.Store.ListReflections(userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"reflections": insights.FilterReflections(records, c.Query("q"))})
}

// GET /api/reflections/trending
func TrendingTags(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	records, err := s.Store.ListReflections(userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"tags": insights.TrendingTags(records, insights.TrendingTagLimit)})
}

// ownedReflection loads the record and hides other users' records as 404.
func ownedReflection(c *gin.Context, s *Services, userID int64) (models.Reflection, bool) {
	id, ok := ParamID(c, "id")
	if !ok {
		return models.Reflection{}, false
	}
	rec, err := s.Store.GetReflection(id)
	if err != nil {
		RespondServiceError(c, err)
		return models.Reflection{}, false
	}
	if rec.UserID != userID {
		RespondError(c, "não encontrado", http.StatusNotFound)
		return models.Reflection{}, false
	}
	return rec, true
}

func GetReflection(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	rec, ok := ownedReflection(c, s, userID)
	if !ok {
		return
	}
	RespondSuccess(c, rec)
}

type TextReflectionRequest struct {
	Note      string `json:"note"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
}

// CreateTextReflection saves a note without content. It is never enriched.
func CreateTextReflection(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var req TextReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	if strings.TrimSpace(req.Note) == "" && strings.TrimSpace(req.Title) == "" {
		RespondError(c, "note é obrigatório", http.StatusBadRequest)
		return
	}
	rec := models.Reflection{
		UserID:    userID,
		UserNote:  strings.TrimSpace(req.Note),
		Title:     strings.TrimSpace(req.Title),
		SourceURL: strings.TrimSpace(req.SourceURL),
		Source:    models.REFLECTION_SOURCE_CAPTURED,
	}
	createAndRespond(c, s, &rec)
}

// Capture stores a screenshot from the browser extension. Enrichment runs
// in the background once the record exists.
func Capture(c *gin.Context) {
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

	key := objectKey("captures", userID, img.MIMEType, time.Now())
	url, err := s.Bucket.Upload(requestCtx(c), key, img.MIMEType, bytes.NewReader(img.Data))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	rec := models.Reflection{
		UserID:    userID,
		ImageURL:  url,
		ImageKey:  key,
		UserNote:  strings.TrimSpace(c.PostForm("note")),
		SourceURL: strings.TrimSpace(c.PostForm("source_url")),
		Title:     strings.TrimSpace(c.PostForm("title")),
		Source:    models.REFLECTION_SOURCE_CAPTURED,
	}
	createAndRespond(c, s, &rec)
}

// UploadReflection analyzes a manually uploaded image before saving it. When
// analysis fails the stored object is removed and nothing is created.
func UploadReflection(c *gin.Context) {
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
	note := strings.TrimSpace(c.PostForm("note"))

	ctx := requestCtx(c)
	key := objectKey("manual_uploads", userID, img.MIMEType, time.Now())
	url, err := s.Bucket.Upload(ctx, key, img.MIMEType, bytes.NewReader(img.Data))
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	result, err := s.Enricher.AnalyzeUpload(ctx, img, note)
	if err != nil {
		if derr := s.Bucket.Delete(ctx, key); derr != nil {
			s.Log.Warn("orphaned upload", "key", key, "error", derr)
		}
		RespondServiceError(c, err)
		return
	}

	now := time.Now()
	rec := models.Reflection{
		UserID:     userID,
		ImageURL:   url,
		ImageKey:   key,
		UserNote:   note,
		Title:      result.Title,
		Summary:    result.Summary,
		Tags:       models.StringList(result.Tags),
		AnalyzedAt: &now,
		Source:     models.REFLECTION_SOURCE_MANUAL_UPLOAD,
	}
	createAndRespond(c, s, &rec)
}

func createAndRespond(c *gin.Context, s *Services, rec *models.Reflection) {
	milestone, err := s.Recorder.Create(rec)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedReflection{Reflection: *rec, Milestone: milestone})
}

type PatchReflectionRequest struct {
	Note    *string   `json:"note"`
	Title   *string   `json:"title"`
	Summary *string   `json:"summary"`
	Tags    *[]string `json:"tags"`
	Status  *string   `json:"status"`
}

// PatchReflection merges the editable fields. Owner, creation time and
// source url never change.
func PatchReflection(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	rec, ok := ownedReflection(c, s, userID)
	if !ok {
		return
	}
	var req PatchReflectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	fields := map[string]any{}
	if req.Note != nil {
		fields["user_note"] = strings.TrimSpace(*req.Note)
	}
	if req.Title != nil {
		fields["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Summary != nil {
		fields["summary"] = strings.TrimSpace(*req.Summary)
	}
	if req.Tags != nil {
		tags := models.StringList{}
		for _, t := range *req.Tags {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		fields["tags"] = tags
	}
	if req.Status != nil {
		if rec.Source != models.REFLECTION_SOURCE_RADAR {
			RespondError(c, "status só se aplica a pursuits", http.StatusBadRequest)
			return
		}
		if !models.IsValidPursuitStatus(*req.Status) {
			RespondError(c, "status inválido", http.StatusBadRequest)
			return
		}
		fields["status"] = *req.Status
	}

	if err := s.Store.MergeReflection(rec.ID, fields); err != nil {
		RespondServiceError(c, err)
		return
	}
	updated, err := s.Store.GetReflection(rec.ID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, updated)
}

// DeleteReflection hard-deletes a record; the caller must confirm.
func DeleteReflection(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	if c.Query("confirm") != "true" {
		RespondError(c, "confirm=true é obrigatório para apagar", http.StatusPreconditionRequired)
		return
	}
	rec, ok := ownedReflection(c, s, userID)
	if !ok {
		return
	}
	if err := s.Store.DeleteReflection(rec.ID); err != nil {
		RespondServiceError(c, err)
		return
	}
	if rec.ImageKey != "" && s.Bucket != nil {
		if err := s.Bucket.Delete(requestCtx(c), rec.ImageKey); err != nil {
			s.Log.Warn("object delete failed", "key", rec.ImageKey, "error", err)
		}
	}
	RespondSuccess(c, true)
}
