package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxImageBytes    = 10 << 20
	maxDocumentBytes = 10 << 20
)

// readFormFile reads a multipart field fully, rejecting anything over max bytes.
func readFormFile(c *gin.Context, field string, max int64) ([]byte, string, bool) {
	fh, err := c.FormFile(field)
	if err != nil {
		RespondError(c, field+" é obrigatório", http.StatusBadRequest)
		return nil, "", false
	}
	if fh.Size > max {
		RespondError(c, fmt.Sprintf("%s excede o limite de %d MB", field, max>>20), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	f, err := fh.Open()
	if err != nil {
		RespondBindError(c, err)
		return nil, "", false
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		RespondBindError(c, err)
		return nil, "", false
	}
	if int64(len(data)) > max {
		RespondError(c, fmt.Sprintf("%s excede o limite de %d MB", field, max>>20), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	return data, fh.Filename, true
}

// readImage reads an image field and sniffs its content type.
func readImage(c *gin.Context, field string) (tools.InlineImage, bool) {
	data, _, ok := readFormFile(c, field, maxImageBytes)
	if !ok {
		return tools.InlineImage{}, false
	}
	ct := http.DetectContentType(data)
	if !tools.IsImageContentType(ct) {
		RespondError(c, "formato de imagem não suportado", http.StatusUnsupportedMediaType)
		return tools.InlineImage{}, false
	}
	return tools.InlineImage{MIMEType: strings.Split(ct, ";")[0], Data: data}, true
}

// objectKey builds "<prefix>/<uid>/<unix millis>_<uuid>.<ext>".
func objectKey(prefix string, userID int64, mime string, now time.Time) string {
	ext := "png"
	switch mime {
	case "image/jpeg", "image/jpg":
		ext = "jpg"
	case "image/webp":
		ext = "webp"
	case "image/gif":
		ext = "gif"
	}
	name := fmt.Sprintf("%d_%s.%s", now.UnixMilli(), uuid.NewString(), ext)
	return path.Join(prefix, fmt.Sprint(userID), name)
}
