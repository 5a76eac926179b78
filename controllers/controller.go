package controllers

import (
	"errors"
	"net/http"

	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/insights"
	"reflectionsmatch/tools"
	"reflectionsmatch/workers"

	"github.com/gin-gonic/gin"
)

func RespondError(c *gin.Context, msg string, code int) {
	c.JSON(code, gin.H{"error": msg})
}

// RespondUnauthenticated answers 401 with a stable code next to the message.
func RespondUnauthenticated(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": "não autenticado", "code": "unauthenticated"})
}

func RespondSuccess(c *gin.Context, payload any) {
	c.JSON(200, payload)
}

// RespondBindError reports a body that failed to bind. The binder detail only
// goes to the debug log.
func RespondBindError(c *gin.Context, err error) {
	if s := ServicesInstance(c); s != nil {
		s.Log.Debug("invalid request body", "path", c.FullPath(), "error", err)
	}
	RespondError(c, "corpo da requisição inválido", http.StatusBadRequest)
}

// isServiceError reports whether RespondServiceError has a specific status for err.
func isServiceError(err error) bool {
	for _, target := range []error{
		dbpkg.ErrNotFound, insights.ErrNoReflections, insights.ErrInvalidArgument,
		insights.ErrDuplicatePursuit, insights.ErrMalformedReply, workers.ErrSynthesisBusy,
		tools.ErrUnsupportedDocument, tools.ErrEmptyDocument,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// RespondServiceError maps pipeline and store errors to a status code. Unknown
// errors are logged and reported without internal detail.
func RespondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dbpkg.ErrNotFound):
		RespondError(c, "não encontrado", http.StatusNotFound)
	case errors.Is(err, insights.ErrNoReflections),
		errors.Is(err, insights.ErrInvalidArgument),
		errors.Is(err, tools.ErrUnsupportedDocument),
		errors.Is(err, tools.ErrEmptyDocument):
		RespondError(c, err.Error(), http.StatusBadRequest)
	case errors.Is(err, insights.ErrDuplicatePursuit),
		errors.Is(err, workers.ErrSynthesisBusy):
		RespondError(c, err.Error(), http.StatusConflict)
	case errors.Is(err, insights.ErrMalformedReply):
		RespondError(c, "o serviço de análise devolveu uma resposta ilegível, tente novamente", http.StatusBadGateway)
	default:
		if s := ServicesInstance(c); s != nil {
			s.Log.Error("request failed", "path", c.FullPath(), "error", err)
		}
		RespondError(c, "algo deu errado, tente novamente", http.StatusInternalServerError)
	}
}
