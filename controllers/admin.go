package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /api/admin/radar/run
// Runs the weekly briefing for every active user right away.
func RunRadarForAll(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	if s.Scheduler == nil {
		RespondError(c, "agendador do radar não configurado", http.StatusServiceUnavailable)
		return
	}
	summary, err := s.Scheduler.RunAll(requestCtx(c))
	if err != nil {
		s.Log.Error("admin radar run failed", "error", err)
		RespondError(c, "falha ao executar o radar", http.StatusInternalServerError)
		return
	}
	RespondSuccess(c, summary)
}
