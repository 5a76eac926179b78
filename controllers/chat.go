package controllers

import (
	"net/http"

	"reflectionsmatch/tools"

	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string           `json:"message"`
	History []tools.ChatTurn `json:"history"`
}

// POST /api/chat
func Chat(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	reply, err := s.Companion.Reply(requestCtx(c), userID, req.Message, req.History)
	if err != nil {
		if isServiceError(err) {
			RespondServiceError(c, err)
			return
		}
		s.Log.Warn("chat failed", "user_id", userID, "error", err)
		RespondError(c, "não consegui pensar numa resposta agora, tente novamente em instantes", http.StatusBadGateway)
		return
	}
	RespondSuccess(c, gin.H{"reply": reply})
}
