package controllers

import (
	"reflectionsmatch/insights"

	"github.com/gin-gonic/gin"
)

// POST /api/coaching
// Body: { "type": "INITIAL_PLAN|UPDATE_GOAL", "goalTitle": "...", ... }
func Coach(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	if _, ok := loggedUser(c); !ok {
		return
	}
	var req insights.CoachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	res, err := s.Coach.Advise(requestCtx(c), req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, res)
}

// POST /api/pursuits/:id/coaching
// Same body; the goal comes from the stored pursuit and the exchange is saved on it.
func CoachPursuit(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	pursuit, ok := ownedReflection(c, s, userID)
	if !ok {
		return
	}
	var req insights.CoachingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}
	res, err := s.Coach.AdvisePursuit(requestCtx(c), s.Store, pursuit, req)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, res)
}
