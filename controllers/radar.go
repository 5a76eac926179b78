package controllers

import (
	"net/http"

	"reflectionsmatch/insights"
	"reflectionsmatch/models"

	"github.com/gin-gonic/gin"
)

// POST /api/radar/suggestions
func GenerateSuggestions(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	cards, err := s.Radar.Suggest(requestCtx(c), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, gin.H{"suggestions": cards})
}

// GET /api/radar/suggestions
func GetSuggestions(c *gin.Context) {
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
	cards := user.RadarSuggestions
	if cards == nil {
		cards = models.RadarCards{}
	}
	RespondSuccess(c, gin.H{"suggestions": cards, "generated_at": user.LastRadarAt})
}

// POST /api/radar/pursuits
func SavePursuit(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	var card models.RadarCard
	if err := c.ShouldBindJSON(&card); err != nil {
		RespondBindError(c, err)
		return
	}
	pursuit, milestone, err := insights.SavePursuit(s.Recorder, s.Store, userID, card)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, CreatedReflection{Reflection: pursuit, Milestone: milestone})
}

// GET /api/radar/pursuits
func ListPursuits(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	items, err := s.Store.ListPursuits(userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if items == nil {
		items = []models.Reflection{}
	}
	RespondSuccess(c, gin.H{"pursuits": items})
}

// POST /api/radar/weekly
func RunWeeklyRadar(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	res, err := s.Radar.Weekly(requestCtx(c), userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondSuccess(c, res)
}

// GET /api/radar/weekly
func GetWeeklyRadar(c *gin.Context) {
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
	if user.WeeklyRadar == nil {
		RespondSuccess(c, insights.WeeklyResult{Status: insights.RADAR_STATUS_NO_DATA})
		return
	}
	RespondSuccess(c, insights.WeeklyResult{Status: insights.RADAR_STATUS_SUCCESS, Radar: user.WeeklyRadar})
}
