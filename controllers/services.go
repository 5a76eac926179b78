package controllers

import (
	"context"

	"reflectionsmatch/config"
	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/insights"
	"reflectionsmatch/live"
	"reflectionsmatch/logger"
	"reflectionsmatch/models"
	"reflectionsmatch/tools"
	"reflectionsmatch/workers"

	"github.com/gin-gonic/gin"
)

const servicesKey = "services"

// Services is what the handlers need beyond the database. Bucket and Mailer
// are nil when not configured.
type Services struct {
	Log       *logger.Logger
	Config    config.Configuration
	Store     *dbpkg.Store
	Hub       *live.Hub
	Recorder  *insights.Recorder
	Enricher  *insights.Enricher
	Persona   *insights.PersonaSynthesizer
	Radar     *insights.Radar
	Coach     *insights.Coach
	Companion *insights.Companion
	Bucket    tools.Bucket
	Mailer    tools.Mailer
	Scheduler RadarRunner
	// Synthesis serializes explicit runs with the automatic ones; when nil
	// GeneratePersona calls Persona directly.
	Synthesis PersonaRunner
}

// PersonaRunner runs one explicit persona synthesis and reports
// workers.ErrSynthesisBusy while another run for the user is in flight.
type PersonaRunner interface {
	RunNow(ctx context.Context, userID int64) (models.Persona, error)
}

// RadarRunner runs the weekly briefing for every active user.
type RadarRunner interface {
	RunAll(ctx context.Context) (workers.RunSummary, error)
}

func SetServicesToContext(s *Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(servicesKey, s)
		c.Next()
	}
}

func ServicesInstance(c *gin.Context) *Services {
	v, ok := c.Get(servicesKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Services)
	return s
}
