package controllers

import (
	"net/http"
	"strings"
	"time"

	dbpkg "reflectionsmatch/db"
	"reflectionsmatch/insights"

	"github.com/gin-gonic/gin"
)

type ActivityResponse struct {
	From          string             `json:"from"`
	To            string             `json:"to"`
	Series        []dbpkg.DailyCount `json:"series"`
	Total         int                `json:"total"`
	NextMilestone int                `json:"next_milestone"`
	Remaining     int                `json:"remaining"`
}

// GET /api/reflections/activity
// Query params:
// - from=YYYY-MM-DD (opcional, default: hoje-6)
// - to=YYYY-MM-DD   (opcional, default: hoje)
// - tz              (postgres, default UTC)
// Retorna uma série diária (inclui dias com 0) e o progresso até o próximo marco.
func GetActivity(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}

	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	// "to" exclusivo: dia seguinte 00:00
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	toExclusive := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local).AddDate(0, 0, 1)

	rows, err := s.Store.CountReflectionsPerDay(userID, from, toExclusive, strings.TrimSpace(c.Query("tz")))
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	total, err := s.Store.CountReflections(userID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}

	next := nextMilestone(total)
	resp := ActivityResponse{
		From:          from.Format("2006-01-02"),
		To:            to.Format("2006-01-02"),
		Series:        fillDailySeries(from, to, rows),
		Total:         total,
		NextMilestone: next,
	}
	if next > 0 {
		resp.Remaining = next - total
	}
	RespondSuccess(c, resp)
}

// nextMilestone returns the first threshold above total, 0 after the last.
func nextMilestone(total int) int {
	for _, t := range insights.MilestoneThresholds {
		if t > total {
			return t
		}
	}
	return 0
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, bool) {
	// defaults: últimos 7 dias
	now := time.Now()
	from := now.AddDate(0, 0, -6)
	to := now

	fromStr := strings.TrimSpace(c.Query("from"))
	toStr := strings.TrimSpace(c.Query("to"))
	var err error

	if fromStr != "" {
		from, err = time.ParseInLocation("2006-01-02", fromStr, time.Local)
		if err != nil {
			RespondError(c, "from inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation("2006-01-02", toStr, time.Local)
		if err != nil {
			RespondError(c, "to inválido (use YYYY-MM-DD)", http.StatusBadRequest)
			return time.Time{}, time.Time{}, false
		}
	}
	if from.After(to) {
		RespondError(c, "from não pode ser maior que to", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	if to.Sub(from) > 366*24*time.Hour {
		RespondError(c, "intervalo máximo de 1 ano", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func fillDailySeries(from time.Time, to time.Time, rows []dbpkg.DailyCount) []dbpkg.DailyCount {
	m := map[string]int64{}
	for _, r := range rows {
		if r.Day == "" {
			continue
		}
		m[r.Day] = r.Count
	}

	out := []dbpkg.DailyCount{}
	cur := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.Local)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.Local)
	for !cur.After(end) {
		key := cur.Format("2006-01-02")
		out = append(out, dbpkg.DailyCount{Day: key, Count: m[key]})
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}
