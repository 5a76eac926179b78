package controllers

import (
	"net/http"
	"strings"
	"time"

	"reflectionsmatch/insights"
	"reflectionsmatch/live"
	"reflectionsmatch/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = (streamPongWait * 9) / 10
)

// Snapshot is the full derived state pushed to the dashboard.
type Snapshot struct {
	Type        string              `json:"type"`
	Reflections []models.Reflection `json:"reflections"`
	Trending    []string            `json:"trending"`
	Milestone   *int                `json:"milestone"`
	Persona     *models.Persona     `json:"persona"`
}

type Notice struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// BuildSnapshot recomputes every view from the user's current records.
func BuildSnapshot(s *Services, userID int64) (Snapshot, error) {
	user, err := s.Store.GetUser(userID)
	if err != nil {
		return Snapshot{}, err
	}
	records, err := s.Store.ListReflections(userID)
	if err != nil {
		return Snapshot{}, err
	}
	if records == nil {
		records = []models.Reflection{}
	}
	return Snapshot{
		Type:        "snapshot",
		Reflections: records,
		Trending:    insights.TrendingTags(records, insights.TrendingTagLimit),
		Milestone:   user.MilestoneFlag,
		Persona:     user.Persona,
	}, nil
}

func newUpgrader(allowed []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || strings.HasPrefix(origin, "chrome-extension://") {
				return true
			}
			for _, a := range allowed {
				if a == "*" || strings.EqualFold(a, origin) {
					return true
				}
			}
			return false
		},
	}
}

// GET /api/stream
// Websocket: a snapshot on connect, then a fresh snapshot after each change of
// the caller's data. Notices are forwarded as they come.
func Stream(c *gin.Context) {
	s, ok := mustServices(c)
	if !ok {
		return
	}
	userID, ok := loggedUser(c)
	if !ok {
		return
	}
	if s.Hub == nil {
		RespondError(c, "stream indisponível", http.StatusServiceUnavailable)
		return
	}

	upgrader := newUpgrader(s.Config.Security.AllowedOrigins)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Log.Debug("stream upgrade failed", "user_id", userID, "error", err)
		return
	}
	defer conn.Close()

	changes, cancel := s.Hub.Subscribe(64)
	defer cancel()

	// reader: keeps pong deadlines moving and notices the client leaving
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(v any) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(v) == nil
	}
	push := func() bool {
		snap, err := BuildSnapshot(s, userID)
		if err != nil {
			s.Log.Warn("snapshot failed", "user_id", userID, "error", err)
			return true
		}
		return send(snap)
	}

	if !push() {
		return
	}
	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case ch, ok := <-changes:
			if !ok {
				return
			}
			if ch.UserID != userID {
				continue
			}
			if ch.Kind == live.KIND_NOTICE {
				if !send(Notice{Type: "notice", Message: ch.Message}) {
					return
				}
				continue
			}
			if !push() {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
