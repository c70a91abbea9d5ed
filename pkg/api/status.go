package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthResponse reports liveness and a summary of server state
type HealthResponse struct {
	Status      string `json:"status"`
	Uptime      string `json:"uptime"`
	Fingerprint string `json:"fingerprint"`
	Sessions    int    `json:"sessions"`
	Journal     bool   `json:"journal"`
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.SessionCount()
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		Uptime:      time.Since(s.startTime).Round(time.Second).String(),
		Fingerprint: s.registry.Fingerprint().Short(),
		Sessions:    sessions,
		Journal:     s.journal != nil,
	})
}
