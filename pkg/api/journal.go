package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZentaChain/mirlink/pkg/storage"
)

// RecentResponse wraps the newest journal frames
type RecentResponse struct {
	Count  int             `json:"count"`
	Frames []storage.Frame `json:"frames"`
}

// HourlyResponse wraps per-hour journal counts
type HourlyResponse struct {
	Since   time.Time            `json:"since"`
	Buckets []storage.HourBucket `json:"buckets"`
}

func (s *Server) journalAvailable(c *gin.Context) bool {
	if s.journal == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "Journal disabled",
			Message: "enable [journal] in the server configuration",
		})
		return false
	}
	return true
}

// handleJournalRecent handles GET /api/v1/journal/recent?limit=N
func (s *Server) handleJournalRecent(c *gin.Context) {
	if !s.journalAvailable(c) {
		return
	}

	limit := storage.DefaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid limit",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = v
	}

	frames, err := s.journal.Recent(limit)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, RecentResponse{Count: len(frames), Frames: frames})
}

// handleJournalStats handles GET /api/v1/journal/stats
func (s *Server) handleJournalStats(c *gin.Context) {
	if !s.journalAvailable(c) {
		return
	}

	stats, err := s.journal.Stats()
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// handleJournalHourly handles GET /api/v1/journal/hourly?hours=N
func (s *Server) handleJournalHourly(c *gin.Context) {
	if !s.journalAvailable(c) {
		return
	}

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > 24*30 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "Invalid hours",
				Message: "hours must be between 1 and 720",
			})
			return
		}
		hours = v
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour).UTC()
	buckets, err := s.journal.Hourly(since)
	if err != nil {
		s.internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, HourlyResponse{Since: since, Buckets: buckets})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("journal query failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "Journal query failed",
		Message: err.Error(),
	})
}
