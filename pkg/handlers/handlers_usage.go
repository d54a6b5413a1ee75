package handlers

import (
	"net/http"
	"time"

	"github.com/arnavshah/care-shift-calendar/pkg/database"
	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/arnavshah/care-shift-calendar/pkg/visibility"
	"github.com/gin-gonic/gin"
)

// RecordUsage bumps the caller's daily counters. Failures are logged and never
// fail the request.
func (h *Handler) RecordUsage(v visibility.Viewer, renders, details int) {
	if h.DB == nil {
		return
	}
	today := time.Now().Format(models.DateLayout)
	if err := database.RecordUsage(h.DB, v.StaffID, string(v.Role), today, renders, details); err != nil {
		h.Log.Warn().Err(err).Int("staff_id", v.StaffID).Msg("failed to record usage")
	}
}

// GetMyUsage returns usage stats for the authenticated staff member
func (h *Handler) GetMyUsage(c *gin.Context) {
	if h.DB == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Usage tracking is not configured"})
		return
	}

	staffID := c.GetInt("staffID")
	usage, err := database.UsageFor(h.DB, staffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRenders, totalDetails int64
	for _, u := range usage {
		totalRenders += int64(u.RenderCount)
		totalDetails += int64(u.DetailCount)
	}

	c.JSON(http.StatusOK, gin.H{
		"staff_id":      staffID,
		"usage_history": usage,
		"totals": gin.H{
			"renders":     totalRenders,
			"day_details": totalDetails,
		},
	})
}
