package handlers

import (
	"net/http"

	"github.com/arnavshah/care-shift-calendar/pkg/models"
	"github.com/gin-gonic/gin"
)

// ValidateShifts checks a batch of shifts without storing them
func (h *Handler) ValidateShifts(c *gin.Context) {
	var input struct {
		Shifts []models.Shift `json:"shifts"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if len(input.Shifts) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"valid": false,
			"error": "At least one shift is required",
		})
		return
	}

	p, done := h.session(c)
	defer done()

	// Check for duplicate IDs, within the batch and against the ledger
	shiftIDs := make(map[string]bool)
	for _, s := range input.Shifts {
		if s.ID == "" {
			continue
		}
		if shiftIDs[s.ID] {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Duplicate shift ID: " + s.ID})
			return
		}
		if _, err := p.Shift(s.ID); err == nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "error": "Shift ID already exists: " + s.ID})
			return
		}
		shiftIDs[s.ID] = true
	}

	recruiting := 0
	for i, s := range input.Shifts {
		if err := s.Validate(); err != nil {
			c.JSON(http.StatusOK, gin.H{"valid": false, "index": i, "error": err.Error()})
			return
		}
		if s.HasStaff() {
			if _, err := p.Staff(*s.StaffID); err != nil {
				c.JSON(http.StatusOK, gin.H{"valid": false, "index": i, "error": err.Error()})
				return
			}
		}
		if s.IsRecruiting() {
			recruiting++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"shift_count":      len(input.Shifts),
			"recruiting_count": recruiting,
		},
	})
}
