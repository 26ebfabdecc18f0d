package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/call-signaling/internal/presence"
)

// GetCall reports the live presence of a call room (requires
// authentication). The booking platform polls this to drive the
// "waiting for participant" UI and appointment status transitions.
func GetCall(store *presence.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		appointmentID := c.Param("appointmentId")
		if appointmentID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "appointmentId is required"})
			return
		}

		info, err := store.Snapshot(c.Request.Context(), appointmentID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read call state"})
			return
		}

		c.JSON(http.StatusOK, info)
	}
}
