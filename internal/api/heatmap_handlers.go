package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// TicketHeatmap aggregates ticket creation times into a weekday-by-hour
// grid (rows start at Monday). ?from and ?to bound the window (RFC3339);
// the default is the trailing 30 days. ?tz overrides the display timezone.
func (h *handlers) TicketHeatmap(c *gin.Context) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from parameter, expected RFC3339"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to parameter, expected RFC3339"})
			return
		}
		to = parsed
	}
	if !from.Before(to) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must precede to"})
		return
	}

	tz := c.DefaultQuery("tz", models.DefaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown timezone"})
		return
	}

	tickets, err := h.tickets.ListCreatedBetween(c.Request.Context(), from, to)
	if err != nil {
		log.Printf("TicketHeatmap: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load tickets"})
		return
	}

	grid := sla.Heatmap(tickets, loc)
	c.JSON(http.StatusOK, gin.H{
		"from":     from,
		"to":       to,
		"timezone": tz,
		"days":     []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		"grid":     grid,
		"total":    len(tickets),
	})
}
