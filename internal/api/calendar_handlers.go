package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/models"
)

type calendarRequest struct {
	Name              string           `json:"name" binding:"required"`
	Timezone          string           `json:"timezone"`
	BusinessStartHour int              `json:"business_start_hour"`
	BusinessEndHour   int              `json:"business_end_hour"`
	WeekendDays       []int            `json:"weekend_days"`
	Holidays          []models.Holiday `json:"holidays"`
}

func (req *calendarRequest) toPolicy() models.CalendarPolicy {
	return models.CalendarPolicy{
		Name:              req.Name,
		Timezone:          req.Timezone,
		BusinessStartHour: req.BusinessStartHour,
		BusinessEndHour:   req.BusinessEndHour,
		WeekendDays:       req.WeekendDays,
		Holidays:          req.Holidays,
	}
}

func parseCalendarID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return id, true
}

func (h *handlers) ListCalendars(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	policies, err := h.rules.ListCalendars(c.Request.Context(), activeOnly)
	if err != nil {
		log.Printf("ListCalendars: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list calendars"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"calendars": policies, "count": len(policies)})
}

func (h *handlers) GetCalendar(c *gin.Context) {
	id, ok := parseCalendarID(c)
	if !ok {
		return
	}
	policy, err := h.rules.GetCalendar(c.Request.Context(), id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Calendar not found"})
			return
		}
		log.Printf("GetCalendar: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch calendar"})
		return
	}
	c.JSON(http.StatusOK, policy)
}

func (h *handlers) CreateCalendar(c *gin.Context) {
	var req calendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := req.toPolicy()
	if err := h.rules.CreateCalendar(c.Request.Context(), &policy); err != nil {
		if errors.Is(err, models.ErrInvalidCalendarPolicy) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		log.Printf("CreateCalendar: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create calendar"})
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, policy)
}

func (h *handlers) UpdateCalendar(c *gin.Context) {
	id, ok := parseCalendarID(c)
	if !ok {
		return
	}
	var req calendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	policy := req.toPolicy()
	policy.ID = id
	if err := h.rules.UpdateCalendar(c.Request.Context(), &policy); err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCalendarPolicy):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case strings.Contains(err.Error(), "not found"):
			c.JSON(http.StatusNotFound, gin.H{"error": "Calendar not found"})
		default:
			log.Printf("UpdateCalendar: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update calendar"})
		}
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, policy)
}

// ImportWorkingHours replaces a calendar's window and weekend set from a
// working-hours YAML document (per-day hour lists, absent day = weekend).
func (h *handlers) ImportWorkingHours(c *gin.Context) {
	id, ok := parseCalendarID(c)
	if !ok {
		return
	}

	doc, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	existing, err := h.rules.GetCalendar(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Calendar not found"})
		return
	}

	policy, err := models.ImportWorkingHoursYAML(doc, *existing)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.rules.UpdateCalendar(c.Request.Context(), &policy); err != nil {
		log.Printf("ImportWorkingHours: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update calendar"})
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, policy)
}
