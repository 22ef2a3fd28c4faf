package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/models"
)

type ruleRequest struct {
	Name                      string `json:"name" binding:"required"`
	PriorityLevel             int    `json:"priority_level" binding:"required"`
	PriorityName              string `json:"priority_name"`
	Customers                 []uint `json:"customers"`
	Categories                []uint `json:"categories"`
	SubCategories             []uint `json:"sub_categories"`
	Departments               []uint `json:"departments"`
	Groups                    []uint `json:"groups"`
	BusinessMinutes           int    `json:"business_minutes"`
	NonBusinessMinutes        int    `json:"non_business_minutes"`
	WeekendBusinessMinutes    int    `json:"weekend_business_minutes"`
	WeekendNonBusinessMinutes int    `json:"weekend_non_business_minutes"`
	CalendarID                int    `json:"calendar_id"`
	SLANextDayStart           bool   `json:"sla_next_day_start"`
}

func (req *ruleRequest) toRule() models.SLARule {
	calendarID := req.CalendarID
	if calendarID == 0 {
		calendarID = 1
	}
	return models.SLARule{
		Name:                      req.Name,
		PriorityLevel:             req.PriorityLevel,
		PriorityName:              req.PriorityName,
		Customers:                 req.Customers,
		Categories:                req.Categories,
		SubCategories:             req.SubCategories,
		Departments:               req.Departments,
		Groups:                    req.Groups,
		BusinessMinutes:           req.BusinessMinutes,
		NonBusinessMinutes:        req.NonBusinessMinutes,
		WeekendBusinessMinutes:    req.WeekendBusinessMinutes,
		WeekendNonBusinessMinutes: req.WeekendNonBusinessMinutes,
		CalendarID:                calendarID,
		SLANextDayStart:           req.SLANextDayStart,
	}
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID"})
		return 0, false
	}
	return uint(id), true
}

// ListRules returns SLA rules; ?active=true narrows to the live set.
func (h *handlers) ListRules(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	rules, err := h.rules.ListRules(c.Request.Context(), activeOnly)
	if err != nil {
		log.Printf("ListRules: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list SLA rules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules, "count": len(rules)})
}

func (h *handlers) GetRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	rule, err := h.rules.GetRule(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "SLA rule not found"})
			return
		}
		log.Printf("GetRule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch SLA rule"})
		return
	}
	c.JSON(http.StatusOK, rule)
}

func (h *handlers) CreateRule(c *gin.Context) {
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := req.toRule()
	if err := h.rules.CreateRule(c.Request.Context(), &rule); err != nil {
		if errors.Is(err, models.ErrInvalidRule) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		log.Printf("CreateRule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create SLA rule"})
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, rule)
}

func (h *handlers) UpdateRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := req.toRule()
	rule.ID = id
	if err := h.rules.UpdateRule(c.Request.Context(), &rule); err != nil {
		switch {
		case errors.Is(err, models.ErrRuleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "SLA rule not found"})
		case errors.Is(err, models.ErrInvalidRule):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			log.Printf("UpdateRule: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update SLA rule"})
		}
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, rule)
}

func (h *handlers) DeleteRule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.rules.DeleteRule(c.Request.Context(), id); err != nil {
		if errors.Is(err, models.ErrRuleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "SLA rule not found"})
			return
		}
		log.Printf("DeleteRule: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete SLA rule"})
		return
	}

	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
