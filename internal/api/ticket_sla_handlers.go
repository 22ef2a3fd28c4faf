package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// resolveDueDate finds the winning rule for a ticket and walks its
// calendar to the due date.
func (h *handlers) resolveDueDate(ctx context.Context, ticket *models.Ticket) (*models.SLARule, time.Time, error) {
	rules, err := h.cache.ActiveRules(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}

	rule, err := sla.Resolve(ticket.Context(), rules)
	if err != nil {
		return nil, time.Time{}, err
	}

	policy, err := h.rules.GetCalendar(ctx, rule.CalendarID)
	if err != nil {
		return nil, time.Time{}, err
	}
	calendar, err := sla.NewCalendar(*policy)
	if err != nil {
		return nil, time.Time{}, err
	}

	due, err := sla.ComputeDueDate(ticket.CreatedAt, *rule, calendar, sla.Options{})
	if err != nil {
		return nil, time.Time{}, err
	}
	return rule, due, nil
}

// CreateTicket accepts both snake_case and camelCase payloads, resolves
// the SLA rule and stores the ticket with its computed due date. Tickets
// matching no rule are stored without one.
func (h *handlers) CreateTicket(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket := models.NormalizeTicketPayload(raw)
	if ticket.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}

	ctx := c.Request.Context()
	var ruleID uint
	rule, due, err := h.resolveDueDate(ctx, &ticket)
	switch {
	case err == nil:
		ticket.DueDate = &due
		ruleID = rule.ID
	case errors.Is(err, models.ErrRuleNotFound):
		// No matching rule: the ticket simply carries no SLA.
	case errors.Is(err, sla.ErrDeadlineUnreachable), errors.Is(err, models.ErrInvalidRule):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	default:
		log.Printf("CreateTicket: SLA resolution failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute SLA"})
		return
	}

	if err := h.tickets.CreateTicket(ctx, &ticket); err != nil {
		log.Printf("CreateTicket: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	resp := gin.H{"ticket": ticket}
	if ruleID != 0 {
		resp["sla_rule_id"] = ruleID
	}
	c.JSON(http.StatusCreated, resp)
}

// AssignDueDate recomputes and persists a ticket's due date, e.g. after
// rule or calendar changes.
func (h *handlers) AssignDueDate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	ticket, err := h.tickets.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		log.Printf("AssignDueDate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ticket"})
		return
	}
	if ticket.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{"error": "Ticket is closed"})
		return
	}

	rule, due, err := h.resolveDueDate(ctx, ticket)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrRuleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "No SLA rule matches this ticket"})
		case errors.Is(err, sla.ErrDeadlineUnreachable), errors.Is(err, models.ErrInvalidRule):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			log.Printf("AssignDueDate: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute due date"})
		}
		return
	}

	if err := h.tickets.SetDueDate(ctx, id, due); err != nil {
		log.Printf("AssignDueDate: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save due date"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket_id":   id,
		"sla_rule_id": rule.ID,
		"due_date":    due,
	})
}

// GetTicketSLA reports live SLA standing. ?now overrides the clock for
// reproducible reads, ?lang switches the display language.
func (h *handlers) GetTicketSLA(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	ticket, err := h.tickets.GetTicket(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		log.Printf("GetTicketSLA: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ticket"})
		return
	}

	now := time.Now()
	if rawNow := c.Query("now"); rawNow != "" {
		parsed, err := time.Parse(time.RFC3339, rawNow)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid now parameter, expected RFC3339"})
			return
		}
		now = parsed
	}
	lang := c.DefaultQuery("lang", h.defaultLang)

	eval := sla.EvaluateTicket(now, *ticket, lang)
	resp := gin.H{
		"ticket_id": id,
		"status":    ticket.Status,
		"breached":  eval.Breached,
		"display":   eval.Display,
	}
	if ticket.DueDate != nil {
		resp["due_date"] = ticket.DueDate
		resp["remaining_minutes"] = int(eval.Remaining.Minutes())
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateTicketStatus transitions a ticket. A terminal transition freezes
// the breach verdict as of the transition moment.
func (h *handlers) UpdateTicketStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.IsValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status"})
		return
	}

	ctx := c.Request.Context()
	ticket, err := h.tickets.GetTicket(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ticket not found"})
			return
		}
		log.Printf("UpdateTicketStatus: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch ticket"})
		return
	}

	now := time.Now()
	var closedAt *time.Time
	breached := ticket.SLABreach
	next := models.Ticket{Status: req.Status}
	if next.IsTerminal() {
		closedAt = &now
		if ticket.DueDate != nil {
			breached = sla.FreezeBreach(now, *ticket.DueDate)
		}
	} else if ticket.IsTerminal() {
		// Reopening: clear the frozen snapshot, the sweeper takes over.
		if ticket.DueDate != nil {
			breached = sla.FreezeBreach(now, *ticket.DueDate)
		}
	}

	if err := h.tickets.SetStatus(ctx, id, req.Status, closedAt, breached); err != nil {
		log.Printf("UpdateTicketStatus: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ticket_id": id,
		"status":    req.Status,
		"breached":  breached,
	})
}
