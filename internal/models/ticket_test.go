package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{TicketStatusOpen, false},
		{TicketStatusPending, false},
		{TicketStatusInProgress, false},
		{TicketStatusResolved, true},
		{TicketStatusClosed, true},
	}

	for _, tt := range tests {
		ticket := &Ticket{Status: tt.status}
		assert.Equal(t, tt.want, ticket.IsTerminal(), "status %s", tt.status)
	}
}

func TestTicketContext(t *testing.T) {
	ticket := &Ticket{
		CustomerID:    1,
		CategoryID:    2,
		SubCategoryID: 3,
		DepartmentID:  4,
		GroupID:       5,
	}

	ctx := ticket.Context()
	assert.Equal(t, uint(1), ctx.CustomerID)
	assert.Equal(t, uint(2), ctx.CategoryID)
	assert.Equal(t, uint(3), ctx.SubCategoryID)
	assert.Equal(t, uint(4), ctx.DepartmentID)
	assert.Equal(t, uint(5), ctx.GroupID)
}

func TestNormalizeTicketPayloadSnakeCase(t *testing.T) {
	raw := map[string]interface{}{
		"id":             float64(7),
		"title":          "Printer down",
		"priority_level": float64(2),
		"category_id":    float64(3),
		"subcategory_id": float64(4),
		"group_id":       float64(5),
		"customer_id":    float64(6),
		"status":         "in_progress",
		"created_at":     "2026-01-05T09:00:00+03:00",
	}

	ticket := NormalizeTicketPayload(raw)
	assert.Equal(t, uint(7), ticket.ID)
	assert.Equal(t, "Printer down", ticket.Title)
	assert.Equal(t, 2, ticket.PriorityLevel)
	assert.Equal(t, uint(3), ticket.CategoryID)
	assert.Equal(t, uint(4), ticket.SubCategoryID)
	assert.Equal(t, uint(5), ticket.GroupID)
	assert.Equal(t, uint(6), ticket.CustomerID)
	assert.Equal(t, TicketStatusInProgress, ticket.Status)
	assert.Equal(t, 9, ticket.CreatedAt.Hour())
}

func TestNormalizeTicketPayloadCamelCase(t *testing.T) {
	raw := map[string]interface{}{
		"categoryId":    float64(3),
		"subCategoryId": float64(4),
		"groupId":       float64(5),
		"customerId":    float64(6),
		"companyId":     float64(8),
		"priorityLevel": float64(1),
		"createdAt":     "2026-01-05T09:00:00Z",
	}

	ticket := NormalizeTicketPayload(raw)
	assert.Equal(t, uint(3), ticket.CategoryID)
	assert.Equal(t, uint(4), ticket.SubCategoryID)
	assert.Equal(t, uint(5), ticket.GroupID)
	assert.Equal(t, uint(6), ticket.CustomerID)
	assert.Equal(t, uint(8), ticket.CompanyID)
	assert.Equal(t, 1, ticket.PriorityLevel)
	assert.False(t, ticket.CreatedAt.IsZero())
}

func TestNormalizeTicketPayloadSnakeCaseWinsOverCamel(t *testing.T) {
	raw := map[string]interface{}{
		"customer_id": float64(6),
		"customerId":  float64(99),
	}
	ticket := NormalizeTicketPayload(raw)
	assert.Equal(t, uint(6), ticket.CustomerID)
}

func TestNormalizeTicketPayloadDefaults(t *testing.T) {
	ticket := NormalizeTicketPayload(map[string]interface{}{})
	assert.Equal(t, TicketStatusOpen, ticket.Status)
	assert.Nil(t, ticket.DueDate)
	assert.True(t, ticket.CreatedAt.IsZero())
}

func TestNormalizeTicketPayloadDueDate(t *testing.T) {
	raw := map[string]interface{}{
		"dueDate": "2026-01-05T13:00:00+03:00",
	}
	ticket := NormalizeTicketPayload(raw)
	if assert.NotNil(t, ticket.DueDate) {
		assert.Equal(t, 13, ticket.DueDate.Hour())
	}
}
