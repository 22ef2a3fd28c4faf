package models

import (
	"time"
)

// Ticket statuses. Resolved and closed are terminal: once a ticket reaches
// one of them its due date and breach flag are frozen.
const (
	TicketStatusOpen       = "open"
	TicketStatusPending    = "pending"
	TicketStatusInProgress = "in_progress"
	TicketStatusResolved   = "resolved"
	TicketStatusClosed     = "closed"
)

// Ticket is the canonical ticket representation at the system boundary.
// Only the fields the SLA core consumes are modeled; persistence and the
// rest of the ticket lifecycle belong to the surrounding application.
type Ticket struct {
	ID            uint       `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	PriorityLevel int        `json:"priority_level" db:"priority_level"`
	CategoryID    uint       `json:"category_id" db:"category_id"`
	SubCategoryID uint       `json:"sub_category_id" db:"sub_category_id"`
	DepartmentID  uint       `json:"department_id" db:"department_id"`
	GroupID       uint       `json:"group_id" db:"group_id"`
	CustomerID    uint       `json:"customer_id" db:"customer_id"`
	CompanyID     uint       `json:"company_id" db:"company_id"`
	Status        string     `json:"status" db:"status"`
	DueDate       *time.Time `json:"due_date,omitempty" db:"due_date"`
	SLABreach     bool       `json:"sla_breach" db:"sla_breach"`
	ClosedAt      *time.Time `json:"closed_at,omitempty" db:"closed_at"`
}

// IsValidStatus reports whether s is one of the known ticket statuses.
func IsValidStatus(s string) bool {
	switch s {
	case TicketStatusOpen, TicketStatusPending, TicketStatusInProgress,
		TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// IsTerminal reports whether the ticket has reached a terminal status.
func (t *Ticket) IsTerminal() bool {
	return t.Status == TicketStatusResolved || t.Status == TicketStatusClosed
}

// Context extracts the attributes the SLA rule resolver matches on.
func (t *Ticket) Context() TicketContext {
	return TicketContext{
		CustomerID:    t.CustomerID,
		CategoryID:    t.CategoryID,
		SubCategoryID: t.SubCategoryID,
		DepartmentID:  t.DepartmentID,
		GroupID:       t.GroupID,
	}
}

// NormalizeTicketPayload converts a raw API payload into a canonical Ticket.
// Upstream intake channels emit both snake_case and camelCase variants of
// the same field; this is the single normalization pass, so no component
// downstream needs per-field fallback chains.
func NormalizeTicketPayload(raw map[string]interface{}) Ticket {
	t := Ticket{
		ID:            pickUint(raw, "id"),
		Title:         pickString(raw, "title"),
		PriorityLevel: int(pickUint(raw, "priority_level", "priorityLevel", "priority")),
		CategoryID:    pickUint(raw, "category_id", "categoryId"),
		SubCategoryID: pickUint(raw, "sub_category_id", "subcategory_id", "subCategoryId", "subcategoryId"),
		DepartmentID:  pickUint(raw, "department_id", "departmentId"),
		GroupID:       pickUint(raw, "group_id", "groupId"),
		CustomerID:    pickUint(raw, "customer_id", "customerId"),
		CompanyID:     pickUint(raw, "company_id", "companyId"),
		Status:        pickString(raw, "status"),
	}
	if t.Status == "" {
		t.Status = TicketStatusOpen
	}
	if ts, ok := pickTime(raw, "created_at", "createdAt", "create_time", "createTime"); ok {
		t.CreatedAt = ts
	}
	if ts, ok := pickTime(raw, "due_date", "dueDate"); ok {
		t.DueDate = &ts
	}
	if ts, ok := pickTime(raw, "closed_at", "closedAt"); ok {
		t.ClosedAt = &ts
	}
	return t
}

func pickString(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := raw[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func pickUint(raw map[string]interface{}, keys ...string) uint {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			if n > 0 {
				return uint(n)
			}
		case int:
			if n > 0 {
				return uint(n)
			}
		case uint:
			if n > 0 {
				return n
			}
		}
	}
	return 0
}

func pickTime(raw map[string]interface{}, keys ...string) (time.Time, bool) {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t, true
		case string:
			if ts, err := time.Parse(time.RFC3339, t); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}
