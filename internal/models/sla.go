package models

import (
	"errors"
	"fmt"
	"time"
)

// SLA core errors. All are deterministic validation failures; retries are
// never meaningful.
var (
	// ErrRuleNotFound is returned when no active SLA rule matches a
	// ticket's attributes. The caller must apply its default-rule policy.
	ErrRuleNotFound = errors.New("no applicable SLA rule")

	// ErrInvalidRule is returned when a rule carries no positive duration
	// budget in any quadrant.
	ErrInvalidRule = errors.New("invalid SLA rule")
)

// SLARule defines a resolvable SLA policy. All four duration budgets are in
// minutes. Each applicability filter is a set of IDs; an empty set is a
// wildcard for that dimension.
type SLARule struct {
	ID            uint   `json:"id" db:"id"`
	Name          string `json:"name" db:"name"`
	PriorityLevel int    `json:"priority_level" db:"priority_level"` // lower = more urgent
	PriorityName  string `json:"priority_name" db:"priority_name"`

	Customers     []uint `json:"customers,omitempty" db:"-"`
	Categories    []uint `json:"categories,omitempty" db:"-"`
	SubCategories []uint `json:"sub_categories,omitempty" db:"-"`
	Departments   []uint `json:"departments,omitempty" db:"-"`
	Groups        []uint `json:"groups,omitempty" db:"-"`

	// Duration budgets, minutes. Exactly one is the active clock for a
	// given ticket: the one matching the quadrant of the creation instant.
	BusinessMinutes           int `json:"business_minutes" db:"business_minutes"`
	NonBusinessMinutes        int `json:"non_business_minutes" db:"non_business_minutes"`
	WeekendBusinessMinutes    int `json:"weekend_business_minutes" db:"weekend_business_minutes"`
	WeekendNonBusinessMinutes int `json:"weekend_non_business_minutes" db:"weekend_non_business_minutes"`

	CalendarID      int  `json:"calendar_id" db:"calendar_id"`
	SLANextDayStart bool `json:"sla_next_day_start" db:"sla_next_day_start"`

	ValidID    int       `json:"valid_id" db:"valid_id"` // 1=active, 2=inactive
	CreateTime time.Time `json:"create_time" db:"create_time"`
	ChangeTime time.Time `json:"change_time" db:"change_time"`
}

// TicketContext carries the ticket attributes the rule resolver matches on.
type TicketContext struct {
	CustomerID    uint `json:"customer_id"`
	CategoryID    uint `json:"category_id"`
	SubCategoryID uint `json:"sub_category_id"`
	DepartmentID  uint `json:"department_id"`
	GroupID       uint `json:"group_id"`
}

// IsActive reports whether the rule may be selected by the resolver.
func (r *SLARule) IsActive() bool {
	return r.ValidID == 1
}

// Validate rejects rules with no positive budget or with a negative budget.
// The deadline calculator re-checks this before walking.
func (r *SLARule) Validate() error {
	budgets := []int{r.BusinessMinutes, r.NonBusinessMinutes, r.WeekendBusinessMinutes, r.WeekendNonBusinessMinutes}
	positive := false
	for _, b := range budgets {
		if b < 0 {
			return fmt.Errorf("%w: negative duration budget %d", ErrInvalidRule, b)
		}
		if b > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("%w: all duration budgets are zero", ErrInvalidRule)
	}
	return nil
}

// Matches reports whether the rule applies to the ticket context. Every
// non-empty filter dimension must contain the corresponding attribute.
func (r *SLARule) Matches(tc TicketContext) bool {
	return matchDimension(r.Customers, tc.CustomerID) &&
		matchDimension(r.Categories, tc.CategoryID) &&
		matchDimension(r.SubCategories, tc.SubCategoryID) &&
		matchDimension(r.Departments, tc.DepartmentID) &&
		matchDimension(r.Groups, tc.GroupID)
}

// Specificity counts the rule's non-empty filter dimensions. Used as the
// second tie-break during resolution: more scoped rules win.
func (r *SLARule) Specificity() int {
	n := 0
	for _, dim := range [][]uint{r.Customers, r.Categories, r.SubCategories, r.Departments, r.Groups} {
		if len(dim) > 0 {
			n++
		}
	}
	return n
}

func matchDimension(filter []uint, id uint) bool {
	if len(filter) == 0 {
		return true // wildcard
	}
	for _, v := range filter {
		if v == id {
			return true
		}
	}
	return false
}
