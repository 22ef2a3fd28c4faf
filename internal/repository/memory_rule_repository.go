package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemoryRuleRepository is an in-memory RuleRepository used by tests and by
// the server when no database is configured.
type MemoryRuleRepository struct {
	mu             sync.RWMutex
	rules          map[uint]*models.SLARule
	calendars      map[int]*models.CalendarPolicy
	nextRuleID     uint
	nextCalendarID int
}

// NewMemoryRuleRepository seeds the store with the default calendar policy
// so rules referencing calendar 1 resolve out of the box.
func NewMemoryRuleRepository() *MemoryRuleRepository {
	repo := &MemoryRuleRepository{
		rules:          make(map[uint]*models.SLARule),
		calendars:      make(map[int]*models.CalendarPolicy),
		nextRuleID:     1,
		nextCalendarID: 1,
	}
	def := models.DefaultCalendarPolicy()
	def.ID = repo.nextCalendarID
	repo.nextCalendarID++
	repo.calendars[def.ID] = &def
	return repo
}

func copyRule(rule *models.SLARule) *models.SLARule {
	clone := *rule
	clone.Customers = append([]uint(nil), rule.Customers...)
	clone.Categories = append([]uint(nil), rule.Categories...)
	clone.SubCategories = append([]uint(nil), rule.SubCategories...)
	clone.Departments = append([]uint(nil), rule.Departments...)
	clone.Groups = append([]uint(nil), rule.Groups...)
	return &clone
}

func copyCalendar(policy *models.CalendarPolicy) *models.CalendarPolicy {
	clone := *policy
	clone.WeekendDays = append([]int(nil), policy.WeekendDays...)
	clone.Holidays = append([]models.Holiday(nil), policy.Holidays...)
	return &clone
}

func (r *MemoryRuleRepository) CreateRule(_ context.Context, rule *models.SLARule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	rule.ID = r.nextRuleID
	r.nextRuleID++
	rule.ValidID = 1
	rule.CreateTime = now
	rule.ChangeTime = now
	r.rules[rule.ID] = copyRule(rule)
	return nil
}

func (r *MemoryRuleRepository) GetRule(_ context.Context, id uint) (*models.SLARule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[id]
	if !ok {
		return nil, fmt.Errorf("SLA rule %d: %w", id, models.ErrRuleNotFound)
	}
	return copyRule(rule), nil
}

func (r *MemoryRuleRepository) ListRules(_ context.Context, activeOnly bool) ([]models.SLARule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rules := make([]models.SLARule, 0, len(r.rules))
	for _, rule := range r.rules {
		if activeOnly && !rule.IsActive() {
			continue
		}
		rules = append(rules, *copyRule(rule))
	}
	return rules, nil
}

func (r *MemoryRuleRepository) UpdateRule(_ context.Context, rule *models.SLARule) error {
	if err := rule.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.rules[rule.ID]
	if !ok {
		return fmt.Errorf("SLA rule %d: %w", rule.ID, models.ErrRuleNotFound)
	}
	rule.ValidID = existing.ValidID
	rule.CreateTime = existing.CreateTime
	rule.ChangeTime = time.Now()
	r.rules[rule.ID] = copyRule(rule)
	return nil
}

func (r *MemoryRuleRepository) DeleteRule(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, ok := r.rules[id]
	if !ok || !rule.IsActive() {
		return fmt.Errorf("SLA rule %d: %w", id, models.ErrRuleNotFound)
	}
	rule.ValidID = 2
	rule.ChangeTime = time.Now()
	return nil
}

func (r *MemoryRuleRepository) CreateCalendar(_ context.Context, policy *models.CalendarPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	policy.ID = r.nextCalendarID
	r.nextCalendarID++
	policy.ValidID = 1
	policy.CreateTime = now
	policy.ChangeTime = now
	r.calendars[policy.ID] = copyCalendar(policy)
	return nil
}

func (r *MemoryRuleRepository) GetCalendar(_ context.Context, id int) (*models.CalendarPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policy, ok := r.calendars[id]
	if !ok {
		return nil, fmt.Errorf("calendar policy %d not found", id)
	}
	return copyCalendar(policy), nil
}

func (r *MemoryRuleRepository) ListCalendars(_ context.Context, activeOnly bool) ([]models.CalendarPolicy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	policies := make([]models.CalendarPolicy, 0, len(r.calendars))
	for _, policy := range r.calendars {
		if activeOnly && !policy.IsActive() {
			continue
		}
		policies = append(policies, *copyCalendar(policy))
	}
	return policies, nil
}

func (r *MemoryRuleRepository) UpdateCalendar(_ context.Context, policy *models.CalendarPolicy) error {
	if err := policy.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.calendars[policy.ID]
	if !ok {
		return fmt.Errorf("calendar policy %d not found", policy.ID)
	}
	policy.ValidID = existing.ValidID
	policy.CreateTime = existing.CreateTime
	policy.ChangeTime = time.Now()
	r.calendars[policy.ID] = copyCalendar(policy)
	return nil
}
