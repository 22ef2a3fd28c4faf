package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/models"
)

func validRule() *models.SLARule {
	return &models.SLARule{
		Name:            "critical",
		PriorityLevel:   1,
		BusinessMinutes: 240,
		CalendarID:      1,
	}
}

func TestMemoryRuleRepositoryCreateAndGet(t *testing.T) {
	repo := NewMemoryRuleRepository()
	ctx := context.Background()

	rule := validRule()
	require.NoError(t, repo.CreateRule(ctx, rule))
	assert.NotZero(t, rule.ID)
	assert.Equal(t, 1, rule.ValidID)

	got, err := repo.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "critical", got.Name)
	assert.Equal(t, 240, got.BusinessMinutes)
}

func TestMemoryRuleRepositoryRejectsInvalidRule(t *testing.T) {
	repo := NewMemoryRuleRepository()

	rule := validRule()
	rule.BusinessMinutes = 0 // all budgets zero
	err := repo.CreateRule(context.Background(), rule)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrInvalidRule))
}

func TestMemoryRuleRepositorySoftDelete(t *testing.T) {
	repo := NewMemoryRuleRepository()
	ctx := context.Background()

	rule := validRule()
	require.NoError(t, repo.CreateRule(ctx, rule))
	require.NoError(t, repo.DeleteRule(ctx, rule.ID))

	// Still readable by ID, but filtered from the active list.
	got, err := repo.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ValidID)

	active, err := repo.ListRules(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := repo.ListRules(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	// Deleting twice fails.
	err = repo.DeleteRule(ctx, rule.ID)
	assert.True(t, errors.Is(err, models.ErrRuleNotFound))
}

func TestMemoryRuleRepositoryUpdatePreservesCreateTime(t *testing.T) {
	repo := NewMemoryRuleRepository()
	ctx := context.Background()

	rule := validRule()
	require.NoError(t, repo.CreateRule(ctx, rule))
	created := rule.CreateTime

	rule.Name = "critical-revised"
	rule.BusinessMinutes = 120
	require.NoError(t, repo.UpdateRule(ctx, rule))

	got, err := repo.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "critical-revised", got.Name)
	assert.Equal(t, created, got.CreateTime)
	assert.False(t, got.ChangeTime.Before(created))
}

func TestMemoryRuleRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRuleRepository()
	ctx := context.Background()

	rule := validRule()
	rule.Departments = []uint{10, 20}
	require.NoError(t, repo.CreateRule(ctx, rule))

	got, err := repo.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	got.Departments[0] = 99

	again, err := repo.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(10), again.Departments[0])
}

func TestMemoryRuleRepositorySeedsDefaultCalendar(t *testing.T) {
	repo := NewMemoryRuleRepository()

	policy, err := repo.GetCalendar(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTimezone, policy.EffectiveTimezone())
	assert.Equal(t, 9, policy.BusinessStartHour)
	assert.Equal(t, 18, policy.BusinessEndHour)
}

func TestMemoryRuleRepositoryCalendarCRUD(t *testing.T) {
	repo := NewMemoryRuleRepository()
	ctx := context.Background()

	policy := &models.CalendarPolicy{
		Name:              "night-shift",
		Timezone:          "Europe/Istanbul",
		BusinessStartHour: 22,
		BusinessEndHour:   6,
		WeekendDays:       []int{5, 6},
	}
	require.NoError(t, repo.CreateCalendar(ctx, policy))
	assert.Equal(t, 2, policy.ID)

	policy.BusinessEndHour = 7
	require.NoError(t, repo.UpdateCalendar(ctx, policy))

	got, err := repo.GetCalendar(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, got.BusinessEndHour)

	policies, err := repo.ListCalendars(ctx, true)
	require.NoError(t, err)
	assert.Len(t, policies, 2)
}

func TestMemoryRuleRepositoryRejectsInvalidCalendar(t *testing.T) {
	repo := NewMemoryRuleRepository()

	policy := &models.CalendarPolicy{
		Name:              "broken",
		BusinessStartHour: 25,
		BusinessEndHour:   6,
	}
	err := repo.CreateCalendar(context.Background(), policy)
	assert.True(t, errors.Is(err, models.ErrInvalidCalendarPolicy))
}
