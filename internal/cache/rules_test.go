package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/models"
	"github.com/godesk-io/godesk-ce/internal/repository"
)

func seedRule(t *testing.T, repo repository.RuleRepository, name string) {
	t.Helper()
	err := repo.CreateRule(context.Background(), &models.SLARule{
		Name:            name,
		PriorityLevel:   1,
		BusinessMinutes: 240,
		CalendarID:      1,
	})
	require.NoError(t, err)
}

func TestRuleCacheWithoutRedisIsPassThrough(t *testing.T) {
	repo := repository.NewMemoryRuleRepository()
	seedRule(t, repo, "critical")

	c := NewRuleCache(repo, nil, 0)

	rules, err := c.ActiveRules(context.Background())
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "critical", rules[0].Name)

	// New rules are visible immediately since nothing is cached.
	seedRule(t, repo, "standard")
	rules, err = c.ActiveRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 2)

	// Invalidate is a no-op without a client.
	c.Invalidate(context.Background())
}
