package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/godesk-io/godesk-ce/internal/models"
)

func TestMemoryTicketStoreCreateDefaults(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	ticket := &models.Ticket{Title: "printer on fire"}
	require.NoError(t, store.CreateTicket(ctx, ticket))
	assert.NotZero(t, ticket.ID)
	assert.Equal(t, models.TicketStatusOpen, ticket.Status)
	assert.False(t, ticket.CreatedAt.IsZero())
}

func TestMemoryTicketStoreSetDueDateAndBreach(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	ticket := &models.Ticket{Title: "vpn down"}
	require.NoError(t, store.CreateTicket(ctx, ticket))

	due := time.Date(2026, 1, 5, 13, 0, 0, 0, time.UTC)
	require.NoError(t, store.SetDueDate(ctx, ticket.ID, due))
	require.NoError(t, store.SetBreach(ctx, ticket.ID, true))

	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DueDate)
	assert.True(t, got.DueDate.Equal(due))
	assert.True(t, got.SLABreach)

	err = store.SetDueDate(ctx, 999, due)
	assert.True(t, errors.Is(err, ErrTicketNotFound))
}

func TestMemoryTicketStoreListOpenWithDueDate(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	due1 := time.Date(2026, 1, 6, 9, 0, 0, 0, time.UTC)
	due2 := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	closedAt := due2.Add(time.Hour)

	open1 := &models.Ticket{Title: "a", DueDate: &due1}
	open2 := &models.Ticket{Title: "b", DueDate: &due2}
	noDue := &models.Ticket{Title: "c"}
	closed := &models.Ticket{Title: "d", DueDate: &due2, Status: models.TicketStatusClosed, ClosedAt: &closedAt}
	for _, ticket := range []*models.Ticket{open1, open2, noDue, closed} {
		require.NoError(t, store.CreateTicket(ctx, ticket))
	}

	tickets, err := store.ListOpenWithDueDate(ctx)
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	// Sorted by due date ascending.
	assert.Equal(t, "b", tickets[0].Title)
	assert.Equal(t, "a", tickets[1].Title)
}

func TestMemoryTicketStoreSetStatusFreezesBreach(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	due := time.Date(2026, 1, 5, 13, 0, 0, 0, time.UTC)
	ticket := &models.Ticket{Title: "mail queue stuck", DueDate: &due}
	require.NoError(t, store.CreateTicket(ctx, ticket))

	closedAt := due.Add(2 * time.Hour)
	require.NoError(t, store.SetStatus(ctx, ticket.ID, models.TicketStatusResolved, &closedAt, true))

	got, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusResolved, got.Status)
	assert.True(t, got.SLABreach)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, got.ClosedAt.Equal(closedAt))
}

func TestMemoryTicketStoreListCreatedBetween(t *testing.T) {
	store := NewMemoryTicketStore()
	ctx := context.Background()

	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	inside := &models.Ticket{Title: "in", CreatedAt: base}
	before := &models.Ticket{Title: "early", CreatedAt: base.Add(-48 * time.Hour)}
	atEnd := &models.Ticket{Title: "late", CreatedAt: base.Add(24 * time.Hour)}
	for _, ticket := range []*models.Ticket{inside, before, atEnd} {
		require.NoError(t, store.CreateTicket(ctx, ticket))
	}

	tickets, err := store.ListCreatedBetween(ctx, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, "in", tickets[0].Title)
}
