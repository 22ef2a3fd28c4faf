package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// MemoryTicketStore is an in-memory TicketStore for tests and
// database-less runs.
type MemoryTicketStore struct {
	mu      sync.RWMutex
	tickets map[uint]*models.Ticket
	nextID  uint
}

func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{
		tickets: make(map[uint]*models.Ticket),
		nextID:  1,
	}
}

func copyTicket(t *models.Ticket) *models.Ticket {
	clone := *t
	if t.DueDate != nil {
		due := *t.DueDate
		clone.DueDate = &due
	}
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		clone.ClosedAt = &closed
	}
	return &clone
}

func (s *MemoryTicketStore) CreateTicket(_ context.Context, ticket *models.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}
	ticket.ID = s.nextID
	s.nextID++
	s.tickets[ticket.ID] = copyTicket(ticket)
	return nil
}

func (s *MemoryTicketStore) GetTicket(_ context.Context, id uint) (*models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	return copyTicket(ticket), nil
}

func (s *MemoryTicketStore) SetDueDate(_ context.Context, id uint, due time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	d := due
	ticket.DueDate = &d
	return nil
}

func (s *MemoryTicketStore) SetBreach(_ context.Context, id uint, breached bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	ticket.SLABreach = breached
	return nil
}

func (s *MemoryTicketStore) SetStatus(_ context.Context, id uint, status string, closedAt *time.Time, breached bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return fmt.Errorf("ticket %d: %w", id, ErrTicketNotFound)
	}
	ticket.Status = status
	ticket.SLABreach = breached
	if closedAt != nil {
		c := *closedAt
		ticket.ClosedAt = &c
	} else {
		ticket.ClosedAt = nil
	}
	return nil
}

func (s *MemoryTicketStore) ListOpenWithDueDate(_ context.Context) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]models.Ticket, 0)
	for _, ticket := range s.tickets {
		if ticket.DueDate == nil || ticket.IsTerminal() {
			continue
		}
		tickets = append(tickets, *copyTicket(ticket))
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].DueDate.Before(*tickets[j].DueDate)
	})
	return tickets, nil
}

func (s *MemoryTicketStore) ListCreatedBetween(_ context.Context, from, to time.Time) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets := make([]models.Ticket, 0)
	for _, ticket := range s.tickets {
		if ticket.CreatedAt.Before(from) || !ticket.CreatedAt.Before(to) {
			continue
		}
		tickets = append(tickets, *copyTicket(ticket))
	}
	sort.Slice(tickets, func(i, j int) bool {
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
	return tickets, nil
}
