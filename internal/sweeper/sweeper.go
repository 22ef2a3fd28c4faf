// Package sweeper periodically re-evaluates open tickets against their due
// dates and persists breach flags, so list views and reports can filter on
// sla_breach without recomputing per row.
package sweeper

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/godesk-io/godesk-ce/internal/repository"
	"github.com/godesk-io/godesk-ce/internal/sla"
)

// Sweeper runs the breach sweep on a cron schedule.
type Sweeper struct {
	tickets  repository.TicketStore
	cron     *cron.Cron
	schedule string
	now      func() time.Time
}

// New builds a sweeper. schedule is a standard cron expression; empty
// means every five minutes. now is injectable for tests and defaults to
// time.Now.
func New(tickets repository.TicketStore, schedule string, now func() time.Time) *Sweeper {
	if schedule == "" {
		schedule = "*/5 * * * *"
	}
	if now == nil {
		now = time.Now
	}
	return &Sweeper{
		tickets:  tickets,
		cron:     cron.New(),
		schedule: schedule,
		now:      now,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			log.Printf("breach sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("breach sweeper started (schedule %q)", s.schedule)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep evaluates every open ticket with a due date and writes the breach
// flag where it changed. Terminal tickets never reach this loop, so their
// frozen snapshots stay untouched.
func (s *Sweeper) Sweep(ctx context.Context) error {
	tickets, err := s.tickets.ListOpenWithDueDate(ctx)
	if err != nil {
		return err
	}

	now := s.now()
	var flipped int
	for i := range tickets {
		ticket := &tickets[i]
		breached := sla.FreezeBreach(now, *ticket.DueDate)
		if breached == ticket.SLABreach {
			continue
		}
		if err := s.tickets.SetBreach(ctx, ticket.ID, breached); err != nil {
			log.Printf("failed to record breach for ticket %d: %v", ticket.ID, err)
			continue
		}
		flipped++
	}

	if flipped > 0 {
		log.Printf("breach sweep: %d of %d open tickets changed state", flipped, len(tickets))
	}
	return nil
}
