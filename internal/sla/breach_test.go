package sla

import (
	"strings"
	"testing"
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

func TestEvaluateSigns(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		due           time.Time
		status        string
		wantBreached  bool
		wantRemaining time.Duration
	}{
		{
			name:          "overdue open ticket",
			due:           now.Add(-time.Hour),
			status:        models.TicketStatusOpen,
			wantBreached:  true,
			wantRemaining: -time.Hour,
		},
		{
			name:          "due in the future",
			due:           now.Add(time.Hour),
			status:        models.TicketStatusOpen,
			wantBreached:  false,
			wantRemaining: time.Hour,
		},
		{
			name:          "overdue but resolved",
			due:           now.Add(-time.Hour),
			status:        models.TicketStatusResolved,
			wantBreached:  false,
			wantRemaining: -time.Hour,
		},
		{
			name:          "overdue pending ticket",
			due:           now.Add(-30 * time.Minute),
			status:        models.TicketStatusPending,
			wantBreached:  true,
			wantRemaining: -30 * time.Minute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(now, tt.due, tt.status, LangTurkish)
			if got.Breached != tt.wantBreached {
				t.Errorf("Breached = %v, want %v", got.Breached, tt.wantBreached)
			}
			if got.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %v, want %v", got.Remaining, tt.wantRemaining)
			}
		})
	}
}

func TestEvaluateTicketFrozenAfterTerminal(t *testing.T) {
	due := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	closed := due.Add(-time.Hour) // resolved before the deadline

	ticket := models.Ticket{
		ID:        1,
		Status:    models.TicketStatusResolved,
		DueDate:   &due,
		ClosedAt:  &closed,
		SLABreach: FreezeBreach(closed, due),
	}

	// "Now" keeps advancing far past the due date; the snapshot holds.
	for _, now := range []time.Time{
		due.Add(time.Minute),
		due.Add(24 * time.Hour),
		due.Add(365 * 24 * time.Hour),
	} {
		got := EvaluateTicket(now, ticket, LangTurkish)
		if got.Breached {
			t.Errorf("now=%v: breach flag must stay frozen at false", now)
		}
	}
}

func TestFreezeBreach(t *testing.T) {
	due := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	if FreezeBreach(due.Add(-time.Minute), due) {
		t.Error("transition before due date must not freeze as breached")
	}
	if !FreezeBreach(due.Add(time.Minute), due) {
		t.Error("transition after due date must freeze as breached")
	}
}

func TestEvaluateTicketWithoutDueDate(t *testing.T) {
	got := EvaluateTicket(time.Now(), models.Ticket{Status: models.TicketStatusOpen}, LangTurkish)
	if got.Breached {
		t.Error("ticket without a due date must not report a breach")
	}
}

func TestFormatRemainingTurkish(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining time.Duration
		want      string
	}{
		{"hours and minutes left", 2*time.Hour + 15*time.Minute, "2 saat 15 dakika kaldı"},
		{"hours overdue", -3 * time.Hour, "3 saat gecikti"},
		{"minutes only", 45 * time.Minute, "45 dakika kaldı"},
		{"days and hours", 49 * time.Hour, "2 gün 1 saat kaldı"},
		{"under a minute", 30 * time.Second, "1 dakikadan az kaldı"},
		{"just breached", -30 * time.Second, "az önce gecikti"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			due := now.Add(tt.remaining)
			got := FormatRemaining(tt.remaining, due, now, LangTurkish)
			if got != tt.want {
				t.Errorf("FormatRemaining() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRemainingEnglish(t *testing.T) {
	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	due := now.Add(3 * time.Hour)

	got := FormatRemaining(3*time.Hour, due, now, LangEnglish)
	if !strings.Contains(got, "hours") {
		t.Errorf("FormatRemaining() = %q, expected an hour-based phrase", got)
	}
}
