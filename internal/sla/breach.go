package sla

import (
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// Display languages.
const (
	LangTurkish = "tr"
	LangEnglish = "en"
)

// Evaluation is the live SLA status of a ticket: ephemeral, recomputed on
// demand and never persisted except via the sla_breach snapshot.
type Evaluation struct {
	Remaining time.Duration `json:"remaining"` // negative when overdue
	Breached  bool          `json:"breached"`
	Display   string        `json:"display"`
}

// Evaluate computes the live SLA status for a non-terminal ticket. The
// clock is injected: callers pass "now" explicitly, which keeps the
// evaluation deterministic and testable.
func Evaluate(now, dueDate time.Time, status, lang string) Evaluation {
	terminal := status == models.TicketStatusResolved || status == models.TicketStatusClosed
	remaining := dueDate.Sub(now)
	return Evaluation{
		Remaining: remaining,
		Breached:  !terminal && now.After(dueDate),
		Display:   FormatRemaining(remaining, dueDate, now, lang),
	}
}

// EvaluateTicket evaluates a ticket, honoring the frozen-breach rule: once
// a ticket reaches a terminal status its breach flag is the snapshot taken
// at the transition and is never re-evaluated against a moving "now". A
// ticket without a due date reports no breach.
func EvaluateTicket(now time.Time, t models.Ticket, lang string) Evaluation {
	if t.DueDate == nil {
		return Evaluation{}
	}
	if t.IsTerminal() {
		ref := now
		if t.ClosedAt != nil {
			ref = *t.ClosedAt
		}
		remaining := t.DueDate.Sub(ref)
		return Evaluation{
			Remaining: remaining,
			Breached:  t.SLABreach,
			Display:   FormatRemaining(remaining, *t.DueDate, ref, lang),
		}
	}
	return Evaluate(now, *t.DueDate, t.Status, lang)
}

// FreezeBreach computes the breach snapshot to persist when a ticket
// transitions into a terminal status: breached iff the transition happened
// after the due date.
func FreezeBreach(transitionAt, dueDate time.Time) bool {
	return transitionAt.After(dueDate)
}

// FormatRemaining renders a signed remaining duration as a localized human
// string. Turkish output follows the "2 saat 15 dakika kaldı" / "3 saat
// gecikti" convention; English falls back to relative phrasing.
func FormatRemaining(remaining time.Duration, dueDate, now time.Time, lang string) string {
	if lang != LangTurkish {
		return timeago.English.FormatReference(dueDate, now)
	}

	overdue := remaining < 0
	d := remaining
	if overdue {
		d = -d
	}
	if d < time.Minute {
		if overdue {
			return "az önce gecikti"
		}
		return "1 dakikadan az kaldı"
	}

	suffix := "kaldı"
	if overdue {
		suffix = "gecikti"
	}
	return fmt.Sprintf("%s %s", turkishSpan(d), suffix)
}

// turkishSpan renders a positive duration with at most two units.
func turkishSpan(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	parts := []string{}
	switch {
	case days > 0:
		parts = append(parts, fmt.Sprintf("%d gün", days))
		if hours > 0 {
			parts = append(parts, fmt.Sprintf("%d saat", hours))
		}
	case hours > 0:
		parts = append(parts, fmt.Sprintf("%d saat", hours))
		if minutes > 0 {
			parts = append(parts, fmt.Sprintf("%d dakika", minutes))
		}
	default:
		parts = append(parts, fmt.Sprintf("%d dakika", minutes))
	}
	return strings.Join(parts, " ")
}
