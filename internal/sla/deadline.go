package sla

import (
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// maxWalkDays bounds the due-date walk. Two years of hourly segments is far
// beyond any configurable budget; exceeding it means the rule's positive
// budgets belong to quadrants the calendar never produces.
const maxWalkDays = 2 * 366

// Options control deadline computation.
type Options struct {
	// NextDayStart defers a ticket created outside business hours to the
	// next business-window opening and consumes budget only during
	// business-hour quadrants. ORed with the rule's own SLANextDayStart.
	NextDayStart bool
}

// ComputeDueDate converts a start instant and an SLA rule into an absolute
// due date by walking the calendar.
//
// Carry-over policy: the active clock is the budget of the quadrant the
// walk starts in. When the walk crosses a quadrant boundary the remaining
// minutes carry over 1:1 into the new quadrant, except that a quadrant
// whose rule budget is zero is skipped entirely: time spent there advances
// the cursor but consumes nothing. When the start quadrant itself has a
// zero budget, the clock arms with the budget of the first consuming
// quadrant the cursor reaches.
//
// The walk advances in whole local-hour segments; quadrant membership can
// only change on a local hour mark, so the result is exact and independent
// of any finer granularity.
func ComputeDueDate(start time.Time, rule models.SLARule, c *Calendar, opts Options) (time.Time, error) {
	if err := rule.Validate(); err != nil {
		return time.Time{}, err
	}

	nextDayStart := opts.NextDayStart || rule.SLANextDayStart
	cursor := start.In(c.Location())
	if nextDayStart {
		cursor = c.NextBusinessOpen(cursor)
	}

	var remaining time.Duration
	armed := false

	maxSegments := maxWalkDays * 24
	for seg := 0; seg <= maxSegments; seg++ {
		q := c.QuadrantAt(cursor)
		budget := budgetFor(rule, q)
		consumes := budget > 0
		if nextDayStart && !q.IsBusiness() {
			consumes = false
		}

		boundary := nextHourMark(cursor, c.Location())
		if consumes {
			if !armed {
				remaining = time.Duration(budget) * time.Minute
				armed = true
			}
			span := boundary.Sub(cursor)
			if remaining <= span {
				return cursor.Add(remaining), nil
			}
			remaining -= span
		}
		cursor = boundary
	}

	return time.Time{}, ErrDeadlineUnreachable
}

// budgetFor selects the rule's minute budget for a quadrant.
func budgetFor(rule models.SLARule, q Quadrant) int {
	switch q {
	case QuadrantWeekdayBusiness:
		return rule.BusinessMinutes
	case QuadrantWeekdayNonBusiness:
		return rule.NonBusinessMinutes
	case QuadrantWeekendBusiness:
		return rule.WeekendBusinessMinutes
	default:
		return rule.WeekendNonBusinessMinutes
	}
}

// nextHourMark returns the next local wall-clock hour boundary after t.
func nextHourMark(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	mark := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	return mark.Add(time.Hour)
}
