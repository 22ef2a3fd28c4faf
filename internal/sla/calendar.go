// Package sla consolidates SLA deadline computation and breach detection
// into pure functions callable from any transport layer: calendar
// classification, rule resolution, the due-date walk, breach evaluation and
// the day-by-hour heatmap aggregation.
package sla

import (
	"errors"
	"fmt"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// ErrDeadlineUnreachable is returned when a due-date walk exceeds the walk
// horizon without exhausting its budget. It only occurs for degenerate rule
// and calendar combinations, e.g. a rule whose sole positive budget belongs
// to a quadrant the calendar never produces.
var ErrDeadlineUnreachable = errors.New("due date unreachable within walk horizon")

// Quadrant is one of the four time classifications used to select which SLA
// budget applies.
type Quadrant int

const (
	QuadrantWeekdayBusiness Quadrant = iota
	QuadrantWeekdayNonBusiness
	QuadrantWeekendBusiness
	QuadrantWeekendNonBusiness
)

// String returns the quadrant name used in logs and API responses.
func (q Quadrant) String() string {
	switch q {
	case QuadrantWeekdayBusiness:
		return "weekday_business"
	case QuadrantWeekdayNonBusiness:
		return "weekday_non_business"
	case QuadrantWeekendBusiness:
		return "weekend_business"
	case QuadrantWeekendNonBusiness:
		return "weekend_non_business"
	}
	return "unknown"
}

// IsBusiness reports whether the quadrant falls within business hours.
func (q Quadrant) IsBusiness() bool {
	return q == QuadrantWeekdayBusiness || q == QuadrantWeekendBusiness
}

// Classification is the result of classifying a single instant.
type Classification struct {
	IsBusinessHour bool `json:"is_business_hour"`
	IsWeekend      bool `json:"is_weekend"`
}

// Quadrant maps the classification onto its quadrant.
func (c Classification) Quadrant() Quadrant {
	switch {
	case c.IsWeekend && c.IsBusinessHour:
		return QuadrantWeekendBusiness
	case c.IsWeekend:
		return QuadrantWeekendNonBusiness
	case c.IsBusinessHour:
		return QuadrantWeekdayBusiness
	default:
		return QuadrantWeekdayNonBusiness
	}
}

// Calendar is a compiled, read-only view of a CalendarPolicy: the business
// window, the weekend set and the holiday overlay, anchored to the policy's
// pinned timezone. Safe for concurrent use.
type Calendar struct {
	policy   models.CalendarPolicy
	loc      *time.Location
	holidays *cal.Calendar
}

// NewCalendar validates and compiles a calendar policy. Holidays are
// registered on a rickar/cal calendar and classify as weekend full days.
func NewCalendar(policy models.CalendarPolicy) (*Calendar, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(policy.EffectiveTimezone())
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", models.ErrInvalidCalendarPolicy, policy.Timezone, err)
	}

	holidays := &cal.Calendar{Name: policy.Name}
	for _, h := range policy.Holidays {
		holiday := &cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: h.Month,
			Day:   h.Day,
			Func:  cal.CalcDayOfMonth,
		}
		if !h.IsRecurring && h.Year > 0 {
			holiday.StartYear = h.Year
			holiday.EndYear = h.Year
		}
		holidays.AddHoliday(holiday)
	}

	return &Calendar{policy: policy, loc: loc, holidays: holidays}, nil
}

// Location returns the calendar's pinned timezone.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Policy returns the source policy.
func (c *Calendar) Policy() models.CalendarPolicy {
	return c.policy
}

// Classify classifies an instant. A pure function of the instant's local
// hour-of-day and weekday plus the policy.
func (c *Calendar) Classify(t time.Time) Classification {
	local := t.In(c.loc)
	return Classification{
		IsBusinessHour: c.isBusinessHour(local.Hour()),
		IsWeekend:      c.isWeekendDay(local),
	}
}

// QuadrantAt returns the quadrant of an instant.
func (c *Calendar) QuadrantAt(t time.Time) Quadrant {
	return c.Classify(t).Quadrant()
}

// isBusinessHour applies the business window to an hour-of-day. A window
// crossing midnight is two half-open intervals per calendar day; start==end
// means a 24-hour business day.
func (c *Calendar) isBusinessHour(hour int) bool {
	start, end := c.policy.BusinessStartHour, c.policy.BusinessEndHour
	switch {
	case start == end:
		return true
	case start < end:
		return hour >= start && hour < end
	default:
		return hour >= start || hour < end
	}
}

// isWeekendDay reports whether the local instant falls on a weekend day or
// a holiday. Holidays are whole non-working days, so weekend budgets apply.
func (c *Calendar) isWeekendDay(local time.Time) bool {
	if c.policy.IsWeekendWeekday(local.Weekday()) {
		return true
	}
	actual, observed, _ := c.holidays.IsHoliday(local)
	return actual || observed
}

// NextBusinessOpen returns the first instant at or after t that falls
// within a weekday business window: t itself when already inside one,
// otherwise the next business-window opening.
func (c *Calendar) NextBusinessOpen(t time.Time) time.Time {
	local := t.In(c.loc)
	if cl := c.Classify(local); cl.IsBusinessHour && !cl.IsWeekend {
		return local
	}

	// Walk window openings day by day. The horizon mirrors the deadline
	// walk cap; past it the calendar produces no business days at all.
	for day := 0; day <= maxWalkDays; day++ {
		d := local.AddDate(0, 0, day)
		opening := time.Date(d.Year(), d.Month(), d.Day(), c.policy.BusinessStartHour, 0, 0, 0, c.loc)
		if opening.Before(local) {
			continue
		}
		if cl := c.Classify(opening); cl.IsBusinessHour && !cl.IsWeekend {
			return opening
		}
	}
	return local
}
