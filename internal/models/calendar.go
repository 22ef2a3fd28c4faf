package models

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCalendarPolicy is returned when a calendar policy carries an
// out-of-range business window or an unknown timezone.
var ErrInvalidCalendarPolicy = errors.New("invalid calendar policy")

// DefaultTimezone anchors business-hours interpretation when a policy does
// not pin its own zone. Server-local time is never used.
const DefaultTimezone = "Europe/Istanbul"

// CalendarPolicy represents an organization's working-hours policy: which
// hours of which weekdays count as business hours, and which weekdays are
// treated as weekend. The business window may cross midnight (e.g. start=22
// end=6). A window with start == end is interpreted as a 24-hour business
// day, not an error.
type CalendarPolicy struct {
	ID                int       `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Timezone          string    `json:"timezone" db:"timezone"`
	BusinessStartHour int       `json:"business_start_hour" db:"business_start_hour"`
	BusinessEndHour   int       `json:"business_end_hour" db:"business_end_hour"`
	WeekendDays       []int     `json:"weekend_days" db:"-"` // Monday-relative: 0=Monday .. 6=Sunday
	Holidays          []Holiday `json:"holidays,omitempty" db:"-"`
	ValidID           int       `json:"valid_id" db:"valid_id"`
	CreateTime        time.Time `json:"create_time" db:"create_time"`
	ChangeTime        time.Time `json:"change_time" db:"change_time"`
}

// Holiday is a full non-working day. Recurring holidays repeat every year;
// one-time holidays apply to a single year only.
type Holiday struct {
	ID          int        `json:"id" db:"id"`
	CalendarID  int        `json:"calendar_id" db:"calendar_id"`
	Name        string     `json:"name" db:"name"`
	Month       time.Month `json:"month" db:"month"`
	Day         int        `json:"day" db:"day"`
	Year        int        `json:"year,omitempty" db:"year"` // 0 = recurring
	IsRecurring bool       `json:"is_recurring" db:"is_recurring"`
}

// Validate checks the policy's business window and timezone. A start == end
// window is valid and means a 24-hour business day.
func (p *CalendarPolicy) Validate() error {
	if p.BusinessStartHour < 0 || p.BusinessStartHour > 23 {
		return fmt.Errorf("%w: business start hour %d out of range 0-23", ErrInvalidCalendarPolicy, p.BusinessStartHour)
	}
	if p.BusinessEndHour < 0 || p.BusinessEndHour > 23 {
		return fmt.Errorf("%w: business end hour %d out of range 0-23", ErrInvalidCalendarPolicy, p.BusinessEndHour)
	}
	for _, d := range p.WeekendDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: weekend day index %d out of range 0-6", ErrInvalidCalendarPolicy, d)
		}
	}
	if _, err := time.LoadLocation(p.EffectiveTimezone()); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidCalendarPolicy, p.Timezone, err)
	}
	return nil
}

// EffectiveTimezone returns the policy timezone, falling back to the pinned
// organizational default.
func (p *CalendarPolicy) EffectiveTimezone() string {
	if p.Timezone == "" {
		return DefaultTimezone
	}
	return p.Timezone
}

// IsActive reports whether the policy is selectable (OTRS-style valid_id).
func (p *CalendarPolicy) IsActive() bool {
	return p.ValidID == 1
}

// IsWeekendWeekday reports whether the given weekday belongs to the policy's
// weekend set. WeekendDays are stored Monday-relative (0=Monday..6=Sunday),
// time.Weekday is Sunday-relative; the remap happens here and nowhere else.
func (p *CalendarPolicy) IsWeekendWeekday(d time.Weekday) bool {
	idx := MondayIndex(d)
	for _, w := range p.WeekendDays {
		if w == idx {
			return true
		}
	}
	return false
}

// MondayIndex converts a native Sunday-first time.Weekday into the
// Monday-relative index used throughout the SLA core (0=Monday..6=Sunday).
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// DefaultCalendarPolicy returns the standard Monday-Friday 9-18 policy in
// the organizational timezone, with Saturday and Sunday as weekend.
func DefaultCalendarPolicy() CalendarPolicy {
	return CalendarPolicy{
		Name:              "Default Business Hours",
		Timezone:          DefaultTimezone,
		BusinessStartHour: 9,
		BusinessEndHour:   18,
		WeekendDays:       []int{5, 6}, // Saturday, Sunday
		ValidID:           1,
	}
}

// workingHoursDayNames maps the short day names used by the YAML
// working-hours import format onto weekdays.
var workingHoursDayNames = map[string]time.Weekday{
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
	"Sun": time.Sunday,
}

// ImportWorkingHoursYAML parses a working-hours document of the form
// { Mon: [9,10,...,17], Tue: [...], Sat: [] } into a calendar policy.
// Days with an empty hour list become weekend days; the business window is
// the min/max hour range across the listed days (end hour is exclusive, so
// the last listed hour h yields end = h+1).
func ImportWorkingHoursYAML(doc []byte, base CalendarPolicy) (CalendarPolicy, error) {
	var hours map[string][]int
	if err := yaml.Unmarshal(doc, &hours); err != nil {
		return base, fmt.Errorf("%w: working hours yaml: %v", ErrInvalidCalendarPolicy, err)
	}
	if len(hours) == 0 {
		return base, fmt.Errorf("%w: working hours yaml is empty", ErrInvalidCalendarPolicy)
	}

	minHour, maxHour := 24, -1
	weekend := []int{}
	seen := map[time.Weekday]bool{}

	for dayName, hourList := range hours {
		weekday, ok := workingHoursDayNames[dayName]
		if !ok {
			return base, fmt.Errorf("%w: unknown day name %q", ErrInvalidCalendarPolicy, dayName)
		}
		seen[weekday] = true
		if len(hourList) == 0 {
			weekend = append(weekend, MondayIndex(weekday))
			continue
		}
		for _, h := range hourList {
			if h < 0 || h > 23 {
				return base, fmt.Errorf("%w: hour %d out of range 0-23", ErrInvalidCalendarPolicy, h)
			}
			if h < minHour {
				minHour = h
			}
			if h > maxHour {
				maxHour = h
			}
		}
	}

	// Days absent from the document are non-working.
	for _, weekday := range workingHoursDayNames {
		if !seen[weekday] {
			weekend = append(weekend, MondayIndex(weekday))
		}
	}

	if maxHour < 0 {
		return base, fmt.Errorf("%w: no working hours listed", ErrInvalidCalendarPolicy)
	}

	out := base
	out.BusinessStartHour = minHour
	out.BusinessEndHour = (maxHour + 1) % 24
	out.WeekendDays = weekend
	return out, nil
}
