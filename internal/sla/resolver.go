package sla

import (
	"sort"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// Resolve selects the single applicable SLA rule for a ticket context from
// the configured rule set. Inactive rules are never selected; a rule
// matches when every non-empty filter dimension contains the corresponding
// ticket attribute.
//
// Tie-break order among matching rules:
//  1. lowest priority level (most urgent)
//  2. most non-empty filter dimensions (most specific)
//  3. most recently created, then highest ID (deterministic, arbitrary
//     beyond that)
//
// Returns models.ErrRuleNotFound when nothing matches; the caller decides
// between a configured default rule and rejecting the operation.
func Resolve(tc models.TicketContext, rules []models.SLARule) (*models.SLARule, error) {
	matched := make([]models.SLARule, 0, len(rules))
	for _, r := range rules {
		if r.IsActive() && r.Matches(tc) {
			matched = append(matched, r)
		}
	}
	if len(matched) == 0 {
		return nil, models.ErrRuleNotFound
	}

	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.PriorityLevel != b.PriorityLevel {
			return a.PriorityLevel < b.PriorityLevel
		}
		if sa, sb := a.Specificity(), b.Specificity(); sa != sb {
			return sa > sb
		}
		if !a.CreateTime.Equal(b.CreateTime) {
			return a.CreateTime.After(b.CreateTime)
		}
		return a.ID > b.ID
	})

	winner := matched[0]
	return &winner, nil
}
