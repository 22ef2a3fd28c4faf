package models

import (
	"errors"
	"testing"
)

func TestSLARuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    SLARule
		wantErr bool
	}{
		{
			name:    "one positive budget is enough",
			rule:    SLARule{BusinessMinutes: 60},
			wantErr: false,
		},
		{
			name:    "weekend-only budget is valid",
			rule:    SLARule{WeekendNonBusinessMinutes: 30},
			wantErr: false,
		},
		{
			name:    "all zero budgets rejected",
			rule:    SLARule{},
			wantErr: true,
		},
		{
			name:    "negative budget rejected",
			rule:    SLARule{BusinessMinutes: -5, NonBusinessMinutes: 60},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidRule) {
				t.Errorf("err = %v, want ErrInvalidRule", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSLARuleMatches(t *testing.T) {
	rule := SLARule{
		Categories: []uint{1, 2},
		Groups:     []uint{10},
	}

	tests := []struct {
		name string
		ctx  TicketContext
		want bool
	}{
		{"both dimensions match", TicketContext{CategoryID: 2, GroupID: 10}, true},
		{"category outside filter", TicketContext{CategoryID: 3, GroupID: 10}, false},
		{"group outside filter", TicketContext{CategoryID: 1, GroupID: 11}, false},
		{"wildcard dimensions ignored", TicketContext{CategoryID: 1, GroupID: 10, CustomerID: 99}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := rule.Matches(tt.ctx); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSLARuleSpecificity(t *testing.T) {
	tests := []struct {
		name string
		rule SLARule
		want int
	}{
		{"wildcard everywhere", SLARule{}, 0},
		{"two scoped dimensions", SLARule{Categories: []uint{1}, Groups: []uint{2}}, 2},
		{"all five scoped", SLARule{
			Customers:     []uint{1},
			Categories:    []uint{1},
			SubCategories: []uint{1},
			Departments:   []uint{1},
			Groups:        []uint{1},
		}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rule.Specificity(); got != tt.want {
				t.Errorf("Specificity() = %d, want %d", got, tt.want)
			}
		})
	}
}
