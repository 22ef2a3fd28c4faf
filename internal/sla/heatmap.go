package sla

import (
	"time"

	"github.com/godesk-io/godesk-ce/internal/models"
)

// HeatmapGrid is a Monday-relative day-of-week by hour-of-day histogram:
// grid[0] is Monday, grid[6] is Sunday.
type HeatmapGrid [7][24]int

// Heatmap buckets ticket creation instants into a day-of-week by
// hour-of-day grid for the intake heatmap chart. Timestamps are bucketed in
// the supplied location; native Sunday-first weekday numbering is remapped
// so Sunday lands in row 6, not row 0. Empty input yields an all-zero grid.
func Heatmap(tickets []models.Ticket, loc *time.Location) HeatmapGrid {
	var grid HeatmapGrid
	if loc == nil {
		loc = time.UTC
	}
	for _, t := range tickets {
		if t.CreatedAt.IsZero() {
			continue
		}
		local := t.CreatedAt.In(loc)
		grid[models.MondayIndex(local.Weekday())][local.Hour()]++
	}
	return grid
}
