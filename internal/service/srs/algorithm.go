package srs

import (
	"math"
	"time"

	"github.com/romanzh1/practice-srs/internal/models"
)

// DefaultUpcomingLimit caps the upcoming preview.
const DefaultUpcomingLimit = 10

// OptInCycle is the only cycle created when a problem is enrolled after the fact.
const OptInCycle = models.CycleThreeDay

var defaultCycles = []models.Cycle{models.CycleThreeDay, models.CycleSevenDay, models.CycleThirtyDay}

var cycleOffsetDays = map[models.Cycle]int{
	models.CycleThreeDay:  3,
	models.CycleSevenDay:  7,
	models.CycleThirtyDay: 30,
}

// Cycles returns the solve-time cycles in ascending order of offset.
func Cycles() []models.Cycle {
	out := make([]models.Cycle, len(defaultCycles))
	copy(out, defaultCycles)
	return out
}

// OffsetDays reports the calendar-day offset of a cycle. Unknown cycles report false.
func OffsetDays(cycle models.Cycle) (int, bool) {
	days, ok := cycleOffsetDays[cycle]
	return days, ok
}

func ValidCycle(cycle models.Cycle) bool {
	_, ok := cycleOffsetDays[cycle]
	return ok
}

// ScheduledDate adds the cycle offset in calendar days, so the wall-clock time
// of from is kept across DST changes.
func ScheduledDate(from time.Time, cycle models.Cycle) time.Time {
	days, _ := OffsetDays(cycle)
	return from.AddDate(0, 0, days)
}

// CompletionRate returns completed/(completed+pending) as a percentage rounded to one decimal.
func CompletionRate(completed, pending int) float64 {
	total := completed + pending
	if total <= 0 {
		return 0
	}

	rate := float64(completed) / float64(total) * 100
	return math.Round(rate*10) / 10
}
