// Package schedule derives watering status from a plant's stored dates.
//
// Every comparison happens on calendar days: times are normalized to midnight
// in the location of the supplied "now" before they are compared. None of the
// functions panic; a missing or zero due date is treated as "no schedule".
package schedule

import (
	"fmt"
	"time"

	"github.com/pathakanu/plantMemo/internal/model"
)

// DayLayout formats calendar-day keys.
const DayLayout = "2006-01-02"

// Band is the urgency band used to choose reminder wording.
type Band string

const (
	BandDueToday Band = "due-today"
	BandOverdue  Band = "overdue"
	BandUpcoming Band = "upcoming"
)

// Status texts.
const (
	TextNoSchedule = "No watering schedule"
	TextDueToday   = "Water today"
	TextTomorrow   = "Water tomorrow"
)

// Day returns midnight of t in t's location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey returns the calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// DaysBetween returns the number of calendar days from a to b. Both are read
// as civil dates, so DST transitions never shift the count.
func DaysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (24 * time.Hour))
}

// DueDay returns the due date of p as a calendar day in now's location.
func DueDay(p model.Plant, now time.Time) (time.Time, bool) {
	if p.NextWateringDate == nil || p.NextWateringDate.IsZero() {
		return time.Time{}, false
	}
	return Day(p.NextWateringDate.In(now.Location())), true
}

// HasSchedule reports whether p carries a usable due date.
func HasSchedule(p model.Plant) bool {
	return p.NextWateringDate != nil && !p.NextWateringDate.IsZero()
}

// DaysOverdue returns how many whole days p is past its due date, or 0.
func DaysOverdue(p model.Plant, now time.Time) int {
	due, ok := DueDay(p, now)
	if !ok {
		return 0
	}
	if diff := DaysBetween(due, now); diff > 0 {
		return diff
	}
	return 0
}

// DaysUntilDue returns how many days remain until p is due, or 0 when it is due or overdue.
func DaysUntilDue(p model.Plant, now time.Time) int {
	due, ok := DueDay(p, now)
	if !ok {
		return 0
	}
	if diff := DaysBetween(now, due); diff > 0 {
		return diff
	}
	return 0
}

// IsDueToday reports whether p's due date is today. Overdue plants are not due today.
func IsDueToday(p model.Plant, now time.Time) bool {
	due, ok := DueDay(p, now)
	return ok && DaysBetween(due, now) == 0
}

// IsOverdue reports whether p's due date is strictly before today.
func IsOverdue(p model.Plant, now time.Time) bool {
	return DaysOverdue(p, now) > 0
}

// NeedsWater reports whether p is due today or overdue.
func NeedsWater(p model.Plant, now time.Time) bool {
	return IsDueToday(p, now) || IsOverdue(p, now)
}

// StatusText describes p's watering status for display.
func StatusText(p model.Plant, now time.Time) string {
	if !HasSchedule(p) {
		return TextNoSchedule
	}
	if IsDueToday(p, now) {
		return TextDueToday
	}
	if n := DaysOverdue(p, now); n > 0 {
		return fmt.Sprintf("%d %s overdue", n, plural(n, "day", "days"))
	}
	n := DaysUntilDue(p, now)
	if n <= 1 {
		return TextTomorrow
	}
	return fmt.Sprintf("%d days to water", n)
}

// UrgencyBand classifies p for reminder wording. Plants without a schedule are upcoming.
func UrgencyBand(p model.Plant, now time.Time) Band {
	switch {
	case IsDueToday(p, now):
		return BandDueToday
	case IsOverdue(p, now):
		return BandOverdue
	default:
		return BandUpcoming
	}
}

// ClampFrequency returns a watering frequency of at least one day.
func ClampFrequency(days int) int {
	if days < 1 {
		return 1
	}
	return days
}

// NextDue returns the due date that follows a watering at last.
func NextDue(last time.Time, frequencyDays int) time.Time {
	return last.AddDate(0, 0, ClampFrequency(frequencyDays))
}

// Water returns the schedule that results from watering at now.
func Water(s model.WateringSchedule, now time.Time) model.WateringSchedule {
	last := now
	next := NextDue(last, s.FrequencyDays)
	return model.WateringSchedule{
		FrequencyDays:    ClampFrequency(s.FrequencyDays),
		LastWatered:      &last,
		NextWateringDate: &next,
	}
}

// Reschedule applies a new frequency and recomputes the due date from the
// existing last-watered date. Without a last-watered date the due date is kept.
func Reschedule(s model.WateringSchedule, frequencyDays int) model.WateringSchedule {
	out := model.WateringSchedule{
		FrequencyDays:    ClampFrequency(frequencyDays),
		LastWatered:      s.LastWatered,
		NextWateringDate: s.NextWateringDate,
	}
	if s.LastWatered != nil && !s.LastWatered.IsZero() {
		next := NextDue(*s.LastWatered, out.FrequencyDays)
		out.NextWateringDate = &next
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
