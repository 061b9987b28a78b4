// Package organizer partitions a plant collection into ordered display groups.
package organizer

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/pathakanu/plantMemo/internal/model"
	"github.com/pathakanu/plantMemo/internal/schedule"
)

// View selects how plants are grouped.
type View string

const (
	ByLocation   View = "location"
	Alphabetical View = "alphabetical"
	ByWatering   View = "watering"
	ByHealth     View = "health"
)

// Group titles that are not derived from plant data.
const (
	TitleUnassigned   = "Unassigned"
	TitleAllPlants    = "All Plants"
	TitleOverdue      = "Overdue"
	TitleToday        = "Water Today"
	TitleTomorrow     = "Water Tomorrow"
	TitleNoSchedule   = "No Watering Schedule"
	TitleHealthNotSet = "Health Not Set"
)

// weekdayWindow is the furthest due date, in days, that gets a weekday bucket.
const weekdayWindow = 7

var outdoorTerms = []string{"patio", "balcony", "front yard", "back yard", "garden", "porch"}

var healthOrder = []model.Health{model.HealthPoor, model.HealthFair, model.HealthGood, model.HealthExcellent}

// Group is a titled, ordered slice of plants.
type Group struct {
	Title  string
	Plants []model.Plant
}

// ParseView resolves a view name.
func ParseView(s string) (View, error) {
	switch v := View(strings.ToLower(strings.TrimSpace(s))); v {
	case ByLocation, Alphabetical, ByWatering, ByHealth:
		return v, nil
	case "":
		return ByWatering, nil
	default:
		return "", fmt.Errorf("unknown view %q", s)
	}
}

// Organize groups plants for view. The input slice is not modified and every
// plant lands in exactly one group. Unknown views behave like Alphabetical.
func Organize(plants []model.Plant, view View, now time.Time) []Group {
	if len(plants) == 0 {
		return []Group{}
	}
	switch view {
	case ByLocation:
		return byLocation(plants)
	case ByWatering:
		return byWatering(plants, now)
	case ByHealth:
		return byHealth(plants)
	default:
		return []Group{{Title: TitleAllPlants, Plants: sortedByName(plants)}}
	}
}

// IsOutdoor reports whether a location label names an outdoor spot.
func IsOutdoor(location string) bool {
	l := strings.ToLower(location)
	for _, term := range outdoorTerms {
		if strings.Contains(l, term) {
			return true
		}
	}
	return false
}

func byLocation(plants []model.Plant) []Group {
	indoor := map[string][]model.Plant{}
	outdoor := map[string][]model.Plant{}
	var unassigned []model.Plant

	for _, p := range plants {
		switch {
		case strings.TrimSpace(p.Location) == "":
			unassigned = append(unassigned, p)
		case IsOutdoor(p.Location):
			outdoor[p.Location] = append(outdoor[p.Location], p)
		default:
			indoor[p.Location] = append(indoor[p.Location], p)
		}
	}

	groups := make([]Group, 0, len(indoor)+len(outdoor)+1)
	groups = appendKeyed(groups, indoor)
	groups = appendKeyed(groups, outdoor)
	return appendNonEmpty(groups, TitleUnassigned, unassigned)
}

func appendKeyed(groups []Group, byTitle map[string][]model.Plant) []Group {
	titles := make([]string, 0, len(byTitle))
	for title := range byTitle {
		titles = append(titles, title)
	}
	slices.Sort(titles)
	for _, title := range titles {
		groups = append(groups, Group{Title: title, Plants: sortedByName(byTitle[title])})
	}
	return groups
}

func byWatering(plants []model.Plant, now time.Time) []Group {
	var overdue, today, tomorrow, unscheduled []model.Plant
	weekdays := make([][]model.Plant, 7)
	later := map[string][]model.Plant{}
	laterDays := map[string]time.Time{}

	for _, p := range plants {
		due, ok := schedule.DueDay(p, now)
		if !ok {
			unscheduled = append(unscheduled, p)
			continue
		}
		switch ahead := schedule.DaysBetween(now, due); {
		case ahead < 0:
			overdue = append(overdue, p)
		case ahead == 0:
			today = append(today, p)
		case ahead == 1:
			tomorrow = append(tomorrow, p)
		case ahead <= weekdayWindow:
			weekdays[due.Weekday()] = append(weekdays[due.Weekday()], p)
		default:
			key := schedule.DayKey(due)
			later[key] = append(later[key], p)
			laterDays[key] = due
		}
	}

	slices.SortStableFunc(overdue, func(a, b model.Plant) int {
		da, _ := schedule.DueDay(a, now)
		db, _ := schedule.DueDay(b, now)
		if c := da.Compare(db); c != 0 {
			return c
		}
		return compareByName(a, b)
	})

	var groups []Group
	if len(overdue) > 0 {
		groups = append(groups, Group{Title: TitleOverdue, Plants: overdue})
	}
	groups = appendNonEmpty(groups, TitleToday, today)
	groups = appendNonEmpty(groups, TitleTomorrow, tomorrow)
	for day := time.Sunday; day <= time.Saturday; day++ {
		groups = appendNonEmpty(groups, day.String(), weekdays[day])
	}

	// YYYY-MM-DD keys sort chronologically.
	keys := make([]string, 0, len(later))
	for key := range later {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		groups = appendNonEmpty(groups, laterDays[key].Format("Jan 2"), later[key])
	}

	return appendNonEmpty(groups, TitleNoSchedule, unscheduled)
}

func byHealth(plants []model.Plant) []Group {
	buckets := map[model.Health][]model.Plant{}
	for _, p := range plants {
		h := model.ParseHealth(string(p.Health))
		buckets[h] = append(buckets[h], p)
	}

	var groups []Group
	for _, h := range healthOrder {
		groups = appendNonEmpty(groups, healthTitle(h), buckets[h])
	}
	return appendNonEmpty(groups, TitleHealthNotSet, buckets[model.HealthUnset])
}

func healthTitle(h model.Health) string {
	s := string(h)
	return strings.ToUpper(s[:1]) + s[1:]
}

func appendNonEmpty(groups []Group, title string, plants []model.Plant) []Group {
	if len(plants) == 0 {
		return groups
	}
	return append(groups, Group{Title: title, Plants: sortedByName(plants)})
}

func sortedByName(plants []model.Plant) []model.Plant {
	out := slices.Clone(plants)
	slices.SortStableFunc(out, compareByName)
	return out
}

// compareByName orders case-insensitively, then by exact name, then by ID.
func compareByName(a, b model.Plant) int {
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
