package schedule

import (
	"sort"
	"time"

	"coachbook/internal/models"
)

const secondsPerMinute = 60

// DaySlots is the availability of one calendar day.
type DaySlots struct {
	Date     time.Time
	Slots    []models.TimeOfDay
	PastDate bool
}

// BookedSet holds the start times already taken on a day.
type BookedSet map[models.TimeOfDay]struct{}

func NewBookedSet(times []models.TimeOfDay) BookedSet {
	set := make(BookedSet, len(times))
	for _, t := range times {
		set[t] = struct{}{}
	}
	return set
}

func (s BookedSet) Has(t models.TimeOfDay) bool {
	_, ok := s[t]
	return ok
}

// Slots lists the free, grid-aligned start times of date. rules must all belong to the
// weekday of date. Past days yield an empty result flagged PastDate.
func (e *Engine) Slots(date, now time.Time, rules []models.WorkRule, booked BookedSet) DaySlots {
	day := DaySlots{Date: date, Slots: []models.TimeOfDay{}}
	if models.BeforeDay(date, now) {
		day.PastDate = true
		return day
	}
	if len(rules) == 0 {
		return day
	}

	today := models.SameDay(date, now)
	clock := models.ClockOf(now)
	seen := make(map[models.TimeOfDay]struct{})

	for _, rule := range byStart(rules) {
		if rule.SlotMinutes <= 0 || rule.EndTime <= rule.StartTime {
			continue
		}

		start := rule.StartTime
		if today {
			if rule.EndTime <= clock {
				continue
			}
			if start < clock {
				start = ceilToGrid(clock, rule)
				if start >= rule.EndTime {
					continue
				}
			}
		}

		step := rule.SlotMinutes * secondsPerMinute
		for t := int(start); t < int(rule.EndTime); t += step {
			slot := models.TimeOfDay(t)
			if !e.fits(slot, rule) {
				break
			}
			if booked.Has(slot) {
				continue
			}
			seen[slot] = struct{}{}
		}
	}

	for slot := range seen {
		day.Slots = append(day.Slots, slot)
	}
	sort.Slice(day.Slots, func(i, j int) bool { return day.Slots[i] < day.Slots[j] })
	return day
}

// ceilToGrid returns the first grid point of rule at or after now, with now truncated to
// the minute. Never earlier than the rule start.
func ceilToGrid(now models.TimeOfDay, rule models.WorkRule) models.TimeOfDay {
	now = now.TruncateMinute()
	if now <= rule.StartTime {
		return rule.StartTime
	}
	elapsed := int(now-rule.StartTime) / secondsPerMinute
	steps := (elapsed + rule.SlotMinutes - 1) / rule.SlotMinutes
	return rule.StartTime + models.TimeOfDay(steps*rule.SlotMinutes*secondsPerMinute)
}

// fits applies the edge policy to a slot start already known to be inside the window.
func (e *Engine) fits(slot models.TimeOfDay, rule models.WorkRule) bool {
	if e.edge != EdgeFit {
		return true
	}
	return int(slot)+rule.SlotMinutes*secondsPerMinute <= int(rule.EndTime)
}

func byStart(rules []models.WorkRule) []models.WorkRule {
	sorted := make([]models.WorkRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StartTime < sorted[j].StartTime })
	return sorted
}
