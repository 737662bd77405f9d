package model

import "time"

// ScheduleWindow is the ordered sequence of game dates for one team within
// the planning horizon. Read-only; supplied by the schedule provider.
type ScheduleWindow struct {
	Team  string      `json:"team"`
	Dates []time.Time `json:"dates"`
}

// GamesAfter counts games strictly after the given date.
func (w ScheduleWindow) GamesAfter(date time.Time) int {
	n := 0
	for _, d := range w.Dates {
		if d.After(date) {
			n++
		}
	}
	return n
}

// GamesOnOrAfter counts games on or after the given date.
func (w ScheduleWindow) GamesOnOrAfter(date time.Time) int {
	n := 0
	for _, d := range w.Dates {
		if !d.Before(date) {
			n++
		}
	}
	return n
}

// ScheduleSnapshot holds all team windows for the current planning horizon.
type ScheduleSnapshot struct {
	Start   time.Time        `json:"start"`
	End     time.Time        `json:"end"`
	Windows []ScheduleWindow `json:"windows"`
}

// WindowFor returns the schedule window for a team, or an empty window when
// the team is not in the snapshot.
func (s ScheduleSnapshot) WindowFor(team string) ScheduleWindow {
	for _, w := range s.Windows {
		if w.Team == team {
			return w
		}
	}
	return ScheduleWindow{Team: team}
}

// Contains reports whether a date falls within the horizon (inclusive).
func (s ScheduleSnapshot) Contains(date time.Time) bool {
	return !date.Before(s.Start) && !date.After(s.End)
}

// WeekOf returns the ISO year and week number for a date. Acquisition limits
// are enforced per calendar week using this bucketing.
func WeekOf(date time.Time) (int, int) {
	return date.ISOWeek()
}
