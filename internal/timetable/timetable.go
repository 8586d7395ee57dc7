// Package timetable defines the fixed weekly reservation grid: the five
// weekdays and four daily timeslots every lab room operates on, and the
// expansion of a room's computers into concrete grid cells.
package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// Weekdays lists the days rooms are bookable, in week order.
var Weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Timeslots lists the four daily booking intervals, in day order.
var Timeslots = []string{"9-11am", "11am-1pm", "1pm-3pm", "3pm-5pm"}

// ErrInvalidDay indicates the supplied day is not a bookable weekday.
var ErrInvalidDay = errors.New("timetable: invalid day")

// ErrInvalidTimeslot indicates the supplied timeslot is not on the grid.
var ErrInvalidTimeslot = errors.New("timetable: invalid timeslot")

// NormalizeDay matches day case-insensitively against the bookable
// weekdays and returns the canonical capitalized form.
func NormalizeDay(day string) (string, error) {
	trimmed := strings.TrimSpace(day)
	for _, candidate := range Weekdays {
		if strings.EqualFold(candidate, trimmed) {
			return candidate, nil
		}
	}
	return "", ErrInvalidDay
}

// ValidTimeslot reports whether timeslot is one of the four grid intervals.
func ValidTimeslot(timeslot string) bool {
	for _, candidate := range Timeslots {
		if candidate == timeslot {
			return true
		}
	}
	return false
}

// ComputerID builds the deterministic identifier for the index-th
// computer of a room, e.g. "JM-101-3". Indexes start at 1.
func ComputerID(buildingCode string, roomNumber, index int) string {
	return fmt.Sprintf("%s-%d-%d", buildingCode, roomNumber, index)
}

// Cell is one allocatable position on the weekly grid: a computer on a
// day in a timeslot. Cells carry no occupancy; they describe the grid a
// new room is provisioned with.
type Cell struct {
	ComputerID string
	Day        string
	Timeslot   string
}

// ExpandGrid produces every cell for a room with computerCount machines:
// computerCount x len(Weekdays) x len(Timeslots) entries, ordered by
// computer, then day, then timeslot.
func ExpandGrid(buildingCode string, roomNumber, computerCount int) []Cell {
	if computerCount <= 0 {
		return nil
	}
	cells := make([]Cell, 0, computerCount*len(Weekdays)*len(Timeslots))
	for index := 1; index <= computerCount; index++ {
		computerID := ComputerID(buildingCode, roomNumber, index)
		for _, day := range Weekdays {
			for _, timeslot := range Timeslots {
				cells = append(cells, Cell{
					ComputerID: computerID,
					Day:        day,
					Timeslot:   timeslot,
				})
			}
		}
	}
	return cells
}
