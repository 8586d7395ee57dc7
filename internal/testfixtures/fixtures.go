// Package testfixtures provides deterministic builders and storage
// harnesses shared by the service and persistence tests.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
	"github.com/example/lab-reservation/internal/timetable"
)

var (
	userCounter uint64
	roomCounter uint64
	slotCounter uint64
)

// RoomFixture represents a deterministic room record, optionally with a
// pre-expanded slot grid.
type RoomFixture struct {
	Room  persistence.Room
	Slots []persistence.Slot
}

// RoomOption configures the generated room fixture.
type RoomOption func(*persistence.Room)

// WithOperatingSystem overrides the fixture's operating system.
func WithOperatingSystem(operatingSystem string) RoomOption {
	return func(room *persistence.Room) {
		room.OperatingSystem = operatingSystem
	}
}

// WithBuildingCode overrides the fixture's building code.
func WithBuildingCode(buildingCode string) RoomOption {
	return func(room *persistence.Room) {
		room.BuildingCode = buildingCode
	}
}

// NewRoomFixture returns a deterministic room with computerCount
// machines and its full slot grid.
func NewRoomFixture(computerCount int, opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:              fmt.Sprintf("room-%03d", idx),
		BuildingCode:    "JM",
		RoomNumber:      int(100 + idx),
		OperatingSystem: "Windows",
		CreatedAt:       created,
		UpdatedAt:       created,
	}
	for _, opt := range opts {
		opt(&room)
	}

	cells := timetable.ExpandGrid(room.BuildingCode, room.RoomNumber, computerCount)
	slots := make([]persistence.Slot, 0, len(cells))
	for _, cell := range cells {
		slots = append(slots, persistence.Slot{
			ID:         fmt.Sprintf("slot-%04d", atomic.AddUint64(&slotCounter, 1)),
			RoomID:     room.ID,
			ComputerID: cell.ComputerID,
			Day:        cell.Day,
			Timeslot:   cell.Timeslot,
		})
	}

	return RoomFixture{Room: room, Slots: slots}
}

// NewUserFixture returns a deterministic user record.
func NewUserFixture(isAdmin bool) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	return persistence.User{
		ID:           fmt.Sprintf("user-%03d", idx),
		UserName:     fmt.Sprintf("user%03d", idx),
		Email:        fmt.Sprintf("user%03d@example.com", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		IsAdmin:      isAdmin,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
}
