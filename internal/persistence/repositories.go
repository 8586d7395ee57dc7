package persistence

import (
	"context"
	"time"
)

// RoomFilter narrows room searches. Empty fields match all rooms.
type RoomFilter struct {
	BuildingCode    string
	OperatingSystem string
}

// RoomRepository stores the room catalog and its slot grid.
type RoomRepository interface {
	// CreateRoomWithSlots inserts the room and its full slot grid in one
	// transaction. Returns ErrDuplicate when a room with the same
	// building code and room number already exists; no rows are written
	// in that case.
	CreateRoomWithSlots(ctx context.Context, room Room, slots []Slot) error
	GetRoomByNumber(ctx context.Context, buildingCode string, roomNumber int) (Room, error)
	// UpdateOperatingSystem changes only the room's operating system.
	// Returns ErrNotFound when no matching room exists.
	UpdateOperatingSystem(ctx context.Context, buildingCode string, roomNumber int, operatingSystem string) error
	SearchRooms(ctx context.Context, filter RoomFilter) ([]Room, error)
}

// SlotRepository owns all occupant mutation and slot-level queries. The
// claim and release operations are atomic with respect to concurrent
// callers: the availability check and the occupant write happen inside
// one transaction.
type SlotRepository interface {
	// ClaimFirstAvailable assigns occupant to any free slot matching
	// room, day and timeslot and returns the claimed slot. Which free
	// slot is picked is unspecified. Returns ErrNotFound when no slot
	// is free.
	ClaimFirstAvailable(ctx context.Context, roomID, day, timeslot, occupant string) (Slot, error)
	// ClaimComputer assigns occupant to the exact slot identified by
	// room, computer, day and timeslot, only if it is free. Returns
	// ErrNotFound when the slot is absent or already occupied.
	ClaimComputer(ctx context.Context, roomID, computerID, day, timeslot, occupant string) (Slot, error)
	// ReleaseSlot clears the occupant of the identified slot only when
	// its current occupant equals occupant. Returns ErrNotFound when no
	// row matched, whether the slot is absent, free, or held by someone
	// else.
	ReleaseSlot(ctx context.Context, slotID, occupant string) error
	ListSlotsForRoomDay(ctx context.Context, roomID, day string) ([]Slot, error)
	ListBookingsForRoomDay(ctx context.Context, roomID, day string) ([]Slot, error)
	ListBookingsForUser(ctx context.Context, occupant string) ([]BookingRecord, error)
}

// UserRepository stores reservation system accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUserByName(ctx context.Context, userName string) (User, error)
	GetUserByID(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) error
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
