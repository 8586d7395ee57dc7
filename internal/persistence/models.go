package persistence

import "time"

// Room represents a lab room catalog entry.
type Room struct {
	ID              string
	BuildingCode    string
	RoomNumber      int
	OperatingSystem string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Slot is the atomic allocatable unit: one computer in one room, on one
// day, in one timeslot. Occupant is nil while the slot is free. Slot
// rows are provisioned when the room is created and are never deleted;
// cancellation only clears Occupant.
type Slot struct {
	ID         string
	RoomID     string
	ComputerID string
	Day        string
	Timeslot   string
	Occupant   *string
}

// BookingRecord joins an occupied slot with its room for cross-room
// booking listings.
type BookingRecord struct {
	Slot Slot
	Room Room
}

// User represents an account in the reservation system.
type User struct {
	ID           string
	UserName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}
