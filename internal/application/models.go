package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserName string
	IsAdmin  bool
}

// Room represents a lab room exposed by the catalog.
type Room struct {
	ID              string
	BuildingCode    string
	RoomNumber      int
	OperatingSystem string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// RoomInput captures caller provided fields for a new room.
type RoomInput struct {
	BuildingCode    string
	RoomNumber      int
	OperatingSystem string
	ComputerCount   int
}

// AddRoomParams wraps the data required to create a room.
type AddRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateOperatingSystemParams wraps the data required to change a room's OS.
type UpdateOperatingSystemParams struct {
	Principal       Principal
	BuildingCode    string
	RoomNumber      int
	OperatingSystem string
}

// RoomSearch carries the optional catalog search filters. Empty fields
// match all rooms.
type RoomSearch struct {
	BuildingCode    string
	OperatingSystem string
}

// SlotRecord is one allocatable slot row as seen by the services.
// Occupant is nil while the slot is free.
type SlotRecord struct {
	ID         string
	ComputerID string
	Day        string
	Timeslot   string
	Occupant   *string
}

// BookingRequest identifies the slot a user wants. ComputerID empty
// means "any free computer" for the room, day and timeslot.
type BookingRequest struct {
	UserName     string
	BuildingCode string
	RoomNumber   int
	ComputerID   string
	Day          string
	Timeslot     string
}

// BookingOutcome is the business result of a booking attempt. A full
// room or an already-taken computer is a normal outcome, not an error:
// Booked is false and Message carries the rejection text.
type BookingOutcome struct {
	Booked     bool
	BookingID  string
	ComputerID string
	Message    string
}

// CancelOutcome is the business result of a cancellation attempt.
type CancelOutcome struct {
	Cancelled bool
	Message   string
}

// ComputerView is one grid cell of a room's day view. BookedBy is
// populated only for admin requesters.
type ComputerView struct {
	ComputerID        string
	Timeslot          string
	BookingID         string
	Booked            bool
	BookedByRequester bool
	BookedBy          *string
}

// Booking is the user-facing view of an occupied slot. Its ID is the
// underlying slot's ID and is what Cancel accepts.
type Booking struct {
	ID           string
	UserName     string
	BuildingCode string
	RoomNumber   int
	ComputerID   string
	Day          string
	Timeslot     string
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	UserName  string
	Email     string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegisterParams wraps the data required to register an account.
type RegisterParams struct {
	UserName string
	Email    string
	Password string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	RevokedAt *time.Time
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	UserName string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}
