package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/lab-reservation/internal/persistence"
	"github.com/example/lab-reservation/internal/timetable"
)

// RoomDirectory resolves rooms for the reservation and query services.
type RoomDirectory interface {
	GetRoomByNumber(ctx context.Context, buildingCode string, roomNumber int) (Room, error)
}

// SlotStore captures the slot-level persistence operations the engine
// needs. Claim and release are atomic: the availability check and the
// occupant write are indivisible from the perspective of concurrent
// callers.
type SlotStore interface {
	ClaimFirstAvailable(ctx context.Context, roomID, day, timeslot, userName string) (SlotRecord, error)
	ClaimComputer(ctx context.Context, roomID, computerID, day, timeslot, userName string) (SlotRecord, error)
	ReleaseSlot(ctx context.Context, slotID, userName string) error
	ListSlotsForRoomDay(ctx context.Context, roomID, day string) ([]SlotRecord, error)
}

// ReservationService is the allocation engine: it decides whether a
// booking succeeds, mutates slot occupancy, and answers the occupancy
// grid query. Slots move only between Free and Occupied(user); a taken
// slot can never be reassigned without a cancellation in between.
type ReservationService struct {
	rooms  RoomDirectory
	slots  SlotStore
	logger *slog.Logger
}

// NewReservationService constructs a reservation service with the provided dependencies.
func NewReservationService(rooms RoomDirectory, slots SlotStore) *ReservationService {
	return NewReservationServiceWithLogger(rooms, slots, nil)
}

// NewReservationServiceWithLogger constructs a reservation service with a specified logger.
func NewReservationServiceWithLogger(rooms RoomDirectory, slots SlotStore, logger *slog.Logger) *ReservationService {
	return &ReservationService{rooms: rooms, slots: slots, logger: defaultLogger(logger)}
}

func (s *ReservationService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ReservationService", operation, attrs...)
}

// BookFirstAvailable books any free computer in the room for the day
// and timeslot. A fully booked room is a normal outcome, not an error.
func (s *ReservationService) BookFirstAvailable(ctx context.Context, request BookingRequest) (outcome BookingOutcome, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "BookFirstAvailable",
		"user", request.UserName,
		"building_code", request.BuildingCode,
		"room_number", request.RoomNumber,
		"day", request.Day,
		"timeslot", request.Timeslot,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book computer", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booked", outcome.Booked, "booking_id", outcome.BookingID).InfoContext(ctx, "booking attempted")
	}()

	day, room, err := s.resolve(ctx, request)
	if err != nil {
		return BookingOutcome{}, err
	}

	claimed, err := s.slots.ClaimFirstAvailable(ctx, room.ID, day, request.Timeslot, request.UserName)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return BookingOutcome{
				Message: fmt.Sprintf(
					"No available computers for the selected timeslot in room %s-%d.",
					room.BuildingCode, room.RoomNumber,
				),
			}, nil
		}
		return BookingOutcome{}, err
	}

	return BookingOutcome{
		Booked:     true,
		BookingID:  claimed.ID,
		ComputerID: claimed.ComputerID,
		Message: fmt.Sprintf(
			"Booking confirmed for computer: %s on %s at %s.",
			claimed.ComputerID, day, request.Timeslot,
		),
	}, nil
}

// BookSpecificComputer books the exact computer for the day and
// timeslot. An occupied (or unknown) computer is a normal outcome.
func (s *ReservationService) BookSpecificComputer(ctx context.Context, request BookingRequest) (outcome BookingOutcome, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "BookSpecificComputer",
		"user", request.UserName,
		"building_code", request.BuildingCode,
		"room_number", request.RoomNumber,
		"computer_id", request.ComputerID,
		"day", request.Day,
		"timeslot", request.Timeslot,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to book computer", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("booked", outcome.Booked, "booking_id", outcome.BookingID).InfoContext(ctx, "booking attempted")
	}()

	day, room, err := s.resolve(ctx, request)
	if err != nil {
		return BookingOutcome{}, err
	}

	claimed, err := s.slots.ClaimComputer(ctx, room.ID, request.ComputerID, day, request.Timeslot, request.UserName)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			// Absent and occupied computers read the same on purpose.
			return BookingOutcome{Message: "This computer is already booked."}, nil
		}
		return BookingOutcome{}, err
	}

	return BookingOutcome{
		Booked:     true,
		BookingID:  claimed.ID,
		ComputerID: claimed.ComputerID,
		Message:    fmt.Sprintf("Computer %s successfully booked.", claimed.ComputerID),
	}, nil
}

// Cancel releases the booking only if it belongs to the requesting
// user. Whether the slot is absent, free, or held by someone else, the
// caller sees the same "no matching booking" outcome.
func (s *ReservationService) Cancel(ctx context.Context, bookingID, userName string) (outcome CancelOutcome, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Cancel",
		"user", userName,
		"booking_id", bookingID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to cancel booking", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("cancelled", outcome.Cancelled).InfoContext(ctx, "cancellation attempted")
	}()

	if s.slots == nil {
		err = fmt.Errorf("reservation service not fully configured")
		return
	}

	if err = s.slots.ReleaseSlot(ctx, bookingID, userName); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return CancelOutcome{Message: "No matching booking found for the current user."}, nil
		}
		return CancelOutcome{}, err
	}
	return CancelOutcome{Cancelled: true, Message: "Booking canceled successfully."}, nil
}

// ComputersInRoom returns the occupancy grid for a room and day. The
// occupant name is exposed only to admin principals; everyone else sees
// just whether a cell is taken and whether they hold it.
func (s *ReservationService) ComputersInRoom(ctx context.Context, principal Principal, buildingCode string, roomNumber int, day string) (views []ComputerView, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ComputersInRoom",
		"principal", principal.UserName,
		"building_code", buildingCode,
		"room_number", roomNumber,
		"day", day,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list computers", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(views)).InfoContext(ctx, "computers listed")
	}()

	normalizedDay, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}

	if s.rooms == nil || s.slots == nil {
		return nil, fmt.Errorf("reservation service not fully configured")
	}

	room, err := s.rooms.GetRoomByNumber(ctx, buildingCode, roomNumber)
	if err != nil {
		err = mapCatalogRepoError(err)
		return nil, err
	}

	slots, err := s.slots.ListSlotsForRoomDay(ctx, room.ID, normalizedDay)
	if err != nil {
		return nil, err
	}

	views = make([]ComputerView, 0, len(slots))
	for _, slot := range slots {
		view := ComputerView{
			ComputerID: slot.ComputerID,
			Timeslot:   slot.Timeslot,
			BookingID:  slot.ID,
			Booked:     slot.Occupant != nil,
		}
		if slot.Occupant != nil {
			view.BookedByRequester = *slot.Occupant == principal.UserName
			if principal.IsAdmin {
				occupant := *slot.Occupant
				view.BookedBy = &occupant
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// resolve normalizes the request day and resolves the target room.
func (s *ReservationService) resolve(ctx context.Context, request BookingRequest) (string, Room, error) {
	day, err := normalizeDay(request.Day)
	if err != nil {
		return "", Room{}, err
	}

	if s.rooms == nil || s.slots == nil {
		return "", Room{}, fmt.Errorf("reservation service not fully configured")
	}

	room, err := s.rooms.GetRoomByNumber(ctx, strings.TrimSpace(request.BuildingCode), request.RoomNumber)
	if err != nil {
		return "", Room{}, mapCatalogRepoError(err)
	}
	return day, room, nil
}

func normalizeDay(day string) (string, error) {
	normalized, err := timetable.NormalizeDay(day)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("day", "Invalid day. Please enter a valid day of the week (e.g., Monday).")
		return "", vErr
	}
	return normalized, nil
}
