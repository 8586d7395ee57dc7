package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// BookingReader captures the read-side persistence operations for
// booking listings.
type BookingReader interface {
	ListBookingsForRoomDay(ctx context.Context, roomID, day string) ([]SlotRecord, error)
	ListBookingsForUser(ctx context.Context, userName string) ([]Booking, error)
}

// BookingQueryService serves read-only booking projections: occupied
// slots by room and day, and a user's bookings across all rooms. It
// never mutates slot state.
type BookingQueryService struct {
	rooms    RoomDirectory
	bookings BookingReader
	logger   *slog.Logger
}

// NewBookingQueryService constructs a booking query service with the provided dependencies.
func NewBookingQueryService(rooms RoomDirectory, bookings BookingReader) *BookingQueryService {
	return NewBookingQueryServiceWithLogger(rooms, bookings, nil)
}

// NewBookingQueryServiceWithLogger constructs a booking query service with a specified logger.
func NewBookingQueryServiceWithLogger(rooms RoomDirectory, bookings BookingReader, logger *slog.Logger) *BookingQueryService {
	return &BookingQueryService{rooms: rooms, bookings: bookings, logger: defaultLogger(logger)}
}

func (s *BookingQueryService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "BookingQueryService", operation, attrs...)
}

// BookingsForRoomAndDay returns every occupied slot for the room and
// day as bookings.
func (s *BookingQueryService) BookingsForRoomAndDay(ctx context.Context, buildingCode string, roomNumber int, day string) (result []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingQueryService is nil")
		return
	}
	if s.rooms == nil || s.bookings == nil {
		err = fmt.Errorf("booking query service not fully configured")
		return
	}

	logger := s.loggerWith(ctx, "BookingsForRoomAndDay",
		"building_code", buildingCode,
		"room_number", roomNumber,
		"day", day,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result)).InfoContext(ctx, "bookings listed")
	}()

	normalizedDay, err := normalizeDay(day)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.GetRoomByNumber(ctx, strings.TrimSpace(buildingCode), roomNumber)
	if err != nil {
		err = mapCatalogRepoError(err)
		return nil, err
	}

	slots, err := s.bookings.ListBookingsForRoomDay(ctx, room.ID, normalizedDay)
	if err != nil {
		return nil, err
	}

	result = make([]Booking, 0, len(slots))
	for _, slot := range slots {
		if slot.Occupant == nil {
			continue
		}
		result = append(result, Booking{
			ID:           slot.ID,
			UserName:     *slot.Occupant,
			BuildingCode: room.BuildingCode,
			RoomNumber:   room.RoomNumber,
			ComputerID:   slot.ComputerID,
			Day:          slot.Day,
			Timeslot:     slot.Timeslot,
		})
	}
	return result, nil
}

// BookingsForUser returns the user's bookings across all rooms. No
// bookings is an empty result, not an error.
func (s *BookingQueryService) BookingsForUser(ctx context.Context, userName string) (result []Booking, err error) {
	if s == nil {
		err = fmt.Errorf("BookingQueryService is nil")
		return
	}
	if s.bookings == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "BookingsForUser",
		"user", userName,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list user bookings", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(result)).InfoContext(ctx, "user bookings listed")
	}()

	result, err = s.bookings.ListBookingsForUser(ctx, userName)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []Booking{}
	}
	return result, nil
}
