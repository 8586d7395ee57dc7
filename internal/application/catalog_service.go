package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
	"github.com/example/lab-reservation/internal/timetable"
)

// validOperatingSystems is the fixed set accepted for room OS updates.
var validOperatingSystems = []string{"Windows", "Mac", "Linux"}

// computerGroupSize is the provisioning granularity: computers are
// purchased and installed in groups of five.
const computerGroupSize = 5

// RoomCatalog captures the persistence operations needed by the catalog service.
type RoomCatalog interface {
	CreateRoomWithSlots(ctx context.Context, room Room, slots []SlotRecord) error
	GetRoomByNumber(ctx context.Context, buildingCode string, roomNumber int) (Room, error)
	UpdateOperatingSystem(ctx context.Context, buildingCode string, roomNumber int, operatingSystem string) error
	SearchRooms(ctx context.Context, search RoomSearch) ([]Room, error)
}

// CatalogService owns room creation, operating system updates and room
// search. Slot rows exist only through this service: a room arrives
// with its full weekly grid, provisioned atomically with the room row.
type CatalogService struct {
	rooms       RoomCatalog
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCatalogService constructs a catalog service with the provided dependencies.
func NewCatalogService(rooms RoomCatalog, idGenerator func() string, now func() time.Time) *CatalogService {
	return NewCatalogServiceWithLogger(rooms, idGenerator, now, nil)
}

// NewCatalogServiceWithLogger constructs a catalog service with a specified logger.
func NewCatalogServiceWithLogger(rooms RoomCatalog, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CatalogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CatalogService{rooms: rooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *CatalogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "CatalogService", operation, attrs...)
}

// AddRoom validates input and provisions a new room together with its
// slot grid (computers x weekdays x timeslots) for administrators. The
// duplicate check and all inserts run in one storage transaction.
func (s *CatalogService) AddRoom(ctx context.Context, params AddRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}

	logger := s.loggerWith(ctx, "AddRoom",
		"principal", params.Principal.UserName,
		"building_code", params.Input.BuildingCode,
		"room_number", params.Input.RoomNumber,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to add room", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("room_id", room.ID, "computer_count", params.Input.ComputerCount).InfoContext(ctx, "room added")
	}()

	if !params.Principal.IsAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	input := params.Input
	now := s.now()
	room = Room{
		ID:              s.idGenerator(),
		BuildingCode:    strings.TrimSpace(input.BuildingCode),
		RoomNumber:      input.RoomNumber,
		OperatingSystem: strings.TrimSpace(input.OperatingSystem),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	cells := timetable.ExpandGrid(room.BuildingCode, room.RoomNumber, input.ComputerCount)
	slots := make([]SlotRecord, 0, len(cells))
	for _, cell := range cells {
		slots = append(slots, SlotRecord{
			ID:         s.idGenerator(),
			ComputerID: cell.ComputerID,
			Day:        cell.Day,
			Timeslot:   cell.Timeslot,
		})
	}

	if s.rooms == nil {
		err = fmt.Errorf("room catalog not configured")
		return
	}

	if err = s.rooms.CreateRoomWithSlots(ctx, room, slots); err != nil {
		err = mapCatalogRepoError(err)
		return
	}
	return
}

// UpdateOperatingSystem changes a room's operating system label for
// administrators. Slots are untouched.
func (s *CatalogService) UpdateOperatingSystem(ctx context.Context, params UpdateOperatingSystemParams) (err error) {
	if s == nil {
		return fmt.Errorf("CatalogService is nil")
	}

	logger := s.loggerWith(ctx, "UpdateOperatingSystem",
		"principal", params.Principal.UserName,
		"building_code", params.BuildingCode,
		"room_number", params.RoomNumber,
		"operating_system", params.OperatingSystem,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update operating system", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "operating system updated")
	}()

	if !params.Principal.IsAdmin {
		return ErrUnauthorized
	}

	if !isValidOperatingSystem(params.OperatingSystem) {
		vErr := &ValidationError{}
		vErr.add("operatingSystem", fmt.Sprintf(
			"Invalid operating system. Valid options are: %s",
			strings.Join(validOperatingSystems, ", "),
		))
		return vErr
	}

	if s.rooms == nil {
		return fmt.Errorf("room catalog not configured")
	}

	if err = s.rooms.UpdateOperatingSystem(ctx, params.BuildingCode, params.RoomNumber, params.OperatingSystem); err != nil {
		return mapCatalogRepoError(err)
	}
	return nil
}

// SearchRooms returns rooms matching the filters; empty filters match all.
func (s *CatalogService) SearchRooms(ctx context.Context, principal Principal, search RoomSearch) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("CatalogService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "SearchRooms",
		"principal", principal.UserName,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to search rooms", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(rooms)).InfoContext(ctx, "rooms searched")
	}()

	search.BuildingCode = strings.TrimSpace(search.BuildingCode)
	search.OperatingSystem = strings.TrimSpace(search.OperatingSystem)

	rooms, err = s.rooms.SearchRooms(ctx, search)
	return
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.BuildingCode) == "" {
		vErr.add("buildingCode", "building code is required")
	}
	if input.RoomNumber <= 0 {
		vErr.add("roomNumber", "room number must be positive")
	}
	if strings.TrimSpace(input.OperatingSystem) == "" {
		vErr.add("operatingSystem", "operating system is required")
	}
	switch {
	case input.ComputerCount <= 0:
		vErr.add("computerCount", "number of computers must be positive")
	case input.ComputerCount%computerGroupSize != 0:
		vErr.add("computerCount", "Number of computers must be a multiple of 5.")
	}

	return vErr
}

func isValidOperatingSystem(operatingSystem string) bool {
	for _, candidate := range validOperatingSystems {
		if candidate == operatingSystem {
			return true
		}
	}
	return false
}

func mapCatalogRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	return err
}
