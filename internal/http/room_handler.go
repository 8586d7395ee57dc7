package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/lab-reservation/internal/application"
)

type catalogService interface {
	AddRoom(ctx context.Context, params application.AddRoomParams) (application.Room, error)
	UpdateOperatingSystem(ctx context.Context, params application.UpdateOperatingSystemParams) error
	SearchRooms(ctx context.Context, principal application.Principal, search application.RoomSearch) ([]application.Room, error)
}

type roomGridService interface {
	ComputersInRoom(ctx context.Context, principal application.Principal, buildingCode string, roomNumber int, day string) ([]application.ComputerView, error)
}

type roomBookingService interface {
	BookingsForRoomAndDay(ctx context.Context, buildingCode string, roomNumber int, day string) ([]application.Booking, error)
}

type roomRequest struct {
	BuildingCode    string `json:"building_code"`
	RoomNumber      int    `json:"room_number"`
	OperatingSystem string `json:"operating_system"`
	ComputerCount   int    `json:"computer_count"`
}

type roomDTO struct {
	BuildingCode    string `json:"building_code"`
	RoomNumber      int    `json:"room_number"`
	OperatingSystem string `json:"operating_system"`
	CreatedAt       string `json:"created_at"`
}

type addRoomResponse struct {
	Room    roomDTO `json:"room"`
	Message string  `json:"message"`
}

type updateOSRequest struct {
	OperatingSystem string `json:"operating_system"`
}

type computerViewDTO struct {
	ComputerID        string  `json:"computer_id"`
	Timeslot          string  `json:"timeslot"`
	BookingID         string  `json:"booking_id"`
	Booked            bool    `json:"booked"`
	BookedByRequester bool    `json:"booked_by_requester"`
	BookedBy          *string `json:"booked_by,omitempty"`
}

type bookingDTO struct {
	ID           string `json:"id"`
	UserName     string `json:"user_name"`
	BuildingCode string `json:"building_code"`
	RoomNumber   int    `json:"room_number"`
	ComputerID   string `json:"computer_id"`
	Day          string `json:"day"`
	Timeslot     string `json:"timeslot"`
}

type RoomHandler struct {
	catalog   catalogService
	grid      roomGridService
	bookings  roomBookingService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(catalog catalogService, grid roomGridService, bookings roomBookingService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{catalog: catalog, grid: grid, bookings: bookings, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.catalog == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Search", "principal", principal.UserName)

	rooms, err := h.catalog.SearchRooms(r.Context(), principal, application.RoomSearch{
		BuildingCode:    r.URL.Query().Get("building"),
		OperatingSystem: r.URL.Query().Get("os"),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room search failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]roomDTO{"rooms": dtos})
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.catalog == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal", principal.UserName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal", principal.UserName)

	room, err := h.catalog.AddRoom(r.Context(), application.AddRoomParams{
		Principal: principal,
		Input: application.RoomInput{
			BuildingCode:    req.BuildingCode,
			RoomNumber:      req.RoomNumber,
			OperatingSystem: req.OperatingSystem,
			ComputerCount:   req.ComputerCount,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "room creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, addRoomResponse{
		Room: toRoomDTO(room),
		Message: fmt.Sprintf(
			"Room %s-%d with %d computers successfully added.",
			room.BuildingCode, room.RoomNumber, req.ComputerCount,
		),
	})
}

func (h *RoomHandler) UpdateOperatingSystem(w http.ResponseWriter, r *http.Request, buildingCode string, roomNumber int) {
	if h == nil || h.catalog == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req updateOSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "UpdateOperatingSystem", "principal", principal.UserName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode OS update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "UpdateOperatingSystem",
		"principal", principal.UserName,
		"building_code", buildingCode,
		"room_number", roomNumber,
	)

	err := h.catalog.UpdateOperatingSystem(r.Context(), application.UpdateOperatingSystemParams{
		Principal:       principal,
		BuildingCode:    buildingCode,
		RoomNumber:      roomNumber,
		OperatingSystem: req.OperatingSystem,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "OS update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "operating system updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Room %s-%d updated to %s.", buildingCode, roomNumber, req.OperatingSystem),
	})
}

func (h *RoomHandler) Computers(w http.ResponseWriter, r *http.Request, buildingCode string, roomNumber int) {
	if h == nil || h.grid == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	day := r.URL.Query().Get("day")
	logger := h.log(r.Context(), "Computers",
		"principal", principal.UserName,
		"building_code", buildingCode,
		"room_number", roomNumber,
		"day", day,
	)

	views, err := h.grid.ComputersInRoom(r.Context(), principal, buildingCode, roomNumber, day)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list computers", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]computerViewDTO, 0, len(views))
	for _, view := range views {
		dtos = append(dtos, computerViewDTO{
			ComputerID:        view.ComputerID,
			Timeslot:          view.Timeslot,
			BookingID:         view.BookingID,
			Booked:            view.Booked,
			BookedByRequester: view.BookedByRequester,
			BookedBy:          view.BookedBy,
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]computerViewDTO{"computers": dtos})
}

func (h *RoomHandler) Bookings(w http.ResponseWriter, r *http.Request, buildingCode string, roomNumber int) {
	if h == nil || h.bookings == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	day := r.URL.Query().Get("day")
	logger := h.log(r.Context(), "Bookings",
		"building_code", buildingCode,
		"room_number", roomNumber,
		"day", day,
	)

	bookings, err := h.bookings.BookingsForRoomAndDay(r.Context(), buildingCode, roomNumber, day)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list room bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]bookingDTO{"bookings": toBookingDTOs(bookings)})
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		BuildingCode:    room.BuildingCode,
		RoomNumber:      room.RoomNumber,
		OperatingSystem: room.OperatingSystem,
		CreatedAt:       room.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toBookingDTOs(bookings []application.Booking) []bookingDTO {
	dtos := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		dtos = append(dtos, bookingDTO{
			ID:           booking.ID,
			UserName:     booking.UserName,
			BuildingCode: booking.BuildingCode,
			RoomNumber:   booking.RoomNumber,
			ComputerID:   booking.ComputerID,
			Day:          booking.Day,
			Timeslot:     booking.Timeslot,
		})
	}
	return dtos
}
