package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/lab-reservation/internal/application"
)

type reservationService interface {
	BookFirstAvailable(ctx context.Context, request application.BookingRequest) (application.BookingOutcome, error)
	BookSpecificComputer(ctx context.Context, request application.BookingRequest) (application.BookingOutcome, error)
	Cancel(ctx context.Context, bookingID, userName string) (application.CancelOutcome, error)
}

type bookingQueryService interface {
	BookingsForUser(ctx context.Context, userName string) ([]application.Booking, error)
}

type bookingRequest struct {
	BuildingCode string `json:"building_code"`
	RoomNumber   int    `json:"room_number"`
	ComputerID   string `json:"computer_id,omitempty"`
	Day          string `json:"day"`
	Timeslot     string `json:"timeslot"`
}

type bookingOutcomeDTO struct {
	Booked     bool   `json:"booked"`
	BookingID  string `json:"booking_id,omitempty"`
	ComputerID string `json:"computer_id,omitempty"`
	Message    string `json:"message"`
}

type cancelOutcomeDTO struct {
	Cancelled bool   `json:"cancelled"`
	Message   string `json:"message"`
}

type BookingHandler struct {
	reservations reservationService
	queries      bookingQueryService
	responder    responder
	logger       *slog.Logger
}

func NewBookingHandler(reservations reservationService, queries bookingQueryService, logger *slog.Logger) *BookingHandler {
	base := defaultLogger(logger)
	return &BookingHandler{reservations: reservations, queries: queries, responder: newResponder(base), logger: base}
}

func (h *BookingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "BookingHandler", operation, attrs...)
}

// Create books a computer for the authenticated user. An empty
// computer_id books any free computer; otherwise the exact machine is
// targeted. Rejections (full room, taken computer) come back as 200
// with booked=false: they are business outcomes, not request errors.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.reservations == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal", principal.UserName, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode booking request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create",
		"principal", principal.UserName,
		"building_code", req.BuildingCode,
		"room_number", req.RoomNumber,
		"computer_id", req.ComputerID,
	)

	request := application.BookingRequest{
		UserName:     principal.UserName,
		BuildingCode: req.BuildingCode,
		RoomNumber:   req.RoomNumber,
		ComputerID:   strings.TrimSpace(req.ComputerID),
		Day:          req.Day,
		Timeslot:     req.Timeslot,
	}

	var (
		outcome application.BookingOutcome
		err     error
	)
	if request.ComputerID == "" {
		outcome, err = h.reservations.BookFirstAvailable(r.Context(), request)
	} else {
		outcome, err = h.reservations.BookSpecificComputer(r.Context(), request)
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "booking failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	status := http.StatusOK
	if outcome.Booked {
		status = http.StatusCreated
	}
	logger.With("booked", outcome.Booked, "booking_id", outcome.BookingID).InfoContext(r.Context(), "booking processed")
	h.responder.writeJSON(r.Context(), w, status, bookingOutcomeDTO{
		Booked:     outcome.Booked,
		BookingID:  outcome.BookingID,
		ComputerID: outcome.ComputerID,
		Message:    outcome.Message,
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, bookingID string) {
	if h == nil || h.reservations == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if strings.TrimSpace(bookingID) == "" {
		h.log(r.Context(), "Cancel", "error_kind", "bad_request").ErrorContext(r.Context(), "missing booking id")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Cancel", "principal", principal.UserName, "booking_id", bookingID)

	outcome, err := h.reservations.Cancel(r.Context(), bookingID, principal.UserName)
	if err != nil {
		logger.ErrorContext(r.Context(), "cancellation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("cancelled", outcome.Cancelled).InfoContext(r.Context(), "cancellation processed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, cancelOutcomeDTO{
		Cancelled: outcome.Cancelled,
		Message:   outcome.Message,
	})
}

func (h *BookingHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.queries == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "ListMine", "principal", principal.UserName)

	bookings, err := h.queries.BookingsForUser(r.Context(), principal.UserName)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list bookings", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, map[string][]bookingDTO{"bookings": toBookingDTOs(bookings)})
}
