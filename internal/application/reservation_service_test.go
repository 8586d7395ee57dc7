package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/lab-reservation/internal/persistence"
)

type roomDirectoryStub struct {
	room Room
	err  error
}

func (r *roomDirectoryStub) GetRoomByNumber(ctx context.Context, buildingCode string, roomNumber int) (Room, error) {
	if r.err != nil {
		return Room{}, r.err
	}
	return r.room, nil
}

type slotStoreStub struct {
	claimFirst    SlotRecord
	claimFirstErr error

	claimComputer    SlotRecord
	claimComputerErr error

	releaseErr      error
	releasedSlotID  string
	releasedForUser string

	slots    []SlotRecord
	slotsErr error
}

func (s *slotStoreStub) ClaimFirstAvailable(ctx context.Context, roomID, day, timeslot, userName string) (SlotRecord, error) {
	if s.claimFirstErr != nil {
		return SlotRecord{}, s.claimFirstErr
	}
	return s.claimFirst, nil
}

func (s *slotStoreStub) ClaimComputer(ctx context.Context, roomID, computerID, day, timeslot, userName string) (SlotRecord, error) {
	if s.claimComputerErr != nil {
		return SlotRecord{}, s.claimComputerErr
	}
	return s.claimComputer, nil
}

func (s *slotStoreStub) ReleaseSlot(ctx context.Context, slotID, userName string) error {
	if s.releaseErr != nil {
		return s.releaseErr
	}
	s.releasedSlotID = slotID
	s.releasedForUser = userName
	return nil
}

func (s *slotStoreStub) ListSlotsForRoomDay(ctx context.Context, roomID, day string) ([]SlotRecord, error) {
	if s.slotsErr != nil {
		return nil, s.slotsErr
	}
	return append([]SlotRecord(nil), s.slots...), nil
}

func strPtr(value string) *string {
	return &value
}

func TestReservationService_BookFirstAvailable(t *testing.T) {
	baseRequest := BookingRequest{
		UserName:     "alice",
		BuildingCode: "JM",
		RoomNumber:   101,
		Day:          "Monday",
		Timeslot:     "9-11am",
	}

	t.Run("rejects invalid days", func(t *testing.T) {
		svc := NewReservationService(&roomDirectoryStub{}, &slotStoreStub{})

		request := baseRequest
		request.Day = "Funday"
		_, err := svc.BookFirstAvailable(context.Background(), request)

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if msg := vErr.FieldErrors["day"]; msg != "Invalid day. Please enter a valid day of the week (e.g., Monday)." {
			t.Fatalf("unexpected day message: %q", msg)
		}
	})

	t.Run("accepts case-insensitive days", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{claimFirst: SlotRecord{ID: "slot-1", ComputerID: "JM-101-1", Day: "Monday", Timeslot: "9-11am"}}
		svc := NewReservationService(rooms, slots)

		request := baseRequest
		request.Day = "  monday "
		outcome, err := svc.BookFirstAvailable(context.Background(), request)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !outcome.Booked {
			t.Fatalf("expected booking to succeed, got %+v", outcome)
		}
		if outcome.Message != "Booking confirmed for computer: JM-101-1 on Monday at 9-11am." {
			t.Fatalf("unexpected message: %q", outcome.Message)
		}
	})

	t.Run("propagates ErrNotFound for unknown rooms", func(t *testing.T) {
		rooms := &roomDirectoryStub{err: persistence.ErrNotFound}
		svc := NewReservationService(rooms, &slotStoreStub{})

		_, err := svc.BookFirstAvailable(context.Background(), baseRequest)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reports full rooms as a normal outcome", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{claimFirstErr: persistence.ErrNotFound}
		svc := NewReservationService(rooms, slots)

		outcome, err := svc.BookFirstAvailable(context.Background(), baseRequest)
		if err != nil {
			t.Fatalf("expected full room to be a business outcome, got error %v", err)
		}
		if outcome.Booked {
			t.Fatalf("expected booked=false for a full room")
		}
		if outcome.Message != "No available computers for the selected timeslot in room JM-101." {
			t.Fatalf("unexpected message: %q", outcome.Message)
		}
	})

	t.Run("returns the claimed slot as the booking", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{claimFirst: SlotRecord{ID: "slot-7", ComputerID: "JM-101-3", Day: "Monday", Timeslot: "9-11am"}}
		svc := NewReservationService(rooms, slots)

		outcome, err := svc.BookFirstAvailable(context.Background(), baseRequest)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !outcome.Booked || outcome.BookingID != "slot-7" || outcome.ComputerID != "JM-101-3" {
			t.Fatalf("unexpected outcome: %+v", outcome)
		}
	})
}

func TestReservationService_BookSpecificComputer(t *testing.T) {
	request := BookingRequest{
		UserName:     "alice",
		BuildingCode: "JM",
		RoomNumber:   101,
		ComputerID:   "JM-101-2",
		Day:          "Tuesday",
		Timeslot:     "1pm-3pm",
	}

	t.Run("books the exact computer when free", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{claimComputer: SlotRecord{ID: "slot-9", ComputerID: "JM-101-2", Day: "Tuesday", Timeslot: "1pm-3pm"}}
		svc := NewReservationService(rooms, slots)

		outcome, err := svc.BookSpecificComputer(context.Background(), request)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !outcome.Booked || outcome.BookingID != "slot-9" {
			t.Fatalf("unexpected outcome: %+v", outcome)
		}
		if outcome.Message != "Computer JM-101-2 successfully booked." {
			t.Fatalf("unexpected message: %q", outcome.Message)
		}
	})

	t.Run("reports occupied computers as already booked", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{claimComputerErr: persistence.ErrNotFound}
		svc := NewReservationService(rooms, slots)

		outcome, err := svc.BookSpecificComputer(context.Background(), request)
		if err != nil {
			t.Fatalf("expected occupied computer to be a business outcome, got error %v", err)
		}
		if outcome.Booked {
			t.Fatalf("expected booked=false, got %+v", outcome)
		}
		if outcome.Message != "This computer is already booked." {
			t.Fatalf("unexpected message: %q", outcome.Message)
		}
	})

	t.Run("reads the same for unknown computers", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{claimComputerErr: persistence.ErrNotFound}
		svc := NewReservationService(rooms, slots)

		unknown := request
		unknown.ComputerID = "JM-101-999"
		outcome, err := svc.BookSpecificComputer(context.Background(), unknown)
		if err != nil {
			t.Fatalf("expected business outcome, got error %v", err)
		}
		if outcome.Message != "This computer is already booked." {
			t.Fatalf("expected unknown computers to be indistinguishable from occupied ones, got %q", outcome.Message)
		}
	})
}

func TestReservationService_Cancel(t *testing.T) {
	t.Run("releases the user's own booking", func(t *testing.T) {
		slots := &slotStoreStub{}
		svc := NewReservationService(&roomDirectoryStub{}, slots)

		outcome, err := svc.Cancel(context.Background(), "slot-3", "alice")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !outcome.Cancelled {
			t.Fatalf("expected cancelled=true, got %+v", outcome)
		}
		if outcome.Message != "Booking canceled successfully." {
			t.Fatalf("unexpected message: %q", outcome.Message)
		}
		if slots.releasedSlotID != "slot-3" || slots.releasedForUser != "alice" {
			t.Fatalf("expected release for slot-3/alice, got %q/%q", slots.releasedSlotID, slots.releasedForUser)
		}
	})

	t.Run("reports foreign and unknown bookings identically", func(t *testing.T) {
		slots := &slotStoreStub{releaseErr: persistence.ErrNotFound}
		svc := NewReservationService(&roomDirectoryStub{}, slots)

		outcome, err := svc.Cancel(context.Background(), "slot-3", "mallory")
		if err != nil {
			t.Fatalf("expected business outcome, got error %v", err)
		}
		if outcome.Cancelled {
			t.Fatalf("expected cancelled=false, got %+v", outcome)
		}
		if outcome.Message != "No matching booking found for the current user." {
			t.Fatalf("unexpected message: %q", outcome.Message)
		}
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		storageErr := errors.New("disk gone")
		slots := &slotStoreStub{releaseErr: storageErr}
		svc := NewReservationService(&roomDirectoryStub{}, slots)

		_, err := svc.Cancel(context.Background(), "slot-3", "alice")
		if !errors.Is(err, storageErr) {
			t.Fatalf("expected storage error to propagate, got %v", err)
		}
	})
}

func TestReservationService_ComputersInRoom(t *testing.T) {
	gridSlots := []SlotRecord{
		{ID: "slot-1", ComputerID: "JM-101-1", Day: "Monday", Timeslot: "9-11am", Occupant: strPtr("alice")},
		{ID: "slot-2", ComputerID: "JM-101-1", Day: "Monday", Timeslot: "11am-1pm"},
		{ID: "slot-3", ComputerID: "JM-101-2", Day: "Monday", Timeslot: "9-11am", Occupant: strPtr("bob")},
	}

	t.Run("hides occupant names from regular users", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{slots: gridSlots}
		svc := NewReservationService(rooms, slots)

		views, err := svc.ComputersInRoom(context.Background(), Principal{UserName: "alice"}, "JM", 101, "Monday")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(views) != 3 {
			t.Fatalf("expected 3 views, got %d", len(views))
		}

		if !views[0].Booked || !views[0].BookedByRequester || views[0].BookedBy != nil {
			t.Fatalf("expected alice to see her own booking without the name, got %+v", views[0])
		}
		if views[1].Booked || views[1].BookedByRequester {
			t.Fatalf("expected free slot, got %+v", views[1])
		}
		if !views[2].Booked || views[2].BookedByRequester || views[2].BookedBy != nil {
			t.Fatalf("expected foreign booking without occupant name, got %+v", views[2])
		}
	})

	t.Run("exposes occupant names to administrators", func(t *testing.T) {
		rooms := &roomDirectoryStub{room: Room{ID: "room-1", BuildingCode: "JM", RoomNumber: 101}}
		slots := &slotStoreStub{slots: gridSlots}
		svc := NewReservationService(rooms, slots)

		views, err := svc.ComputersInRoom(context.Background(), Principal{UserName: "admin", IsAdmin: true}, "JM", 101, "Monday")
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if views[0].BookedBy == nil || *views[0].BookedBy != "alice" {
			t.Fatalf("expected admin to see occupant, got %+v", views[0])
		}
		if views[2].BookedBy == nil || *views[2].BookedBy != "bob" {
			t.Fatalf("expected admin to see occupant, got %+v", views[2])
		}
	})

	t.Run("rejects invalid days before touching storage", func(t *testing.T) {
		svc := NewReservationService(&roomDirectoryStub{}, &slotStoreStub{})

		_, err := svc.ComputersInRoom(context.Background(), Principal{UserName: "alice"}, "JM", 101, "Someday")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})

	t.Run("propagates ErrNotFound for unknown rooms", func(t *testing.T) {
		rooms := &roomDirectoryStub{err: persistence.ErrNotFound}
		svc := NewReservationService(rooms, &slotStoreStub{})

		_, err := svc.ComputersInRoom(context.Background(), Principal{UserName: "alice"}, "XX", 1, "Monday")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
