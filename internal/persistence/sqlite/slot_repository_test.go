package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/example/lab-reservation/internal/persistence"
	"github.com/example/lab-reservation/internal/testfixtures"
)

func createRoom(t *testing.T, harness *testfixtures.SQLiteHarness, computerCount int) testfixtures.RoomFixture {
	t.Helper()
	fixture := testfixtures.NewRoomFixture(computerCount)
	if err := harness.Storage.CreateRoomWithSlots(context.Background(), fixture.Room, fixture.Slots); err != nil {
		t.Fatalf("CreateRoomWithSlots failed: %v", err)
	}
	return fixture
}

func TestSlotRepository_ClaimFirstAvailable(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	fixture := createRoom(t, harness, 5)

	claimed, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "9-11am", "alice")
	if err != nil {
		t.Fatalf("ClaimFirstAvailable failed: %v", err)
	}
	if claimed.Occupant == nil || *claimed.Occupant != "alice" {
		t.Fatalf("expected claimed slot to carry the occupant, got %v", claimed.Occupant)
	}
	if claimed.Day != "Monday" || claimed.Timeslot != "9-11am" {
		t.Fatalf("claimed slot does not match request: %+v", claimed)
	}

	// A second claim for the same cell must land on a different computer.
	second, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "9-11am", "bob")
	if err != nil {
		t.Fatalf("second ClaimFirstAvailable failed: %v", err)
	}
	if second.ComputerID == claimed.ComputerID {
		t.Fatalf("expected a different computer, both claims got %q", second.ComputerID)
	}
}

func TestSlotRepository_ClaimFirstAvailable_FullTimeslot(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	fixture := createRoom(t, harness, 5)

	for i := 0; i < 5; i++ {
		if _, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "9-11am", "alice"); err != nil {
			t.Fatalf("claim %d failed: %v", i, err)
		}
	}

	_, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "9-11am", "bob")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound when the timeslot is full, got %v", err)
	}

	// The same computers remain free in other timeslots.
	if _, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "11am-1pm", "bob"); err != nil {
		t.Fatalf("expected other timeslots to stay available, got %v", err)
	}
}

func TestSlotRepository_ClaimComputer(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	fixture := createRoom(t, harness, 5)
	computerID := fixture.Slots[0].ComputerID

	claimed, err := harness.Storage.ClaimComputer(ctx, fixture.Room.ID, computerID, "Tuesday", "1pm-3pm", "alice")
	if err != nil {
		t.Fatalf("ClaimComputer failed: %v", err)
	}
	if claimed.ComputerID != computerID {
		t.Fatalf("expected computer %q, got %q", computerID, claimed.ComputerID)
	}

	// Occupied and absent computers both read as not found.
	_, err = harness.Storage.ClaimComputer(ctx, fixture.Room.ID, computerID, "Tuesday", "1pm-3pm", "bob")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an occupied computer, got %v", err)
	}
	_, err = harness.Storage.ClaimComputer(ctx, fixture.Room.ID, "JM-999-1", "Tuesday", "1pm-3pm", "bob")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for an unknown computer, got %v", err)
	}
}

func TestSlotRepository_ReleaseSlot(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	fixture := createRoom(t, harness, 5)

	claimed, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Wednesday", "3pm-5pm", "alice")
	if err != nil {
		t.Fatalf("ClaimFirstAvailable failed: %v", err)
	}

	// Someone else cannot release it, and the slot stays occupied.
	err = harness.Storage.ReleaseSlot(ctx, claimed.ID, "mallory")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a non-occupant release, got %v", err)
	}
	bookings, err := harness.Storage.ListBookingsForRoomDay(ctx, fixture.Room.ID, "Wednesday")
	if err != nil {
		t.Fatalf("ListBookingsForRoomDay failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("expected the booking to survive a foreign release, got %d bookings", len(bookings))
	}

	// The occupant can release it, after which the slot is claimable again.
	if err := harness.Storage.ReleaseSlot(ctx, claimed.ID, "alice"); err != nil {
		t.Fatalf("ReleaseSlot failed: %v", err)
	}
	err = harness.Storage.ReleaseSlot(ctx, claimed.ID, "alice")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a second release, got %v", err)
	}
	reclaimed, err := harness.Storage.ClaimComputer(ctx, fixture.Room.ID, claimed.ComputerID, "Wednesday", "3pm-5pm", "bob")
	if err != nil {
		t.Fatalf("expected released slot to be claimable, got %v", err)
	}
	if reclaimed.ID != claimed.ID {
		t.Fatalf("expected the same slot row, got %q and %q", reclaimed.ID, claimed.ID)
	}
}

func TestSlotRepository_ConcurrentClaims(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	fixture := createRoom(t, harness, 5)

	// Leave exactly one free slot for Monday 9-11am.
	for i := 0; i < 4; i++ {
		if _, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "9-11am", "filler"); err != nil {
			t.Fatalf("setup claim failed: %v", err)
		}
	}

	const racers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []string
		notFounds int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			_, err := harness.Storage.ClaimFirstAvailable(ctx, fixture.Room.ID, "Monday", "9-11am", user)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, user)
			case errors.Is(err, persistence.ErrNotFound):
				notFounds++
			default:
				t.Errorf("unexpected claim error for %s: %v", user, err)
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner for the last slot, got %d (%v)", len(winners), winners)
	}
	if notFounds != racers-1 {
		t.Fatalf("expected %d losers, got %d", racers-1, notFounds)
	}
}

func TestSlotRepository_ListBookingsForUser(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	first := createRoom(t, harness, 5)
	second := createRoom(t, harness, 5)

	if _, err := harness.Storage.ClaimFirstAvailable(ctx, first.Room.ID, "Monday", "9-11am", "alice"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := harness.Storage.ClaimFirstAvailable(ctx, second.Room.ID, "Friday", "3pm-5pm", "alice"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if _, err := harness.Storage.ClaimFirstAvailable(ctx, first.Room.ID, "Monday", "9-11am", "bob"); err != nil {
		t.Fatalf("claim failed: %v", err)
	}

	records, err := harness.Storage.ListBookingsForUser(ctx, "alice")
	if err != nil {
		t.Fatalf("ListBookingsForUser failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 bookings for alice, got %d", len(records))
	}
	roomIDs := map[string]bool{}
	for _, record := range records {
		if record.Slot.Occupant == nil || *record.Slot.Occupant != "alice" {
			t.Errorf("expected only alice's bookings, got %+v", record.Slot)
		}
		if record.Room.ID != record.Slot.RoomID {
			t.Errorf("expected joined room to match slot, got %q and %q", record.Room.ID, record.Slot.RoomID)
		}
		roomIDs[record.Room.ID] = true
	}
	if !roomIDs[first.Room.ID] || !roomIDs[second.Room.ID] {
		t.Errorf("expected bookings across both rooms, got %v", roomIDs)
	}

	none, err := harness.Storage.ListBookingsForUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListBookingsForUser failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no bookings for an unknown user, got %d", len(none))
	}
}
