package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/example/lab-reservation/internal/persistence"
)

// ClaimFirstAvailable picks any free slot for the room, day and
// timeslot and assigns occupant to it. The pick and the write share one
// transaction, and the UPDATE re-checks `occupant IS NULL`, so two
// racing claims can never land on the same row.
func (s *Storage) ClaimFirstAvailable(ctx context.Context, roomID, day, timeslot, occupant string) (persistence.Slot, error) {
	var claimed persistence.Slot
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, room_id, computer_id, day, timeslot
			 FROM slots
			 WHERE room_id = ? AND day = ? AND timeslot = ? AND occupant IS NULL
			 LIMIT 1`,
			roomID, day, timeslot,
		)
		if err := row.Scan(&claimed.ID, &claimed.RoomID, &claimed.ComputerID, &claimed.Day, &claimed.Timeslot); err != nil {
			return mapError(err)
		}
		return assignOccupant(ctx, tx, claimed.ID, occupant)
	})
	if err != nil {
		return persistence.Slot{}, err
	}
	claimed.Occupant = &occupant
	return claimed, nil
}

// ClaimComputer assigns occupant to the exact slot, only if free.
// Absent and occupied slots are indistinguishable to the caller: both
// report ErrNotFound.
func (s *Storage) ClaimComputer(ctx context.Context, roomID, computerID, day, timeslot, occupant string) (persistence.Slot, error) {
	var claimed persistence.Slot
	err := s.withTransaction(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT id, room_id, computer_id, day, timeslot
			 FROM slots
			 WHERE room_id = ? AND computer_id = ? AND day = ? AND timeslot = ? AND occupant IS NULL`,
			roomID, computerID, day, timeslot,
		)
		if err := row.Scan(&claimed.ID, &claimed.RoomID, &claimed.ComputerID, &claimed.Day, &claimed.Timeslot); err != nil {
			return mapError(err)
		}
		return assignOccupant(ctx, tx, claimed.ID, occupant)
	})
	if err != nil {
		return persistence.Slot{}, err
	}
	claimed.Occupant = &occupant
	return claimed, nil
}

// assignOccupant writes the occupant, guarding again on the slot still
// being free inside the same transaction.
func assignOccupant(ctx context.Context, tx *sql.Tx, slotID, occupant string) error {
	result, err := tx.ExecContext(ctx,
		`UPDATE slots SET occupant = ? WHERE id = ? AND occupant IS NULL`,
		occupant, slotID,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ReleaseSlot clears the occupant only where it currently equals
// occupant. A single guarded UPDATE makes the check-and-clear atomic;
// the affected-row count distinguishes "cancelled" from "nothing to
// cancel" without revealing who holds the slot.
func (s *Storage) ReleaseSlot(ctx context.Context, slotID, occupant string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE slots SET occupant = NULL WHERE id = ? AND occupant = ?`,
		slotID, occupant,
	)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListSlotsForRoomDay returns every slot for the room and day, occupied
// or not, ordered by computer then timeslot for a stable grid feed.
func (s *Storage) ListSlotsForRoomDay(ctx context.Context, roomID, day string) ([]persistence.Slot, error) {
	return s.querySlots(ctx,
		`SELECT id, room_id, computer_id, day, timeslot, occupant
		 FROM slots
		 WHERE room_id = ? AND day = ?
		 ORDER BY computer_id, timeslot`,
		roomID, day,
	)
}

// ListBookingsForRoomDay returns only the occupied slots for the room
// and day.
func (s *Storage) ListBookingsForRoomDay(ctx context.Context, roomID, day string) ([]persistence.Slot, error) {
	return s.querySlots(ctx,
		`SELECT id, room_id, computer_id, day, timeslot, occupant
		 FROM slots
		 WHERE room_id = ? AND day = ? AND occupant IS NOT NULL
		 ORDER BY computer_id, timeslot`,
		roomID, day,
	)
}

func (s *Storage) querySlots(ctx context.Context, query string, args ...any) ([]persistence.Slot, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var slots []persistence.Slot
	for rows.Next() {
		slot, err := scanSlot(rows.Scan)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return slots, nil
}

// ListBookingsForUser returns every occupied slot held by occupant
// across all rooms, joined with the room attributes.
func (s *Storage) ListBookingsForUser(ctx context.Context, occupant string) ([]persistence.BookingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT s.id, s.room_id, s.computer_id, s.day, s.timeslot, s.occupant,
		        r.id, r.building_code, r.room_number, r.operating_system, r.created_at, r.updated_at
		 FROM slots s
		 INNER JOIN rooms r ON r.id = s.room_id
		 WHERE s.occupant = ?
		 ORDER BY r.building_code, r.room_number, s.day, s.timeslot, s.computer_id`,
		occupant,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var records []persistence.BookingRecord
	for rows.Next() {
		var (
			record                     persistence.BookingRecord
			occupantValue              sql.NullString
			createdAtStr, updatedAtStr string
		)
		err := rows.Scan(
			&record.Slot.ID,
			&record.Slot.RoomID,
			&record.Slot.ComputerID,
			&record.Slot.Day,
			&record.Slot.Timeslot,
			&occupantValue,
			&record.Room.ID,
			&record.Room.BuildingCode,
			&record.Room.RoomNumber,
			&record.Room.OperatingSystem,
			&createdAtStr,
			&updatedAtStr,
		)
		if err != nil {
			return nil, mapError(err)
		}
		if occupantValue.Valid {
			value := occupantValue.String
			record.Slot.Occupant = &value
		}
		if record.Room.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
			return nil, err
		}
		if record.Room.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return records, nil
}

func scanSlot(scan func(dest ...any) error) (persistence.Slot, error) {
	var (
		slot          persistence.Slot
		occupantValue sql.NullString
	)
	err := scan(&slot.ID, &slot.RoomID, &slot.ComputerID, &slot.Day, &slot.Timeslot, &occupantValue)
	if err != nil {
		return persistence.Slot{}, mapError(err)
	}
	if occupantValue.Valid {
		value := occupantValue.String
		slot.Occupant = &value
	}
	return slot, nil
}
