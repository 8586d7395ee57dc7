package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lab-reservation/internal/persistence"
)

// CreateRoomWithSlots inserts the room and its entire slot grid inside
// one transaction. The duplicate check and the inserts share the
// transaction so a racing creation of the same room cannot slip between
// them; either all rows land or none do.
func (s *Storage) CreateRoomWithSlots(ctx context.Context, room persistence.Room, slots []persistence.Slot) error {
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = room.CreatedAt
	}

	return s.withTransaction(ctx, func(tx *sql.Tx) error {
		var existing string
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM rooms WHERE building_code = ? AND room_number = ?`,
			room.BuildingCode, room.RoomNumber,
		).Scan(&existing)
		switch {
		case err == nil:
			return persistence.ErrDuplicate
		case !errors.Is(err, sql.ErrNoRows):
			return mapError(err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO rooms (id, building_code, room_number, operating_system, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			room.ID,
			room.BuildingCode,
			room.RoomNumber,
			room.OperatingSystem,
			room.CreatedAt.Format(time.RFC3339),
			room.UpdatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return mapError(err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO slots (id, room_id, computer_id, day, timeslot, occupant)
			 VALUES (?, ?, ?, ?, ?, NULL)`,
		)
		if err != nil {
			return mapError(err)
		}
		defer stmt.Close()

		for _, slot := range slots {
			if _, err := stmt.ExecContext(ctx, slot.ID, room.ID, slot.ComputerID, slot.Day, slot.Timeslot); err != nil {
				return mapError(err)
			}
		}
		return nil
	})
}

// GetRoomByNumber retrieves a room by its building code and room number.
func (s *Storage) GetRoomByNumber(ctx context.Context, buildingCode string, roomNumber int) (persistence.Room, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, building_code, room_number, operating_system, created_at, updated_at
		 FROM rooms WHERE building_code = ? AND room_number = ?`,
		buildingCode, roomNumber,
	)
	return scanRoom(row.Scan)
}

// UpdateOperatingSystem changes only the room's operating system label.
func (s *Storage) UpdateOperatingSystem(ctx context.Context, buildingCode string, roomNumber int, operatingSystem string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE rooms SET operating_system = ?, updated_at = ?
		 WHERE building_code = ? AND room_number = ?`,
		operatingSystem,
		time.Now().UTC().Format(time.RFC3339),
		buildingCode, roomNumber,
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

// SearchRooms returns rooms matching the filter in storage iteration
// order. Empty filter fields match everything.
func (s *Storage) SearchRooms(ctx context.Context, filter persistence.RoomFilter) ([]persistence.Room, error) {
	query := `SELECT id, building_code, room_number, operating_system, created_at, updated_at FROM rooms`
	var (
		conditions []string
		args       []any
	)
	if filter.BuildingCode != "" {
		conditions = append(conditions, "building_code = ?")
		args = append(args, filter.BuildingCode)
	}
	if filter.OperatingSystem != "" {
		conditions = append(conditions, "operating_system = ?")
		args = append(args, filter.OperatingSystem)
	}
	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return rooms, nil
}

func scanRoom(scan func(dest ...any) error) (persistence.Room, error) {
	var (
		room                       persistence.Room
		createdAtStr, updatedAtStr string
	)
	err := scan(
		&room.ID,
		&room.BuildingCode,
		&room.RoomNumber,
		&room.OperatingSystem,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Room{}, mapError(err)
	}

	if room.CreatedAt, err = parseTimestamp(createdAtStr); err != nil {
		return persistence.Room{}, err
	}
	if room.UpdatedAt, err = parseTimestamp(updatedAtStr); err != nil {
		return persistence.Room{}, err
	}
	return room, nil
}
