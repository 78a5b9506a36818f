package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mbp16/travelnote/internal/models"
)

func insertTrip(ctx context.Context, q dbtx, trip *models.Trip) error {
	res, err := q.ExecContext(ctx,
		"INSERT INTO trips (name, start_date, end_date, currency) VALUES (?, ?, ?, ?)",
		trip.Name, trip.StartDate, trip.EndDate, trip.Currency,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	trip.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trip id: %w", err)
	}
	return nil
}

// CreateTrip persists a new trip and populates its ID.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return insertTrip(ctx, s.db, trip)
}

func (l *txLoader) CreateTrip(ctx context.Context, trip *models.Trip) error {
	return insertTrip(ctx, l.tx, trip)
}

// GetTrip retrieves a trip by ID.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID int64) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, start_date, end_date, currency FROM trips WHERE id = ?",
		tripID,
	).Scan(&trip.ID, &trip.Name, &trip.StartDate, &trip.EndDate, &trip.Currency)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip not found: %d", tripID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTrips returns all trips ordered by start date, newest first.
func (s *SQLiteStore) ListTrips(ctx context.Context) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, start_date, end_date, currency FROM trips ORDER BY start_date DESC, id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []models.Trip
	for rows.Next() {
		var trip models.Trip
		if err := rows.Scan(&trip.ID, &trip.Name, &trip.StartDate, &trip.EndDate, &trip.Currency); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// UpdateTrip updates an existing trip's scalar fields.
func (s *SQLiteStore) UpdateTrip(ctx context.Context, trip *models.Trip) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE trips SET name = ?, start_date = ?, end_date = ?, currency = ? WHERE id = ?",
		trip.Name, trip.StartDate, trip.EndDate, trip.Currency, trip.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trip not found: %d", trip.ID)
	}
	return nil
}

// DeleteTrip removes a trip; foreign keys cascade to persons, cash entries,
// expenses, payments, and shares.
func (s *SQLiteStore) DeleteTrip(ctx context.Context, tripID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("trip not found: %d", tripID)
	}
	return nil
}
