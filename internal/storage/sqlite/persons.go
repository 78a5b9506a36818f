package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mbp16/travelnote/internal/models"
)

func insertPerson(ctx context.Context, q dbtx, person *models.Person) error {
	res, err := q.ExecContext(ctx,
		"INSERT INTO persons (trip_id, name) VALUES (?, ?)",
		person.TripID, person.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	person.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read person id: %w", err)
	}
	return nil
}

// CreatePerson persists a new person and populates its ID.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	return insertPerson(ctx, s.db, person)
}

func (l *txLoader) CreatePerson(ctx context.Context, person *models.Person) error {
	return insertPerson(ctx, l.tx, person)
}

// ListPersonsByTrip returns the trip's persons ordered by insertion. This
// order is the stable iteration order the settlement solver relies on.
func (s *SQLiteStore) ListPersonsByTrip(ctx context.Context, tripID int64) ([]models.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, trip_id, name FROM persons WHERE trip_id = ? ORDER BY id",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []models.Person
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.ID, &p.TripID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate persons: %w", err)
	}
	return persons, nil
}

// UpdatePerson renames a person.
func (s *SQLiteStore) UpdatePerson(ctx context.Context, person *models.Person) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE persons SET name = ? WHERE id = ?",
		person.Name, person.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person not found: %d", person.ID)
	}
	return nil
}

// DeletePerson removes a person; cascades take their cash entries, payments,
// and shares along.
func (s *SQLiteStore) DeletePerson(ctx context.Context, personID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM persons WHERE id = ?", personID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("person not found: %d", personID)
	}
	return nil
}

func insertCashEntry(ctx context.Context, q dbtx, entry *models.CashEntry) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().UnixMilli()
	}
	res, err := q.ExecContext(ctx,
		"INSERT INTO cash_entries (person_id, amount, description, created_at) VALUES (?, ?, ?, ?)",
		entry.PersonID, entry.Amount, entry.Description, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cash entry: %w", err)
	}
	entry.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read cash entry id: %w", err)
	}
	return nil
}

// CreateCashEntry persists a new cash entry and populates its ID.
func (s *SQLiteStore) CreateCashEntry(ctx context.Context, entry *models.CashEntry) error {
	return insertCashEntry(ctx, s.db, entry)
}

func (l *txLoader) CreateCashEntry(ctx context.Context, entry *models.CashEntry) error {
	return insertCashEntry(ctx, l.tx, entry)
}

func scanCashEntries(rows *sql.Rows) ([]models.CashEntry, error) {
	var entries []models.CashEntry
	for rows.Next() {
		var e models.CashEntry
		if err := rows.Scan(&e.ID, &e.PersonID, &e.Amount, &e.Description, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cash entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cash entries: %w", err)
	}
	return entries, nil
}

// ListCashEntriesByPerson returns a person's cash entries, newest first.
func (s *SQLiteStore) ListCashEntriesByPerson(ctx context.Context, personID int64) ([]models.CashEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, person_id, amount, description, created_at
		 FROM cash_entries WHERE person_id = ? ORDER BY created_at DESC, id DESC`,
		personID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash entries: %w", err)
	}
	defer rows.Close()
	return scanCashEntries(rows)
}

// ListCashEntriesByTrip returns entries for every person on the trip.
func (s *SQLiteStore) ListCashEntriesByTrip(ctx context.Context, tripID int64) ([]models.CashEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.id, c.person_id, c.amount, c.description, c.created_at
		 FROM cash_entries c JOIN persons p ON p.id = c.person_id
		 WHERE p.trip_id = ? ORDER BY c.created_at DESC, c.id DESC`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cash entries: %w", err)
	}
	defer rows.Close()
	return scanCashEntries(rows)
}

// UpdateCashEntry rewrites an entry's amount, note, and timestamp.
func (s *SQLiteStore) UpdateCashEntry(ctx context.Context, entry *models.CashEntry) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cash_entries SET amount = ?, description = ?, created_at = ? WHERE id = ?",
		entry.Amount, entry.Description, entry.CreatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update cash entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cash entry not found: %d", entry.ID)
	}
	return nil
}

// DeleteCashEntry removes an entry.
func (s *SQLiteStore) DeleteCashEntry(ctx context.Context, entryID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cash_entries WHERE id = ?", entryID)
	if err != nil {
		return fmt.Errorf("failed to delete cash entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("cash entry not found: %d", entryID)
	}
	return nil
}
