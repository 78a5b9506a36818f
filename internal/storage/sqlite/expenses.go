package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mbp16/travelnote/internal/models"
)

// Photo references are persisted as one comma-joined column.
func joinPhotoURIs(uris []string) any {
	if len(uris) == 0 {
		return nil
	}
	return strings.Join(uris, ",")
}

func splitPhotoURIs(col sql.NullString) []string {
	if !col.Valid || col.String == "" {
		return nil
	}
	return strings.Split(col.String, ",")
}

func insertExpense(ctx context.Context, q dbtx, expense *models.Expense) error {
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().UnixMilli()
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO expenses (trip_id, title, total_amount, description, photo_uris, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		expense.TripID, expense.Title, expense.TotalAmount, expense.Description,
		joinPhotoURIs(expense.PhotoURIs), expense.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	expense.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read expense id: %w", err)
	}
	return insertExpenseChildren(ctx, q, expense)
}

func insertExpenseChildren(ctx context.Context, q dbtx, expense *models.Expense) error {
	for i := range expense.Payments {
		pay := &expense.Payments[i]
		pay.ExpenseID = expense.ID
		res, err := q.ExecContext(ctx,
			"INSERT INTO payments (expense_id, person_id, amount, method) VALUES (?, ?, ?, ?)",
			pay.ExpenseID, pay.PersonID, pay.Amount, string(pay.Method),
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		if pay.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read payment id: %w", err)
		}
	}

	for i := range expense.Shares {
		share := &expense.Shares[i]
		share.ExpenseID = expense.ID
		res, err := q.ExecContext(ctx,
			"INSERT INTO expense_users (expense_id, person_id, amount, description) VALUES (?, ?, ?, ?)",
			share.ExpenseID, share.PersonID, share.Amount, share.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert share: %w", err)
		}
		if share.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read share id: %w", err)
		}
	}
	return nil
}

// CreateExpense persists an expense with its payments and shares in one
// transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (l *txLoader) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return insertExpense(ctx, l.tx, expense)
}

func (s *SQLiteStore) loadExpenseChildren(ctx context.Context, expense *models.Expense) error {
	payRows, err := s.db.QueryContext(ctx,
		"SELECT id, expense_id, person_id, amount, method FROM payments WHERE expense_id = ? ORDER BY id",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payments: %w", err)
	}
	defer payRows.Close()

	for payRows.Next() {
		var pay models.Payment
		var method string
		if err := payRows.Scan(&pay.ID, &pay.ExpenseID, &pay.PersonID, &pay.Amount, &method); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		pay.Method = models.PaymentMethod(method)
		expense.Payments = append(expense.Payments, pay)
	}
	if err := payRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payments: %w", err)
	}

	shareRows, err := s.db.QueryContext(ctx,
		"SELECT id, expense_id, person_id, amount, description FROM expense_users WHERE expense_id = ? ORDER BY id",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		var share models.Share
		if err := shareRows.Scan(&share.ID, &share.ExpenseID, &share.PersonID, &share.Amount, &share.Description); err != nil {
			return fmt.Errorf("failed to scan share: %w", err)
		}
		expense.Shares = append(expense.Shares, share)
	}
	if err := shareRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate shares: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense with payments and shares loaded.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID int64) (*models.Expense, error) {
	expense := &models.Expense{}
	var photos sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, title, total_amount, description, photo_uris, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.TripID, &expense.Title, &expense.TotalAmount,
		&expense.Description, &photos, &expense.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense not found: %d", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.PhotoURIs = splitPhotoURIs(photos)

	if err := s.loadExpenseChildren(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// ListExpensesByTrip returns the trip's expenses, newest first, with
// payments and shares loaded.
func (s *SQLiteStore) ListExpensesByTrip(ctx context.Context, tripID int64) ([]models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, title, total_amount, description, photo_uris, created_at
		 FROM expenses WHERE trip_id = ? ORDER BY created_at DESC, id DESC`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []models.Expense
	for rows.Next() {
		var expense models.Expense
		var photos sql.NullString
		if err := rows.Scan(&expense.ID, &expense.TripID, &expense.Title, &expense.TotalAmount,
			&expense.Description, &photos, &expense.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.PhotoURIs = splitPhotoURIs(photos)
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for i := range expenses {
		if err := s.loadExpenseChildren(ctx, &expenses[i]); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

// UpdateExpense rewrites the expense row and replaces its payments and
// shares wholesale, mirroring how the expense edit screen resubmits the
// full payment list.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET title = ?, total_amount = ?, description = ?, photo_uris = ?, created_at = ?
		 WHERE id = ?`,
		expense.Title, expense.TotalAmount, expense.Description,
		joinPhotoURIs(expense.PhotoURIs), expense.CreatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense not found: %d", expense.ID)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_users WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to clear shares: %w", err)
	}
	if err := insertExpenseChildren(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; cascades take payments and shares.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense not found: %d", expenseID)
	}
	return nil
}
