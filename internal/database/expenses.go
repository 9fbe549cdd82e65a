package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice/internal/models"
)

const expenseColumns = `id, category, description, amount, date, created_at, updated_at`

func scanExpense(row rowScanner) (*models.Expense, error) {
	var (
		e    models.Expense
		desc sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Category, &desc, &e.Amount, &e.Date, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Description = desc.String
	return &e, nil
}

func (db *DB) CreateExpense(ctx context.Context, expense *models.Expense) error {
	now := time.Now()
	if expense.Date.IsZero() {
		expense.Date = now
	}
	query := `INSERT INTO expenses (category, description, amount, date, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		expense.Category,
		nullString(expense.Description),
		expense.Amount,
		utc(expense.Date),
		utc(now),
		utc(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	expense.ID = id
	expense.CreatedAt = now
	expense.UpdatedAt = now
	return nil
}

func (db *DB) GetExpense(ctx context.Context, id int64) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`
	e, err := scanExpense(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get expense %d: %w", id, mapError(err))
	}
	return e, nil
}

func (db *DB) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	query := `UPDATE expenses SET category = ?, description = ?, amount = ?, date = ?, updated_at = ? WHERE id = ?`
	now := time.Now()
	res, err := db.ExecContext(ctx, query,
		expense.Category,
		nullString(expense.Description),
		expense.Amount,
		utc(expense.Date),
		utc(now),
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense %d: %w", expense.ID, err)
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to update expense %d: %w", expense.ID, err)
	}
	expense.UpdatedAt = now
	return nil
}

func (db *DB) DeleteExpense(ctx context.Context, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense %d: %w", id, err)
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to delete expense %d: %w", id, err)
	}
	return nil
}

// ListExpenses returns the newest expenses first. A non-positive limit returns all.
func (db *DB) ListExpenses(ctx context.Context, limit int) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses ORDER BY created_at DESC, id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}
