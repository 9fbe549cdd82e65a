package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice/internal/models"
)

const staffColumns = `id, name, phone, role, availability_status, salary, joining_date,
	emirates_id, passport, visa, labour_card, created_at, updated_at`

func scanStaff(row rowScanner) (*models.Staff, error) {
	var (
		s                                   models.Staff
		role, emiratesID, passport, visa, lc sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.Name, &s.Phone, &role, &s.AvailabilityStatus, &s.Salary, &s.JoiningDate,
		&emiratesID, &passport, &visa, &lc, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Role = role.String
	s.Documents = models.StaffDocuments{
		EmiratesID: emiratesID.String,
		Passport:   passport.String,
		Visa:       visa.String,
		LabourCard: lc.String,
	}
	return &s, nil
}

// CreateStaff inserts a staff member. Availability defaults to free and the
// joining date to now.
func (db *DB) CreateStaff(ctx context.Context, staff *models.Staff) error {
	now := time.Now()
	if staff.AvailabilityStatus == "" {
		staff.AvailabilityStatus = models.AvailabilityFree
	}
	if staff.JoiningDate.IsZero() {
		staff.JoiningDate = now
	}

	query := `INSERT INTO staff (
				name, phone, role, availability_status, salary, joining_date,
				emirates_id, passport, visa, labour_card, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		staff.Name,
		staff.Phone,
		nullString(staff.Role),
		staff.AvailabilityStatus,
		staff.Salary,
		utc(staff.JoiningDate),
		nullString(staff.Documents.EmiratesID),
		nullString(staff.Documents.Passport),
		nullString(staff.Documents.Visa),
		nullString(staff.Documents.LabourCard),
		utc(now),
		utc(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", mapError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	staff.ID = id
	staff.CreatedAt = now
	staff.UpdatedAt = now
	return nil
}

func (db *DB) GetStaff(ctx context.Context, phone string) (*models.Staff, error) {
	query := `SELECT ` + staffColumns + ` FROM staff WHERE phone = ?`
	s, err := scanStaff(db.QueryRowContext(ctx, query, phone))
	if err != nil {
		return nil, fmt.Errorf("failed to get staff %s: %w", phone, mapError(err))
	}
	return s, nil
}

func (db *DB) UpdateStaff(ctx context.Context, staff *models.Staff) error {
	query := `UPDATE staff SET
				name = ?, phone = ?, role = ?, availability_status = ?, salary = ?,
				emirates_id = ?, passport = ?, visa = ?, labour_card = ?, updated_at = ?
			WHERE id = ?`
	now := time.Now()
	res, err := db.ExecContext(ctx, query,
		staff.Name,
		staff.Phone,
		nullString(staff.Role),
		staff.AvailabilityStatus,
		staff.Salary,
		nullString(staff.Documents.EmiratesID),
		nullString(staff.Documents.Passport),
		nullString(staff.Documents.Visa),
		nullString(staff.Documents.LabourCard),
		utc(now),
		staff.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update staff %d: %w", staff.ID, mapError(err))
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to update staff %d: %w", staff.ID, err)
	}
	staff.UpdatedAt = now
	return nil
}

func (db *DB) DeleteStaff(ctx context.Context, phone string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM staff WHERE phone = ?`, phone)
	if err != nil {
		return fmt.Errorf("failed to delete staff %s: %w", phone, err)
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to delete staff %s: %w", phone, err)
	}
	return nil
}

func (db *DB) ListStaff(ctx context.Context) ([]*models.Staff, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+staffColumns+` FROM staff ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	var list []*models.Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}
