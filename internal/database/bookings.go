package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"backoffice/internal/models"
)

const bookingColumns = `id, booking_id, client_phone, service_type, duration, requested_date,
	slot_start, slot_end, amount, payment_method, profit_share, shared, status,
	assigned_staff, source, group_chat_id, group_message_id, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var (
		b          models.Booking
		service    sql.NullString
		payment    sql.NullString
		profit     sql.NullString
		staff      sql.NullString
		groupChat  sql.NullInt64
		groupMsgID sql.NullInt64
	)
	err := row.Scan(
		&b.ID, &b.BookingID, &b.ClientPhone, &service, &b.Duration, &b.RequestedDate,
		&b.SlotStart, &b.SlotEnd, &b.Amount, &payment, &profit, &b.Shared, &b.Status,
		&staff, &b.Source, &groupChat, &groupMsgID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.ServiceType = service.String
	b.PaymentMethod = payment.String
	b.ProfitShare = profit.String
	b.AssignedStaff = staff.String
	b.GroupChatID = groupChat.Int64
	b.GroupMessageID = int(groupMsgID.Int64)
	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*models.Booking, error) {
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}

func mirrorArgs(b *models.Booking) (sql.NullInt64, sql.NullInt64) {
	if !b.HasMirror() {
		return sql.NullInt64{}, sql.NullInt64{}
	}
	return sql.NullInt64{Int64: b.GroupChatID, Valid: true}, sql.NullInt64{Int64: int64(b.GroupMessageID), Valid: true}
}

// CreateBooking inserts a booking. A taken booking_id yields ErrDuplicate.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO bookings (
				booking_id, client_phone, service_type, duration, requested_date,
				slot_start, slot_end, amount, payment_method, profit_share, shared, status,
				assigned_staff, source, group_chat_id, group_message_id, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	groupChat, groupMsg := mirrorArgs(booking)
	result, err := db.ExecContext(ctx, query,
		booking.BookingID,
		booking.ClientPhone,
		nullString(booking.ServiceType),
		booking.Duration,
		utc(booking.RequestedDate),
		utc(booking.SlotStart),
		utc(booking.SlotEnd),
		booking.Amount,
		nullString(booking.PaymentMethod),
		nullString(booking.ProfitShare),
		booking.Shared,
		booking.Status,
		nullString(booking.AssignedStaff),
		booking.Source,
		groupChat,
		groupMsg,
		utc(now),
		utc(now),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", mapError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = ?`
	b, err := scanBooking(db.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s: %w", bookingID, mapError(err))
	}
	return b, nil
}

// UpdateBooking overwrites every mutable column of the booking identified by BookingID.
func (db *DB) UpdateBooking(ctx context.Context, booking *models.Booking) error {
	query := `UPDATE bookings SET
				client_phone = ?, service_type = ?, duration = ?, requested_date = ?,
				slot_start = ?, slot_end = ?, amount = ?, payment_method = ?, profit_share = ?,
				shared = ?, status = ?, assigned_staff = ?, source = ?,
				group_chat_id = ?, group_message_id = ?, updated_at = ?
			WHERE booking_id = ?`
	now := time.Now()
	groupChat, groupMsg := mirrorArgs(booking)
	res, err := db.ExecContext(ctx, query,
		booking.ClientPhone,
		nullString(booking.ServiceType),
		booking.Duration,
		utc(booking.RequestedDate),
		utc(booking.SlotStart),
		utc(booking.SlotEnd),
		booking.Amount,
		nullString(booking.PaymentMethod),
		nullString(booking.ProfitShare),
		booking.Shared,
		booking.Status,
		nullString(booking.AssignedStaff),
		booking.Source,
		groupChat,
		groupMsg,
		utc(now),
		booking.BookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking %s: %w", booking.BookingID, mapError(err))
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to update booking %s: %w", booking.BookingID, err)
	}
	booking.UpdatedAt = now
	return nil
}

// SetBookingMirror stores the receiver chat message reference. Zero values clear it.
func (db *DB) SetBookingMirror(ctx context.Context, bookingID string, chatID int64, messageID int) error {
	ref := &models.Booking{GroupChatID: chatID, GroupMessageID: messageID}
	groupChat, groupMsg := mirrorArgs(ref)
	res, err := db.ExecContext(ctx,
		`UPDATE bookings SET group_chat_id = ?, group_message_id = ?, updated_at = ? WHERE booking_id = ?`,
		groupChat, groupMsg, utc(time.Now()), bookingID,
	)
	if err != nil {
		return fmt.Errorf("failed to set mirror for booking %s: %w", bookingID, err)
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to set mirror for booking %s: %w", bookingID, err)
	}
	return nil
}

func (db *DB) DeleteBooking(ctx context.Context, bookingID string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM bookings WHERE booking_id = ?`, bookingID)
	if err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", bookingID, err)
	}
	if err := ensureAffected(res); err != nil {
		return fmt.Errorf("failed to delete booking %s: %w", bookingID, err)
	}
	return nil
}

// ListRecentBookings returns the newest bookings first. limit <= 0 returns all.
func (db *DB) ListRecentBookings(ctx context.Context, limit int) ([]*models.Booking, error) {
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return scanBookings(rows)
}

func (db *DB) ListBookingsByStatus(ctx context.Context, status string, limit int) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? ORDER BY created_at DESC, id DESC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s bookings: %w", status, err)
	}
	return scanBookings(rows)
}

// ListCompletedBookingsSince returns Completed bookings whose requested date is at or after start.
func (db *DB) ListCompletedBookingsSince(ctx context.Context, start time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status = ? AND requested_date >= ?
              ORDER BY requested_date ASC`
	rows, err := db.QueryContext(ctx, query, models.StatusCompleted, utc(start))
	if err != nil {
		return nil, fmt.Errorf("failed to list completed bookings: %w", err)
	}
	return scanBookings(rows)
}

// StaffBookingStats counts and sums bookings assigned to staff with one of statuses.
// Nil bounds leave that side of the requested date range open.
func (db *DB) StaffBookingStats(ctx context.Context, staff string, statuses []string, from, to *time.Time) (int, float64, error) {
	var (
		sb   strings.Builder
		args = []interface{}{staff}
	)
	sb.WriteString(`SELECT COUNT(*), COALESCE(SUM(amount), 0.0) FROM bookings WHERE assigned_staff = ?`)

	if len(statuses) > 0 {
		sb.WriteString(` AND status IN (?` + strings.Repeat(`, ?`, len(statuses)-1) + `)`)
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	if from != nil {
		sb.WriteString(` AND requested_date >= ?`)
		args = append(args, utc(*from))
	}
	if to != nil {
		sb.WriteString(` AND requested_date <= ?`)
		args = append(args, utc(*to))
	}

	var (
		count int
		sum   float64
	)
	if err := db.QueryRowContext(ctx, sb.String(), args...).Scan(&count, &sum); err != nil {
		return 0, 0, fmt.Errorf("failed to get stats for %s: %w", staff, err)
	}
	return count, sum, nil
}
