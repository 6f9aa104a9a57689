package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coachbook/internal/models"
)

const bookingDetailsQuery = `
        SELECT b.id, b.service_id, b.date, b.start_time, b.end_time, b.client_email,
               b.created_at, b.updated_at,
               s.id, s.name, s.duration_minutes, s.is_active
        FROM client_bookings b
        JOIN services s ON s.id = b.service_id`

// BookedStartTimes returns the start times already taken on date.
func (db *DB) BookedStartTimes(ctx context.Context, date time.Time) ([]models.TimeOfDay, error) {
	query := `SELECT start_time FROM client_bookings WHERE date = ? ORDER BY start_time`
	rows, err := db.QueryContext(ctx, query, models.DateKey(date))
	if err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}
	defer rows.Close()

	times := []models.TimeOfDay{}
	for rows.Next() {
		var t models.TimeOfDay
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// InsertIfFree stores the booking unless its (date, start_time) is taken.
// The unique index decides between concurrent writers, the loser gets ErrSlotConflict.
func (db *DB) InsertIfFree(ctx context.Context, booking *models.Booking) error {
	query := `INSERT INTO client_bookings (
				service_id, date, start_time, end_time, client_email, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		booking.ServiceID,
		models.DateKey(booking.Date),
		booking.StartTime,
		booking.EndTime,
		booking.ClientEmail,
		now,
		now,
	)
	switch {
	case isUniqueViolation(err):
		return ErrSlotConflict
	case isForeignKeyViolation(err):
		return ErrUnknownService
	case err != nil:
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now

	db.logger.Debug().
		Int64("booking_id", id).
		Str("date", models.DateKey(booking.Date)).
		Str("start_time", booking.StartTime.String()).
		Msg("booking stored")
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.BookingDetails, error) {
	rows, err := db.QueryContext(ctx, bookingDetailsQuery+` WHERE b.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	bookings, err := db.scanBookingDetails(rows)
	if err != nil {
		return nil, err
	}
	if len(bookings) == 0 {
		return nil, ErrNotFound
	}
	return bookings[0], nil
}

// GetBookingsByDateRange lists bookings with from <= date <= to, in calendar order.
func (db *DB) GetBookingsByDateRange(ctx context.Context, from, to time.Time) ([]*models.BookingDetails, error) {
	query := bookingDetailsQuery + ` WHERE b.date >= ? AND b.date <= ? ORDER BY b.date, b.start_time`
	rows, err := db.QueryContext(ctx, query, models.DateKey(from), models.DateKey(to))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings by date range: %w", err)
	}
	return db.scanBookingDetails(rows)
}

func (db *DB) DeleteBooking(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM client_bookings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) scanBookingDetails(rows *sql.Rows) ([]*models.BookingDetails, error) {
	defer rows.Close()

	bookings := []*models.BookingDetails{}
	for rows.Next() {
		var (
			b       models.BookingDetails
			dateStr string
			endTime sql.NullString
		)
		err := rows.Scan(
			&b.ID, &b.ServiceID, &dateStr, &b.StartTime, &endTime, &b.ClientEmail,
			&b.CreatedAt, &b.UpdatedAt,
			&b.Service.ID, &b.Service.Name, &b.Service.DurationMinutes, &b.Service.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}

		b.Date, err = db.parseDate(dateStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
		}
		if endTime.Valid {
			if err := b.EndTime.Scan(endTime.String); err != nil {
				return nil, fmt.Errorf("failed to parse booking end time: %w", err)
			}
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}
	return bookings, nil
}
