package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/kerrdetailing/booking-backend/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations
const uniqueViolation = "23505"

// BookingRepository handles database operations for the bookings table
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	id, user_id, name, email, phone, service,
	to_char(booking_date, 'YYYY-MM-DD'), booking_time, message,
	car_make, car_model, car_year, car_color, car_condition,
	addons, total_price, text_reminders,
	status, payment_status, payment_ref, reminder_sent_at, created_at
`

// Create inserts a finalized booking in a single atomic write. The
// bookings table carries a unique index on (booking_date, booking_time)
// for active statuses, so losing the slot race surfaces here as
// models.ErrSlotTaken rather than as a double booking.
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, user_id, name, email, phone, service,
			booking_date, booking_time, message,
			car_make, car_model, car_year, car_color, car_condition,
			addons, total_price, text_reminders,
			status, payment_status, payment_ref
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		RETURNING created_at
	`

	// Generate ID if not provided
	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.UserID, booking.Name, booking.Email, booking.Phone, booking.ServiceID,
		booking.BookingDate, booking.BookingTime, booking.Message,
		booking.CarMake, booking.CarModel, booking.CarYear, booking.CarColor, booking.CarCondition,
		booking.Addons, booking.TotalPrice, booking.TextReminders,
		booking.Status, booking.PaymentStatus, booking.PaymentRef,
	).Scan(&booking.CreatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return models.ErrSlotTaken
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// GetBookedTimes returns the booked time values for a date, considering
// only active (pending or confirmed) bookings.
func (r *BookingRepository) GetBookedTimes(date string) ([]string, error) {
	query := `
		SELECT booking_time
		FROM bookings
		WHERE booking_date = $1
		  AND status IN ('pending', 'confirmed')
	`

	rows, err := r.db.Query(query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query booked times: %w", err)
	}
	defer rows.Close()

	times := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan booked time: %w", err)
		}
		times = append(times, t)
	}

	return times, rows.Err()
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanBooking(r.db.QueryRow(query, bookingID))
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetByUserID(userID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetReminderCandidates returns the bookings on the target date that
// opted in to text reminders and are still active. When includeSent is
// false, bookings that already have a reminder stamp are skipped, which
// makes repeated job runs safe.
func (r *BookingRepository) GetReminderCandidates(date string, includeSent bool) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings
		WHERE booking_date = $1
		  AND text_reminders = TRUE
		  AND status IN ('pending', 'confirmed')
	`
	if !includeSent {
		query += ` AND reminder_sent_at IS NULL`
	}
	query += ` ORDER BY booking_time`

	rows, err := r.db.Query(query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminder candidates: %w", err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// MarkReminderSent stamps the booking's reminder marker. The NULL guard
// keeps concurrent job runs from double-stamping.
func (r *BookingRepository) MarkReminderSent(bookingID string) error {
	query := `
		UPDATE bookings
		SET reminder_sent_at = NOW()
		WHERE id = $1 AND reminder_sent_at IS NULL
	`

	result, err := r.db.Exec(query, bookingID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found or reminder already recorded")
	}

	return nil
}

// Cancel cancels a booking owned by the given user
func (r *BookingRepository) Cancel(bookingID, userID string) error {
	query := `
		UPDATE bookings
		SET status = 'cancelled'
		WHERE id = $1 AND user_id = $2 AND status IN ('pending', 'confirmed')
	`

	result, err := r.db.Exec(query, bookingID, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// scanBooking scans a single booking
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var message sql.NullString
	var carColor sql.NullString
	var paymentStatus sql.NullString
	var paymentRef sql.NullString
	var reminderSentAt sql.NullTime

	err := row.Scan(
		&booking.ID, &booking.UserID, &booking.Name, &booking.Email, &booking.Phone, &booking.ServiceID,
		&booking.BookingDate, &booking.BookingTime, &message,
		&booking.CarMake, &booking.CarModel, &booking.CarYear, &carColor, &booking.CarCondition,
		&booking.Addons, &booking.TotalPrice, &booking.TextReminders,
		&booking.Status, &paymentStatus, &paymentRef, &reminderSentAt, &booking.CreatedAt,
	)

	if err != nil {
		return nil, err
	}

	if message.Valid {
		booking.Message = &message.String
	}
	if carColor.Valid {
		booking.CarColor = &carColor.String
	}
	if paymentStatus.Valid {
		status := models.PaymentStatus(paymentStatus.String)
		booking.PaymentStatus = &status
	}
	if paymentRef.Valid {
		booking.PaymentRef = &paymentRef.String
	}
	if reminderSentAt.Valid {
		booking.ReminderSentAt = &reminderSentAt.Time
	}

	return booking, nil
}

// scanBookings scans multiple bookings from rows
func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := []models.Booking{}

	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}

	return bookings, rows.Err()
}
