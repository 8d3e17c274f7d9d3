package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kerrdetailing/booking-backend/internal/config"
	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/models"
	"github.com/kerrdetailing/booking-backend/pkg/sms"
	"github.com/kerrdetailing/booking-backend/pkg/validator"
)

// testReminderLimit caps how many messages a diagnostic run may send
const testReminderLimit = 3

// ReminderService dispatches SMS reminders for upcoming appointments
type ReminderService struct {
	bookingRepo *database.BookingRepository
	gateway     sms.Gateway
	phone       *validator.PhoneValidator
	cfg         config.ReminderConfig
	logger      *logrus.Logger
}

// NewReminderService creates a new ReminderService
func NewReminderService(
	bookingRepo *database.BookingRepository,
	gateway sms.Gateway,
	cfg config.ReminderConfig,
	logger *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		bookingRepo: bookingRepo,
		gateway:     gateway,
		phone:       validator.NewPhoneValidator(),
		cfg:         cfg,
		logger:      logger,
	}
}

// CheckReminders sends a reminder for every appointment on the target
// date (today plus the configured lead) that opted in and has not been
// reminded yet. One failing send never aborts the run; each booking gets
// its own outcome entry.
func (s *ReminderService) CheckReminders(ctx context.Context) (*models.ReminderSummary, error) {
	targetDate := time.Now().AddDate(0, 0, s.cfg.LeadDays).Format("2006-01-02")

	candidates, err := s.bookingRepo.GetReminderCandidates(targetDate, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	summary := &models.ReminderSummary{
		Message:       "Reminder check completed",
		TargetDate:    targetDate,
		TotalBookings: len(candidates),
		Results:       []models.ReminderOutcome{},
	}
	if len(candidates) == 0 {
		summary.Message = fmt.Sprintf("No reminders to send for %s", targetDate)
	}

	for i := range candidates {
		booking := &candidates[i]
		outcome := s.dispatch(ctx, booking, false)
		summary.Results = append(summary.Results, outcome)
		summary.Processed++
		if outcome.Status == "sent" {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"target_date": targetDate,
		"total":       summary.TotalBookings,
		"sent":        summary.SuccessCount,
		"failed":      summary.FailureCount,
	}).Info("Reminder check completed")

	return summary, nil
}

// TestReminders runs a diagnostic pass: messages carry a [TEST] prefix,
// bookings are never stamped as reminded, already-reminded bookings are
// included, and the run is capped at a few messages. An empty testDate
// defaults to the regular target date.
func (s *ReminderService) TestReminders(ctx context.Context, testDate string) (*models.ReminderSummary, error) {
	targetDate := testDate
	if targetDate == "" {
		targetDate = time.Now().AddDate(0, 0, s.cfg.LeadDays).Format("2006-01-02")
	}
	if err := ValidateDate(targetDate); err != nil {
		return nil, err
	}

	candidates, err := s.bookingRepo.GetReminderCandidates(targetDate, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder candidates: %w", err)
	}

	summary := &models.ReminderSummary{
		Message:       "Test reminder run completed",
		TargetDate:    targetDate,
		TotalBookings: len(candidates),
		Results:       []models.ReminderOutcome{},
	}
	if len(candidates) == 0 {
		summary.Message = fmt.Sprintf("No bookings found for %s", targetDate)
	}

	for i := range candidates {
		if summary.Processed >= testReminderLimit {
			break
		}
		booking := &candidates[i]
		outcome := s.dispatch(ctx, booking, true)
		summary.Results = append(summary.Results, outcome)
		summary.Processed++
		if outcome.Status == "sent" {
			summary.SuccessCount++
		} else {
			summary.FailureCount++
		}
	}

	return summary, nil
}

// SendReminder dispatches a reminder for a single booking regardless of
// its date, stamping it on success
func (s *ReminderService) SendReminder(ctx context.Context, bookingID string) (*models.ReminderOutcome, error) {
	booking, err := s.bookingRepo.GetByID(bookingID)
	if err != nil {
		return nil, fmt.Errorf("booking not found: %w", err)
	}

	outcome := s.dispatch(ctx, booking, false)
	return &outcome, nil
}

// TestSMS sends an arbitrary message through the gateway for connectivity checks
func (s *ReminderService) TestSMS(ctx context.Context, to, body string) (*sms.SendResult, error) {
	e164, err := s.phone.E164(to)
	if err != nil {
		return nil, err
	}
	if body == "" {
		body = fmt.Sprintf("Test message from %s via %s.", s.cfg.BusinessName, s.gateway.GetName())
	}
	return s.gateway.Send(ctx, e164, body)
}

// dispatch sends one reminder and records the result. In test mode the
// message is prefixed and the booking is not stamped.
func (s *ReminderService) dispatch(ctx context.Context, booking *models.Booking, testMode bool) models.ReminderOutcome {
	outcome := models.ReminderOutcome{
		BookingID:    booking.ID,
		CustomerName: booking.Name,
		Phone:        booking.Phone,
	}

	e164, err := s.phone.E164(booking.Phone)
	if err != nil {
		outcome.Status = "failed"
		outcome.Error = fmt.Sprintf("invalid phone number: %v", err)
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"phone":      booking.Phone,
		}).Warn("Reminder skipped, invalid phone number")
		return outcome
	}

	body := s.formatMessage(booking)
	if testMode {
		body = "[TEST] " + body
	}

	result, err := s.gateway.Send(ctx, e164, body)
	if err != nil {
		outcome.Status = "failed"
		outcome.Error = err.Error()
		s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Reminder send failed")
		return outcome
	}

	outcome.Status = "sent"
	outcome.MessageID = result.MessageID

	if !testMode {
		if err := s.bookingRepo.MarkReminderSent(booking.ID); err != nil {
			// The message went out; a failed stamp only risks a duplicate
			// on the next run.
			s.logger.WithError(err).WithField("booking_id", booking.ID).Warn("Failed to mark reminder as sent")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"message_id": result.MessageID,
		"test_mode":  testMode,
	}).Info("Reminder sent")

	return outcome
}

// formatMessage builds the reminder text for a booking. The "tomorrow"
// phrase follows the configured lead so the copy stays honest when the
// job runs more than a day ahead.
func (s *ReminderService) formatMessage(booking *models.Booking) string {
	dateText := booking.BookingDate
	if parsed, err := time.Parse("2006-01-02", booking.BookingDate); err == nil {
		dateText = parsed.Format("Monday, January 2, 2006")
	}

	lead := fmt.Sprintf("in %d days", s.cfg.LeadDays)
	switch s.cfg.LeadDays {
	case 0:
		lead = "for today"
	case 1:
		lead = "for tomorrow"
	}

	return fmt.Sprintf(
		"Hi %s! This is a friendly reminder that your car detailing appointment with %s is scheduled %s (%s) at %s. We look forward to seeing you! Reply STOP to opt out.",
		booking.Name,
		s.cfg.BusinessName,
		lead,
		dateText,
		SlotLabel(booking.BookingTime),
	)
}
