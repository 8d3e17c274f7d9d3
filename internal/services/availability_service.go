package services

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/models"
)

// slotGrid is the fixed daily appointment grid. Every date offers the
// same five slots; availability is derived per date from active bookings.
var slotGrid = []models.TimeSlot{
	{Value: "9:00", Label: "9:00 AM"},
	{Value: "11:00", Label: "11:00 AM"},
	{Value: "13:00", Label: "1:00 PM"},
	{Value: "15:00", Label: "3:00 PM"},
	{Value: "17:00", Label: "5:00 PM"},
}

// AvailabilityService resolves the slot grid against booked appointments
type AvailabilityService struct {
	bookingRepo *database.BookingRepository
	logger      *logrus.Logger
}

// NewAvailabilityService creates a new AvailabilityService
func NewAvailabilityService(bookingRepo *database.BookingRepository, logger *logrus.Logger) *AvailabilityService {
	return &AvailabilityService{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// SlotGrid returns a copy of the daily slot grid with no availability set
func SlotGrid() []models.TimeSlot {
	grid := make([]models.TimeSlot, len(slotGrid))
	copy(grid, slotGrid)
	return grid
}

// IsValidSlot reports whether value is one of the grid slot values
func IsValidSlot(value string) bool {
	for _, slot := range slotGrid {
		if slot.Value == value {
			return true
		}
	}
	return false
}

// SlotLabel returns the display label for a slot value ("13:00" -> "1:00 PM").
// Unknown values are returned unchanged.
func SlotLabel(value string) string {
	for _, slot := range slotGrid {
		if slot.Value == value {
			return slot.Label
		}
	}
	return value
}

// ValidateDate checks that date is a well-formed calendar date (YYYY-MM-DD)
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date format, expected YYYY-MM-DD: %s", date)
	}
	return nil
}

// GetSlots returns the full slot grid for a date with each slot marked
// available or taken. A store failure is returned as an error rather
// than an optimistic all-available grid.
func (s *AvailabilityService) GetSlots(date string) ([]models.TimeSlot, error) {
	if err := ValidateDate(date); err != nil {
		return nil, err
	}

	bookedTimes, err := s.bookingRepo.GetBookedTimes(date)
	if err != nil {
		s.logger.WithError(err).WithField("date", date).Error("Failed to load booked times")
		return nil, fmt.Errorf("failed to check availability: %w", err)
	}

	booked := make(map[string]bool, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = true
	}

	slots := make([]models.TimeSlot, len(slotGrid))
	for i, slot := range slotGrid {
		slot.Available = !booked[slot.Value]
		slots[i] = slot
	}

	return slots, nil
}

// IsSlotAvailable re-resolves a single slot against current bookings.
// Used by the payment gate to re-validate the selection at submit time.
func (s *AvailabilityService) IsSlotAvailable(date, timeValue string) (bool, error) {
	if err := ValidateDate(date); err != nil {
		return false, err
	}
	if !IsValidSlot(timeValue) {
		return false, fmt.Errorf("invalid time slot: %s", timeValue)
	}

	bookedTimes, err := s.bookingRepo.GetBookedTimes(date)
	if err != nil {
		return false, fmt.Errorf("failed to check availability: %w", err)
	}

	for _, t := range bookedTimes {
		if t == timeValue {
			return false, nil
		}
	}
	return true, nil
}
