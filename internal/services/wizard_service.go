package services

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kerrdetailing/booking-backend/internal/catalog"
	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/models"
	"github.com/kerrdetailing/booking-backend/pkg/validator"
)

// WizardStep identifies the current step of a booking wizard session
type WizardStep string

const (
	StepContact   WizardStep = "contact"
	StepVehicle   WizardStep = "vehicle"
	StepService   WizardStep = "service"
	StepPayment   WizardStep = "payment"
	StepCompleted WizardStep = "completed"
	StepCancelled WizardStep = "cancelled"
)

// SessionTTL is how long an idle wizard session is kept before cleanup
const SessionTTL = 30 * time.Minute

var (
	// ErrSessionNotFound indicates the wizard session does not exist or expired
	ErrSessionNotFound = fmt.Errorf("booking session not found")

	// ErrWrongStep indicates an operation was attempted at the wrong wizard step
	ErrWrongStep = fmt.Errorf("operation not valid at this step")

	// ErrSessionClosed indicates the session has already completed or been cancelled
	ErrSessionClosed = fmt.Errorf("booking session is closed")
)

// WizardSession is one in-progress booking. Draft data accumulates across
// steps and is only written to the store at the end of a successful payment.
type WizardSession struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Step      WizardStep          `json:"step"`
	Draft     models.BookingDraft `json:"draft"`
	BookingID string              `json:"booking_id,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// WizardService drives the multi-step booking flow. Sessions live in
// memory; the store is only touched by the availability gate and the
// final persist.
type WizardService struct {
	availability *AvailabilityService
	bookingRepo  *database.BookingRepository
	payments     PaymentAuthorizer
	phone        *validator.PhoneValidator
	logger       *logrus.Logger

	mu       sync.RWMutex
	sessions map[string]*WizardSession
}

// NewWizardService creates a new WizardService
func NewWizardService(
	availability *AvailabilityService,
	bookingRepo *database.BookingRepository,
	payments PaymentAuthorizer,
	logger *logrus.Logger,
) *WizardService {
	return &WizardService{
		availability: availability,
		bookingRepo:  bookingRepo,
		payments:     payments,
		phone:        validator.NewPhoneValidator(),
		logger:       logger,
		sessions:     make(map[string]*WizardSession),
	}
}

// Start opens a new wizard session for the given customer
func (s *WizardService) Start(userID string) *WizardSession {
	session := &WizardSession{
		ID:        uuid.New().String(),
		UserID:    userID,
		Step:      StepContact,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"session_id": session.ID,
		"user_id":    userID,
	}).Info("Booking session started")

	return session
}

// Get returns a snapshot of a session owned by userID
func (s *WizardService) Get(sessionID, userID string) (*WizardSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	snapshot := *session
	return &snapshot, nil
}

// SubmitContact validates and records the contact step, then advances
// the session to the vehicle step. The selected slot is checked against
// current bookings so obviously taken slots fail early.
func (s *WizardService) SubmitContact(sessionID, userID string, req models.ContactRequest) (*WizardSession, error) {
	if err := s.validateContact(&req); err != nil {
		return nil, err
	}

	available, err := s.availability.IsSlotAvailable(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, models.ErrSlotTaken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepContact {
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrWrongStep, StepContact, session.Step)
	}

	session.Draft.Name = strings.TrimSpace(req.Name)
	session.Draft.Email = strings.TrimSpace(req.Email)
	session.Draft.Phone = s.phone.Sanitize(req.Phone)
	session.Draft.Date = req.Date
	session.Draft.Time = req.Time
	session.Draft.Message = strings.TrimSpace(req.Message)
	session.Draft.TextReminders = req.TextReminders
	session.Step = StepVehicle
	session.UpdatedAt = time.Now()

	snapshot := *session
	return &snapshot, nil
}

// SubmitVehicle validates and records the vehicle step, then advances
// the session to the service selection step
func (s *WizardService) SubmitVehicle(sessionID, userID string, req models.VehicleRequest) (*WizardSession, error) {
	vehicle, err := s.validateVehicle(&req)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepVehicle {
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrWrongStep, StepVehicle, session.Step)
	}

	session.Draft.Vehicle = *vehicle
	session.Step = StepService
	session.UpdatedAt = time.Now()

	snapshot := *session
	return &snapshot, nil
}

// SelectService applies a package selection or an addon toggle at the
// service step. Changing the package clears any selected addons; the
// total is recomputed from the catalog on every change.
func (s *WizardService) SelectService(sessionID, userID string, req models.ServiceSelectionRequest) (*WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepService {
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrWrongStep, StepService, session.Step)
	}

	if req.ServiceID != "" {
		if _, ok := catalog.PackageByID(req.ServiceID); !ok {
			return nil, models.NewValidationError("service", fmt.Sprintf("unknown service package: %s", req.ServiceID))
		}
		if session.Draft.ServiceID != req.ServiceID {
			session.Draft.Addons = nil
		}
		session.Draft.ServiceID = req.ServiceID
	}

	if req.ToggleAddon != "" {
		if session.Draft.ServiceID == "" {
			return nil, models.NewValidationError("service", "select a service package before choosing add-ons")
		}
		if _, ok := catalog.AddonByID(req.ToggleAddon); !ok {
			return nil, models.NewValidationError("toggle_addon", fmt.Sprintf("unknown add-on: %s", req.ToggleAddon))
		}
		session.Draft.Addons = toggleAddon(session.Draft.Addons, req.ToggleAddon)
	}

	session.Draft.TotalPrice = catalog.Total(session.Draft.ServiceID, session.Draft.Addons)
	session.UpdatedAt = time.Now()

	snapshot := *session
	return &snapshot, nil
}

// Next advances the session from the service step to the payment step.
// It is the only explicit forward transition; the contact and vehicle
// steps advance on submit.
func (s *WizardService) Next(sessionID, userID string) (*WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Step != StepService {
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrWrongStep, StepService, session.Step)
	}
	if session.Draft.ServiceID == "" {
		return nil, models.NewValidationError("service", "a service package is required")
	}

	session.Step = StepPayment
	session.UpdatedAt = time.Now()

	snapshot := *session
	return &snapshot, nil
}

// Back moves the session one step towards the start, keeping all draft
// data so re-entered steps come pre-filled
func (s *WizardService) Back(sessionID, userID string) (*WizardSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return nil, err
	}

	switch session.Step {
	case StepVehicle:
		session.Step = StepContact
	case StepService:
		session.Step = StepVehicle
	case StepPayment:
		session.Step = StepService
	case StepContact:
		return nil, fmt.Errorf("%w: already at the first step", ErrWrongStep)
	default:
		return nil, ErrSessionClosed
	}
	session.UpdatedAt = time.Now()

	snapshot := *session
	return &snapshot, nil
}

// Pay runs the final submit: the slot is re-validated against current
// bookings, the total is recomputed from the catalog, the charge is
// authorized, and only then is the booking written with status
// confirmed. A slot conflict sends the session back to the contact step
// so a new time can be chosen; a payment failure keeps it at the payment
// step for another attempt.
func (s *WizardService) Pay(sessionID, userID string, req models.PayRequest) (*models.Booking, error) {
	s.mu.Lock()
	session, err := s.lookup(sessionID, userID)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if session.Step != StepPayment {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: expected %s, session is at %s", ErrWrongStep, StepPayment, session.Step)
	}
	draft := session.Draft
	s.mu.Unlock()

	available, err := s.availability.IsSlotAvailable(draft.Date, draft.Time)
	if err != nil {
		return nil, err
	}
	if !available {
		s.revertToContact(sessionID)
		return nil, models.ErrSlotTaken
	}

	// Never trust the stored total; the catalog is authoritative.
	total := catalog.Total(draft.ServiceID, draft.Addons)
	pkg, ok := catalog.PackageByID(draft.ServiceID)
	if !ok {
		return nil, models.NewValidationError("service", "a service package is required")
	}

	result, err := s.payments.Authorize(AuthorizeParams{
		AmountCents:     int64(total) * 100,
		PaymentMethodID: req.PaymentMethodID,
		Description:     fmt.Sprintf("Kerr Detailing - %s", pkg.Name),
		ReceiptEmail:    draft.Email,
		Metadata: map[string]string{
			"booking_date": draft.Date,
			"booking_time": draft.Time,
			"service":      draft.ServiceID,
		},
	})
	if err != nil {
		return nil, err
	}

	paymentStatus := models.PaymentStatusSucceeded
	booking := &models.Booking{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          draft.Name,
		Email:         draft.Email,
		Phone:         draft.Phone,
		ServiceID:     draft.ServiceID,
		BookingDate:   draft.Date,
		BookingTime:   draft.Time,
		CarMake:       draft.Vehicle.Make,
		CarModel:      draft.Vehicle.Model,
		CarYear:       draft.Vehicle.Year,
		CarCondition:  models.CarCondition(draft.Vehicle.Condition),
		Addons:        append(models.StringArray{}, draft.Addons...),
		TotalPrice:    total,
		TextReminders: draft.TextReminders,
		Status:        models.BookingStatusConfirmed,
		PaymentStatus: &paymentStatus,
		PaymentRef:    &result.Reference,
	}
	if draft.Message != "" {
		msg := draft.Message
		booking.Message = &msg
	}
	if draft.Vehicle.Color != "" {
		color := draft.Vehicle.Color
		booking.CarColor = &color
	}

	if err := s.bookingRepo.Create(booking); err != nil {
		if err == models.ErrSlotTaken {
			// Lost the insert race after the charge went through. Surface
			// the conflict and leave the refund to support tooling.
			s.logger.WithFields(logrus.Fields{
				"session_id":  sessionID,
				"payment_ref": result.Reference,
				"date":        draft.Date,
				"time":        draft.Time,
			}).Error("Slot taken after successful charge, refund required")
			s.revertToContact(sessionID)
			return nil, models.ErrSlotTaken
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"session_id":  sessionID,
			"payment_ref": result.Reference,
		}).Error("Failed to persist booking after successful charge")
		return nil, &models.PersistenceError{Err: err}
	}

	s.mu.Lock()
	if session, ok := s.sessions[sessionID]; ok {
		session.Step = StepCompleted
		session.BookingID = booking.ID
		session.UpdatedAt = time.Now()
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"booking_id":  booking.ID,
		"date":        booking.BookingDate,
		"time":        booking.BookingTime,
		"total_price": booking.TotalPrice,
	}).Info("Booking confirmed")

	return booking, nil
}

// Cancel abandons a session and discards its draft
func (s *WizardService) Cancel(sessionID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.lookup(sessionID, userID)
	if err != nil {
		return err
	}
	if session.Step == StepCompleted {
		return ErrSessionClosed
	}

	delete(s.sessions, sessionID)
	s.logger.WithField("session_id", sessionID).Info("Booking session cancelled")
	return nil
}

// CleanupExpired removes sessions idle longer than SessionTTL and
// returns how many were dropped. Completed sessions are cleaned up on
// the same schedule.
func (s *WizardService) CleanupExpired() int {
	cutoff := time.Now().Add(-SessionTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		s.logger.WithField("count", removed).Info("Expired booking sessions removed")
	}
	return removed
}

// lookup finds a session and checks ownership. Callers must hold s.mu.
func (s *WizardService) lookup(sessionID, userID string) (*WizardSession, error) {
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// revertToContact sends a session back to the contact step after a slot
// conflict so a new date or time can be chosen. Draft data is kept.
func (s *WizardService) revertToContact(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[sessionID]; ok {
		session.Step = StepContact
		session.UpdatedAt = time.Now()
	}
}

func (s *WizardService) validateContact(req *models.ContactRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return models.NewValidationError("name", "name is required")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return models.NewValidationError("email", "a valid email address is required")
	}
	if _, err := s.phone.Validate(req.Phone); err != nil {
		return models.NewValidationError("phone", err.Error())
	}
	if err := ValidateDate(req.Date); err != nil {
		return models.NewValidationError("date", err.Error())
	}
	date, _ := time.Parse("2006-01-02", req.Date)
	today, _ := time.Parse("2006-01-02", time.Now().Format("2006-01-02"))
	if date.Before(today) {
		return models.NewValidationError("date", "booking date cannot be in the past")
	}
	if !IsValidSlot(req.Time) {
		return models.NewValidationError("time", fmt.Sprintf("invalid time slot: %s", req.Time))
	}
	return nil
}

func (s *WizardService) validateVehicle(req *models.VehicleRequest) (*models.VehicleInfo, error) {
	if strings.TrimSpace(req.Make) == "" {
		return nil, models.NewValidationError("car_make", "vehicle make is required")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, models.NewValidationError("car_model", "vehicle model is required")
	}
	year, err := strconv.Atoi(strings.TrimSpace(req.Year))
	if err != nil {
		return nil, models.NewValidationError("car_year", "vehicle year must be a number")
	}
	maxYear := time.Now().Year() + 1
	if year < 1950 || year > maxYear {
		return nil, models.NewValidationError("car_year", fmt.Sprintf("vehicle year must be between 1950 and %d", maxYear))
	}
	if !models.ValidCondition(req.Condition) {
		return nil, models.NewValidationError("car_condition", fmt.Sprintf("invalid vehicle condition: %s", req.Condition))
	}

	return &models.VehicleInfo{
		Make:      strings.TrimSpace(req.Make),
		Model:     strings.TrimSpace(req.Model),
		Year:      year,
		Color:     strings.TrimSpace(req.Color),
		Condition: req.Condition,
	}, nil
}

// toggleAddon adds id if absent and removes it if present
func toggleAddon(addons []string, id string) []string {
	for i, existing := range addons {
		if existing == id {
			return append(addons[:i], addons[i+1:]...)
		}
	}
	return append(addons, id)
}
