package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kerrdetailing/booking-backend/internal/catalog"
	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/middleware"
	"github.com/kerrdetailing/booking-backend/internal/models"
	"github.com/kerrdetailing/booking-backend/internal/services"
)

// BookingHandler handles booking and availability HTTP requests
type BookingHandler struct {
	availabilityService *services.AvailabilityService
	wizardService       *services.WizardService
	bookingRepo         *database.BookingRepository
	logger              *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(
	availabilityService *services.AvailabilityService,
	wizardService *services.WizardService,
	bookingRepo *database.BookingRepository,
	logger *logrus.Logger,
) *BookingHandler {
	return &BookingHandler{
		availabilityService: availabilityService,
		wizardService:       wizardService,
		bookingRepo:         bookingRepo,
		logger:              logger,
	}
}

// GetSlots returns the slot grid for a date with availability
// GET /api/v1/slots?date=YYYY-MM-DD
func (h *BookingHandler) GetSlots(c *gin.Context) {
	date := c.Query("date")

	slots, err := h.availabilityService.GetSlots(date)
	if err != nil {
		status := http.StatusBadRequest
		if date != "" && services.ValidateDate(date) == nil {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{
			"error":   "slots_unavailable",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":  date,
		"slots": slots,
	})
}

// GetCatalog returns the service packages and add-ons with pricing
// GET /api/v1/catalog
func (h *BookingHandler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"packages": catalog.Packages(),
		"addons":   catalog.Addons(),
	})
}

// StartWizard opens a new booking wizard session
// POST /api/v1/bookings/wizard
func (h *BookingHandler) StartWizard(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	session := h.wizardService.Start(userCtx.UserID.String())
	c.JSON(http.StatusCreated, gin.H{
		"session": session,
	})
}

// GetWizard returns the current state of a wizard session
// GET /api/v1/bookings/wizard/:id
func (h *BookingHandler) GetWizard(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	session, err := h.wizardService.Get(c.Param("id"), userCtx.UserID.String())
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// SubmitContact records the contact step
// PUT /api/v1/bookings/wizard/:id/contact
func (h *BookingHandler) SubmitContact(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	session, err := h.wizardService.SubmitContact(c.Param("id"), userCtx.UserID.String(), req)
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// SubmitVehicle records the vehicle step
// PUT /api/v1/bookings/wizard/:id/vehicle
func (h *BookingHandler) SubmitVehicle(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	session, err := h.wizardService.SubmitVehicle(c.Param("id"), userCtx.UserID.String(), req)
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// SelectService applies a package selection or addon toggle
// PUT /api/v1/bookings/wizard/:id/service
func (h *BookingHandler) SelectService(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.ServiceSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	session, err := h.wizardService.SelectService(c.Param("id"), userCtx.UserID.String(), req)
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// Next advances the session to the payment step
// POST /api/v1/bookings/wizard/:id/next
func (h *BookingHandler) Next(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	session, err := h.wizardService.Next(c.Param("id"), userCtx.UserID.String())
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// Back moves the session one step towards the start
// POST /api/v1/bookings/wizard/:id/back
func (h *BookingHandler) Back(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	session, err := h.wizardService.Back(c.Param("id"), userCtx.UserID.String())
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session": session,
	})
}

// Pay runs the final submit: slot re-check, charge, persist
// POST /api/v1/bookings/wizard/:id/pay
func (h *BookingHandler) Pay(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	var req models.PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	booking, err := h.wizardService.Pay(c.Param("id"), userCtx.UserID.String(), req)
	if err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking confirmed",
		"booking": booking,
	})
}

// CancelWizard abandons a wizard session
// DELETE /api/v1/bookings/wizard/:id
func (h *BookingHandler) CancelWizard(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.wizardService.Cancel(c.Param("id"), userCtx.UserID.String()); err != nil {
		h.wizardError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking session cancelled",
	})
}

// ListBookings returns the customer's bookings, newest first
// GET /api/v1/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	bookings, err := h.bookingRepo.GetByUserID(userCtx.UserID.String())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list bookings")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to load bookings",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// CancelBooking cancels a confirmed booking owned by the customer
// POST /api/v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	userCtx := middleware.MustGetUserContext(c)

	if err := h.bookingRepo.Cancel(c.Param("id"), userCtx.UserID.String()); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "Booking not found or already cancelled",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Booking cancelled",
	})
}

// wizardError maps wizard and payment errors onto HTTP responses
func (h *BookingHandler) wizardError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var payErr *models.PaymentError
	var persistErr *models.PersistenceError

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "session_not_found",
			"message": err.Error(),
		})
	case errors.Is(err, services.ErrWrongStep), errors.Is(err, services.ErrSessionClosed):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "invalid_step",
			"message": err.Error(),
		})
	case errors.Is(err, models.ErrSlotTaken):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "slot_taken",
			"message": err.Error(),
		})
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"field":   vErr.Field,
			"message": vErr.Message,
		})
	case errors.As(err, &payErr):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "payment_failed",
			"reason":  payErr.Reason,
			"message": payErr.Error(),
		})
	case errors.As(err, &persistErr):
		h.logger.WithError(err).Error("Booking persistence failed after charge")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "booking_not_saved",
			"message": "Your payment went through but the booking could not be saved. Please contact us before retrying.",
		})
	default:
		h.logger.WithError(err).Error("Unexpected booking error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Something went wrong",
		})
	}
}
