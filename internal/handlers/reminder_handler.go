package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kerrdetailing/booking-backend/internal/services"
	"github.com/kerrdetailing/booking-backend/pkg/sms"
)

// ReminderHandler handles reminder dispatch HTTP requests. The routes
// are guarded by the cron secret middleware, not customer auth.
type ReminderHandler struct {
	reminderService  *services.ReminderService
	defaultTestPhone string
	logger           *logrus.Logger
}

// NewReminderHandler creates a new ReminderHandler. defaultTestPhone is
// the fallback recipient for the SMS test endpoint and may be empty.
func NewReminderHandler(reminderService *services.ReminderService, defaultTestPhone string, logger *logrus.Logger) *ReminderHandler {
	return &ReminderHandler{
		reminderService:  reminderService,
		defaultTestPhone: defaultTestPhone,
		logger:           logger,
	}
}

// CheckReminders runs the reminder dispatch for tomorrow's appointments
// POST /api/v1/reminders/check
func (h *ReminderHandler) CheckReminders(c *gin.Context) {
	summary, err := h.reminderService.CheckReminders(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Reminder check failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "reminder_check_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// TestRemindersRequest optionally overrides the target date
type TestRemindersRequest struct {
	TestDate string `json:"testDate"`
}

// TestReminders runs a capped diagnostic pass with [TEST] messages
// POST /api/v1/reminders/test
func (h *ReminderHandler) TestReminders(c *gin.Context) {
	var req TestRemindersRequest
	// An empty body is fine; the date defaults to the regular target.
	_ = c.ShouldBindJSON(&req)

	summary, err := h.reminderService.TestReminders(c.Request.Context(), req.TestDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "reminder_test_failed",
			"message": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// SendReminderRequest identifies the booking to remind
type SendReminderRequest struct {
	BookingID string `json:"bookingId" binding:"required"`
}

// SendReminder dispatches a reminder for a single booking
// POST /api/v1/reminders/send
func (h *ReminderHandler) SendReminder(c *gin.Context) {
	var req SendReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": err.Error(),
		})
		return
	}

	outcome, err := h.reminderService.SendReminder(c.Request.Context(), req.BookingID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "booking_not_found",
			"message": err.Error(),
		})
		return
	}

	status := http.StatusOK
	if outcome.Status != "sent" {
		status = http.StatusBadGateway
	}
	c.JSON(status, outcome)
}

// TestSMSRequest carries a direct gateway test message. Both fields are
// optional; an omitted phone falls back to the configured default
// recipient.
type TestSMSRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// TestSMS sends an arbitrary message for connectivity checks
// POST /api/v1/sms/test
func (h *ReminderHandler) TestSMS(c *gin.Context) {
	var req TestSMSRequest
	// An empty body is fine; both fields have defaults.
	_ = c.ShouldBindJSON(&req)

	if req.Phone == "" {
		req.Phone = h.defaultTestPhone
	}
	if req.Phone == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "phone is required and no default test recipient is configured",
		})
		return
	}

	result, err := h.reminderService.TestSMS(c.Request.Context(), req.Phone, req.Message)
	if err != nil {
		status := http.StatusBadRequest
		body := gin.H{
			"error":   "sms_test_failed",
			"message": err.Error(),
		}
		var gwErr *sms.GatewayError
		if errors.As(err, &gwErr) {
			status = http.StatusBadGateway
			body["code"] = gwErr.Code
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":   "Test message sent",
		"messageId": result.MessageID,
		"status":    result.Status,
	})
}
