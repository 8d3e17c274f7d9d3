package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerrdetailing/booking-backend/internal/config"
	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/middleware"
	"github.com/kerrdetailing/booking-backend/internal/services"
	"github.com/kerrdetailing/booking-backend/pkg/sms"
)

// stubGateway implements sms.Gateway for handler tests
type stubGateway struct {
	err  error
	sent int
}

func (g *stubGateway) GetName() string { return "stub" }

func (g *stubGateway) Send(_ context.Context, to, body string) (*sms.SendResult, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.sent++
	return &sms.SendResult{MessageID: "SM001", Status: "queued"}, nil
}

func setupReminderTest(t *testing.T, defaultTestPhone string) (*gin.Engine, sqlmock.Sqlmock, *stubGateway, func()) {
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := database.NewBookingRepository(&mockDatabase{db: db})
	gateway := &stubGateway{}
	cfg := config.ReminderConfig{LeadDays: 1, BusinessName: "Kerr Detailing", CronSecret: "s3cret"}
	svc := services.NewReminderService(repo, gateway, cfg, testLogger())
	handler := NewReminderHandler(svc, defaultTestPhone, testLogger())

	router := gin.New()
	guarded := router.Group("/api/v1", middleware.CronAuthMiddleware(cfg.CronSecret))
	guarded.POST("/reminders/check", handler.CheckReminders)
	guarded.POST("/reminders/test", handler.TestReminders)
	guarded.POST("/reminders/send", handler.SendReminder)
	guarded.POST("/sms/test", handler.TestSMS)

	return router, mock, gateway, func() { db.Close() }
}

func TestCheckRemindersEndpoint(t *testing.T) {
	router, mock, gateway, cleanup := setupReminderTest(t, "")
	defer cleanup()

	targetDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "name", "email", "phone", "service",
		"booking_date", "booking_time", "message",
		"car_make", "car_model", "car_year", "car_color", "car_condition",
		"addons", "total_price", "text_reminders",
		"status", "payment_status", "payment_ref", "reminder_sent_at", "created_at",
	}).AddRow(
		"b1", "user-1", "Jake Miller", "jake@example.com", "5551234567", "premium",
		targetDate, "13:00", nil,
		"Toyota", "Camry", 2021, nil, "good",
		[]byte(`{}`), 149, true,
		"confirmed", "succeeded", "pi_test_123", nil, time.Now(),
	)

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(targetDate).
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE bookings").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSONWithHeader(router, "POST", "/api/v1/reminders/check", nil, "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"successCount\":1")
	assert.Equal(t, 1, gateway.sent)
}

func TestReminderEndpoints_CronSecret(t *testing.T) {
	router, _, _, cleanup := setupReminderTest(t, "")
	defer cleanup()

	w := doJSON(router, "POST", "/api/v1/reminders/check", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSONWithHeader(router, "POST", "/api/v1/reminders/check", nil, "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTestRemindersEndpoint(t *testing.T) {
	router, mock, _, cleanup := setupReminderTest(t, "")
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("2030-06-15").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "name", "email", "phone", "service",
			"booking_date", "booking_time", "message",
			"car_make", "car_model", "car_year", "car_color", "car_condition",
			"addons", "total_price", "text_reminders",
			"status", "payment_status", "payment_ref", "reminder_sent_at", "created_at",
		}))

	w := doJSONWithHeader(router, "POST", "/api/v1/reminders/test",
		map[string]interface{}{"testDate": "2030-06-15"}, "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "2030-06-15")

	w = doJSONWithHeader(router, "POST", "/api/v1/reminders/test",
		map[string]interface{}{"testDate": "junk"}, "s3cret")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendReminderEndpoint(t *testing.T) {
	router, mock, _, cleanup := setupReminderTest(t, "")
	defer cleanup()

	t.Run("Missing Booking", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
			WithArgs("missing").
			WillReturnError(fmt.Errorf("sql: no rows in result set"))

		w := doJSONWithHeader(router, "POST", "/api/v1/reminders/send",
			map[string]interface{}{"bookingId": "missing"}, "s3cret")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing Body", func(t *testing.T) {
		w := doJSONWithHeader(router, "POST", "/api/v1/reminders/send", nil, "s3cret")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSMSTestEndpoint(t *testing.T) {
	router, _, gateway, cleanup := setupReminderTest(t, "")
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		w := doJSONWithHeader(router, "POST", "/api/v1/sms/test",
			map[string]interface{}{"phone": "(555) 123-4567", "message": "ping"}, "s3cret")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "SM001")
	})

	t.Run("Gateway Failure", func(t *testing.T) {
		gateway.err = &sms.GatewayError{Code: sms.CodeInvalidPhoneNumber, Message: "invalid 'To' number"}
		defer func() { gateway.err = nil }()

		w := doJSONWithHeader(router, "POST", "/api/v1/sms/test",
			map[string]interface{}{"phone": "(555) 123-4567"}, "s3cret")
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "\"code\":21211")
	})

	t.Run("Invalid Number", func(t *testing.T) {
		w := doJSONWithHeader(router, "POST", "/api/v1/sms/test",
			map[string]interface{}{"phone": "12"}, "s3cret")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("No Phone And No Default", func(t *testing.T) {
		before := gateway.sent
		w := doJSONWithHeader(router, "POST", "/api/v1/sms/test", nil, "s3cret")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, before, gateway.sent, "nothing dispatched without a recipient")
	})
}

func TestSMSTestEndpoint_DefaultRecipient(t *testing.T) {
	router, _, gateway, cleanup := setupReminderTest(t, "(555) 000-1111")
	defer cleanup()

	w := doJSONWithHeader(router, "POST", "/api/v1/sms/test", nil, "s3cret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SM001")
	assert.Equal(t, 1, gateway.sent)
}
