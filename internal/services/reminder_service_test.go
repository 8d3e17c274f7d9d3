package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerrdetailing/booking-backend/internal/config"
	"github.com/kerrdetailing/booking-backend/internal/database"
	"github.com/kerrdetailing/booking-backend/internal/models"
	"github.com/kerrdetailing/booking-backend/pkg/sms"
)

type sentMessage struct {
	To   string
	Body string
}

// fakeGateway implements sms.Gateway for testing
type fakeGateway struct {
	sent    []sentMessage
	failFor map[string]error // keyed by E.164 recipient
}

func (g *fakeGateway) GetName() string { return "fake" }

func (g *fakeGateway) Send(_ context.Context, to, body string) (*sms.SendResult, error) {
	if err, ok := g.failFor[to]; ok {
		return nil, err
	}
	g.sent = append(g.sent, sentMessage{To: to, Body: body})
	return &sms.SendResult{MessageID: fmt.Sprintf("SM%03d", len(g.sent)), Status: "queued"}, nil
}

func newReminderFixture(t *testing.T) (*ReminderService, sqlmock.Sqlmock, *fakeGateway, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := database.NewBookingRepository(&mockDatabase{db: db})
	gateway := &fakeGateway{failFor: map[string]error{}}
	cfg := config.ReminderConfig{LeadDays: 1, BusinessName: "Kerr Detailing"}
	svc := NewReminderService(repo, gateway, cfg, newTestLogger())
	return svc, mock, gateway, func() { db.Close() }
}

var reminderColumns = []string{
	"id", "user_id", "name", "email", "phone", "service",
	"booking_date", "booking_time", "message",
	"car_make", "car_model", "car_year", "car_color", "car_condition",
	"addons", "total_price", "text_reminders",
	"status", "payment_status", "payment_ref", "reminder_sent_at", "created_at",
}

func addCandidateRow(rows *sqlmock.Rows, id, name, phone, bookingTime string) *sqlmock.Rows {
	return rows.AddRow(
		id, "user-1", name, "customer@example.com", phone, "premium",
		"2030-06-15", bookingTime, nil,
		"Toyota", "Camry", 2021, nil, "good",
		[]byte(`{}`), 149, true,
		"confirmed", "succeeded", "pi_test_123", nil, time.Now(),
	)
}

func TestCheckReminders(t *testing.T) {
	svc, mock, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	targetDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	rows := sqlmock.NewRows(reminderColumns)
	addCandidateRow(rows, "b1", "Jake Miller", "5551234567", "13:00")
	addCandidateRow(rows, "b2", "Dana Ortiz", "5559876543", "15:00")

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(targetDate).
		WillReturnRows(rows)

	// Second recipient fails at the gateway
	gateway.failFor["+15559876543"] = fmt.Errorf("carrier rejected message")

	// Only the successful send is stamped
	mock.ExpectExec("UPDATE bookings").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary, err := svc.CheckReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, targetDate, summary.TargetDate)
	assert.Equal(t, 2, summary.TotalBookings)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 1, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	require.Len(t, summary.Results, 2)

	assert.Equal(t, "sent", summary.Results[0].Status)
	assert.Equal(t, "SM001", summary.Results[0].MessageID)
	assert.Equal(t, "failed", summary.Results[1].Status)
	assert.Contains(t, summary.Results[1].Error, "carrier rejected")

	require.Len(t, gateway.sent, 1)
	assert.Equal(t, "+15551234567", gateway.sent[0].To)
	assert.Contains(t, gateway.sent[0].Body, "Hi Jake Miller!")
	assert.Contains(t, gateway.sent[0].Body, "Kerr Detailing")
	assert.Contains(t, gateway.sent[0].Body, "scheduled for tomorrow")
	assert.Contains(t, gateway.sent[0].Body, "Saturday, June 15, 2030")
	assert.Contains(t, gateway.sent[0].Body, "1:00 PM")
	assert.NotContains(t, gateway.sent[0].Body, "[TEST]")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckReminders_NoCandidates(t *testing.T) {
	svc, mock, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	targetDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(targetDate).
		WillReturnRows(sqlmock.NewRows(reminderColumns))

	summary, err := svc.CheckReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, fmt.Sprintf("No reminders to send for %s", targetDate), summary.Message)
	assert.Equal(t, 0, summary.TotalBookings)
	assert.Equal(t, 0, summary.Processed)
	assert.Empty(t, gateway.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckReminders_InvalidPhone(t *testing.T) {
	svc, mock, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	targetDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")

	rows := sqlmock.NewRows(reminderColumns)
	addCandidateRow(rows, "b1", "Jake Miller", "123", "13:00")

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs(targetDate).
		WillReturnRows(rows)

	summary, err := svc.CheckReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.SuccessCount)
	assert.Equal(t, 1, summary.FailureCount)
	assert.Contains(t, summary.Results[0].Error, "invalid phone number")
	assert.Empty(t, gateway.sent, "no send attempted for an invalid number")
}

func TestCheckReminders_QueryFailure(t *testing.T) {
	svc, mock, _, cleanup := newReminderFixture(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WillReturnError(fmt.Errorf("connection refused"))

	summary, err := svc.CheckReminders(context.Background())
	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestTestReminders(t *testing.T) {
	svc, mock, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	rows := sqlmock.NewRows(reminderColumns)
	addCandidateRow(rows, "b1", "Jake Miller", "5551234567", "9:00")
	addCandidateRow(rows, "b2", "Dana Ortiz", "5559876543", "11:00")
	addCandidateRow(rows, "b3", "Lee Chen", "5552223333", "13:00")
	addCandidateRow(rows, "b4", "Ana Silva", "5554445555", "15:00")

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("2030-06-15").
		WillReturnRows(rows)

	summary, err := svc.TestReminders(context.Background(), "2030-06-15")
	require.NoError(t, err)

	assert.Equal(t, 4, summary.TotalBookings)
	assert.Equal(t, 3, summary.Processed, "diagnostic run is capped")
	assert.Equal(t, 3, summary.SuccessCount)

	for _, msg := range gateway.sent {
		assert.Contains(t, msg.Body, "[TEST] ")
	}

	// No bookings were stamped
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTestReminders_NoCandidates(t *testing.T) {
	svc, mock, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings").
		WithArgs("2030-06-15").
		WillReturnRows(sqlmock.NewRows(reminderColumns))

	summary, err := svc.TestReminders(context.Background(), "2030-06-15")
	require.NoError(t, err)

	assert.Equal(t, "No bookings found for 2030-06-15", summary.Message)
	assert.Equal(t, 0, summary.TotalBookings)
	assert.Empty(t, gateway.sent)
}

func TestTestReminders_InvalidDate(t *testing.T) {
	svc, _, _, cleanup := newReminderFixture(t)
	defer cleanup()

	summary, err := svc.TestReminders(context.Background(), "June 15")
	assert.Error(t, err)
	assert.Nil(t, summary)
}

func TestFormatMessage_LeadPhrase(t *testing.T) {
	booking := &models.Booking{
		Name:        "Jake Miller",
		BookingDate: "2030-06-15",
		BookingTime: "13:00",
	}

	tests := []struct {
		leadDays int
		want     string
	}{
		{0, "scheduled for today"},
		{1, "scheduled for tomorrow"},
		{2, "scheduled in 2 days"},
	}

	for _, tt := range tests {
		cfg := config.ReminderConfig{LeadDays: tt.leadDays, BusinessName: "Kerr Detailing"}
		svc := NewReminderService(nil, &fakeGateway{}, cfg, newTestLogger())
		assert.Contains(t, svc.formatMessage(booking), tt.want)
	}
}

func TestSendReminder(t *testing.T) {
	svc, mock, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	rows := sqlmock.NewRows(reminderColumns)
	addCandidateRow(rows, "b1", "Jake Miller", "5551234567", "13:00")

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("b1").
		WillReturnRows(rows)
	mock.ExpectExec("UPDATE bookings").
		WithArgs("b1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	outcome, err := svc.SendReminder(context.Background(), "b1")
	require.NoError(t, err)

	assert.Equal(t, "sent", outcome.Status)
	assert.Equal(t, "b1", outcome.BookingID)
	require.Len(t, gateway.sent, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSendReminder_NotFound(t *testing.T) {
	svc, mock, _, cleanup := newReminderFixture(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM bookings WHERE id").
		WithArgs("missing").
		WillReturnError(fmt.Errorf("sql: no rows in result set"))

	outcome, err := svc.SendReminder(context.Background(), "missing")
	assert.Error(t, err)
	assert.Nil(t, outcome)
}

func TestTestSMS(t *testing.T) {
	svc, _, gateway, cleanup := newReminderFixture(t)
	defer cleanup()

	result, err := svc.TestSMS(context.Background(), "(555) 123-4567", "")
	require.NoError(t, err)
	assert.NotEmpty(t, result.MessageID)

	require.Len(t, gateway.sent, 1)
	assert.Equal(t, "+15551234567", gateway.sent[0].To)
	assert.Contains(t, gateway.sent[0].Body, "Kerr Detailing")

	_, err = svc.TestSMS(context.Background(), "12", "hello")
	assert.Error(t, err)
}
