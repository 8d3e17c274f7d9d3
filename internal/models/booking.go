package models

import (
	"time"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// PaymentStatus represents the payment status of a booking
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// CarCondition represents the declared condition of the vehicle
type CarCondition string

const (
	ConditionExcellent CarCondition = "excellent"
	ConditionGood      CarCondition = "good"
	ConditionFair      CarCondition = "fair"
	ConditionPoor      CarCondition = "poor"
)

// ValidCondition reports whether s is a known car condition value.
func ValidCondition(s string) bool {
	switch CarCondition(s) {
	case ConditionExcellent, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Booking represents a confirmed detailing appointment
type Booking struct {
	ID             string         `json:"id" db:"id"`
	UserID         string         `json:"user_id" db:"user_id"`
	Name           string         `json:"name" db:"name"`
	Email          string         `json:"email" db:"email"`
	Phone          string         `json:"phone" db:"phone"`
	ServiceID      string         `json:"service" db:"service"`
	BookingDate    string         `json:"booking_date" db:"booking_date"` // YYYY-MM-DD
	BookingTime    string         `json:"booking_time" db:"booking_time"` // slot value, e.g. "13:00"
	Message        *string        `json:"message,omitempty" db:"message"`
	CarMake        string         `json:"car_make" db:"car_make"`
	CarModel       string         `json:"car_model" db:"car_model"`
	CarYear        int            `json:"car_year" db:"car_year"`
	CarColor       *string        `json:"car_color,omitempty" db:"car_color"`
	CarCondition   CarCondition   `json:"car_condition" db:"car_condition"`
	Addons         StringArray    `json:"addons" db:"addons"`
	TotalPrice     int            `json:"total_price" db:"total_price"`
	TextReminders  bool           `json:"text_reminders" db:"text_reminders"`
	Status         BookingStatus  `json:"status" db:"status"`
	PaymentStatus  *PaymentStatus `json:"payment_status,omitempty" db:"payment_status"`
	PaymentRef     *string        `json:"payment_ref,omitempty" db:"payment_ref"`
	ReminderSentAt *time.Time     `json:"reminder_sent_at,omitempty" db:"reminder_sent_at"`
	CreatedAt      time.Time      `json:"created_at" db:"created_at"`
}

// VehicleInfo holds the vehicle details collected during the wizard
type VehicleInfo struct {
	Make      string `json:"car_make"`
	Model     string `json:"car_model"`
	Year      int    `json:"car_year"`
	Color     string `json:"car_color,omitempty"`
	Condition string `json:"car_condition"`
}

// BookingDraft is the in-progress booking state held by an open wizard
// session. It is never persisted; on success it is flattened into a
// Booking, on cancel it is discarded.
type BookingDraft struct {
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	Date          string      `json:"date"`
	Time          string      `json:"time"`
	Message       string      `json:"message"`
	Vehicle       VehicleInfo `json:"vehicle"`
	ServiceID     string      `json:"service"`
	Addons        []string    `json:"addons"`
	TotalPrice    int         `json:"total_price"`
	TextReminders bool        `json:"text_reminders"`
}

// PaymentResult is the outcome of a payment authorization attempt.
// It references the gateway authorization but carries no card data.
type PaymentResult struct {
	Reference   string        `json:"reference"`
	Status      PaymentStatus `json:"status"`
	AmountCents int64         `json:"amount_cents"`
}

// TimeSlot is one entry of the fixed daily slot grid, annotated with
// availability for the queried date.
type TimeSlot struct {
	Value     string `json:"value"`
	Label     string `json:"label"`
	Available bool   `json:"available"`
}

// ContactRequest carries the step-1 contact fields of the wizard
type ContactRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Message       string `json:"message"`
	TextReminders bool   `json:"text_reminders"`
}

// VehicleRequest carries the step-2 vehicle fields of the wizard
type VehicleRequest struct {
	Make      string `json:"car_make"`
	Model     string `json:"car_model"`
	Year      string `json:"car_year"`
	Color     string `json:"car_color"`
	Condition string `json:"car_condition"`
}

// ServiceSelectionRequest carries a package selection or an addon toggle
type ServiceSelectionRequest struct {
	ServiceID   string `json:"service,omitempty"`
	ToggleAddon string `json:"toggle_addon,omitempty"`
}

// PayRequest carries the tokenized payment instrument for the final step
type PayRequest struct {
	PaymentMethodID string `json:"payment_method_id" binding:"required"`
}

// ReminderOutcome records a single dispatch attempt of the reminder job
type ReminderOutcome struct {
	BookingID    string `json:"bookingId"`
	CustomerName string `json:"customerName"`
	Phone        string `json:"phone"`
	Status       string `json:"status"` // "sent" or "failed"
	MessageID    string `json:"messageId,omitempty"`
	Error        string `json:"error,omitempty"`
}

// ReminderSummary is the aggregate result of one reminder job run
type ReminderSummary struct {
	Message       string            `json:"message"`
	TargetDate    string            `json:"targetDate"`
	TotalBookings int               `json:"totalBookings"`
	Processed     int               `json:"processedBookings"`
	SuccessCount  int               `json:"successCount"`
	FailureCount  int               `json:"failureCount"`
	Results       []ReminderOutcome `json:"results"`
}
