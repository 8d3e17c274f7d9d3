package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"github.com/kerrdetailing/booking-backend/internal/config"
	"github.com/kerrdetailing/booking-backend/internal/models"
)

// AuthorizeParams carries the inputs for a payment authorization attempt
type AuthorizeParams struct {
	AmountCents     int64
	PaymentMethodID string
	Description     string
	ReceiptEmail    string
	Metadata        map[string]string
}

// PaymentAuthorizer charges a tokenized payment instrument. Failures are
// reported as *models.PaymentError so callers can classify them.
type PaymentAuthorizer interface {
	Authorize(params AuthorizeParams) (*models.PaymentResult, error)
}

// StripeService authorizes payments through Stripe payment intents
type StripeService struct {
	currency string
	logger   *logrus.Logger
}

// NewStripeService creates a new StripeService and sets the global API key
func NewStripeService(cfg config.PaymentConfig, logger *logrus.Logger) *StripeService {
	stripe.Key = cfg.SecretKey
	return &StripeService{
		currency: cfg.Currency,
		logger:   logger,
	}
}

// Authorize creates and confirms a payment intent for the given amount.
// The charge settles immediately; there is no separate capture step.
func (s *StripeService) Authorize(params AuthorizeParams) (*models.PaymentResult, error) {
	if params.PaymentMethodID == "" {
		return nil, &models.PaymentError{
			Reason:  models.PaymentInvalidInstrument,
			Message: "a payment method is required",
		}
	}
	if params.AmountCents <= 0 {
		return nil, &models.PaymentError{
			Reason:  models.PaymentInvalidInstrument,
			Message: fmt.Sprintf("invalid charge amount: %d", params.AmountCents),
		}
	}

	piParams := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(params.AmountCents),
		Currency:      stripe.String(s.currency),
		PaymentMethod: stripe.String(params.PaymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String(string(stripe.PaymentIntentAutomaticPaymentMethodsAllowRedirectsNever)),
		},
	}
	if params.Description != "" {
		piParams.Description = stripe.String(params.Description)
	}
	if params.ReceiptEmail != "" {
		piParams.ReceiptEmail = stripe.String(params.ReceiptEmail)
	}
	for k, v := range params.Metadata {
		piParams.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(piParams)
	if err != nil {
		payErr := classifyStripeError(err)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"amount_cents": params.AmountCents,
			"reason":       payErr.Reason,
		}).Warn("Payment authorization failed")
		return nil, payErr
	}

	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		s.logger.WithFields(logrus.Fields{
			"payment_intent": pi.ID,
			"status":         pi.Status,
		}).Warn("Payment intent did not succeed")
		return nil, &models.PaymentError{
			Reason:  models.PaymentDeclined,
			Message: fmt.Sprintf("payment not completed (status: %s)", pi.Status),
		}
	}

	s.logger.WithFields(logrus.Fields{
		"payment_intent": pi.ID,
		"amount_cents":   pi.Amount,
	}).Info("Payment authorized")

	return &models.PaymentResult{
		Reference:   pi.ID,
		Status:      models.PaymentStatusSucceeded,
		AmountCents: pi.Amount,
	}, nil
}

// classifyStripeError maps a Stripe API error onto the payment error taxonomy
func classifyStripeError(err error) *models.PaymentError {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &models.PaymentError{
			Reason:  models.PaymentNetworkFailure,
			Message: "payment provider unreachable",
			Err:     err,
		}
	}

	switch stripeErr.Type {
	case stripe.ErrorTypeCard:
		return &models.PaymentError{
			Reason:  models.PaymentDeclined,
			Message: stripeErr.Msg,
			Err:     err,
		}
	case stripe.ErrorTypeInvalidRequest:
		return &models.PaymentError{
			Reason:  models.PaymentInvalidInstrument,
			Message: stripeErr.Msg,
			Err:     err,
		}
	case stripe.ErrorTypeAPI:
		return &models.PaymentError{
			Reason:  models.PaymentNetworkFailure,
			Message: "payment provider error",
			Err:     err,
		}
	default:
		return &models.PaymentError{
			Reason:  models.PaymentNetworkFailure,
			Message: stripeErr.Msg,
			Err:     err,
		}
	}
}
