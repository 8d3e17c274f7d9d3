package sms

import "context"

// SendResult carries the gateway's receipt for an accepted message
type SendResult struct {
	MessageID string
	Status    string
}

// Gateway defines the interface for sending SMS messages
type Gateway interface {
	// Send delivers a message to the given phone number.
	// Returns the gateway receipt or an error (possibly a *GatewayError).
	Send(ctx context.Context, to, body string) (*SendResult, error)

	// GetName returns the name of the gateway implementation
	GetName() string
}
