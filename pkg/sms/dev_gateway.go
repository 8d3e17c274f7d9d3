package sms

import (
	"context"
	"fmt"
	"sync"
)

// DevGateway is a no-delivery gateway for development environments.
// Messages are recorded in memory instead of being sent.
type DevGateway struct {
	mu       sync.Mutex
	sequence int
	Sent     []DevMessage
}

// DevMessage is a message captured by the DevGateway
type DevMessage struct {
	To   string
	Body string
}

// NewDevGateway creates a new development gateway
func NewDevGateway() *DevGateway {
	return &DevGateway{}
}

// GetName returns the gateway implementation name
func (g *DevGateway) GetName() string {
	return "dev"
}

// Send records the message and returns a synthetic receipt
func (g *DevGateway) Send(_ context.Context, to, body string) (*SendResult, error) {
	if _, err := FormatE164(to); err != nil {
		return nil, &GatewayError{Code: CodeInvalidPhoneNumber, Message: err.Error()}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.sequence++
	g.Sent = append(g.Sent, DevMessage{To: to, Body: body})

	return &SendResult{
		MessageID: fmt.Sprintf("DEV-%06d", g.sequence),
		Status:    "sent",
	}, nil
}
