package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Twilio REST error codes we translate into user-facing failures
const (
	CodeInvalidPhoneNumber = 21211
	CodeUnreachableNumber  = 21608
)

// GatewayError is a structured failure returned by the SMS provider
type GatewayError struct {
	Code    int
	Message string
}

func (e *GatewayError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("sms gateway error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("sms gateway error: %s", e.Message)
}

// TwilioGateway implements SMS sending via the Twilio Messages API
type TwilioGateway struct {
	baseURL    string
	accountSID string
	authToken  string
	from       string
	client     *http.Client
}

// TwilioConfig holds configuration for the Twilio gateway
type TwilioConfig struct {
	BaseURL    string // defaults to https://api.twilio.com
	AccountSID string
	AuthToken  string
	From       string // sending number in E.164 format
}

// NewTwilioGateway creates a new Twilio SMS gateway client
func NewTwilioGateway(config TwilioConfig) *TwilioGateway {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &TwilioGateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: config.AccountSID,
		authToken:  config.AuthToken,
		from:       config.From,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetName returns the gateway implementation name
func (g *TwilioGateway) GetName() string {
	return "twilio"
}

// twilioMessageResponse is the subset of the Messages API response we use
type twilioMessageResponse struct {
	SID          string `json:"sid"`
	Status       string `json:"status"`
	ErrorCode    *int   `json:"error_code"`
	ErrorMessage string `json:"error_message"`

	// Error body fields (returned with non-2xx status)
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers a message through the Twilio Messages endpoint
func (g *TwilioGateway) Send(ctx context.Context, to, body string) (*SendResult, error) {
	formatted, err := FormatE164(to)
	if err != nil {
		return nil, &GatewayError{Code: CodeInvalidPhoneNumber, Message: err.Error()}
	}

	form := url.Values{}
	form.Set("To", formatted)
	form.Set("From", g.from)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", g.baseURL, g.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(g.accountSID, g.authToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call SMS gateway: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read SMS gateway response: %w", err)
	}

	var msg twilioMessageResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse SMS gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &GatewayError{Code: msg.Code, Message: msg.Message}
	}

	if msg.ErrorCode != nil {
		return nil, &GatewayError{Code: *msg.ErrorCode, Message: msg.ErrorMessage}
	}

	return &SendResult{MessageID: msg.SID, Status: msg.Status}, nil
}

// FormatE164 normalizes a phone number to E.164, assuming US numbers
// when no country code is present. Accepts separators and parentheses.
func FormatE164(phone string) (string, error) {
	var digits strings.Builder
	hasPlus := strings.HasPrefix(strings.TrimSpace(phone), "+")
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	d := digits.String()
	switch {
	case d == "":
		return "", fmt.Errorf("phone number has no digits")
	case hasPlus:
		return "+" + d, nil
	case len(d) == 10:
		return "+1" + d, nil
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d, nil
	default:
		return "", fmt.Errorf("cannot normalize phone number %q to E.164", phone)
	}
}
