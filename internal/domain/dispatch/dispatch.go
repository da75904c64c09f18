package dispatch

import "context"

// SMSPayload is the outbound shape some other worker drains to place an SMS.
type SMSPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// EmailPayload is the outbound shape for email delivery.
type EmailPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sink is the append-only queue the resend orchestrator writes to. The core
// never calls a transport API directly; a separate consumer performs the
// actual SMS/email delivery.
type Sink interface {
	EnqueueSMS(ctx context.Context, p *SMSPayload) error
	EnqueueEmail(ctx context.Context, p *EmailPayload) error
}
