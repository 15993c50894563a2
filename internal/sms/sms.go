// Package sms defines the outbound SMS collaborator. It is configured at
// startup but not used by any current flow; OTP delivery is email-only.
package sms

import "context"

// Sender delivers a text message to a phone number
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

// NoopSender discards messages. It stands in when no SMS provider is configured.
type NoopSender struct{}

// Send implements Sender
func (NoopSender) Send(ctx context.Context, to, body string) error { return nil }

var _ Sender = NoopSender{}
