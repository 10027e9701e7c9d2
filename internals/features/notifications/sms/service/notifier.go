// file: internals/features/notifications/sms/service/notifier.go
package service

import (
	"context"
	"log"
)

// Notifier is the fire-and-forget confirmation channel. Implementations must
// never block settlement: callers log errors and move on.
type Notifier interface {
	Send(ctx context.Context, phone, message string) error
}

// ConsoleNotifier logs instead of sending — used when Twilio creds are absent
// (local dev, tests).
type ConsoleNotifier struct{}

func NewConsoleNotifier() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (n *ConsoleNotifier) Send(ctx context.Context, phone, message string) error {
	log.Printf("📱 (SMS) %s → %s", message, phone)
	return nil
}
