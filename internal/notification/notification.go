package notification

import (
	"context"
	"log/slog"
)

const (
	// KindTopupCompleted tells a beneficiary their bank transfer was matched.
	KindTopupCompleted = "topup_completed"
)

// Message describes a notification payload.
type Message struct {
	Kind        string
	Destination string
	Body        string
	Attributes  map[string]string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the structured logger until a real
// delivery channel is wired.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	attrs := []any{"kind", message.Kind, "destination", message.Destination, "body", message.Body}
	for k, v := range message.Attributes {
		attrs = append(attrs, k, v)
	}
	n.logger.Info("notification", attrs...)
	return nil
}
