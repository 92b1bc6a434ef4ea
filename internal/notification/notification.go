package notification

import (
    "context"
    "log/slog"
)

const (
    // KindTopupSucceeded indicates a completed topup.
    KindTopupSucceeded = "topup_succeeded"
    // KindTopupFailed indicates a topup that halted before confirmation.
    KindTopupFailed = "topup_failed"
)

// Message describes a user-facing notification payload.
type Message struct {
    Kind      string
    AttemptID string
    Body      string
}

// Notifier delivers notifications to the user-facing surface.
type Notifier interface {
    Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
    logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
    return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
    if n == nil || n.logger == nil {
        return nil
    }
    n.logger.Info("notification", "kind", message.Kind, "attempt_id", message.AttemptID, "body", message.Body)
    return nil
}
