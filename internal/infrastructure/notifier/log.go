package notifier

import (
	"context"
	"log/slog"

	"github.com/fintrack/fintrack/internal/usecase"
)

// LogNotifier implements usecase.Notifier by logging the notification
// instead of dispatching it. Used in development and when the broker is
// disabled.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs the notification.
func (n *LogNotifier) Send(ctx context.Context, notification usecase.Notification) error {
	n.logger.InfoContext(ctx, "notification (dispatch disabled)",
		"recipient", notification.Recipient,
		"subject", notification.Subject,
		"template_type", notification.TemplateType,
	)
	return nil
}
