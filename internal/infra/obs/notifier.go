package obs

import (
	"context"
	"log/slog"
)

// LogNotifier records notifications in the log instead of delivering them.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, to string, template string, data any) error {
	if n.Logger == nil {
		return nil
	}
	n.Logger.InfoContext(ctx, "notification", "to", to, "template", template, "data", data, "request_id", RequestIDFromContext(ctx))
	return nil
}
