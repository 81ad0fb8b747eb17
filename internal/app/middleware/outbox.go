package middleware

import (
	"context"
	"log/slog"

	"programhub/internal/app/commands"
	"programhub/internal/app/outbox"
)

// OutboxFlush flushes box after a successful command. A failed flush is logged and
// does not fail the command: the state change is already committed.
func OutboxFlush(box outbox.Outbox, logger *slog.Logger) CommandMiddleware {
	if box == nil {
		panic("middleware: outbox required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := box.Flush(ctx); err != nil && logger != nil {
				logger.Error("outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
