package interaction

import (
	"context"
	"log/slog"
)

// LogNotifier reports operator messages through a structured logger.
// It is the default when no front-end notifier is configured.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Info(ctx context.Context, msg string) {
	n.Logger.InfoContext(ctx, msg)
}

func (n LogNotifier) Warn(ctx context.Context, msg string) {
	n.Logger.WarnContext(ctx, msg)
}

func (n LogNotifier) Error(ctx context.Context, msg string, err error) {
	n.Logger.ErrorContext(ctx, msg, "err", err)
}
