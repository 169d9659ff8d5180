package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// StartRun tags ctx with a fresh run ID. The ID doubles as the trace_id of
// every record logged under the returned context.
func StartRun(ctx context.Context) (context.Context, string) {
	runID := uuid.New().String()
	return WithTraceID(ctx, runID), runID
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithCompany scopes a logger to one company of one sector
func WithCompany(logger *slog.Logger, sector, symbol string) *slog.Logger {
	return logger.With(slog.String("sector", sector), slog.String("symbol", symbol))
}
