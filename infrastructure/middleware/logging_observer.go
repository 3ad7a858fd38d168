package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahrav/go-criteria/internal/ports"
)

var _ ports.StepObserver = (*LoggingObserver)(nil)

// LoggingObserver writes one structured record per step start and end.
// Starts are logged at debug level, successful ends at info and failures
// at error.
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a LoggingObserver. A nil logger uses
// slog.Default at call time.
func NewLoggingObserver(logger *slog.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) log() *slog.Logger {
	if o.logger == nil {
		return slog.Default()
	}
	return o.logger
}

// OnStepStart implements ports.StepObserver.
func (o *LoggingObserver) OnStepStart(ctx context.Context, info ports.StepInfo) context.Context {
	o.log().DebugContext(ctx, "step started",
		"step", info.Name,
		"index", info.Index,
		"kind", string(info.Kind),
		"stage", info.Stage,
		"alternatives", info.Alternatives,
		"criteria", info.Criteria,
	)
	return ctx
}

// OnStepEnd implements ports.StepObserver.
func (o *LoggingObserver) OnStepEnd(ctx context.Context, info ports.StepInfo, elapsed time.Duration, err error) {
	if err != nil {
		o.log().ErrorContext(ctx, "step failed",
			"step", info.Name,
			"index", info.Index,
			"elapsed", elapsed,
			"error", err,
		)
		return
	}
	o.log().InfoContext(ctx, "step finished",
		"step", info.Name,
		"index", info.Index,
		"elapsed", elapsed,
	)
}
