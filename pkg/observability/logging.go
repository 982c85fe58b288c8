package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/bake/pkg/domain"
)

// LoggingHooks returns lifecycle hooks writing one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID, "scheduled", e.Scheduled)
		},
		OnRunFinish: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_finish",
				"run_id", e.RunID,
				"completed", e.Completed,
				"success", e.Success,
			)
		},
		OnTaskStart: func(ctx context.Context, e *domain.TaskEvent) {
			logger.DebugContext(ctx, "task_start", "run_id", e.RunID, "task", e.Fullname, "independent", e.Independent)
		},
		OnTaskFinish: func(ctx context.Context, e *domain.TaskEvent) {
			level := slog.LevelInfo
			if e.Status == domain.StatusFailed {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "task_finish",
				"run_id", e.RunID,
				"task", e.Fullname,
				"status", e.Status,
				"duration", e.Duration,
				"err", e.Error,
			)
		},
	}
}
