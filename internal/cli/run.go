package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/bake"
	"github.com/aretw0/bake/pkg/domain"
)

// ErrRunFailed is returned when a run finished with a failed task.
var ErrRunFailed = errors.New("run failed")

// ErrNothingToRun is returned when no task is left to run.
var ErrNothingToRun = errors.New("no task to run")

// Run parses "task k=v task2 ..." arguments, runs them on engine and
// reports the outcome. In interactive mode an unknown task name may be
// dropped after confirmation. With --json the run report is written to
// s.Out as a single JSON line.
func Run(ctx context.Context, engine *bake.Engine, console domain.Console, f Flags, args []string, s Streams) (*domain.RunReport, error) {
	reqs, err := ParseRequests(args)
	if err != nil {
		return nil, err
	}

	var keep func(string) bool
	if f.Interactive {
		keep = func(name string) bool {
			return console.Check(fmt.Sprintf("[!R]unknown task %q[!], continue without it?", name), false)
		}
	}
	reqs, err = DropUnknown(reqs, engine.Resolve, keep)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNothingToRun
	}

	report, err := engine.Run(ctx, reqs)
	if report == nil {
		return nil, err
	}

	if f.JSON {
		if encErr := json.NewEncoder(s.Out).Encode(report); encErr != nil {
			return report, encErr
		}
	} else {
		summarize(console, report, f.Timing)
	}

	if err != nil {
		return report, err
	}
	if !report.Success {
		return report, ErrRunFailed
	}
	return report, nil
}

func summarize(console domain.Console, report *domain.RunReport, timing bool) {
	msg := fmt.Sprintf("%d of %d tasks completed", report.Count(domain.StatusCompleted), len(report.Tasks))
	if skipped := report.Count(domain.StatusSkipped); skipped > 0 {
		msg += fmt.Sprintf(", %d skipped", skipped)
	}
	if timing {
		msg += fmt.Sprintf(" in %.03fs", report.FinishedAt.Sub(report.StartedAt).Seconds())
	}
	if report.Success {
		console.Report("[!G]" + msg + "[!]")
		return
	}
	console.Error(msg, "")
}
