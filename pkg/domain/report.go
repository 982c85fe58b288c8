package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskResult is the recorded outcome of one instance.
type TaskResult struct {
	Task        string        `json:"task"`
	Fullname    string        `json:"fullname"`
	Independent bool          `json:"independent,omitempty"`
	Status      Status        `json:"status"`
	StartedAt   time.Time     `json:"started_at,omitempty"`
	FinishedAt  time.Time     `json:"finished_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// RunReport summarizes a finished run. Reports are written once the run
// ends; an interrupted run is never resumed from one.
type RunReport struct {
	ID         string       `json:"id"`
	Requested  []string     `json:"requested"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Success    bool         `json:"success"`
	DryRun     bool         `json:"dry_run,omitempty"`
	Tasks      []TaskResult `json:"tasks"`

	// Sealed holds the encrypted Requested and Tasks fields when the history
	// store encrypts reports at rest. Both fields are empty while it is set.
	Sealed string `json:"sealed,omitempty"`
}

// NewRunReport starts a report for the requested task names under a fresh
// random ID.
func NewRunReport(requested []string, dryRun bool, started time.Time) *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		Requested: append([]string(nil), requested...),
		StartedAt: started,
		DryRun:    dryRun,
	}
}

// Finish records the outcome of every scheduled instance, including the ones
// left PENDING when the run stopped early.
func (r *RunReport) Finish(seq []*Instance, success bool, finished time.Time) {
	r.FinishedAt = finished
	r.Success = success
	r.Tasks = make([]TaskResult, 0, len(seq))
	for _, inst := range seq {
		r.Tasks = append(r.Tasks, ResultOf(inst))
	}
}

// Clone returns a deep copy of r.
func (r *RunReport) Clone() *RunReport {
	out := *r
	out.Requested = append([]string(nil), r.Requested...)
	out.Tasks = append([]TaskResult(nil), r.Tasks...)
	return &out
}

// ResultOf snapshots an instance.
func ResultOf(inst *Instance) TaskResult {
	r := TaskResult{
		Task:        inst.Name(),
		Fullname:    inst.Definition.Fullname,
		Independent: inst.Independent,
		Status:      inst.Status,
		StartedAt:   inst.StartedAt,
		FinishedAt:  inst.FinishedAt,
		Duration:    inst.Duration(),
	}
	if inst.Err != nil {
		r.Error = inst.Err.Error()
	}
	return r
}

// Count returns how many results carry status s.
func (r *RunReport) Count(s Status) int {
	n := 0
	for _, t := range r.Tasks {
		if t.Status == s {
			n++
		}
	}
	return n
}
