package domain

import "time"

// StateTerminalSuccess is the backend-reported state marking a run that
// finished, as opposed to one that was retried, revoked, or lost. The
// business outcome of a finished run is carried separately by the Success
// flag.
const StateTerminalSuccess = "SUCCESS"

// ExecutionResult is a row written by the execution backend after a run.
// It is read-only to this engine: the reconciliation job consumes each row
// exactly once and then deletes it. TaskID correlates to a TaskRecord's
// content identifier.
type ExecutionResult struct {
	ResultID     string    `json:"result_id"`
	TaskID       string    `json:"task_id"`
	State        string    `json:"state"`
	Success      bool      `json:"success"`
	Input        string    `json:"input"`
	Error        string    `json:"error"`
	Exception    string    `json:"exception"`
	Traceback    string    `json:"traceback"`
	ResponseJSON string    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}

// TargetStatus maps the backend-reported outcome onto the task status to
// apply during reconciliation:
//
//   - a finished run with a successful business outcome -> SUCCESS
//   - a finished run with a failed business outcome -> FAILED
//   - anything else -> PENDING, treated as an inconclusive infra failure
//     eligible for retry
func (r *ExecutionResult) TargetStatus() TaskStatus {
	if r.State == StateTerminalSuccess {
		if r.Success {
			return TaskStatusSuccess
		}
		return TaskStatusFailed
	}
	return TaskStatusPending
}
