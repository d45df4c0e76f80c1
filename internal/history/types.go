package history

import (
	"time"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/inference"
)

// #region run
// Run is one completed query, successful or not.
type Run struct {
	RunID        string
	Query        string
	Evidence     inference.Evidence
	Order        []string
	Planner      string
	Distribution inference.Distribution // nil when the query failed
	ErrorKind    string                 // inference.ErrorKind tag, "" on success
	ErrorText    string
	CreatedAt    time.Time
}

// Failed reports whether the run ended in an error.
func (r Run) Failed() bool {
	return r.ErrorKind != ""
}

// #endregion run

// #region run-with-log
// RunWithLog pairs a run with its most recent query_log row.
type RunWithLog struct {
	Run
	TriggerType string
	Outcome     string
	Reason      string
}

// #endregion run-with-log
