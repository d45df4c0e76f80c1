package logging

import "time"

// #region query-entry
// QueryEntry is a single row in the query_log table.
type QueryEntry struct {
	RunID       string
	TriggerType string // "cli" | "rpc" | "replay"
	Outcome     string // "ok", an inference.ErrorKind tag, or a replay action
	Reason      string
	CreatedAt   time.Time
}

// #endregion query-entry

// #region outcomes
const (
	OutcomeOK = "ok"

	TriggerCLI    = "cli"
	TriggerRPC    = "rpc"
	TriggerReplay = "replay"
)

// #endregion outcomes
