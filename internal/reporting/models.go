package reporting

import "time"

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call outcomes over the audit trail.
// UserID optionally narrows the summary to calls the user took part in.
type CallsSummaryRequest struct {
	Range  TimeRange `json:"range"`
	UserID string    `json:"user_id,omitempty"`
}

type CallsSummary struct {
	Range  TimeRange `json:"range"`
	UserID string    `json:"user_id,omitempty"`

	Requested int `json:"requested"`
	Busy      int `json:"busy"`
	Connected int `json:"connected"`

	// Endings by reason.
	Completed    int `json:"completed"`
	Rejected     int `json:"rejected"`
	Cancelled    int `json:"cancelled"`
	TimedOut     int `json:"timed_out"`
	Disconnected int `json:"disconnected"`

	TotalConnectedSeconds   int     `json:"total_connected_seconds"`
	AverageConnectedSeconds int     `json:"average_connected_seconds"`
	ConnectionRate          float64 `json:"connection_rate"`
}
