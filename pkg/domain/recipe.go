package domain

import "time"

// Recipe is a named, authored setpoint program.
// Records are parsed on every compile, never cached.
type Recipe struct {
	Name      string   `json:"name" mapstructure:"name"`
	Records   []string `json:"records" mapstructure:"records"`
	LoopCount uint32   `json:"loop" mapstructure:"loop"`
}

// Point is one vertex of a preview curve.
type Point struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

// RunRecord is the journal entry of one run of a recipe on an axis.
type RunRecord struct {
	RunID     string      `json:"run_id"`
	Axis      string      `json:"axis"`
	Recipe    string      `json:"recipe"`
	Status    RunStatus   `json:"status"`
	Reason    AbortReason `json:"reason,omitempty"`
	StepIndex int         `json:"step_index"`
	Steps     int         `json:"steps"`
	Started   time.Time   `json:"started"`
	Ended     time.Time   `json:"ended,omitempty"`
	Error     string      `json:"error,omitempty"`
}
