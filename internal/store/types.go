package store

import (
	"time"

	"github.com/go-json-experiment/json/jsontext"
)

// RunKind tells whether a run was seeded with state.
type RunKind string

const (
	RunRead          RunKind = "read"
	RunReadWithState RunKind = "read_with_state"
)

// Suite status values.
const (
	StatusRunning = "running"
	StatusPass    = "pass"
	StatusFail    = "fail"
	StatusSkip    = "skip"
	StatusError   = "error"
)

// Suite is one execution of the conformance suite.
type Suite struct {
	ID         string
	ConfigPath string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Seq        int64
}

// Run is one connector invocation.
type Run struct {
	ID           string
	SuiteID      string // empty for runs outside a suite
	Scenario     string
	Kind         RunKind
	InputState   jsontext.Value // nil for RunRead
	StartedAt    time.Time
	Duration     time.Duration
	Error        string
	MessageCount int
	Seq          int64
}

// MessageRow is a stored message of a run.
type MessageRow struct {
	RunID       string
	Seq         int64
	Type        string
	Stream      string
	Fingerprint string
	Body        jsontext.Value
}

// Verdict is the outcome of one scenario of a suite.
type Verdict struct {
	SuiteID  string
	Scenario string
	Status   string
	Detail   string
	Seq      int64
}
