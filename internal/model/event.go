package model

import "time"

// EventType classifies a pipeline event
type EventType string

const (
	EventLog      EventType = "log"
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// LogLevel is the severity carried by log events
type LogLevel string

const (
	LevelInfo    LogLevel = "info"
	LevelSuccess LogLevel = "success"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

// Progress is a snapshot emitted after each processing batch
type Progress struct {
	Processed  int `json:"processed"`  // URLs processed so far
	Discovered int `json:"discovered"` // URLs discovered in total
	Added      int `json:"added"`      // Records accepted so far
	Target     int `json:"target"`     // Requested record count (0 = unbounded)
}

// Event is one item of the run's event stream
type Event struct {
	Type     EventType `json:"type"`
	Time     time.Time `json:"time"`
	RunID    string    `json:"run_id,omitempty"`
	Message  string    `json:"message,omitempty"`
	Level    LogLevel  `json:"level,omitempty"`
	Progress *Progress `json:"progress,omitempty"`
	Records  []Record  `json:"records,omitempty"`
}

// RunState is the orchestrator's lifecycle state
type RunState string

const (
	StateIdle       RunState = "idle"
	StateCollecting RunState = "collecting"
	StateProcessing RunState = "processing"
	StateVerifying  RunState = "verifying"
	StateCompleted  RunState = "completed"
	StateFailed     RunState = "failed"
)

// Terminal reports whether the state ends a run
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
