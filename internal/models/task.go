// Package models defines the domain types for loggbok.
package models

// Task is one completed (or cancelled) unit of work pulled from the
// Things logbook. Values are immutable projections of the external
// store, rebuilt from scratch on every sync cycle.
type Task struct {
	UUID      string
	Title     string
	Area      string
	Tags      []string
	Notes     string
	StopDate  int64 // completion time, seconds since epoch; 0 when never completed
	Cancelled bool
	Subtasks  []Subtask
}

// Completed reports whether the task has a completion timestamp and
// therefore belongs to a calendar day.
func (t Task) Completed() bool {
	return t.StopDate > 0
}

// Subtask is a checklist item owned by exactly one Task.
type Subtask struct {
	Title     string
	Completed bool
}
