package models

import (
	"time"
)

// DiffStatus represents the overall outcome of a diff run
type DiffStatus string

const (
	// StatusSame indicates both inputs are identical
	StatusSame DiffStatus = "same"
	// StatusDifferent indicates the inputs differ
	StatusDifferent DiffStatus = "different"
	// StatusUnsupported indicates no engine could handle the inputs
	StatusUnsupported DiffStatus = "unsupported"
	// StatusFailed indicates the comparison aborted with an error
	StatusFailed DiffStatus = "failed"
)

// ExitCode returns the process exit code for the status
func (s DiffStatus) ExitCode() int {
	switch s {
	case StatusSame:
		return 0
	case StatusDifferent:
		return 1
	default:
		return -1
	}
}

// StatusFor maps a differs flag to a status
func StatusFor(different bool) DiffStatus {
	if different {
		return StatusDifferent
	}
	return StatusSame
}

// DiffResult holds the outcome of comparing two inputs
type DiffResult struct {
	// Run details
	RunID  string
	Input1 string
	Input2 string
	Engine string

	// Timing
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	// Report lines, already indented
	Lines []string

	// Statistics
	Stats Statistics

	// Overall status
	Status DiffStatus
	Error  string
}

// Statistics holds counters collected while walking containers
type Statistics struct {
	ItemsCompared int
	LeftOnly      int
	RightOnly     int
	Unsupported   int
}
