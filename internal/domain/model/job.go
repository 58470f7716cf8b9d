package model

import "time"

// JobState is the lifecycle position of an asynchronous optimization.
type JobState string

// Job states. A job only moves forward through them.
const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Done reports whether s is terminal.
func (s JobState) Done() bool { return s == JobSucceeded || s == JobFailed }

// Job is an optimization request accepted for background processing.
type Job struct {
	ID          string    `json:"id"`
	State       JobState  `json:"state"`
	Request     Request   `json:"request"`
	Report      *Report   `json:"report,omitempty"`
	Message     string    `json:"message,omitempty"`
	Error       string    `json:"error,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	FinishedAt  time.Time `json:"finished_at,omitzero"`
}
