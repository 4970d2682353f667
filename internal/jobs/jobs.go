// Package jobs provides the asynchronous boundary between local message
// parsing and the remote parsing collaborator. Escalation is fire-and-forget:
// the local parse result is already persisted before a job is published, and
// the remote result arrives later through the callback endpoint.
package jobs

import (
	"context"
	"time"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// RemoteParseJob asks the remote parser to re-extract one message. The
// remote side posts its result to CallbackURL.
type RemoteParseJob struct {
	JobID       string    `json:"job_id"`
	MessageID   string    `json:"message_id"`
	Text        string    `json:"text"`
	CallbackURL string    `json:"callback_url"`
	Status      JobStatus `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	Error       string    `json:"error,omitempty"`
}

// Publisher enqueues remote-parse jobs. Implementations must not block the
// caller beyond buffering; the ingest path depends on this.
type Publisher interface {
	PublishRemoteParse(ctx context.Context, job *RemoteParseJob) error
	Close() error
}

// Consumer processes jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs; handler is invoked for each one.
	Start(ctx context.Context, handler JobHandler) error
	// Stop stops consuming and waits for in-flight jobs.
	Stop(ctx context.Context) error
}

// JobHandler processes one job. A returned error marks the job failed;
// there is no retry, since the locally parsed record is already persisted
// and visible.
type JobHandler func(ctx context.Context, job *RemoteParseJob) error
