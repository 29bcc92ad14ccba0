package core

import (
	"context"
)

// JobDispatcher accepts and queues background jobs for asynchronous
// processing. It decouples the event source (webhook handler, CLI) from the
// job execution mechanism.
type JobDispatcher interface {
	// Dispatch queues a ReviewEvent for processing. It returns an error if
	// the job cannot be queued, for example when the queue is full,
	// providing a mechanism for backpressure.
	Dispatch(ctx context.Context, event *ReviewEvent) error

	// Stop shuts the dispatcher down, waiting for in-flight jobs to finish.
	Stop()
}

// Job is a single executable unit of work triggered by a ReviewEvent, such
// as a full review pipeline run.
type Job interface {
	Run(ctx context.Context, event *ReviewEvent) error
}
