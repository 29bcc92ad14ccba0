// Package jobs provides the background execution layer for review work.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sevigo/pr-reviewer/internal/core"
)

const defaultQueueSize = 100

// dispatcher implements core.JobDispatcher with a fixed pool of worker
// goroutines draining a bounded event queue.
type dispatcher struct {
	job        core.Job
	queue      chan *core.ReviewEvent
	maxWorkers int
	wg         sync.WaitGroup
	logger     *slog.Logger
}

// NewDispatcher starts a worker pool running the given job. If maxWorkers is
// 0 or negative, it defaults to 1.
func NewDispatcher(job core.Job, maxWorkers int, logger *slog.Logger) core.JobDispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	d := &dispatcher{
		job:        job,
		maxWorkers: maxWorkers,
		queue:      make(chan *core.ReviewEvent, defaultQueueSize),
		logger:     logger,
	}
	d.startWorkers()
	return d
}

func (d *dispatcher) startWorkers() {
	for i := range d.maxWorkers {
		d.wg.Add(1)
		go d.startWorker(i)
	}
}

// startWorker drains the queue until it is closed.
func (d *dispatcher) startWorker(workerID int) {
	defer d.wg.Done()
	d.logger.Info("starting review worker", "id", workerID)

	for event := range d.queue {
		d.processEvent(workerID, event)
	}

	d.logger.Info("shutting down review worker", "id", workerID)
}

func (d *dispatcher) processEvent(workerID int, event *core.ReviewEvent) {
	d.logger.Info("worker processing review",
		"worker_id", workerID,
		"repo", event.FullName,
		"pr", event.Number,
	)

	if err := d.job.Run(context.Background(), event); err != nil {
		d.logger.Error("review job failed",
			"repo", event.FullName,
			"pr", event.Number,
			"error", err,
		)
	}
}

// Dispatch queues a review event. A full queue rejects the event so the
// caller can report backpressure instead of blocking the webhook handler.
func (d *dispatcher) Dispatch(_ context.Context, event *core.ReviewEvent) error {
	d.logger.Info("queuing review job", "repo", event.FullName, "pr", event.Number)

	select {
	case d.queue <- event:
		return nil
	default:
		return fmt.Errorf("job queue is full, cannot accept new review job")
	}
}

// Stop closes the queue and waits for in-flight reviews to finish.
func (d *dispatcher) Stop() {
	d.logger.Info("stopping dispatcher and waiting for jobs to finish")
	close(d.queue)
	d.wg.Wait()
	d.logger.Info("all review jobs have finished")
}
