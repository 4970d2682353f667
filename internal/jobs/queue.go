package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"finwise/internal/logger"
	"finwise/internal/uuid"
)

// Queue is an in-memory Publisher/Consumer backed by a channel. It is safe
// for concurrent use and suitable for single-instance deployments; a broker
// can replace it behind the same interfaces without touching the ingest
// pipeline.
type Queue struct {
	jobChan   chan *RemoteParseJob
	closeChan chan struct{}
	wg        sync.WaitGroup
	mu        sync.RWMutex
	closed    bool
	workers   int
}

// NewQueue creates an in-memory queue. bufferSize bounds how many jobs can
// wait before PublishRemoteParse blocks; workers is the number of
// concurrent consumers.
func NewQueue(bufferSize, workers int) *Queue {
	if workers <= 0 {
		workers = 2
	}
	return &Queue{
		jobChan:   make(chan *RemoteParseJob, bufferSize),
		closeChan: make(chan struct{}),
		workers:   workers,
	}
}

// PublishRemoteParse implements Publisher.
func (q *Queue) PublishRemoteParse(ctx context.Context, job *RemoteParseJob) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return fmt.Errorf("queue is closed")
	}

	if job.JobID == "" {
		job.JobID = uuid.New()
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}

	select {
	case q.jobChan <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.closeChan:
		return fmt.Errorf("queue is closed")
	}
}

// Start implements Consumer. It launches the worker goroutines and returns
// immediately.
func (q *Queue) Start(ctx context.Context, handler JobHandler) error {
	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		return fmt.Errorf("queue is closed")
	}
	q.mu.RUnlock()

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, handler)
	}
	return nil
}

func (q *Queue) worker(ctx context.Context, handler JobHandler) {
	defer q.wg.Done()

	log := logger.Named("jobs")
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.closeChan:
			return
		case job := <-q.jobChan:
			if job == nil {
				return
			}

			job.Status = JobStatusRunning
			if err := handler(ctx, job); err != nil {
				job.Status = JobStatusFailed
				job.Error = err.Error()
				// The local parse is already persisted; a failed
				// escalation costs nothing but the better parse.
				log.Warnw("remote parse dispatch failed",
					"job_id", job.JobID,
					"message_id", job.MessageID,
					"error", err,
				)
				continue
			}
			job.Status = JobStatusCompleted
		}
	}
}

// Stop implements Consumer. It closes the queue and waits for in-flight
// jobs to finish or the context to expire.
func (q *Queue) Stop(ctx context.Context) error {
	if err := q.Close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close implements Publisher.
func (q *Queue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.closeChan)
	return nil
}
