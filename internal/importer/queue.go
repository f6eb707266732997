package importer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"asset-tracker-backend/internal/parse"
)

// ErrQueueStopped is returned by Submit for a job no worker will run.
var ErrQueueStopped = errors.New("import queue stopped")

// Importer runs one import. *Pipeline implements it.
type Importer interface {
	ImportAll(ctx context.Context, rows []parse.Row) (int, error)
}

type result struct {
	count int
	err   error
}

type job struct {
	rows   []parse.Row
	result chan result
}

// Queue serializes import runs through a fixed pool of workers.
type Queue struct {
	size     int
	jobs     chan job
	importer Importer
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewQueue creates a queue with size workers. Start must be called before Submit can complete.
func NewQueue(size int, importer Importer, logger *zap.Logger) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		size:     size,
		jobs:     make(chan job, size), // Buffered channel
		importer: importer,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the worker goroutines. Runs use ctx, so a started run finishes
// even when the submitter goes away. Cancelling ctx stops the queue like Stop
// but without waiting, and aborts runs in flight.
func (q *Queue) Start(ctx context.Context) {
	go func() {
		select {
		case <-ctx.Done():
			q.close()
		case <-q.done:
		}
	}()
	q.wg.Add(q.size)
	for i := 0; i < q.size; i++ {
		go q.worker(ctx, i)
	}
}

// Stop stops accepting jobs and blocks until every worker has finished its
// current run. Jobs still waiting in the buffer are answered with ErrQueueStopped.
func (q *Queue) Stop() {
	q.close()
	q.wg.Wait()
}

func (q *Queue) close() {
	q.stopOnce.Do(func() { close(q.done) })
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	q.logger.Debug("Import worker started", zap.Int("worker", id))
	for {
		// A closed queue takes no new job even when one is buffered.
		select {
		case <-q.done:
			q.logger.Debug("Import worker shutting down", zap.Int("worker", id))
			return
		default:
		}

		select {
		case j := <-q.jobs:
			count, err := q.importer.ImportAll(ctx, j.rows)
			j.result <- result{count: count, err: err}
		case <-q.done:
			q.logger.Debug("Import worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Submit enqueues rows and waits for the run to finish. If ctx ends first,
// Submit returns ctx.Err() but a run already picked up still completes.
// When the queue stops, Submit reports the outcome of a run that was already
// picked up and ErrQueueStopped for one that never started.
func (q *Queue) Submit(ctx context.Context, rows []parse.Row) (int, error) {
	j := job{rows: rows, result: make(chan result, 1)}

	select {
	case <-q.done:
		return 0, ErrQueueStopped
	default:
	}

	select {
	case q.jobs <- j:
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-q.done:
		return 0, ErrQueueStopped
	}

	select {
	case r := <-j.result:
		return r.count, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-q.done:
	}

	q.wg.Wait()
	select {
	case r := <-j.result:
		return r.count, r.err
	default:
		return 0, ErrQueueStopped
	}
}
