package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// WorkerPool is a generic pool for parallel task processing. The correlation
// engine uses one to evaluate rules concurrently over an immutable event set.
type WorkerPool struct {
	workers   int
	queueSize int
	taskCh    chan func()
	wg        sync.WaitGroup
	logger    *zap.SugaredLogger
	ctx       context.Context
	cancel    context.CancelFunc
	running   bool
	mu        sync.RWMutex
}

// NewWorkerPool creates a worker pool bound to parentCtx. Workers do not
// start until Start() is called; cancelling parentCtx stops them.
func NewWorkerPool(parentCtx context.Context, workers, queueSize int, logger *zap.SugaredLogger) *WorkerPool {
	ctx, cancel := context.WithCancel(parentCtx)
	return &WorkerPool{
		workers:   workers,
		queueSize: queueSize,
		taskCh:    make(chan func(), queueSize),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start begins processing tasks. Safe to call more than once.
func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return
	}
	wp.running = true

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// Stop cancels the pool context, drains the queue, and waits for workers.
// Safe to call multiple times.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if !wp.running {
		wp.mu.Unlock()
		return
	}
	wp.running = false
	wp.cancel()
	close(wp.taskCh)
	wp.mu.Unlock()

	done := make(chan struct{})
	go func() {
		wp.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		wp.logger.Errorw("Worker pool shutdown timed out, goroutines leaked",
			"workers", wp.workers)
	}
}

// Submit queues a task. Returns ErrWorkerPoolNotRunning after Stop, or
// ErrWorkerPoolQueueFull when the queue is at capacity.
func (wp *WorkerPool) Submit(task func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if !wp.running {
		return ErrWorkerPoolNotRunning
	}

	select {
	case wp.taskCh <- task:
		return nil
	default:
		return ErrWorkerPoolQueueFull
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.ctx.Done():
			// Drain remaining tasks so Submit callers are not stranded
			for {
				select {
				case task, ok := <-wp.taskCh:
					if !ok {
						return
					}
					wp.runTask(id, task)
				default:
					return
				}
			}
		case task, ok := <-wp.taskCh:
			if !ok {
				return
			}
			wp.runTask(id, task)
		}
	}
}

// runTask executes a task with panic recovery so one bad rule never takes
// down the pool.
func (wp *WorkerPool) runTask(id int, task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Errorw("Worker recovered from panic", "worker", id, "panic", r)
		}
	}()
	task()
}
