package main

import (
	"context"
	"log"
	"sync"
)

// WorkerPool runs tasks keyed by string on a fixed number of goroutines.
type WorkerPool[T any] struct {
	maxWorkers    int
	taskQueue     chan string
	resultQueue   chan TaskResult[T]
	results       []TaskResult[T]
	resultsMux    sync.RWMutex
	processed     map[string]bool // Track queued items
	processedMux  sync.Mutex
	wg            sync.WaitGroup
	collectorDone chan struct{}
	stopped       bool
	stopOnce      sync.Once
}

// TaskResult represents the result of processing a task
type TaskResult[T any] struct {
	Data   string
	Result T
	Error  error
}

// TaskFunction processes one task. ctx is cancelled when the pool's context is.
type TaskFunction[T any] func(ctx context.Context, data string) (T, error)

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool[T any](maxWorkers int) *WorkerPool[T] {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	return &WorkerPool[T]{
		maxWorkers:    maxWorkers,
		taskQueue:     make(chan string, maxWorkers*2),
		resultQueue:   make(chan TaskResult[T], maxWorkers*2),
		results:       make([]TaskResult[T], 0),
		processed:     make(map[string]bool),
		collectorDone: make(chan struct{}),
	}
}

// Start launches the workers and the result collector.
func (wp *WorkerPool[T]) Start(ctx context.Context, taskFunc TaskFunction[T]) {
	go wp.resultCollector()

	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx, i, taskFunc)
	}
}

func (wp *WorkerPool[T]) resultCollector() {
	defer close(wp.collectorDone)
	for result := range wp.resultQueue {
		wp.resultsMux.Lock()
		wp.results = append(wp.results, result)
		wp.resultsMux.Unlock()
	}
}

func (wp *WorkerPool[T]) worker(ctx context.Context, workerID int, taskFunc TaskFunction[T]) {
	defer wp.wg.Done()

	for data := range wp.taskQueue {
		var (
			result T
			err    error
		)
		if err = ctx.Err(); err == nil {
			result, err = taskFunc(ctx, data)
		}

		wp.resultQueue <- TaskResult[T]{
			Data:   data,
			Result: result,
			Error:  err,
		}

		if err != nil {
			log.Printf("[worker %d] error processing %s: %v", workerID, data, err)
		}
	}
}

// AddTask adds a new task to the queue if it hasn't been queued yet.
// Returns true if the task was added.
func (wp *WorkerPool[T]) AddTask(data string) bool {
	wp.processedMux.Lock()
	defer wp.processedMux.Unlock()

	if wp.stopped || wp.processed[data] {
		return false
	}

	wp.processed[data] = true
	wp.taskQueue <- data
	return true
}

// Stop closes the task queue and waits for workers and the collector to finish.
// It is safe to call more than once.
func (wp *WorkerPool[T]) Stop() {
	wp.stopOnce.Do(func() {
		wp.processedMux.Lock()
		wp.stopped = true
		close(wp.taskQueue)
		wp.processedMux.Unlock()

		wp.wg.Wait()
		close(wp.resultQueue)
		<-wp.collectorDone
	})
}

// GetResultsMap returns results organized by data string for easy lookup
func (wp *WorkerPool[T]) GetResultsMap() map[string]TaskResult[T] {
	wp.resultsMux.RLock()
	defer wp.resultsMux.RUnlock()

	resultsMap := make(map[string]TaskResult[T])
	for _, result := range wp.results {
		resultsMap[result.Data] = result
	}
	return resultsMap
}
