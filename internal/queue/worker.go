package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"pheye/internal/logger"
)

// Handler executes one task and returns a JSON-encodable outcome.
type Handler func(ctx context.Context, task Task) (any, error)

// popTimeout bounds each blocking pop so workers observe cancellation.
const popTimeout = 2 * time.Second

// Pool runs a fixed set of workers against the task list. Failed tasks
// are re-enqueued with exponential backoff until the retry budget is
// spent, then marked failed with retries_exhausted set.
type Pool struct {
	client      *Client
	handlers    map[string]Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	log         *slog.Logger
}

// NewPool builds a worker pool. Handlers are keyed by exact task type;
// scrape tasks register per source.
func NewPool(client *Client, workers, maxRetries int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Pool{
		client:      client,
		handlers:    make(map[string]Handler),
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: time.Minute,
		log:         logger.Get(),
	}
}

// Register binds a handler to a task type.
func (p *Pool) Register(taskType string, handler Handler) {
	p.handlers[taskType] = handler
}

// Run blocks until the context is cancelled, processing tasks on
// p.workers goroutines.
func (p *Pool) Run(ctx context.Context) error {
	p.log.Info("worker pool starting", "workers", p.workers, "list", p.client.taskList)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			p.loop(ctx, worker)
		}(i)
	}
	wg.Wait()

	p.log.Info("worker pool stopped")
	return ctx.Err()
}

// loop is one worker's pop-dispatch cycle.
func (p *Pool) loop(ctx context.Context, worker int) {
	for {
		if ctx.Err() != nil {
			return
		}
		task, err := p.client.pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("popping task failed", "worker", worker, "error", err.Error())
			time.Sleep(time.Second)
			continue
		}
		if task == nil {
			continue
		}
		p.dispatch(ctx, *task)
	}
}

// dispatch runs a task's handler and settles its result record.
func (p *Pool) dispatch(ctx context.Context, task Task) {
	handler, ok := p.handlers[task.Type]
	if !ok {
		p.log.Warn("no handler for task", "type", task.Type, "task_id", task.TaskID)
		p.fail(ctx, task, fmt.Errorf("unknown task type %q", task.Type), false)
		return
	}

	outcome, err := handler(ctx, task)
	if err == nil {
		p.complete(ctx, task, outcome)
		return
	}

	if task.Retries < p.maxRetries {
		p.requeue(ctx, task, err)
		return
	}
	p.fail(ctx, task, err, true)
}

// requeue schedules the task again after an exponential delay.
func (p *Pool) requeue(ctx context.Context, task Task, cause error) {
	task.Retries++
	delay := p.baseBackoff << (task.Retries - 1)
	p.log.Warn("task failed, retrying",
		"task_id", task.TaskID,
		"type", task.Type,
		"retry", task.Retries,
		"delay", delay.String(),
		"error", cause.Error())

	if err := p.client.writeResult(ctx, Result{
		TaskID:  task.TaskID,
		Type:    task.Type,
		Status:  StatusPending,
		Error:   cause.Error(),
		Retries: task.Retries,
	}); err != nil {
		p.log.Error("recording retry failed", "task_id", task.TaskID, "error", err.Error())
	}

	// The push happens off a timer so the worker is free meanwhile. A
	// process exit during the delay loses the retry; the next scheduled
	// run covers the gap.
	time.AfterFunc(delay, func() {
		if err := p.client.push(context.Background(), task); err != nil {
			p.log.Error("re-enqueue failed", "task_id", task.TaskID, "error", err.Error())
		}
	})
}

// complete stores a successful outcome.
func (p *Pool) complete(ctx context.Context, task Task, outcome any) {
	result := Result{
		TaskID:  task.TaskID,
		Type:    task.Type,
		Status:  StatusCompleted,
		Retries: task.Retries,
	}
	if outcome != nil {
		data, err := json.Marshal(outcome)
		if err != nil {
			p.log.Error("encoding task outcome failed", "task_id", task.TaskID, "error", err.Error())
		} else {
			result.Result = data
		}
	}
	if err := p.client.writeResult(ctx, result); err != nil {
		p.log.Error("storing result failed", "task_id", task.TaskID, "error", err.Error())
	}
	p.log.Info("task completed", "task_id", task.TaskID, "type", task.Type, "retries", task.Retries)
}

// fail stores a terminal failure.
func (p *Pool) fail(ctx context.Context, task Task, cause error, exhausted bool) {
	result := Result{
		TaskID:  task.TaskID,
		Type:    task.Type,
		Status:  StatusFailed,
		Error:   cause.Error(),
		Retries: task.Retries,
	}
	if exhausted {
		result.Result, _ = json.Marshal(map[string]any{
			"ok":                false,
			"retries_exhausted": true,
		})
	}
	if err := p.client.writeResult(ctx, result); err != nil {
		p.log.Error("storing failure failed", "task_id", task.TaskID, "error", err.Error())
	}
	p.log.Error("task failed", "task_id", task.TaskID, "type", task.Type, "error", cause.Error())
}
