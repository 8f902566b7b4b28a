// Package queue implements the Redis task queue between the API,
// scheduler, and workers. Tasks are JSON envelopes on a Redis list;
// results live at per-task keys with a TTL.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Task types dispatched by workers.
const (
	TaskScrapePrefix = "scrape."
	TaskAnalyze      = "ml.analyze"
	TaskAnalyzeSince = "ml.analyze_since"
)

// Result statuses.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task is one queued unit of work.
type Task struct {
	TaskID     string          `json:"task_id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Retries    int             `json:"retries"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// AnalyzePayload carries article IDs for ml.analyze tasks.
type AnalyzePayload struct {
	ArticleIDs []string `json:"article_ids"`
}

// AnalyzeSincePayload carries the cutoff for ml.analyze_since tasks.
type AnalyzeSincePayload struct {
	Since time.Time `json:"since"`
}

// Result is the stored outcome of a task, retrievable until its TTL
// expires.
type Result struct {
	TaskID    string          `json:"task_id"`
	Type      string          `json:"type"`
	Status    string          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Retries   int             `json:"retries"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ScrapeTaskType returns the task type for one source.
func ScrapeTaskType(source string) string {
	return TaskScrapePrefix + source
}

// Client enqueues tasks and reads results.
type Client struct {
	rdb       *redis.Client
	taskList  string
	resultTTL time.Duration
}

// NewClient builds a queue client on an existing Redis connection.
func NewClient(rdb *redis.Client, taskList string, resultTTL time.Duration) *Client {
	if taskList == "" {
		taskList = "pheye:tasks"
	}
	if resultTTL <= 0 {
		resultTTL = time.Hour
	}
	return &Client{rdb: rdb, taskList: taskList, resultTTL: resultTTL}
}

// Connect opens a Redis connection from a URL and verifies it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rdb, nil
}

// Enqueue pushes a task and records a pending result. The payload is
// JSON-encoded; nil means no payload.
func (c *Client) Enqueue(ctx context.Context, taskType string, payload any) (string, error) {
	task := Task{
		TaskID:     uuid.NewString(),
		Type:       taskType,
		EnqueuedAt: time.Now().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("encoding payload: %w", err)
		}
		task.Payload = data
	}

	if err := c.writeResult(ctx, Result{
		TaskID: task.TaskID,
		Type:   task.Type,
		Status: StatusPending,
	}); err != nil {
		return "", err
	}
	if err := c.push(ctx, task); err != nil {
		return "", err
	}
	return task.TaskID, nil
}

// Status retrieves the stored result for a task. Expired or unknown
// tasks return redis.Nil.
func (c *Client) Status(ctx context.Context, taskID string) (*Result, error) {
	data, err := c.rdb.Get(ctx, c.resultKey(taskID)).Bytes()
	if err != nil {
		return nil, err
	}
	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", taskID, err)
	}
	return &result, nil
}

// push appends a task to the work list.
func (c *Client) push(ctx context.Context, task Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("encoding task: %w", err)
	}
	if err := c.rdb.LPush(ctx, c.taskList, data).Err(); err != nil {
		return fmt.Errorf("pushing task: %w", err)
	}
	return nil
}

// pop blocks for up to timeout waiting for a task. It returns nil when
// the timeout elapses with no work.
func (c *Client) pop(ctx context.Context, timeout time.Duration) (*Task, error) {
	vals, err := c.rdb.BRPop(ctx, timeout, c.taskList).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var task Task
	if err := json.Unmarshal([]byte(vals[1]), &task); err != nil {
		return nil, fmt.Errorf("decoding task: %w", err)
	}
	return &task, nil
}

// writeResult stores a result record with the configured TTL.
func (c *Client) writeResult(ctx context.Context, result Result) error {
	result.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if err := c.rdb.Set(ctx, c.resultKey(result.TaskID), data, c.resultTTL).Err(); err != nil {
		return fmt.Errorf("storing result: %w", err)
	}
	return nil
}

func (c *Client) resultKey(taskID string) string {
	return c.taskList + ":results:" + taskID
}
