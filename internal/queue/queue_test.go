package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewClient(rdb, "test:tasks", time.Hour)
}

func waitForStatus(t *testing.T, client *Client, taskID, want string) *Result {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		result, err := client.Status(context.Background(), taskID)
		if err == nil && result.Status == want {
			return result
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("task %s never reached status %q", taskID, want)
	return nil
}

func TestEnqueueAndStatus(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	taskID, err := client.Enqueue(ctx, ScrapeTaskType("rappler"), nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	result, err := client.Status(ctx, taskID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if result.Status != StatusPending {
		t.Errorf("Status = %q, want pending", result.Status)
	}
	if result.Type != "scrape.rappler" {
		t.Errorf("Type = %q, want scrape.rappler", result.Type)
	}

	task, err := client.pop(ctx, time.Second)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if task == nil || task.TaskID != taskID {
		t.Fatalf("pop returned %+v, want task %s", task, taskID)
	}
}

func TestStatusUnknownTask(t *testing.T) {
	client := newTestClient(t)

	_, err := client.Status(context.Background(), "no-such-task")
	if !errors.Is(err, redis.Nil) {
		t.Errorf("err = %v, want redis.Nil", err)
	}
}

func TestEnqueuePayloadRoundTrip(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	taskID, err := client.Enqueue(ctx, TaskAnalyze, AnalyzePayload{ArticleIDs: []string{"a1", "a2"}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	task, err := client.pop(ctx, time.Second)
	if err != nil || task == nil {
		t.Fatalf("pop: task=%v err=%v", task, err)
	}
	if task.TaskID != taskID {
		t.Errorf("TaskID = %s, want %s", task.TaskID, taskID)
	}

	var payload AnalyzePayload
	if err := json.Unmarshal(task.Payload, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if len(payload.ArticleIDs) != 2 || payload.ArticleIDs[0] != "a1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestPoolCompletesTask(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(client, 2, 3)
	pool.Register(TaskAnalyze, func(ctx context.Context, task Task) (any, error) {
		return map[string]int{"analyzed": 5}, nil
	})
	go pool.Run(ctx)

	taskID, err := client.Enqueue(ctx, TaskAnalyze, AnalyzePayload{ArticleIDs: []string{"a1"}})
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	result := waitForStatus(t, client, taskID, StatusCompleted)
	var outcome map[string]int
	if err := json.Unmarshal(result.Result, &outcome); err != nil {
		t.Fatalf("decoding outcome: %v", err)
	}
	if outcome["analyzed"] != 5 {
		t.Errorf("outcome = %v", outcome)
	}
}

func TestPoolRetriesThenFails(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(client, 1, 2)
	pool.baseBackoff = 10 * time.Millisecond

	attempts := make(chan struct{}, 8)
	pool.Register(TaskAnalyze, func(ctx context.Context, task Task) (any, error) {
		attempts <- struct{}{}
		return nil, errors.New("database unavailable")
	})
	go pool.Run(ctx)

	taskID, err := client.Enqueue(ctx, TaskAnalyze, nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	result := waitForStatus(t, client, taskID, StatusFailed)
	if result.Retries != 2 {
		t.Errorf("Retries = %d, want 2", result.Retries)
	}
	if result.Error == "" {
		t.Error("failed result missing error message")
	}

	var outcome map[string]any
	if err := json.Unmarshal(result.Result, &outcome); err != nil {
		t.Fatalf("decoding outcome: %v", err)
	}
	if outcome["retries_exhausted"] != true {
		t.Errorf("outcome = %v, want retries_exhausted", outcome)
	}
	if got := len(attempts); got != 3 {
		t.Errorf("handler ran %d times, want 3 (initial + 2 retries)", got)
	}
}

func TestPoolUnknownTaskType(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := NewPool(client, 1, 3)
	go pool.Run(ctx)

	taskID, err := client.Enqueue(ctx, "no.such.type", nil)
	if err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	result := waitForStatus(t, client, taskID, StatusFailed)
	if result.Error == "" {
		t.Error("expected an error message for unknown type")
	}
}
