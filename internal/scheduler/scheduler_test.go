package scheduler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"pheye/internal/queue"
)

func newTestQueue(t *testing.T) (*queue.Client, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return queue.NewClient(rdb, "test:tasks", time.Hour), rdb
}

func TestNewRejectsBadIntervals(t *testing.T) {
	client, _ := newTestQueue(t)

	if _, err := New(client, map[string]string{"rappler": "soon"}); err == nil {
		t.Error("expected error for unparseable interval")
	}
	if _, err := New(client, map[string]string{"rappler": "-5m"}); err == nil {
		t.Error("expected error for negative interval")
	}
}

func TestSourcesSorted(t *testing.T) {
	client, _ := newTestQueue(t)

	s, err := New(client, map[string]string{"rappler": "60m", "gma": "65m", "inquirer": "75m"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := s.Sources()
	want := []string{"gma", "inquirer", "rappler"}
	if len(got) != len(want) {
		t.Fatalf("Sources = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sources = %v, want %v", got, want)
		}
	}
}

func TestRunEnqueuesOnInterval(t *testing.T) {
	client, rdb := newTestQueue(t)

	s, err := New(client, map[string]string{"rappler": "30ms"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := rdb.LLen(context.Background(), "test:tasks").Result(); n >= 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	raw, err := rdb.LRange(context.Background(), "test:tasks", 0, -1).Result()
	if err != nil {
		t.Fatalf("LRange: %v", err)
	}
	if len(raw) < 2 {
		t.Fatalf("enqueued %d tasks, want at least 2", len(raw))
	}
	var task queue.Task
	if err := json.Unmarshal([]byte(raw[0]), &task); err != nil {
		t.Fatalf("decoding task: %v", err)
	}
	if task.Type != "scrape.rappler" {
		t.Errorf("task type = %q, want scrape.rappler", task.Type)
	}
	if task.TaskID == "" {
		t.Error("task missing task_id")
	}
}

func TestRunNoSources(t *testing.T) {
	client, _ := newTestQueue(t)

	s, err := New(client, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Run(context.Background()); err == nil {
		t.Error("expected error for empty schedule")
	}
}
