package sim

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestLoopRunsCommandsAndBroadcasts(t *testing.T) {
	w, _ := quietWorld(t, 7)

	var snapshots atomic.Int64
	loop := NewLoop(w, nil, func(Snapshot) {
		snapshots.Add(1)
	})

	ran := make(chan struct{})
	if !loop.Enqueue(func(w *World) {
		w.EndDay()
		close(ran)
	}) {
		t.Fatal("enqueue rejected a command")
	}
	if loop.Enqueue(nil) {
		t.Fatal("enqueue accepted a nil command")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("queued command never ran")
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}

	if snapshots.Load() == 0 {
		t.Fatal("loop never delivered a snapshot")
	}
}

func TestLoopTicksSteadily(t *testing.T) {
	w, _ := quietWorld(t, 3)

	var snapshots atomic.Int64
	loop := NewLoop(w, nil, func(Snapshot) {
		snapshots.Add(1)
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(200 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on cancel")
	}

	// 200ms at 60Hz is ~12 ticks; allow generous scheduler slack.
	if n := snapshots.Load(); n < 3 {
		t.Fatalf("loop delivered %d snapshots in 200ms", n)
	}
}
