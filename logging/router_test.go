package logging_test

import (
	"context"
	"testing"
	"time"

	"dodge-and-deal/server/logging"
	"dodge-and-deal/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	memory := sinks.NewMemorySink()
	router, err := logging.NewRouter(nil, cfg, []logging.NamedSink{{Name: "memory", Sink: memory}})
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		router.Close(ctx)
	})
	return router, memory
}

func waitForEvents(t *testing.T, memory *sinks.MemorySink, want int) []logging.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := memory.Events()
		if len(events) >= want {
			return events
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("memory sink received %d events, want %d", len(memory.Events()), want)
	return nil
}

func TestRouterDeliversToSink(t *testing.T) {
	router, memory := newTestRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:     "economy.currency_dropped",
		Tick:     3,
		Actor:    logging.EntityRef{ID: "customer-1", Kind: logging.EntityKindCustomer},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryEconomy,
	})

	events := waitForEvents(t, memory, 1)
	got := events[0]
	if got.Type != "economy.currency_dropped" || got.Tick != 3 {
		t.Fatalf("delivered event mismatch: %+v", got)
	}
	if got.Time.IsZero() {
		t.Fatal("router did not stamp the event time")
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, memory := newTestRouter(t, cfg)

	ctx := context.Background()
	router.Publish(ctx, logging.Event{Type: "simulation.debug_noise", Severity: logging.SeverityDebug})
	router.Publish(ctx, logging.Event{Type: "lifecycle.customer_defeated", Severity: logging.SeverityWarn})

	events := waitForEvents(t, memory, 1)
	for _, event := range events {
		if event.Severity < logging.SeverityWarn {
			t.Fatalf("low-severity event leaked: %+v", event)
		}
	}
}

func TestRouterIgnoresUntypedEvents(t *testing.T) {
	router, memory := newTestRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{Severity: logging.SeverityError})
	router.Publish(context.Background(), logging.Event{Type: "lifecycle.customer_entered", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if len(events) != 1 || events[0].Type != "lifecycle.customer_entered" {
		t.Fatalf("unexpected delivery: %+v", events)
	}
}

func TestRouterAttachesConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"store": "downtown"}
	router, memory := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "lifecycle.customer_entered", Severity: logging.SeverityInfo})

	events := waitForEvents(t, memory, 1)
	if events[0].Extra["store"] != "downtown" {
		t.Fatalf("configured field missing: %+v", events[0].Extra)
	}
}

func TestWithFieldsDoesNotOverridePerEventValues(t *testing.T) {
	var captured logging.Event
	base := logging.PublisherFunc(func(ctx context.Context, event logging.Event) {
		captured = event
	})
	pub := logging.WithFields(base, map[string]any{"shift": "night", "till": 2})

	pub.Publish(context.Background(), logging.Event{
		Type:  "economy.currency_dropped",
		Extra: map[string]any{"shift": "day"},
	})

	if captured.Extra["shift"] != "day" {
		t.Fatalf("per-event field overridden: %+v", captured.Extra)
	}
	if captured.Extra["till"] != 2 {
		t.Fatalf("wrapped field missing: %+v", captured.Extra)
	}
}
