package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"dodge-and-deal/server/internal/ai"
	"dodge-and-deal/server/internal/net/proto"
	"dodge-and-deal/server/internal/sim"
)

type harness struct {
	hub      *Hub
	world    *sim.World
	loop     *sim.Loop
	srv      *httptest.Server
	occupied atomic.Int64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{}
	h.world = sim.NewWorld(sim.Config{
		Seed:  11,
		Spawn: sim.SpawnConfig{Enabled: false, MinInterval: 1, MaxInterval: 2},
	})
	h.hub = NewHub(log.New(testWriter{t}, "", 0))
	h.loop = sim.NewLoop(h.world, nil, func(s sim.Snapshot) {
		h.occupied.Store(int64(len(s.Customers)))
	})

	handler, err := NewHandler(h.hub, h.loop, proto.MapMessage{
		Ver:      proto.ProtocolVersion,
		Type:     proto.TypeMap,
		TileSize: 120,
		Cols:     4,
		Rows:     3,
		Layout:   []string{"####", "#..D", "####"},
	}, log.New(testWriter{t}, "", 0))
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}

	h.srv = httptest.NewServer(http.HandlerFunc(handler.Handle))
	t.Cleanup(h.srv.Close)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("loop did not stop")
		}
	})
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readType discards frames until one of the wanted type arrives. Snapshot
// broadcasts interleave with replies once the loop is running.
func readType(t *testing.T, conn *websocket.Conn, wanted string) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q frame: %v", wanted, err)
		}
		var frame map[string]any
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("malformed frame: %v", err)
		}
		if frame["type"] == wanted {
			return frame
		}
	}
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

func TestHandlerSendsMapOnConnect(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)

	frame := readType(t, conn, proto.TypeMap)
	if frame["tileSize"] != float64(120) {
		t.Fatalf("map tileSize = %v", frame["tileSize"])
	}
	layout, ok := frame["layout"].([]any)
	if !ok || len(layout) != 3 {
		t.Fatalf("map layout = %v", frame["layout"])
	}
	if h.hub.ClientCount() != 1 {
		t.Fatalf("hub counts %d clients, want 1", h.hub.ClientCount())
	}
}

func TestHubBroadcastReachesClient(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	readType(t, conn, proto.TypeMap)

	h.hub.Broadcast([]byte(`{"type":"state","ver":1}`))
	readType(t, conn, proto.TypeState)
}

func TestHandlerHeartbeatEchoesClientTime(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	readType(t, conn, proto.TypeMap)

	sent := time.Now().UnixMilli() - 25
	if err := conn.WriteJSON(proto.ClientMessage{Type: proto.TypeHeartbeat, SentAt: sent}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}

	frame := readType(t, conn, proto.TypeHeartbeat)
	if int64(frame["clientTime"].(float64)) != sent {
		t.Fatalf("heartbeat clientTime = %v, sent %d", frame["clientTime"], sent)
	}
	if frame["serverTime"].(float64) == 0 {
		t.Fatal("heartbeat missing server time")
	}
}

func TestHandlerRejectsStrikeWithoutCustomer(t *testing.T) {
	h := newHarness(t)
	conn := h.dial(t)
	readType(t, conn, proto.TypeMap)

	if err := conn.WriteJSON(proto.ClientMessage{Type: proto.TypeStrike, DX: 1}); err != nil {
		t.Fatalf("write strike: %v", err)
	}

	frame := readType(t, conn, proto.TypeError)
	if frame["reason"] != "missing_customer" {
		t.Fatalf("reject reason = %v", frame["reason"])
	}
}

func TestHandlerStrikeDefeatsCustomer(t *testing.T) {
	h := newHarness(t)
	agent := h.world.SpawnCustomer(ai.ArchetypeThief)
	h.start(t)
	conn := h.dial(t)
	readType(t, conn, proto.TypeMap)

	for hit := 0; hit < 3; hit++ {
		msg := proto.ClientMessage{Type: proto.TypeStrike, CustomerID: agent.ID, DX: -1}
		if err := conn.WriteJSON(msg); err != nil {
			t.Fatalf("write strike: %v", err)
		}
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.occupied.Load() == 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("customer survived: %d still in store", h.occupied.Load())
}
