package ws

import (
	"encoding/json"
	"log"
	nethttp "net/http"
	"time"

	"github.com/gorilla/websocket"

	"dodge-and-deal/server/internal/geom"
	"dodge-and-deal/server/internal/net/proto"
	"dodge-and-deal/server/internal/sim"
)

const (
	defaultStrikeForce  = 6.0
	defaultStrikeDamage = 1
)

// Handler upgrades operator connections, replays the map, and feeds their
// commands into the simulation loop.
type Handler struct {
	hub      *Hub
	loop     *sim.Loop
	mapData  []byte
	logger   *log.Logger
	upgrader websocket.Upgrader
}

func NewHandler(hub *Hub, loop *sim.Loop, mapMsg proto.MapMessage, logger *log.Logger) (*Handler, error) {
	if logger == nil {
		logger = log.Default()
	}
	mapData, err := json.Marshal(mapMsg)
	if err != nil {
		return nil, err
	}
	return &Handler{
		hub:     hub,
		loop:    loop,
		mapData: mapData,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *nethttp.Request) bool {
				return true
			},
		},
	}, nil
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}

	c := newClient(conn)
	h.hub.add(c)
	defer h.hub.remove(c)

	select {
	case c.send <- h.mapData:
	default:
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg proto.ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			h.logger.Printf("discarding malformed message: %v", err)
			continue
		}

		switch msg.Type {
		case proto.TypeStrike:
			h.handleStrike(c, msg)
		case proto.TypeEndDay:
			if !h.loop.Enqueue(func(w *sim.World) { w.EndDay() }) {
				h.reject(c, "queue_limit")
			}
		case proto.TypeHeartbeat:
			now := time.Now()
			h.reply(c, proto.HeartbeatMessage{
				Ver:        proto.ProtocolVersion,
				Type:       proto.TypeHeartbeat,
				ServerTime: now.UnixMilli(),
				ClientTime: msg.SentAt,
				RTTMillis:  now.UnixMilli() - msg.SentAt,
			})
		default:
			h.logger.Printf("unknown message type %q", msg.Type)
		}
	}
}

func (h *Handler) handleStrike(c *client, msg proto.ClientMessage) {
	if msg.CustomerID == "" {
		h.reject(c, "missing_customer")
		return
	}
	force := msg.Force
	if force <= 0 {
		force = defaultStrikeForce
	}
	damage := msg.Damage
	if damage <= 0 {
		damage = defaultStrikeDamage
	}
	direction := geom.Vec2{X: msg.DX, Y: msg.DY}
	customerID := msg.CustomerID
	queued := h.loop.Enqueue(func(w *sim.World) {
		w.Strike(customerID, direction, force, damage)
	})
	if !queued {
		h.reject(c, "queue_limit")
	}
}

func (h *Handler) reply(c *client, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Printf("failed to marshal reply: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (h *Handler) reject(c *client, reason string) {
	h.reply(c, proto.ErrorMessage{Ver: proto.ProtocolVersion, Type: proto.TypeError, Reason: reason})
}
