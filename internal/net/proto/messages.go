// Package proto defines the JSON messages exchanged with spectator and
// operator clients.
package proto

import (
	"dodge-and-deal/server/internal/sim"
)

// ProtocolVersion is bumped whenever a message shape changes incompatibly.
const ProtocolVersion = 1

// Message type discriminators.
const (
	TypeMap       = "map"
	TypeState     = "state"
	TypeStrike    = "strike"
	TypeEndDay    = "endDay"
	TypeHeartbeat = "heartbeat"
	TypeError     = "error"
)

// MapMessage is sent once on connect so clients can render the store.
type MapMessage struct {
	Ver      int      `json:"ver"`
	Type     string   `json:"type"`
	TileSize float64  `json:"tileSize"`
	Cols     int      `json:"cols"`
	Rows     int      `json:"rows"`
	Layout   []string `json:"layout"`
}

// StateMessage carries one tick's world snapshot.
type StateMessage struct {
	Ver   int          `json:"ver"`
	Type  string       `json:"type"`
	State sim.Snapshot `json:"state"`
}

// ClientMessage is the single envelope clients send; Type selects which
// fields matter.
type ClientMessage struct {
	Ver  int    `json:"ver,omitempty"`
	Type string `json:"type"`

	// strike
	CustomerID string  `json:"customerId,omitempty"`
	DX         float64 `json:"dx,omitempty"`
	DY         float64 `json:"dy,omitempty"`
	Force      float64 `json:"force,omitempty"`
	Damage     int     `json:"damage,omitempty"`

	// heartbeat
	SentAt int64 `json:"sentAt,omitempty"`
}

// HeartbeatMessage echoes client time so clients can estimate RTT.
type HeartbeatMessage struct {
	Ver        int    `json:"ver"`
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

// ErrorMessage reports a rejected client message.
type ErrorMessage struct {
	Ver    int    `json:"ver"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}
