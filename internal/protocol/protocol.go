// Package protocol defines the JSON messages crossing the host boundary.
// The host drives the run with a small command vocabulary; the core
// answers with tick summaries and terminal reports. Neither side ever
// shares memory with the other.
package protocol

import "encoding/json"

const Version = "1.0"

// Inbound message types (host -> core).
const (
	TypeInitialize = "INITIALIZE"
	TypeStart      = "START"
	TypePause      = "PAUSE"
	TypeSetSpeed   = "SET_SPEED"
	TypeStop       = "STOP"
	TypeGetState   = "GET_STATE"
	TypeGetStats   = "GET_STATS"
)

// Outbound message types (core -> host).
const (
	TypeReady    = "READY"
	TypeTick     = "TICK"
	TypeState    = "STATE"
	TypeComplete = "COMPLETE"
	TypeError    = "ERROR"
	TypeStats    = "STATS"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
