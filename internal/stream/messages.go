package stream

import "encoding/json"

// Envelope wraps every inbound WebSocket command.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "set_music"
	Body  json.RawMessage `json:"body,omitempty"` // command payload
}

// Reply answers one Envelope on the connection it came from.
type Reply struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

// Inbound WebSocket commands.
const (
	CmdCreateRoom = "create_room"
	CmdJoinRoom   = "join_room"
	CmdSetMusic   = "set_music"
	CmdPlayPause  = "play_pause"
	eventError    = "error"
	ackSuffix     = "-ack"
)

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
