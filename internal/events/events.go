package events

import "slices"

// Event types pushed to attached clients.
const (
	TypeMusicState  = "music_state"
	TypeUserJoined  = "user_joined"
	TypeRoomCreated = "room_created"
	TypePing        = "ping"
)

// Event wraps every outbound frame: {"type":"music_state","data":{...}}.
// Events are immutable once built; the same value is pushed to every queue.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// ──────────────────────────── Payloads ───────────────────────────────────────

type MusicState struct {
	Track       string  `json:"track"`
	Title       string  `json:"title,omitempty"`
	Artist      string  `json:"artist,omitempty"`
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"currentTime"`
}

type UserJoined struct {
	Username string   `json:"username"`
	Users    []string `json:"users"`
}

type RoomCreated struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId,omitempty"`
	Message string `json:"message,omitempty"`
}

// ──────────────────────────── Constructors ───────────────────────────────────

func NewMusicState(s MusicState) Event {
	return Event{Type: TypeMusicState, Data: s}
}

// NewUserJoined copies users so later appends to the room never leak into
// an already queued event.
func NewUserJoined(username string, users []string) Event {
	return Event{Type: TypeUserJoined, Data: UserJoined{
		Username: username,
		Users:    slices.Clone(users),
	}}
}

func NewRoomCreated(roomID string) Event {
	return Event{Type: TypeRoomCreated, Data: RoomCreated{Success: true, RoomID: roomID}}
}

func NewRoomCreateFailed(msg string) Event {
	return Event{Type: TypeRoomCreated, Data: RoomCreated{Success: false, Message: msg}}
}

// Ping is the keepalive emitted by an idle stream.
func Ping() Event { return Event{Type: TypePing} }
