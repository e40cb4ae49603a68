package room

// ──────────────────────────── Requests ───────────────────────────────────────
// `binding` tags are enforced by gin on the HTTP side and by the service
// itself for every other caller.

type CreateRoomRequest struct {
	RoomID   string `json:"roomId"   binding:"required" example:"party1"`
	Username string `json:"username"                    example:"alice"`
} // @name CreateRoomRequest

type JoinRoomRequest struct {
	RoomID   string `json:"roomId"   binding:"required" example:"party1"`
	Username string `json:"username"                    example:"bob"`
} // @name JoinRoomRequest

type SetTrackRequest struct {
	RoomID string `json:"roomId" binding:"required" example:"party1"`
	Track  string `json:"track"  binding:"required" example:"http://x/a.mp3"`
	Title  string `json:"title,omitempty"           example:"Song A"`
	Artist string `json:"artist,omitempty"          example:"Artist A"`
} // @name SetTrackRequest

// Pointers keep false / 0 distinguishable from a missing field.
type SetPlayStateRequest struct {
	RoomID      string   `json:"roomId"      binding:"required"       example:"party1"`
	IsPlaying   *bool    `json:"isPlaying"   binding:"required"       example:"true"`
	CurrentTime *float64 `json:"currentTime" binding:"required,gte=0" example:"42"`
} // @name SetPlayStateRequest

// ──────────────────────────── Responses ──────────────────────────────────────

type RoomState struct {
	Track       string   `json:"track"`
	Title       string   `json:"title,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	IsPlaying   bool     `json:"isPlaying"`
	CurrentTime float64  `json:"currentTime"`
	Users       []string `json:"users"`
} // @name RoomState

type CreateRoomResponse struct {
	Success bool   `json:"success"`
	RoomID  string `json:"roomId"`
} // @name CreateRoomResponse

type JoinRoomResponse struct {
	Success      bool       `json:"success"`
	CurrentState *RoomState `json:"currentState"`
} // @name JoinRoomResponse

type SuccessResponse struct {
	Success bool `json:"success"`
} // @name SuccessResponse

type FailureResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
} // @name FailureResponse

func toRoomState(s State) *RoomState {
	users := s.Users
	if users == nil {
		users = []string{}
	}
	return &RoomState{
		Track:       s.Track,
		Title:       s.Title,
		Artist:      s.Artist,
		IsPlaying:   s.IsPlaying,
		CurrentTime: s.CurrentTime,
		Users:       users,
	}
}
