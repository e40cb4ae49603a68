package roomhandler

type StatsResponse struct {
	Rooms         int `json:"rooms"         example:"3"` // rooms in the registry
	AttachedRooms int `json:"attachedRooms" example:"2"` // rooms with at least one stream
	Clients       int `json:"clients"       example:"5"`
} // @name StatsResponse
