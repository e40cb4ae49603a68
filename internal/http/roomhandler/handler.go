package roomhandler

import (
	"errors"
	"net/http"

	"broadcastmusic/internal/services/room"

	"github.com/gin-gonic/gin"
)

// ClientStats is satisfied by the stream hub.
type ClientStats interface {
	Stats() (rooms, clients int)
}

type Handler struct {
	svc   room.IRoomService
	stats ClientStats
}

func New(svc room.IRoomService, stats ClientStats) *Handler {
	return &Handler{svc: svc, stats: stats}
}

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/create_room", h.create)
	r.POST("/join_room", h.join)
	r.POST("/set_music", h.setMusic)
	r.POST("/play_pause", h.playPause)
	r.GET("/rooms/:id", h.info)
	r.GET("/stats", h.statsInfo)
}

// @Summary		Create a room
// @Description	Registers a new room with the creator as its first member.
// @Tags			Rooms
// @Param			body	body		room.CreateRoomRequest	true	"Room payload"
// @Success		200		{object}	room.CreateRoomResponse
// @Failure		400		{object}	room.FailureResponse
// @Failure		409		{object}	room.FailureResponse
// @Router			/create_room [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body room.CreateRoomRequest
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		fail(ginCtx, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.CreateRoom(ginCtx.Request.Context(), body); err != nil {
		fail(ginCtx, statusOf(err), err)
		return
	}
	ginCtx.JSON(http.StatusOK, room.CreateRoomResponse{Success: true, RoomID: body.RoomID})
}

// @Summary		Join a room
// @Description	Adds a member and returns the room's current playback state.
// @Tags			Rooms
// @Param			body	body		room.JoinRoomRequest	true	"Join payload"
// @Success		200		{object}	room.JoinRoomResponse
// @Failure		400		{object}	room.FailureResponse
// @Failure		404		{object}	room.FailureResponse
// @Router			/join_room [post]
func (h *Handler) join(ginCtx *gin.Context) {
	var body room.JoinRoomRequest
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		fail(ginCtx, http.StatusBadRequest, err)
		return
	}
	st, err := h.svc.JoinRoom(ginCtx.Request.Context(), body)
	if err != nil {
		fail(ginCtx, statusOf(err), err)
		return
	}
	ginCtx.JSON(http.StatusOK, room.JoinRoomResponse{Success: true, CurrentState: st})
}

// @Summary		Set the room's track
// @Description	Switches every member to a new track, paused at 0.
// @Tags			Rooms
// @Param			body	body		room.SetTrackRequest	true	"Track payload"
// @Success		200		{object}	room.SuccessResponse
// @Failure		400		{object}	room.FailureResponse
// @Failure		404		{object}	room.FailureResponse
// @Router			/set_music [post]
func (h *Handler) setMusic(ginCtx *gin.Context) {
	var body room.SetTrackRequest
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		fail(ginCtx, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.SetTrack(ginCtx.Request.Context(), body); err != nil {
		fail(ginCtx, statusOf(err), err)
		return
	}
	ginCtx.JSON(http.StatusOK, room.SuccessResponse{Success: true})
}

// @Summary		Play or pause
// @Description	Updates the play flag and offset for every member.
// @Tags			Rooms
// @Param			body	body		room.SetPlayStateRequest	true	"Play state payload"
// @Success		200		{object}	room.SuccessResponse
// @Failure		400		{object}	room.FailureResponse
// @Failure		404		{object}	room.FailureResponse
// @Router			/play_pause [post]
func (h *Handler) playPause(ginCtx *gin.Context) {
	var body room.SetPlayStateRequest
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		fail(ginCtx, http.StatusBadRequest, err)
		return
	}
	if err := h.svc.SetPlayState(ginCtx.Request.Context(), body); err != nil {
		fail(ginCtx, statusOf(err), err)
		return
	}
	ginCtx.JSON(http.StatusOK, room.SuccessResponse{Success: true})
}

// @Summary		Get room state
// @Tags			Rooms
// @Param			id	path		string	true	"Room ID"	default(party1)
// @Success		200	{object}	room.RoomState
// @Failure		404	{object}	room.FailureResponse
// @Router			/rooms/{id} [get]
func (h *Handler) info(ginCtx *gin.Context) {
	st, err := h.svc.GetRoom(ginCtx.Request.Context(), ginCtx.Param("id"))
	if err != nil {
		fail(ginCtx, statusOf(err), err)
		return
	}
	ginCtx.JSON(http.StatusOK, st)
}

// @Summary		Registry statistics
// @Tags			Rooms
// @Success		200	{object}	StatsResponse
// @Router			/stats [get]
func (h *Handler) statsInfo(ginCtx *gin.Context) {
	attached, clients := h.stats.Stats()
	ginCtx.JSON(http.StatusOK, StatsResponse{
		Rooms:         h.svc.RoomCount(),
		AttachedRooms: attached,
		Clients:       clients,
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, room.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, room.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, room.ErrBadRequest):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func fail(ginCtx *gin.Context, status int, err error) {
	ginCtx.JSON(status, room.FailureResponse{Success: false, Message: room.UserMessage(err)})
}
