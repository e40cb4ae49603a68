package stream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"broadcastmusic/internal/events"
	"broadcastmusic/internal/metrics"
	"broadcastmusic/internal/services/room"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	commandTimeout = 1900 * time.Millisecond
	maxMessageSize = 4096
)

type StreamServer struct {
	hub      *Hub
	router   *Router
	roomSvc  room.IRoomService
	idle     time.Duration
	upgrader websocket.Upgrader
}

func NewStreamServer(h *Hub, roomSvc room.IRoomService, idle time.Duration) *StreamServer {
	srv := &StreamServer{
		hub:     h,
		router:  NewRouter(commandTimeout),
		roomSvc: roomSvc,
		idle:    idle,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // CORS is enforced by the HTTP layer
		},
	}
	srv.registerHandlers()
	zap.L().Debug("stream.commands", zap.Strings("commands", srv.router.Commands()))
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑points
// ---------------------------------------------------------------------------

// @Summary		Attach an event stream
// @Description	Server-sent events for a room: music_state, user_joined and ping keepalives.
// @Tags			Stream
// @Produce		text/event-stream
// @Param			roomId		query	string	true	"Room ID"	default(party1)
// @Param			clientId	query	string	false	"Client ID (generated when absent)"
// @Success		200
// @Failure		400	{object}	ErrorBody
// @Failure		404	{object}	ErrorBody
// @Router			/stream [get]
func (s *StreamServer) HandleSSE(ginCtx *gin.Context) {
	roomID, clientID, ok := streamParams(ginCtx)
	if !ok {
		return
	}

	sess, ok := s.attach(ginCtx, roomID, clientID)
	if !ok {
		return
	}
	sess.out = &sseWriter{w: ginCtx.Writer}
	defer sess.Close()

	h := ginCtx.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	ginCtx.Status(http.StatusOK)
	ginCtx.Writer.Flush()

	s.run(ginCtx.Request.Context(), sess, "sse")
}

// @Summary		Attach a WebSocket stream
// @Description	Same events as /stream over WebSocket; also accepts create_room, join_room, set_music and play_pause commands.
// @Tags			Stream
// @Param			roomId		query	string	true	"Room ID"	default(party1)
// @Param			clientId	query	string	false	"Client ID (generated when absent)"
// @Success		101
// @Failure		400	{object}	ErrorBody
// @Failure		404	{object}	ErrorBody
// @Router			/ws [get]
func (s *StreamServer) HandleWS(ginCtx *gin.Context) {
	roomID, clientID, ok := streamParams(ginCtx)
	if !ok {
		return
	}

	// the room is checked before the upgrade so a miss is still a plain 404
	sess, ok := s.attach(ginCtx, roomID, clientID)
	if !ok {
		return
	}
	defer sess.Close()

	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("stream.ws_upgrade", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxMessageSize)
	wsConn := &clientConn{rawConn: rawConn}
	sess.out = wsConn

	ctx, cancel := context.WithCancel(ginCtx.Request.Context())
	defer cancel()

	go s.reader(ctx, cancel, &ConnContext{RoomID: roomID, ClientID: clientID}, wsConn)

	s.run(ctx, sess, "ws")
	wsConn.close("bye")
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func streamParams(ginCtx *gin.Context) (roomID, clientID string, ok bool) {
	roomID = ginCtx.Query("roomId")
	if roomID == "" {
		ginCtx.JSON(http.StatusBadRequest, ErrorBody{Error: "roomId is required"})
		return "", "", false
	}
	clientID = ginCtx.Query("clientId")
	if clientID == "" {
		clientID = uuid.NewString()
	}
	return roomID, clientID, true
}

// attach registers the client's queue and seeds it with the current music
// state. Both happen under the room lock so no broadcast can slip between
// them. A missing room is answered with 404 and nothing is registered.
func (s *StreamServer) attach(ginCtx *gin.Context, roomID, clientID string) (*Session, bool) {
	var q *Queue
	err := s.roomSvc.WithSnapshot(ginCtx.Request.Context(), roomID, func(ms events.MusicState) {
		q = s.hub.Attach(roomID, clientID)
		if err := q.Push(events.NewMusicState(ms)); err != nil {
			zap.L().Warn("stream.snapshot", zap.String("room", roomID), zap.Error(err))
		}
	})
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			ginCtx.JSON(http.StatusNotFound, ErrorBody{Error: room.UserMessage(err)})
		} else {
			ginCtx.JSON(http.StatusInternalServerError, ErrorBody{Error: err.Error()})
		}
		return nil, false
	}
	return NewSession(s.hub, roomID, clientID, q, nil, s.idle), true
}

func (s *StreamServer) run(ctx context.Context, sess *Session, transport string) {
	gauge := metrics.StreamSessions.WithLabelValues(transport)
	gauge.Inc()
	defer gauge.Dec()

	zap.L().Info("stream.attach",
		zap.String("transport", transport),
		zap.String("room", sess.RoomID()),
		zap.String("client", sess.ClientID()),
	)
	err := sess.Run(ctx)
	zap.L().Info("stream.detach",
		zap.String("transport", transport),
		zap.String("room", sess.RoomID()),
		zap.String("client", sess.ClientID()),
		zap.NamedError("reason", err),
	)
}

func (s *StreamServer) registerHandlers() {
	Register(
		s.router,
		CmdCreateRoom,
		func(ctx context.Context, cc *ConnContext, req room.CreateRoomRequest) (events.Event, error) {
			if err := s.roomSvc.CreateRoom(ctx, req); err != nil {
				return events.NewRoomCreateFailed(room.UserMessage(err)), nil
			}
			return events.NewRoomCreated(req.RoomID), nil
		},
	)

	Register(
		s.router,
		CmdJoinRoom,
		func(ctx context.Context, cc *ConnContext, req room.JoinRoomRequest) (room.JoinRoomResponse, error) {
			if req.RoomID == "" {
				req.RoomID = cc.RoomID
			}
			st, err := s.roomSvc.JoinRoom(ctx, req)
			if err != nil {
				return room.JoinRoomResponse{}, err
			}
			return room.JoinRoomResponse{Success: true, CurrentState: st}, nil
		},
	)

	Register(
		s.router,
		CmdSetMusic,
		func(ctx context.Context, cc *ConnContext, req room.SetTrackRequest) (room.SuccessResponse, error) {
			if req.RoomID == "" {
				req.RoomID = cc.RoomID
			}
			err := s.roomSvc.SetTrack(ctx, req)
			return room.SuccessResponse{Success: err == nil}, err
		},
	)

	Register(
		s.router,
		CmdPlayPause,
		func(ctx context.Context, cc *ConnContext, req room.SetPlayStateRequest) (room.SuccessResponse, error) {
			if req.RoomID == "" {
				req.RoomID = cc.RoomID
			}
			err := s.roomSvc.SetPlayState(ctx, req)
			return room.SuccessResponse{Success: err == nil}, err
		},
	)
}

// reader runs inbound commands until the peer goes away, then cancels the
// session context.
func (s *StreamServer) reader(ctx context.Context, cancel context.CancelFunc, cc *ConnContext, conn *clientConn) {
	defer cancel()

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("stream.ws_read", zap.String("client", cc.ClientID), zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			_ = conn.writeJSON(errorReply("invalid_envelope"))
			continue
		}
		_ = conn.writeJSON(s.router.Handle(ctx, cc, env))
	}
}
