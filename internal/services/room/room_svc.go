package room

import (
	"context"
	"errors"
	"fmt"

	"broadcastmusic/internal/events"
	"broadcastmusic/internal/metrics"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultUsername is used when a create/join request carries no name.
const DefaultUsername = "Anonymous"

var (
	ErrNotFound      = errors.New("room not found")
	ErrAlreadyExists = errors.New("room already exists")
	ErrBadRequest    = errors.New("bad request")
)

type IRoomService interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) error
	JoinRoom(ctx context.Context, req JoinRoomRequest) (*RoomState, error)
	SetTrack(ctx context.Context, req SetTrackRequest) error
	SetPlayState(ctx context.Context, req SetPlayStateRequest) error
	GetRoom(ctx context.Context, roomID string) (*RoomState, error)

	// WithSnapshot runs fn with the room's music state while no event can
	// be published to the room.
	WithSnapshot(ctx context.Context, roomID string, fn func(events.MusicState)) error
	RoomCount() int
}

type roomService struct {
	rooms    *Registry
	validate *validator.Validate
}

var _ IRoomService = (*roomService)(nil)

func NewRoomService(rooms *Registry) IRoomService {
	v := validator.New()
	v.SetTagName("binding")
	return &roomService{
		rooms:    rooms,
		validate: v,
	}
}

func (svc *roomService) CreateRoom(ctx context.Context, req CreateRoomRequest) error {
	if err := svc.check(req); err != nil {
		return err
	}
	err := svc.rooms.Create(req.RoomID, orAnonymous(req.Username))
	svc.record("create", req.RoomID, err)
	return err
}

func (svc *roomService) JoinRoom(ctx context.Context, req JoinRoomRequest) (*RoomState, error) {
	if err := svc.check(req); err != nil {
		return nil, err
	}
	st, err := svc.rooms.Join(req.RoomID, orAnonymous(req.Username))
	svc.record("join", req.RoomID, err)
	if err != nil {
		return nil, err
	}
	return toRoomState(st), nil
}

func (svc *roomService) SetTrack(ctx context.Context, req SetTrackRequest) error {
	if err := svc.check(req); err != nil {
		return err
	}
	err := svc.rooms.SetTrack(req.RoomID, req.Track, req.Title, req.Artist)
	svc.record("set_track", req.RoomID, err)
	return err
}

func (svc *roomService) SetPlayState(ctx context.Context, req SetPlayStateRequest) error {
	if err := svc.check(req); err != nil {
		return err
	}
	err := svc.rooms.SetPlayState(req.RoomID, *req.IsPlaying, *req.CurrentTime)
	svc.record("set_play_state", req.RoomID, err)
	return err
}

func (svc *roomService) GetRoom(ctx context.Context, roomID string) (*RoomState, error) {
	if roomID == "" {
		return nil, fmt.Errorf("%w: roomId is required", ErrBadRequest)
	}
	st, err := svc.rooms.Snapshot(roomID)
	if err != nil {
		return nil, err
	}
	return toRoomState(st), nil
}

func (svc *roomService) WithSnapshot(ctx context.Context, roomID string, fn func(events.MusicState)) error {
	return svc.rooms.WithSnapshot(roomID, func(s State) { fn(s.MusicState()) })
}

func (svc *roomService) RoomCount() int { return svc.rooms.Len() }

// ─────────────────────────────── helpers ─────────────────────────────────────

func (svc *roomService) check(req any) error {
	if err := svc.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", ErrBadRequest, err.Error())
	}
	return nil
}

func (svc *roomService) record(op, roomID string, err error) {
	outcome := "ok"
	switch {
	case err == nil:
		zap.L().Debug("room."+op, zap.String("room", roomID))
	case errors.Is(err, ErrNotFound):
		outcome = "not_found"
	case errors.Is(err, ErrAlreadyExists):
		outcome = "exists"
	default:
		outcome = "error"
		zap.L().Warn("room."+op, zap.String("room", roomID), zap.Error(err))
	}
	metrics.RoomMutations.WithLabelValues(op, outcome).Inc()
}

func orAnonymous(name string) string {
	if name == "" {
		return DefaultUsername
	}
	return name
}

// UserMessage maps a service error to the text shown to clients.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "Room not found"
	case errors.Is(err, ErrAlreadyExists):
		return "Room already exists"
	}
	return err.Error()
}
