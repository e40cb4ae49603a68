package room

import (
	"context"
	"errors"
	"testing"

	"broadcastmusic/internal/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRoomService_Validation(t *testing.T) {
	svc := NewRoomService(NewRegistry(&fakePublisher{}))
	ctx := context.Background()
	require.NoError(t, svc.CreateRoom(ctx, CreateRoomRequest{RoomID: "party1"}))

	tests := []struct {
		name string
		call func() error
	}{
		{"create without room id", func() error {
			return svc.CreateRoom(ctx, CreateRoomRequest{Username: "alice"})
		}},
		{"join without room id", func() error {
			_, err := svc.JoinRoom(ctx, JoinRoomRequest{Username: "bob"})
			return err
		}},
		{"set track without track", func() error {
			return svc.SetTrack(ctx, SetTrackRequest{RoomID: "party1"})
		}},
		{"play state without flag", func() error {
			return svc.SetPlayState(ctx, SetPlayStateRequest{RoomID: "party1", CurrentTime: ptr(1.0)})
		}},
		{"play state without offset", func() error {
			return svc.SetPlayState(ctx, SetPlayStateRequest{RoomID: "party1", IsPlaying: ptr(true)})
		}},
		{"negative offset", func() error {
			return svc.SetPlayState(ctx, SetPlayStateRequest{RoomID: "party1", IsPlaying: ptr(true), CurrentTime: ptr(-1.0)})
		}},
		{"get without room id", func() error {
			_, err := svc.GetRoom(ctx, "")
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrBadRequest)
		})
	}
}

func TestRoomService_ZeroValuesAreValid(t *testing.T) {
	svc := NewRoomService(NewRegistry(&fakePublisher{}))
	ctx := context.Background()
	require.NoError(t, svc.CreateRoom(ctx, CreateRoomRequest{RoomID: "party1"}))

	require.NoError(t, svc.SetPlayState(ctx, SetPlayStateRequest{
		RoomID: "party1", IsPlaying: ptr(false), CurrentTime: ptr(0.0),
	}))
}

func TestRoomService_DefaultUsername(t *testing.T) {
	svc := NewRoomService(NewRegistry(&fakePublisher{}))
	ctx := context.Background()

	require.NoError(t, svc.CreateRoom(ctx, CreateRoomRequest{RoomID: "party1"}))
	st, err := svc.JoinRoom(ctx, JoinRoomRequest{RoomID: "party1"})
	require.NoError(t, err)

	assert.Equal(t, []string{DefaultUsername, DefaultUsername}, st.Users)
}

func TestRoomService_GetRoom(t *testing.T) {
	svc := NewRoomService(NewRegistry(&fakePublisher{}))
	ctx := context.Background()

	_, err := svc.GetRoom(ctx, "party1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.CreateRoom(ctx, CreateRoomRequest{RoomID: "party1", Username: "alice"}))
	require.NoError(t, svc.SetTrack(ctx, SetTrackRequest{RoomID: "party1", Track: "http://x/a.mp3", Title: "Song A"}))

	st, err := svc.GetRoom(ctx, "party1")
	require.NoError(t, err)
	assert.Equal(t, &RoomState{Track: "http://x/a.mp3", Title: "Song A", Users: []string{"alice"}}, st)
	assert.Equal(t, 1, svc.RoomCount())
}

func TestRoomService_WithSnapshot(t *testing.T) {
	svc := NewRoomService(NewRegistry(&fakePublisher{}))
	ctx := context.Background()

	called := false
	err := svc.WithSnapshot(ctx, "party1", func(events.MusicState) { called = true })
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, called)

	require.NoError(t, svc.CreateRoom(ctx, CreateRoomRequest{RoomID: "party1"}))
	require.NoError(t, svc.SetPlayState(ctx, SetPlayStateRequest{RoomID: "party1", IsPlaying: ptr(true), CurrentTime: ptr(3.5)}))

	var got events.MusicState
	require.NoError(t, svc.WithSnapshot(ctx, "party1", func(ms events.MusicState) { got = ms }))
	assert.Equal(t, events.MusicState{IsPlaying: true, CurrentTime: 3.5}, got)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrNotFound, "Room not found"},
		{ErrAlreadyExists, "Room already exists"},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UserMessage(tt.err))
	}
}
