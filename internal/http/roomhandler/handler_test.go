package roomhandler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"broadcastmusic/internal/events"
	"broadcastmusic/internal/services/room"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopPublisher struct{}

func (nopPublisher) Broadcast(string, events.Event) {}

type fixedStats struct{ rooms, clients int }

func (s fixedStats) Stats() (int, int) { return s.rooms, s.clients }

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := room.NewRoomService(room.NewRegistry(nopPublisher{}))
	r := gin.New()
	New(svc, fixedStats{rooms: 1, clients: 2}).Register(r)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	r := newEngine()

	steps := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{"join before create", http.MethodPost, "/join_room", `{"roomId":"party1","username":"bob"}`,
			http.StatusNotFound, `{"success":false,"message":"Room not found"}`},
		{"create", http.MethodPost, "/create_room", `{"roomId":"party1","username":"alice"}`,
			http.StatusOK, `{"success":true,"roomId":"party1"}`},
		{"create again", http.MethodPost, "/create_room", `{"roomId":"party1","username":"mallory"}`,
			http.StatusConflict, `{"success":false,"message":"Room already exists"}`},
		{"join", http.MethodPost, "/join_room", `{"roomId":"party1","username":"bob"}`,
			http.StatusOK, `{"success":true,"currentState":{"track":"","isPlaying":false,"currentTime":0,"users":["alice","bob"]}}`},
		{"set music", http.MethodPost, "/set_music", `{"roomId":"party1","track":"http://x/a.mp3"}`,
			http.StatusOK, `{"success":true}`},
		{"play", http.MethodPost, "/play_pause", `{"roomId":"party1","isPlaying":true,"currentTime":42}`,
			http.StatusOK, `{"success":true}`},
		{"pause at zero", http.MethodPost, "/play_pause", `{"roomId":"party1","isPlaying":false,"currentTime":0}`,
			http.StatusOK, `{"success":true}`},
		{"room state", http.MethodGet, "/rooms/party1", ``,
			http.StatusOK, `{"track":"http://x/a.mp3","isPlaying":false,"currentTime":0,"users":["alice","bob"]}`},
		{"unknown room state", http.MethodGet, "/rooms/ghost", ``,
			http.StatusNotFound, `{"success":false,"message":"Room not found"}`},
		{"stats", http.MethodGet, "/stats", ``,
			http.StatusOK, `{"rooms":1,"attachedRooms":1,"clients":2}`},
	}

	for _, s := range steps {
		w := do(r, s.method, s.path, s.body)
		assert.Equal(t, s.wantStatus, w.Code, s.name)
		assert.JSONEq(t, s.wantBody, w.Body.String(), s.name)
	}
}

func TestRoutes_BadRequests(t *testing.T) {
	r := newEngine()
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/create_room", `{"roomId":"party1"}`).Code)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"malformed json", "/create_room", `{"roomId":`},
		{"missing room id", "/create_room", `{"username":"alice"}`},
		{"missing track", "/set_music", `{"roomId":"party1"}`},
		{"missing play flag", "/play_pause", `{"roomId":"party1","currentTime":1}`},
		{"missing offset", "/play_pause", `{"roomId":"party1","isPlaying":true}`},
		{"negative offset", "/play_pause", `{"roomId":"party1","isPlaying":true,"currentTime":-3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body room.FailureResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.NotEmpty(t, body.Message)
		})
	}
}
