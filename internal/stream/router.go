package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"broadcastmusic/internal/events"
	"broadcastmusic/internal/services/room"

	"go.uber.org/zap"
)

var (
	ErrUnknownEvent  = errors.New("unknown_event")
	ErrMalformedBody = errors.New("malformed body")
)

// ConnContext identifies the connection a command arrived on.
type ConnContext struct {
	RoomID   string
	ClientID string
}

type commandFunc func(ctx context.Context, cc *ConnContext, body json.RawMessage) (any, error)

// Router maps inbound command names to typed handlers and turns each
// outcome into the reply frame sent back on the same connection.
type Router struct {
	mu       sync.RWMutex
	commands map[string]commandFunc
	timeout  time.Duration // per command; 0 means none
}

func NewRouter(timeout time.Duration) *Router {
	return &Router{commands: make(map[string]commandFunc), timeout: timeout}
}

// Register binds a command to a handler taking a decoded Req. An absent
// body decodes to the zero Req so validation can reject it.
func Register[Req any, Res any](
	r *Router,
	name string,
	h func(ctx context.Context, cc *ConnContext, req Req) (Res, error),
) {
	if name == "" {
		panic("stream router: empty command name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.commands[name]; dup {
		panic("stream router: duplicate command " + name)
	}

	r.commands[name] = func(ctx context.Context, cc *ConnContext, body json.RawMessage) (any, error) {
		var req Req
		if len(body) > 0 && string(body) != "null" {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrMalformedBody, err)
			}
		}
		return h(ctx, cc, req)
	}
}

// Commands lists the registered command names in order.
func (r *Router) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Handle runs one command and returns the frame to send back:
// {"event":"<cmd>-ack","body":...} or {"event":"error","body":{"error":...}}.
// A handler returning an events.Event has that event sent as the reply.
func (r *Router) Handle(ctx context.Context, cc *ConnContext, env Envelope) any {
	res, err := r.dispatch(ctx, cc, env)
	if err != nil {
		zap.L().Debug("stream.command_failed",
			zap.String("command", env.Event),
			zap.String("room", cc.RoomID),
			zap.String("client", cc.ClientID),
			zap.Error(err),
		)
		return errorReply(room.UserMessage(err))
	}
	if ev, ok := res.(events.Event); ok {
		return ev
	}
	return Reply{Event: env.Event + ackSuffix, Body: res}
}

func (r *Router) dispatch(ctx context.Context, cc *ConnContext, env Envelope) (any, error) {
	r.mu.RLock()
	h, ok := r.commands[env.Event]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownEvent
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return h(ctx, cc, env.Body)
}

func errorReply(msg string) Reply {
	return Reply{Event: eventError, Body: ErrorBody{Error: msg}}
}
