package stream

import (
	"net/http"

	"broadcastmusic/internal/events"

	"github.com/gin-contrib/sse"
)

// sseWriter frames each event as `data:{json}` followed by a blank line.
type sseWriter struct {
	w interface {
		http.ResponseWriter
		http.Flusher
	}
}

func (s *sseWriter) WriteEvent(ev events.Event) error {
	if err := sse.Encode(s.w, sse.Event{Data: ev}); err != nil {
		return err
	}
	s.w.Flush()
	return nil
}
