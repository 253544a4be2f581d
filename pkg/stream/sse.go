package stream

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/goliatone/go-inbox-relay/pkg/domain"
)

// SSEWriter frames notifications as text/event-stream records over net/http.
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

var _ FrameWriter = (*SSEWriter)(nil)

// NewSSEWriter prepares the response for event streaming. It returns an error
// when the underlying writer does not support flushing, since unflushed SSE
// frames would sit in the buffer until the connection closes.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("stream: response writer %T does not support flushing", w)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent serializes the notification and emits one SSE event frame.
func (s *SSEWriter) WriteEvent(item *domain.Notification) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("stream: marshal notification: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: notification\ndata: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteKeepAlive emits an SSE comment frame; clients ignore it.
func (s *SSEWriter) WriteKeepAlive() error {
	if _, err := fmt.Fprint(s.w, ": keep-alive\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
