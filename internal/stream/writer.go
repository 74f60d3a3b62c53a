// Package stream frames audit progress as Server-Sent Events.
package stream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

// Writer frames JSON values as SSE data blocks on an http.ResponseWriter.
//
// Every frame is flushed immediately so consumers see events as they happen;
// a consumer that cannot keep up blocks the send, which blocks the producer.
type Writer struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewWriter prepares w for an event stream and returns the frame writer.
// It fails when the underlying connection cannot stream.
func NewWriter(w http.ResponseWriter) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")

	return &Writer{w: w, flusher: flusher}, nil
}

// Send writes one `data: <json>` frame and flushes it.
func (w *Writer) Send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := fmt.Fprintf(w.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	w.flusher.Flush()
	return nil
}
