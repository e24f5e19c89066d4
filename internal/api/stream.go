package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// streamInterval is the poll cadence for pushing new entries to SSE and
// WebSocket subscribers.
const streamInterval = 500 * time.Millisecond

// handleStream serves the log buffer as Server-Sent Events. The cursor is
// taken at connection open, so a subscriber sees exactly the entries appended
// after it connected, each as one `data:` event. Slow or gone clients only
// ever affect their own connection.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The cursor is fixed before the response headers go out: once the
	// client sees the connection established, everything appended afterwards
	// is guaranteed to be delivered.
	cursor := s.buffer.Total()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := s.clk.Ticker(streamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			newEntries, next := s.buffer.Since(cursor)
			cursor = next

			for _, entry := range newEntries {
				payload, _ := json.Marshal(entry)
				if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
					s.log.Debug("sse client gone", zap.Error(err))
					return
				}
			}
			if len(newEntries) > 0 {
				flusher.Flush()
			}
		}
	}
}
