package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hperssn/yofit/internal/runner"
)

// StreamSessionEvents relays player events as server-sent events until the
// session stops or the client goes away.
func StreamSessionEvents(manager *runner.SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		flusher, ok := w.(http.Flusher)
		if !ok {
			respondError(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		events, cancel, err := manager.Subscribe(id)
		if err != nil {
			respondError(w, err.Error(), sessionErrorStatus(err))
			return
		}
		defer cancel()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}

				data, _ := json.Marshal(ev)
				w.Write([]byte("event: " + string(ev.Type) + "\n"))
				w.Write([]byte("data: "))
				w.Write(data)
				w.Write([]byte("\n\n"))

				flusher.Flush()

				if ev.Type == runner.EventComplete {
					return
				}

			case <-r.Context().Done():
				return
			}
		}
	}
}
