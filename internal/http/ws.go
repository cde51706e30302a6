package httpapi

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hperssn/yofit/internal/runner"
)

const (
	wsBufferSize     = 1024
	wsMaxMessageSize = 4096
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = wsPongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  wsBufferSize,
	WriteBufferSize: wsBufferSize,
}

// socketCommand is a player control message sent by the client.
type socketCommand struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

type socketError struct {
	Error string `json:"error"`
}

func (s *Server) dispatch(ctx context.Context, id string, cmd socketCommand) error {
	var err error
	switch cmd.Action {
	case "play":
		_, err = s.sessions.Play(ctx, id)
	case "toggle":
		_, err = s.sessions.TogglePlay(ctx, id)
	case "next":
		_, err = s.sessions.Next(ctx, id)
	case "previous":
		_, err = s.sessions.Previous(ctx, id)
	case "goto":
		_, err = s.sessions.GoTo(ctx, id, cmd.Index)
	default:
		err = fmt.Errorf("unknown action %q", cmd.Action)
	}
	return err
}

// sessionSocket pushes player events and accepts control commands over one
// websocket. The player's state changes reach the client as events, so
// commands are not acknowledged except on error.
func (s *Server) sessionSocket(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	events, cancel, err := s.sessions.Subscribe(id)
	if err != nil {
		respondError(w, err.Error(), sessionErrorStatus(err))
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	// Only the writer goroutine below touches conn for writes.
	replies := make(chan socketError, 4)
	readDone := make(chan struct{})

	go func() {
		defer close(readDone)
		for {
			var cmd socketCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("websocket read error for session %s: %v", id, err)
				}
				return
			}
			if err := s.dispatch(r.Context(), id, cmd); err != nil {
				select {
				case replies <- socketError{Error: err.Error()}:
				default:
				}
			}
		}
	}()

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			if ev.Type == runner.EventComplete {
				conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session complete"))
				return
			}

		case reply := <-replies:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteJSON(reply); err != nil {
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-readDone:
			return
		}
	}
}
