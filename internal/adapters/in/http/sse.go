package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"orderflow/internal/adapters/out/broadcast"

	"github.com/labstack/echo/v4"
)

const sseKeepAlive = 25 * time.Second

// StreamRoomEvents handles GET /api/v1/rooms/{room}/events. Each envelope is
// written as one SSE event named after the broadcast event.
func (s *Server) StreamRoomEvents(ctx echo.Context, room string) error {
	if !broadcast.ValidRoom(room) {
		return badRequest(ctx, "Invalid room")
	}

	sub := s.h.Rooms.Subscribe(room)
	defer sub.Close()

	w := ctx.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	reqCtx := ctx.Request().Context()
	s.logger.DebugContext(reqCtx, "room stream opened", "room", room)

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-reqCtx.Done():
			s.logger.DebugContext(reqCtx, "room stream closed", "room", room, "dropped", sub.Dropped())
			return nil
		case env, ok := <-sub.C():
			if !ok {
				return nil
			}
			data, err := json.Marshal(env)
			if err != nil {
				s.logger.WarnContext(reqCtx, "skipping unencodable envelope", "room", room, "error", err)
				continue
			}
			if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", env.Event, data); err != nil {
				return nil
			}
			w.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}
