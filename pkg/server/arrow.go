package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wattcast/wattcast/pkg/arrow"
	"github.com/wattcast/wattcast/pkg/log"
)

const arrowWriteTimeout = 5 * time.Second

// handleArrow streams the trend arrow animation for the current prediction.
// The animation lives exactly as long as the socket.
func (s *Server) handleArrow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	f, ok := s.dashboard.Forecast()
	next, hasNext := f.Next()
	if !ok || !hasNext {
		writeJSONError(w, "no prediction yet", http.StatusNotFound)
		return
	}
	path, err := arrow.NewPath(s.dashboard.Series(), next)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusConflict)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response
		log.Ctx(ctx).WarnContext(ctx, "failed to upgrade arrow websocket", slog.Any("error", err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// the client never sends anything; reading only notices it going away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	err = s.animator.Run(ctx, path, func(frame arrow.Frame) error {
		if err := conn.SetWriteDeadline(time.Now().Add(arrowWriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(frame)
	})
	switch {
	case err == nil:
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(arrowWriteTimeout))
	case errors.Is(err, context.Canceled):
		log.Ctx(ctx).DebugContext(ctx, "arrow client went away")
	default:
		log.Ctx(ctx).WarnContext(ctx, "failed to stream arrow", slog.Any("error", err))
	}
}

// checkOrigin accepts same-origin sockets and the configured CORS origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return slices.Contains(s.corsOrigins, origin)
}
