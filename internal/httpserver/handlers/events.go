package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/TWeb79/appscout/internal/httpserver/deps"
	"github.com/TWeb79/appscout/internal/logger"
)

const (
	eventWriteTimeout = 10 * time.Second
	pingInterval      = 30 * time.Second
)

// upgrader is permissive on origin: the server fronts a local dashboard,
// not the public internet.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Events upgrades to a websocket and streams hub events as JSON text
// messages until the client disconnects. Events published before the
// upgrade are not replayed.
func Events(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			d.Logger.Debug("websocket upgrade failed", logger.Error(err))
			return
		}

		observerID := uuid.NewString()
		ch := d.Hub.Subscribe(observerID)
		d.Logger.Debug("event observer connected",
			logger.String("observer", observerID),
			logger.String("remote_ip", r.RemoteAddr))

		defer func() {
			d.Hub.Unsubscribe(observerID)
			_ = conn.Close()
			d.Logger.Debug("event observer disconnected",
				logger.String("observer", observerID))
		}()

		// Read loop only detects the client going away; inbound payloads
		// are ignored.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				payload, err := ev.Marshal()
				if err != nil {
					d.Logger.Warn("event marshal failed",
						logger.String("type", ev.Type),
						logger.Error(err))
					continue
				}
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
				if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}
}
