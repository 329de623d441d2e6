package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const wsWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// displays are served from other origins
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsWriter sends each event as one text frame and pings while idle.
type wsWriter struct {
	conn *websocket.Conn
}

func (w *wsWriter) WriteEvent(data string) error {
	w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.conn.WriteMessage(websocket.TextMessage, []byte(data))
}

func (w *wsWriter) KeepAlive() error {
	return w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

// serveWebsocket upgrades the request and runs session over it. The read loop
// only watches for the client going away and cancels the session then.
func serveWebsocket(w http.ResponseWriter, r *http.Request, session Session, logger zerolog.Logger) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		session.Close()
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug().Err(err).Msg("websocket client disconnected or read error")
				return
			}
		}
	}()

	err = session.Run(ctx, &wsWriter{conn: conn})
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(wsWriteWait))
	return err
}
