package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/vaultwatch/internal/server/notify"
	"github.com/gorilla/websocket"
)

const (
	wsBuffer       = 16
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = (wsPongWait * 9) / 10
	wsMaxReadBytes = 512
)

var (
	errSessionClosed = errors.New("websocket session closed")
	errSlowConsumer  = errors.New("websocket send buffer full")
)

// wsSession is a notify.Channel backed by one websocket connection.
// Deliver only enqueues encoded frames; writePump owns the connection writes.
type wsSession struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSSession(conn *websocket.Conn) *wsSession {
	return &wsSession{
		conn: conn,
		send: make(chan []byte, wsBuffer),
		done: make(chan struct{}),
	}
}

func (c *wsSession) Deliver(ev notify.Event) error {
	select {
	case <-c.done:
		return errSessionClosed
	default:
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	select {
	case c.send <- msg:
		return nil
	case <-c.done:
		return errSessionClosed
	default:
		return errSlowConsumer
	}
}

func (c *wsSession) Close() {
	c.once.Do(func() { close(c.done) })
}

// readPump discards client frames and closes the session when the peer goes away.
func (c *wsSession) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(wsMaxReadBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsSession) writePump() error {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(wsWriteWait))
			return nil
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// watchAlerts upgrades the request and streams the caller's breach alerts
// until the peer disconnects or the hub closes the session.
func (s *HTTPServer) watchAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(ctx, "websocket upgrade failed", "error", err)
		return
	}

	session := newWSSession(conn)
	s.sessions.Register(userID, session)
	s.logger.Info(ctx, "websocket opened", "user_id", userID)

	defer func() {
		s.sessions.Unregister(session)
		session.Close()
		_ = conn.Close()
		s.logger.Info(ctx, "websocket closed", "user_id", userID)
	}()

	go session.readPump()
	if err := session.writePump(); err != nil {
		s.logger.Warn(ctx, "websocket write failed", "user_id", userID, "error", err)
	}
}
