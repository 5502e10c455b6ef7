package party

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	sendBufferSize = 256

	// writeWait bounds a single frame write so a dead peer cannot wedge
	// the write pump.
	writeWait = 10 * time.Second
)

// Client is one open websocket connection. The channel handle is the stable
// identifier other members use to address it (relay targets, member lists).
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	channel   string
	partyID   string
	sessionID string

	// memberID is set by connect and only touched from the connection's own
	// read goroutine afterwards.
	memberID string
}

func newClient(hub *Hub, conn *websocket.Conn, channel, partyID, sessionID string) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, sendBufferSize),
		channel:   channel,
		partyID:   partyID,
		sessionID: sessionID,
	}
}

// readPump processes inbound frames one at a time, in arrival order. It
// returns when the peer closes or the connection errors, and tears the
// member down on the way out.
func (c *Client) readPump(ctx context.Context, s *Server) {
	defer func() {
		s.disconnect(ctx, c)
		c.hub.Unregister(c)
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		s.dispatch(ctx, c, raw)
	}
}

// writePump drains the send channel onto the wire. It keeps draining after
// the channel closes, so frames queued before an unregister still go out.
func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}
