// Package server manages individual WebSocket clients, handling read/write
// pumps, the room command state machine, and lifecycle control for each
// connection.
package server

import (
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tyrowin/roomchat/internal/channel"
	"github.com/Tyrowin/roomchat/internal/metrics"
	"github.com/Tyrowin/roomchat/internal/protocol"
)

// Client is one WebSocket connection. The reader goroutine owns current and
// joined; nothing else touches them.
type Client struct {
	conn    *websocket.Conn
	sub     *channel.Subscriber
	manager *channel.Manager
	hub     *Hub
	addr    string
	metrics *metrics.Metrics
	log     *zap.Logger

	maxMessageSize int64
	pingInterval   time.Duration
	pongWait       time.Duration
	writeWait      time.Duration

	current string
	joined  map[string]struct{}
}

// newClient binds conn and sub to the server's manager and hub. conn may be
// nil when only the command state machine is exercised.
func (s *Server) newClient(conn *websocket.Conn, sub *channel.Subscriber, addr string) *Client {
	if conn != nil {
		conn.SetReadLimit(s.cfg.MaxMessageSize)
	}

	return &Client{
		conn:           conn,
		sub:            sub,
		manager:        s.manager,
		hub:            s.hub,
		addr:           addr,
		metrics:        s.metrics,
		log:            s.log.With(zap.String("remote_addr", addr), zap.Stringer("subscriber", sub.ID())),
		maxMessageSize: s.cfg.MaxMessageSize,
		pingInterval:   s.cfg.PingInterval,
		pongWait:       s.cfg.PongWait,
		writeWait:      s.cfg.WriteWait,
		joined:         make(map[string]struct{}),
	}
}

// handleFrame applies one inbound text frame. Malformed frames are counted
// and otherwise ignored.
func (c *Client) handleFrame(frame string) {
	cmd, ok := protocol.Parse(frame)
	if !ok {
		c.metrics.FrameIgnored()
		c.log.Debug("ignoring malformed frame", zap.Int("bytes", len(frame)))
		return
	}

	switch cmd.Kind {
	case protocol.CreateRoom, protocol.JoinRoom:
		c.manager.EnsureRoom(cmd.Room)
		c.manager.Join(cmd.Room, c.sub)
		// The previous room is kept; joined remembers it for release.
		c.joined[cmd.Room] = struct{}{}
		c.current = cmd.Room

	case protocol.LeaveRoom:
		c.manager.Leave(cmd.Room, c.sub)
		delete(c.joined, cmd.Room)
		c.current = ""

	case protocol.RoomMessage:
		c.manager.Broadcast(cmd.Room, cmd.Sender, cmd.Content)
	}
}

// releaseRooms leaves every room the client joined, once each.
func (c *Client) releaseRooms() {
	for name := range c.joined {
		c.manager.Leave(name, c.sub)
		delete(c.joined, name)
	}
	c.current = ""
}

// setupReadConnection configures read deadlines and pong handler for the WebSocket connection
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
		c.log.Warn("error setting initial read deadline", zap.Error(err))
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.pongWait)); err != nil {
			c.log.Warn("error setting read deadline in pong handler", zap.Error(err))
		}
		return nil
	})
}

// logReadError records why the read loop is ending.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.log.Warn("message exceeded maximum size", zap.Int64("limit", c.maxMessageSize))

	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived):
		c.log.Debug("client disconnected", zap.Error(err))

	case errors.Is(err, io.EOF) || isExpectedCloseError(err):
		c.log.Debug("client connection closed", zap.Error(err))

	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.log.Warn("unexpected WebSocket close", zap.Error(err))

	default:
		c.log.Warn("WebSocket read error", zap.Error(err))
	}
}

func (c *Client) readPump() {
	defer func() {
		c.releaseRooms()
		c.sub.Close()
		c.hub.Unregister(c)
		c.closeConnection()
	}()

	c.setupReadConnection()

	for {
		messageType, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			c.log.Info("non-text frame received; ending session", zap.Int("type", messageType))
			return
		}

		c.handleFrame(string(raw))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		if n := c.sub.Evicted(); n > 0 {
			c.log.Info("slow client lost queued messages", zap.Uint64("evicted", n))
		}
		// Later broadcasts to this subscriber fail and drop it from its rooms.
		c.sub.Close()
		c.closeConnection()
	}()

	for c.processWriteEvent(ticker) {
	}
}

// processWriteEvent waits for the next write event and returns false when the
// pump should stop processing.
func (c *Client) processWriteEvent(ticker *time.Ticker) bool {
	select {
	case message, ok := <-c.sub.Messages():
		return c.handleMessage(message, ok)
	case <-ticker.C:
		return c.handlePing()
	}
}

// closeConnection safely closes the WebSocket connection with proper error handling
func (c *Client) closeConnection() {
	if c.conn == nil {
		return
	}
	if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
		c.log.Warn("error closing connection", zap.Error(err))
	}
}

// handleMessage processes outgoing messages and returns false if the connection should be closed
func (c *Client) handleMessage(message string, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		c.log.Warn("error setting write deadline", zap.Error(err))
		return false
	}

	if !ok {
		return c.writeCloseMessage()
	}

	return c.writeTextMessage(message)
}

// writeCloseMessage sends a close message to the client
func (c *Client) writeCloseMessage() bool {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteMessage(websocket.CloseMessage, msg); err != nil && !isExpectedCloseError(err) {
		c.log.Debug("error writing close message", zap.Error(err))
	}
	return false
}

// writeTextMessage writes one queued message as its own frame.
func (c *Client) writeTextMessage(message string) bool {
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(message)); err != nil {
		if !isExpectedCloseError(err) {
			c.log.Warn("error writing message", zap.Error(err))
		}
		return false
	}
	return true
}

// handlePing sends a ping message to keep the connection alive
func (c *Client) handlePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeWait)); err != nil {
		c.log.Warn("error setting write deadline for ping", zap.Error(err))
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.log.Warn("error writing ping message", zap.Error(err))
		return false
	}
	return true
}

// isExpectedCloseError reports errors that are normal while a connection is
// being torn down.
func isExpectedCloseError(err error) bool {
	if err == nil || errors.Is(err, net.ErrClosed) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
