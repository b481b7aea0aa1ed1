package wsserver

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"bigtwo/internal/bus"
	"bigtwo/internal/events"
)

// Timing constants grounded on the pack's connection pump
// (_examples/lox-pokerforbots/internal/server/connection.go).
const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192

	// outboundQueueSize is the bound on a connection's egress queue
	// (spec.md §5); DefaultOutboundQueueDeadline governs how long enqueue
	// may block before the connection is force-closed as a SlowClient.
	outboundQueueSize            = 256
	DefaultOutboundQueueDeadline = time.Second
)

// Connection wraps one accepted client socket: a read pump translating
// inbound frames into bus intent events, and a write pump draining a
// bounded outbound queue. Grounded on the pack's Connection type
// (_examples/lox-pokerforbots/internal/server/connection.go), adapted from
// its own auth handshake to upgrade-time token validation.
type Connection struct {
	conn     *websocket.Conn
	roomID   string
	playerID string
	logger   *log.Logger
	bus      *bus.Bus

	outboundDeadline time.Duration
	send             chan Envelope

	mu        sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(conn *websocket.Conn, roomID, playerID string, b *bus.Bus, outboundDeadline time.Duration, logger *log.Logger) *Connection {
	if outboundDeadline <= 0 {
		outboundDeadline = DefaultOutboundQueueDeadline
	}
	return &Connection{
		conn:             conn,
		roomID:           roomID,
		playerID:         playerID,
		logger:           logger,
		bus:              b,
		outboundDeadline: outboundDeadline,
		send:             make(chan Envelope, outboundQueueSize),
		closed:           make(chan struct{}),
	}
}

// Start launches the read and write pumps. Call once per connection.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close force-closes the underlying socket, idempotently.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
	})
}

// Enqueue delivers env to this connection's outbound queue, waiting at
// most the configured outbound deadline before treating the client as a
// SlowClient and force-closing it (spec.md §5, §7 Transport.SlowClient).
func (c *Connection) Enqueue(env Envelope) {
	select {
	case c.send <- env:
	case <-c.closed:
	case <-time.After(c.outboundDeadline):
		if c.logger != nil {
			c.logger.Warn("outbound queue deadline exceeded, closing slow client", "room", c.roomID, "player", c.playerID)
		}
		c.Close()
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *Connection) readPump() {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var raw struct {
			Type    string          `json:"type"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := c.conn.ReadJSON(&raw); err != nil {
			return
		}
		c.handleFrame(raw.Type, raw.Payload)
	}
}

// handleFrame parses one inbound frame by type and emits the corresponding
// intent event onto the bus (spec.md §4.8). Unparseable frames get an
// ERROR envelope but the connection stays open.
func (c *Connection) handleFrame(typ string, payload json.RawMessage) {
	switch typ {
	case frameChat:
		var f chatFrame
		if err := json.Unmarshal(payload, &f); err != nil {
			c.sendParseError()
			return
		}
		c.bus.Publish(c.roomID, events.Broadcast(events.KindChatMessage, events.ChatMessagePayload{SeatID: c.playerID, Text: f.Content}))

	case frameMove:
		var f moveFrame
		if err := json.Unmarshal(payload, &f); err != nil {
			c.sendParseError()
			return
		}
		// An empty card list is how a client passes; spec.md §6 defines
		// no separate PASS frame type.
		if len(f.Cards) == 0 {
			c.bus.Publish(c.roomID, events.Broadcast(events.KindTryPass, events.TryPassPayload{SeatID: c.playerID}))
			return
		}
		c.bus.Publish(c.roomID, events.Broadcast(events.KindTryPlayMove, events.TryPlayMovePayload{SeatID: c.playerID, Cards: f.Cards}))

	case frameLeave:
		c.bus.Publish(c.roomID, events.Broadcast(events.KindPlayerLeaveRequested, events.PlayerLeaveRequestedPayload{SeatID: c.playerID}))

	case frameStartGame:
		c.bus.Publish(c.roomID, events.Broadcast(events.KindTryStartGame, events.TryStartGamePayload{HostID: c.playerID}))

	case frameReady:
		// Idempotent no-op (spec.md §4.8, §8): nothing to do or emit.

	default:
		c.sendParseError()
	}
}

func (c *Connection) sendParseError() {
	env, err := newEnvelope(wireError, events.ErrorPayload{Code: "ParseError", Message: "could not parse frame"})
	if err != nil {
		return
	}
	c.Enqueue(env)
}
