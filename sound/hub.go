package sound

import (
	"context"
	"encoding/binary"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jsphweid/songreplay/frac"
	"github.com/jsphweid/songreplay/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type MessageType byte

const (
	TimeSync    MessageType = 0
	MidiMessage MessageType = 1
	BeatMessage MessageType = 2
)

// Message is one websocket frame.
//
// 0-7: Timestamp (unix ms, when the message was created)
// 8:   MessageType
// 9-:  Content
type Message struct {
	Timestamp uint64
	Type      MessageType
	Content   []byte
}

func (m Message) Bytes() []byte {
	b := make([]byte, 9)
	binary.BigEndian.PutUint64(b, m.Timestamp)
	b[8] = byte(m.Type)
	return append(b, m.Content...)
}

// EncodeBeat packs a beat position as numerator, denominator and a pickup flag.
func EncodeBeat(time8n frac.Frac, isPickup bool) []byte {
	b := make([]byte, 17)
	binary.BigEndian.PutUint64(b, uint64(time8n.Numer()))
	binary.BigEndian.PutUint64(b[8:], uint64(time8n.Denom()))
	if isPickup {
		b[16] = 1
	}
	return b
}

const (
	timeSyncInterval = 1000 * time.Millisecond
	clientBacklog    = 256
	writeWait        = 5 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts MIDI and beats to websocket clients. It is a gomidi
// drivers.Out, so a PortSink can drive it like a hardware port.
type Hub struct {
	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan Message
	done       chan struct{}
	upgrader   websocket.Upgrader
	logger     *zap.Logger

	mu     sync.Mutex
	isOpen bool
}

func NewHub(l *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Message, clientBacklog),
		done:       make(chan struct{}),
		upgrader:   websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:     logger.OrNop(l),
	}
}

// Run serves the hub until ctx is done. Every client is disconnected on exit.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(timeSyncInterval)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.logger.Debug("client connected", zap.Int("clients", len(h.clients)))
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				close(c.send)
				delete(h.clients, c)
			}
		case <-ticker.C:
			h.fanOut(Message{Timestamp: uint64(time.Now().UnixMilli()), Type: TimeSync}.Bytes())
		case msg := <-h.broadcast:
			h.fanOut(msg.Bytes())
			ticker.Reset(timeSyncInterval)
		}
	}
}

// fanOut drops clients that cannot keep up.
func (h *Hub) fanOut(msg []byte) {
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Warn("dropping slow client")
			close(c.send)
			delete(h.clients, c)
		}
	}
}

func (h *Hub) publish(typ MessageType, content []byte) error {
	select {
	case h.broadcast <- Message{Timestamp: uint64(time.Now().UnixMilli()), Type: typ, Content: content}:
		return nil
	default:
		return errors.New("hub backlog is full")
	}
}

func (h *Hub) PublishBeat(time8n frac.Frac, isPickup bool) error {
	return h.publish(BeatMessage, EncodeBeat(time8n, isPickup))
}

// ServeHTTP upgrades the request to a websocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("could not upgrade connection", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBacklog)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}
	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump only notices the client going away.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			select {
			case h.unregister <- c:
			case <-h.done:
			}
			return
		}
	}
}

func (h *Hub) Open() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isOpen = true
	return nil
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isOpen = false
	return nil
}

func (h *Hub) IsOpen() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.isOpen
}

func (h *Hub) Number() int {
	return 424242
}

func (h *Hub) String() string {
	return "Websocket Hub"
}

func (h *Hub) Underlying() interface{} {
	return nil
}

func (h *Hub) Send(data []byte) error {
	return h.publish(MidiMessage, slices.Clone(data))
}
