// Package broadcast fans per-frame detection results out to connected
// WebSocket clients. A Hub owns the client registry and, in accumulate
// mode, the recording session: the capture producer publishes frames
// without ever blocking on a slow consumer.
package broadcast

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/bodytrace/mocap/internal/bvh"
	"github.com/bodytrace/mocap/internal/detector"
	"github.com/bodytrace/mocap/internal/landmark"
	"github.com/bodytrace/mocap/internal/monitoring"
	"github.com/bodytrace/mocap/internal/rig"
)

// Mode selects what Publish sends to clients.
type Mode string

const (
	// ModePassthrough relays the full landmark payload to every client.
	ModePassthrough Mode = "passthrough"
	// ModeBVH accumulates encoded frames server-side for later export and
	// broadcasts only a lightweight progress acknowledgment.
	ModeBVH Mode = "bvh"
)

// ErrClosed is returned by Publish after the hub has shut down.
var ErrClosed = errors.New("broadcast hub closed")

const (
	// sendQueueSize bounds the per-client outbound queue. A client that
	// falls this far behind is dropped rather than slowing the producer.
	sendQueueSize = 32
	writeWait     = 5 * time.Second
)

// passthroughMessage is the full per-frame wire payload.
type passthroughMessage struct {
	Timestamp  float64           `json:"timestamp"`
	Body       []landmark.Point  `json:"body"`
	Additional *landmark.Derived `json:"additional"`
	LeftHand   []landmark.Point  `json:"left_hand"`
	RightHand  []landmark.Point  `json:"right_hand"`
	Face       []landmark.Point  `json:"face"`
}

// ackMessage is the accumulate-mode progress acknowledgment.
type ackMessage struct {
	Format    string  `json:"format"`
	Frame     int     `json:"frame"`
	Timestamp float64 `json:"timestamp"`
}

// Hub is the broadcast server. One instance owns the client set; there is
// no process-wide registry.
type Hub struct {
	mode     Mode
	encoder  *rig.Encoder
	acc      *bvh.Accumulator
	ser      *bvh.Serializer
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

// shut signals the client's pumps to stop. The send queue itself is never
// closed, so concurrent broadcasts cannot race a closing channel.
func (c *client) shut() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		c.conn.Close()
	})
}

// NewHub creates a hub in the given mode. The encoder supplies the
// hierarchy for accumulate mode; frameTime fixes the session's
// seconds-per-frame (zero selects the default).
func NewHub(mode Mode, enc *rig.Encoder, frameTime float64) *Hub {
	return &Hub{
		mode:    mode,
		encoder: enc,
		acc:     bvh.NewAccumulator(enc.Hierarchy().TotalChannels(), frameTime),
		ser:     bvh.NewSerializer(enc.Hierarchy()),
		upgrader: websocket.Upgrader{
			// Renderers and engines connect from arbitrary origins on the
			// local network.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Mode reports the hub's transport mode.
func (h *Hub) Mode() Mode { return h.mode }

// Accumulator exposes the recording session, for status reporting and
// export.
func (h *Hub) Accumulator() *bvh.Accumulator { return h.acc }

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWS upgrades an HTTP request to a WebSocket client connection and
// registers it with the hub.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	h.mu.Unlock()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		monitoring.Logf("broadcast: upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	monitoring.Logf("broadcast: client %s connected (%d total)", c.id, n)

	go h.writePump(c)
	go h.readPump(c)
}

// writePump delivers queued messages to one client in FIFO order, giving
// each client strictly in-production-order frames.
func (h *Hub) writePump(c *client) {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.drop(c, "write failed")
				return
			}
		}
	}
}

// readPump discards inbound messages so close frames are processed, and
// drops the client when the connection errors or closes.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c, "disconnected")
			return
		}
	}
}

// drop removes one client from the registry. Other clients are
// unaffected.
func (h *Hub) drop(c *client, reason string) {
	h.mu.Lock()
	_, present := h.clients[c.id]
	delete(h.clients, c.id)
	n := len(h.clients)
	h.mu.Unlock()

	c.shut()
	if present {
		monitoring.Logf("broadcast: client %s %s (%d remaining)", c.id, reason, n)
	}
}

// Publish delivers one detection result according to the hub's mode.
// Publishing with no connected clients is a no-op, never an error; in
// accumulate mode the frame is still recorded.
func (h *Hub) Publish(res *detector.Result) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrClosed
	}

	var msg []byte
	var err error
	switch h.mode {
	case ModeBVH:
		msg, err = h.accumulate(res)
	default:
		msg, err = h.passthrough(res)
	}
	if err != nil || msg == nil {
		return err
	}

	h.broadcast(msg)
	return nil
}

// accumulate encodes the body frame into the session and returns the
// progress acknowledgment, or nil when the frame is invalid and dropped
// at the boundary.
func (h *Hub) accumulate(res *detector.Result) ([]byte, error) {
	frame, err := landmark.FromSlice(res.Body)
	if err != nil {
		monitoring.Logf("broadcast: dropping frame: %v", err)
		return nil, nil
	}
	if err := h.acc.Add(h.encoder.Encode(frame)); err != nil {
		return nil, err
	}
	return json.Marshal(ackMessage{
		Format:    "bvh",
		Frame:     h.acc.Len(),
		Timestamp: res.Timestamp,
	})
}

func (h *Hub) passthrough(res *detector.Result) ([]byte, error) {
	msg := passthroughMessage{
		Timestamp: res.Timestamp,
		Body:      res.Body,
		LeftHand:  res.LeftHand,
		RightHand: res.RightHand,
		Face:      res.Face,
	}
	if frame, err := landmark.FromSlice(res.Body); err == nil {
		derived := landmark.Derive(frame)
		msg.Additional = &derived
	}
	return json.Marshal(msg)
}

// broadcast queues a message for every connected client. A client whose
// queue is full is dropped; delivery to the rest proceeds.
func (h *Hub) broadcast(msg []byte) {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			h.drop(c, "send queue full")
		}
	}
}

// ExportSnapshot renders the current session as a BVH document. It
// remains available after Close: shutting down the transport never
// discards committed frames.
func (h *Hub) ExportSnapshot() (string, error) {
	return h.ser.Render(h.acc)
}

// Close stops accepting new clients, then closes existing connections.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	targets := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range targets {
		c.shut()
	}
	return nil
}
