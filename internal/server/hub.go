package server

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/handcount/internal/detector"
)

// updateBuffer is how many results may wait for broadcast before new ones
// are dropped. The frame loop never blocks on slow clients.
const updateBuffer = 16

// writeWait bounds a single websocket write.
const writeWait = time.Second

// resultMessage is the websocket payload for one frame.
type resultMessage struct {
	detector.Result
	Timestamp int64 `json:"timestamp"`
}

// Hub keeps the latest result and annotated frame and fans results out to
// websocket clients. It implements the frame loop's publisher interface.
type Hub struct {
	latest  detector.Result
	ready   bool
	jpeg    []byte
	seq     uint64
	dropped int
	clients map[*websocket.Conn]bool
	updates chan resultMessage
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
}

// NewHub creates a Hub and starts its broadcast goroutine.
func NewHub() *Hub {
	h := &Hub{
		clients: make(map[*websocket.Conn]bool),
		updates: make(chan resultMessage, updateBuffer),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Publish stores r and the JPEG encoding of annotated, then queues r for
// websocket clients. It never blocks.
func (h *Hub) Publish(r detector.Result, annotated gocv.Mat) {
	var encoded []byte
	if !annotated.Empty() {
		buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
		if err != nil {
			log.Printf("Failed to encode frame %d: %v", r.Frame, err)
		} else {
			encoded = append([]byte(nil), buf.GetBytes()...)
			buf.Close()
		}
	}

	summary := r.Summary()

	h.mu.Lock()
	h.latest = summary
	h.ready = true
	if encoded != nil {
		h.jpeg = encoded
		h.seq++
	}
	h.mu.Unlock()

	select {
	case h.updates <- resultMessage{Result: summary, Timestamp: time.Now().UnixMilli()}:
	default:
		h.mu.Lock()
		h.dropped++
		h.mu.Unlock()
	}
}

// Latest returns the most recent result. The second value is false until
// the first frame was published.
func (h *Hub) Latest() (detector.Result, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.latest.Summary(), h.ready
}

// Frame returns the latest annotated JPEG and its sequence number. The
// sequence increases with every encoded frame.
func (h *Hub) Frame() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.seq
}

// Dropped returns how many results were not broadcast because the queue
// was full.
func (h *Hub) Dropped() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Clients returns the number of connected websocket clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// broadcast sends every queued result to all connected clients.
func (h *Hub) broadcast() {
	for {
		select {
		case <-h.done:
			return
		case msg := <-h.updates:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Failed to marshal result: %v", err)
				continue
			}

			for _, conn := range h.snapshot() {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					log.Printf("websocket write error: %v", err)
					h.unregister(conn)
					conn.Close()
				}
			}
		}
	}
}

// snapshot copies the client set so writes happen without holding mu.
func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// Close stops the broadcast goroutine and disconnects all clients.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)

		h.mu.Lock()
		defer h.mu.Unlock()
		for conn := range h.clients {
			conn.Close()
			delete(h.clients, conn)
		}
	})
}
