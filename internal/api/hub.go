package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/transitsim/microsim/internal/drivingsim"
)

// hub fans a stream of draw-car snapshots out to every connected viewer,
// grounded on niceyeti-tabular's server.publishUpdates: a dedicated
// goroutine owns the broadcast channel, each connection gets its own
// writer goroutine, and publication is rate-limited so a slow client never
// blocks the simulation loop.
type hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan []drivingsim.DrawCar

	broadcastCh chan []drivingsim.DrawCar
}

const (
	writeWait     = 5 * time.Second
	publishPeriod = 100 * time.Millisecond
	clientBuffer  = 4
)

func newHub() *hub {
	return &hub{
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		clients:     make(map[*websocket.Conn]chan []drivingsim.DrawCar),
		broadcastCh: make(chan []drivingsim.DrawCar, 16),
	}
}

// broadcast enqueues a new snapshot for every connected client, dropping
// it if the channel is already full rather than blocking the caller (the
// caller is the /step handler).
func (h *hub) broadcast(cars []drivingsim.DrawCar) {
	select {
	case h.broadcastCh <- cars:
	default:
		// Drop the update when receiving them too quickly, matching the
		// teacher's rate-limited publish loop.
	}
}

// run drains broadcastCh and fans each snapshot out to every client,
// rate-limited to publishPeriod.
func (h *hub) run() {
	var last time.Time
	for cars := range h.broadcastCh {
		if time.Since(last) < publishPeriod {
			continue
		}
		last = time.Now()

		h.mu.Lock()
		for _, ch := range h.clients {
			select {
			case ch <- cars:
			default:
			}
		}
		h.mu.Unlock()
	}
}

// ServeHTTP upgrades the connection and registers a per-client writer
// goroutine, matching the teacher-adjacent serveWebsocket/publishUpdates
// split: one goroutine per connection, closed on write failure.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ch := make(chan []drivingsim.DrawCar, clientBuffer)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	for cars := range ch {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(cars); err != nil {
			return
		}
	}
}
