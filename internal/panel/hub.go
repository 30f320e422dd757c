package panel

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/signalsfoundry/rf-heatmap/internal/logging"
)

const writeWait = 5 * time.Second

// Event is one message pushed to websocket clients.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Event types.
const (
	EventParameter = "parameter"
	EventPass      = "pass"
)

// Hub fans events out to every connected websocket client. Run must be
// running for registration and broadcasts to make progress.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan Event
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}

	mu    sync.Mutex
	count int

	upgrader websocket.Upgrader
	log      logging.Logger
}

// NewHub builds an idle hub.
func NewHub(log logging.Logger) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Event),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for conn := range h.clients {
				h.drop(conn)
			}
			return

		case conn := <-h.register:
			if !h.clients[conn] {
				h.clients[conn] = true
				h.setCount(len(h.clients))
				h.log.Debug(ctx, "websocket client connected", logging.Int("clients", len(h.clients)))
			}

		case conn := <-h.unregister:
			if h.clients[conn] {
				h.drop(conn)
				h.log.Debug(ctx, "websocket client disconnected", logging.Int("clients", len(h.clients)))
			}

		case ev := <-h.broadcast:
			for conn := range h.clients {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(ev); err != nil {
					h.log.Warn(ctx, "websocket write failed; dropping client", logging.Err(err))
					h.drop(conn)
				}
			}
		}
	}
}

func (h *Hub) drop(conn *websocket.Conn) {
	delete(h.clients, conn)
	h.setCount(len(h.clients))
	_ = conn.Close()
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Broadcast queues ev for every client. It is a no-op without clients or
// after Run has returned.
func (h *Hub) Broadcast(ev Event) {
	if h.ClientCount() == 0 {
		return
	}
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

// ServeWS upgrades the request and registers the connection. Incoming
// messages are read and discarded so close frames are noticed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade failed", logging.Err(err))
		return
	}

	select {
	case h.register <- conn:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug(context.Background(), "websocket read error", logging.Err(err))
				}
				select {
				case h.unregister <- conn:
				case <-h.done:
				}
				return
			}
		}
	}()
}
