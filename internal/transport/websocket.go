// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "audiobackend/internal/log"

	"github.com/gorilla/websocket"
)

const (
	wsBroadcastQueue = 256
	wsWriteTimeout   = time.Second
)

// WebSocketTransport serves /ws and broadcasts every sent value as JSON to
// all connected clients. Values are dropped while the broadcast queue is full.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
	listener  net.Listener
}

// NewWebSocketTransport creates a transport for the given listen address
// and starts its broadcast loop. Call Start to begin accepting clients.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, wsBroadcastQueue),
		done:      make(chan struct{}),
	}

	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	return mux
}

// Start listens on the configured address and serves clients in the
// background.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return fmt.Errorf("websocket: failed to listen on %s: %w", wst.addr, err)
	}
	wst.listener = ln
	wst.server = &http.Server{Handler: wst.Handler()}

	go func() {
		applog.Infof("websocket: serving on ws://%s/ws", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("websocket: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or the configured one before Start.
func (wst *WebSocketTransport) Addr() string {
	if wst.listener != nil {
		return wst.listener.Addr().String()
	}
	return wst.addr
}

// ClientCount returns the number of connected clients.
func (wst *WebSocketTransport) ClientCount() int {
	wst.clientsMu.Lock()
	defer wst.clientsMu.Unlock()
	return len(wst.clients)
}

func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("websocket: upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Debugf("websocket: client connected from %s, total: %d", r.RemoteAddr, total)

	// Clients only listen; the first read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				wst.removeClient(conn)
				return
			}
		}
	}()
}

func (wst *WebSocketTransport) removeClient(conn *websocket.Conn) {
	wst.clientsMu.Lock()
	if wst.clients[conn] {
		delete(wst.clients, conn)
		conn.Close()
	}
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Debugf("websocket: client disconnected, total: %d", total)
}

// handleBroadcasts is the only writer to client connections. It writes to
// a snapshot so a slow client never holds clientsMu.
func (wst *WebSocketTransport) handleBroadcasts() {
	var targets []*websocket.Conn
	for {
		select {
		case data := <-wst.broadcast:
			targets = targets[:0]
			wst.clientsMu.Lock()
			for client := range wst.clients {
				targets = append(targets, client)
			}
			wst.clientsMu.Unlock()

			for _, client := range targets {
				client.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
				if err := client.WriteJSON(data); err != nil {
					applog.Debugf("websocket: error sending to client: %v", err)
					wst.removeClient(client)
				}
			}
		case <-wst.done:
			return
		}
	}
}

// Send queues data for broadcast. It never blocks.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return fmt.Errorf("websocket transport is closed")
	default:
	}

	select {
	case wst.broadcast <- data:
	default:
		// Queue full; drop.
	}
	return nil
}

// Close disconnects all clients and shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

var _ Transport = (*WebSocketTransport)(nil)
