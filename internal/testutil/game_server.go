//go:build !production

package testutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/openbeat/multiplayer-client/internal/protocol"
)

// GameServer is a scripted in-process WebSocket server for transport tests.
// It greets every connection with a connected message, records client
// requests, and lets tests push arbitrary server events.
type GameServer struct {
	UserID int64

	server   *httptest.Server
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns []*websocket.Conn

	requests  chan *protocol.Message
	connected chan struct{}
}

// NewGameServer starts a server that identifies connecting clients as userID.
func NewGameServer(userID int64) *GameServer {
	gs := &GameServer{
		UserID:    userID,
		requests:  make(chan *protocol.Message, 64),
		connected: make(chan struct{}, 8),
	}
	gs.server = httptest.NewServer(http.HandlerFunc(gs.handle))
	return gs
}

// URL returns the ws:// address clients should dial.
func (gs *GameServer) URL() string {
	return "ws" + strings.TrimPrefix(gs.server.URL, "http")
}

// Addr returns the host:port the server listens on.
func (gs *GameServer) Addr() string {
	return strings.TrimPrefix(gs.server.URL, "http://")
}

// Close shuts the server down.
func (gs *GameServer) Close() {
	gs.server.Close()
}

func (gs *GameServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := gs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	gs.mu.Lock()
	gs.conns = append(gs.conns, conn)
	gs.mu.Unlock()

	greeting := protocol.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		UserID:         gs.UserID,
		ReconnectToken: uuid.NewString(),
	})
	data, _ := greeting.Encode()
	_ = conn.WriteMessage(websocket.TextMessage, data)

	select {
	case gs.connected <- struct{}{}:
	default:
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(raw)
		if err != nil {
			continue
		}
		select {
		case gs.requests <- msg:
		default:
		}
	}
}

// CloseConnections drops every live connection, keeping the listener up.
// Used to exercise client reconnect behavior.
func (gs *GameServer) CloseConnections() {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	for _, conn := range gs.conns {
		conn.Close()
	}
	gs.conns = nil
}

// WaitConnected blocks until a client completes the handshake.
func (gs *GameServer) WaitConnected(timeout time.Duration) error {
	select {
	case <-gs.connected:
		return nil
	case <-time.After(timeout):
		return errors.New("timed out waiting for client connection")
	}
}

// Push sends a server event on the most recent connection.
func (gs *GameServer) Push(msg *protocol.Message) error {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	if len(gs.conns) == 0 {
		return errors.New("no client connected")
	}
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	return gs.conns[len(gs.conns)-1].WriteMessage(websocket.TextMessage, data)
}

// NextRequest waits for the next recorded client request.
func (gs *GameServer) NextRequest(timeout time.Duration) (*protocol.Message, error) {
	select {
	case msg := <-gs.requests:
		return msg, nil
	case <-time.After(timeout):
		return nil, errors.New("timed out waiting for client request")
	}
}
