// Package client is the WebSocket transport adapter. It delivers server
// events to the room replica strictly in arrival order, on a single
// goroutine, and carries client requests back to the server.
package client

import (
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/openbeat/multiplayer-client/internal/config"
	"github.com/openbeat/multiplayer-client/internal/multiplayer"
	"github.com/openbeat/multiplayer-client/internal/protocol"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	// 必须小于 pongWait
	pingPeriod = (pongWait * 9) / 10

	logModule = "network.client"
)

// Client WebSocket 客户端
type Client struct {
	ServerURL string

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	replica *multiplayer.Replica

	// instanceID 标识本进程的一次运行，用于握手与日志关联
	instanceID     string
	reconnectToken string

	// 网络延迟（毫秒）
	latency atomic.Int64

	// 回调
	OnError     func(error) // 错误回调
	OnClose     func()      // 关闭回调
	OnReconnect func()      // 重连成功回调

	heartbeatInterval time.Duration
	handshakeTimeout  time.Duration
	reconnectInterval time.Duration
	maxReconnects     int
	sendBuffer        int

	mu             sync.RWMutex
	closed         bool
	reconnecting   atomic.Bool
	reconnectCount int
}

// NewClient 创建客户端，事件按到达顺序应用到 replica
func NewClient(cfg *config.Config, replica *multiplayer.Replica) *Client {
	return &Client{
		ServerURL:         cfg.Server.URL(),
		replica:           replica,
		instanceID:        uuid.NewString(),
		send:              make(chan []byte, cfg.Client.SendBuffer),
		done:              make(chan struct{}),
		heartbeatInterval: cfg.Client.HeartbeatIntervalDuration(),
		handshakeTimeout:  cfg.Client.HandshakeTimeoutDuration(),
		reconnectInterval: cfg.Client.ReconnectIntervalDuration(),
		maxReconnects:     cfg.Client.MaxReconnectAttempts,
		sendBuffer:        cfg.Client.SendBuffer,
	}
}

// Connect 连接服务器
func (c *Client) Connect() error {
	dialer := websocket.Dialer{
		HandshakeTimeout: c.handshakeTimeout,
	}

	header := http.Header{}
	header.Set("X-Client-Instance", c.instanceID)

	conn, _, err := dialer.Dial(c.ServerURL, header)
	if err != nil {
		return err
	}

	c.conn = conn
	log.Info().Str("module", logModule).Str("instance", c.instanceID).
		Str("url", c.ServerURL).Msg("connected")

	// 启动读写协程
	go c.readPump()
	go c.writePump()

	return nil
}

// readPump 从服务器读取消息。所有事件在本协程内按序应用到 replica。
func (c *Client) readPump() {
	defer func() {
		// 用户主动关闭时不触发重连
		if c.isClosed() {
			return
		}
		if c.reconnectToken != "" && !c.reconnecting.Load() {
			go c.tryReconnect()
			return
		}
		c.Close()
		if c.OnClose != nil {
			c.OnClose()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.OnError != nil {
					c.OnError(err)
				}
			}
			return
		}

		msg, err := protocol.Decode(message)
		if err != nil {
			log.Error().Str("module", logModule).Err(err).Msg("bad message from server")
			continue
		}

		c.dispatch(msg)
	}
}

// writePump 向服务器写入消息
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

// SendMessage 发送消息
func (c *Client) SendMessage(msg *protocol.Message) error {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return errors.New("connection closed")
	}
	send := c.send
	c.mu.RUnlock()

	data, err := msg.Encode()
	if err != nil {
		return err
	}

	select {
	case send <- data:
		return nil
	default:
		return errors.New("send buffer full")
	}
}

// Close 关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Latency 获取当前延迟（毫秒）
func (c *Client) Latency() int64 {
	return c.latency.Load()
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}

// StartHeartbeat 启动心跳检测
func (c *Client) StartHeartbeat() {
	go func() {
		ticker := time.NewTicker(c.heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if c.IsConnected() {
					c.Ping()
				}
			case <-c.done:
				return
			}
		}
	}()
}

// tryReconnect 尝试重连
func (c *Client) tryReconnect() {
	if c.reconnecting.Load() {
		return
	}
	c.reconnecting.Store(true)

	for c.reconnectCount < c.maxReconnects {
		// 用户在重连期间关闭了客户端
		if c.isClosed() {
			c.reconnecting.Store(false)
			return
		}
		c.reconnectCount++
		log.Info().Str("module", logModule).
			Int("attempt", c.reconnectCount).Int("max", c.maxReconnects).
			Msg("reconnecting")

		time.Sleep(c.reconnectInterval)

		dialer := websocket.Dialer{
			HandshakeTimeout: c.handshakeTimeout,
		}
		header := http.Header{}
		header.Set("X-Client-Instance", c.instanceID)

		conn, _, err := dialer.Dial(c.ServerURL, header)
		if err != nil {
			log.Warn().Str("module", logModule).Err(err).Msg("reconnect dial failed")
			continue
		}

		// 重置状态
		c.mu.Lock()
		c.conn = conn
		c.closed = false
		c.send = make(chan []byte, c.sendBuffer)
		c.done = make(chan struct{})
		c.mu.Unlock()

		go c.readPump()
		go c.writePump()

		if err := c.Reconnect(); err != nil {
			log.Warn().Str("module", logModule).Err(err).Msg("reconnect request failed")
			c.conn.Close()
			continue
		}

		return
	}

	log.Error().Str("module", logModule).Msg("reconnect attempts exhausted")
	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}
