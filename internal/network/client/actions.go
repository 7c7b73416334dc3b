package client

import (
	"errors"
	"fmt"
	"time"

	"github.com/openbeat/multiplayer-client/internal/multiplayer"
	"github.com/openbeat/multiplayer-client/internal/protocol"
)

// ServerError 服务端返回的错误
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// --- 便捷方法 ---

// JoinRoom 请求加入房间
func (c *Client) JoinRoom(roomID int64) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgJoinRoom, protocol.JoinRoomPayload{
		RoomID: roomID,
	}))
}

// LeaveRoom 请求离开房间
func (c *Client) LeaveRoom() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgLeaveRoom, nil))
}

// ChangeState 请求修改自己的游戏状态
func (c *Client) ChangeState(state multiplayer.UserState) error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgChangeState, protocol.ChangeStatePayload{
		State: int(state),
	}))
}

// Ping 发送心跳
func (c *Client) Ping() error {
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgPing, protocol.PingPayload{
		Timestamp: time.Now().UnixMilli(),
	}))
}

// Reconnect 发送重连请求
func (c *Client) Reconnect() error {
	if c.reconnectToken == "" {
		return errors.New("no reconnect token")
	}
	return c.SendMessage(protocol.MustNewMessage(protocol.MsgReconnect, protocol.ReconnectPayload{
		Token:  c.reconnectToken,
		UserID: c.replica.LocalUserID(),
	}))
}
