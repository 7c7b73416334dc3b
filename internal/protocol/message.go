// Package protocol defines the JSON wire envelope and payloads exchanged
// with the multiplayer server.
package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgPing        MessageType = "ping"         // 心跳 ping
	MsgReconnect   MessageType = "reconnect"    // 断线重连
	MsgJoinRoom    MessageType = "join_room"    // 加入房间
	MsgLeaveRoom   MessageType = "leave_room"   // 离开房间
	MsgChangeState MessageType = "change_state" // 修改自己的游戏状态
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected   MessageType = "connected"   // 连接成功
	MsgReconnected MessageType = "reconnected" // 重连成功
	MsgPong        MessageType = "pong"        // 心跳 pong

	MsgRoomChanged      MessageType = "room_changed"       // 整房同步
	MsgUserJoined       MessageType = "user_joined"        // 用户加入
	MsgUserLeft         MessageType = "user_left"          // 用户离开
	MsgUserKicked       MessageType = "user_kicked"        // 用户被踢出
	MsgUserStateChanged MessageType = "user_state_changed" // 用户状态变更
	MsgRoomStateChanged MessageType = "room_state_changed" // 房间状态变更
	MsgRoomClosed       MessageType = "room_closed"        // 房间关闭

	MsgError MessageType = "error" // 错误消息
)

// NewMessage 创建带 payload 的消息
func NewMessage(t MessageType, payload any) (*Message, error) {
	if payload == nil {
		return &Message{Type: t}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: t, Payload: data}, nil
}

// MustNewMessage 创建消息，payload 编码失败时 panic
func MustNewMessage(t MessageType, payload any) *Message {
	msg, err := NewMessage(t, payload)
	if err != nil {
		panic(err)
	}
	return msg
}

// Encode 序列化消息
func (m *Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodePayload 解析 payload 到目标结构
func (m *Message) DecodePayload(dst any) error {
	return json.Unmarshal(m.Payload, dst)
}

// Decode 解析消息
func Decode(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
