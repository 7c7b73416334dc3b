package client

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openbeat/multiplayer-client/internal/multiplayer"
	"github.com/openbeat/multiplayer-client/internal/protocol"
)

// messageHandler 消息处理函数类型
type messageHandler func(c *Client, msg *protocol.Message)

// messageHandlers 消息处理器映射表
var messageHandlers = map[protocol.MessageType]messageHandler{
	// Connection
	protocol.MsgConnected:   handleConnected,
	protocol.MsgReconnected: handleReconnected,
	protocol.MsgPong:        handlePong,
	protocol.MsgError:       handleError,

	// Room events
	protocol.MsgRoomChanged:      handleRoomChanged,
	protocol.MsgUserJoined:       handleUserJoined,
	protocol.MsgUserLeft:         handleUserLeft,
	protocol.MsgUserKicked:       handleUserKicked,
	protocol.MsgUserStateChanged: handleUserStateChanged,
	protocol.MsgRoomStateChanged: handleRoomStateChanged,
	protocol.MsgRoomClosed:       handleRoomClosed,
}

// dispatch applies a server message. Runs on the read goroutine, so events
// reach the replica in exactly the order the server sent them.
func (c *Client) dispatch(msg *protocol.Message) {
	if handler, ok := messageHandlers[msg.Type]; ok {
		handler(c, msg)
		return
	}
	log.Debug().Str("module", logModule).Str("type", string(msg.Type)).
		Msg("unhandled message type")
}

func decodePayload(msg *protocol.Message, dst any) bool {
	if err := msg.DecodePayload(dst); err != nil {
		log.Error().Str("module", logModule).Str("type", string(msg.Type)).
			Err(err).Msg("bad payload")
		return false
	}
	return true
}

func handleConnected(c *Client, msg *protocol.Message) {
	var payload protocol.ConnectedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.reconnectToken = payload.ReconnectToken
	if payload.UserID != c.replica.LocalUserID() {
		log.Warn().Str("module", logModule).
			Int64("server_user", payload.UserID).
			Int64("local_user", c.replica.LocalUserID()).
			Msg("server assigned a different user id")
	}
}

func handleReconnected(c *Client, msg *protocol.Message) {
	var payload protocol.ReconnectedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.reconnecting.Store(false)
	c.reconnectCount = 0
	// 服务端附带整房快照时直接 resync
	if payload.Room != nil {
		c.replica.ReplaceRoom(protocol.RoomFromDTO(*payload.Room))
	}
	if c.OnReconnect != nil {
		c.OnReconnect()
	}
}

func handlePong(c *Client, msg *protocol.Message) {
	var payload protocol.PongPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.latency.Store(time.Now().UnixMilli() - payload.ClientTimestamp)
}

func handleError(c *Client, msg *protocol.Message) {
	var payload protocol.ErrorPayload
	if !decodePayload(msg, &payload) {
		return
	}
	log.Warn().Str("module", logModule).Int("code", payload.Code).
		Str("message", payload.Message).Msg("server error")
	if c.OnError != nil {
		c.OnError(&ServerError{Code: payload.Code, Message: payload.Message})
	}
}

func handleRoomChanged(c *Client, msg *protocol.Message) {
	var payload protocol.RoomChangedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.replica.ReplaceRoom(protocol.RoomFromDTO(payload.Room))
}

func handleUserJoined(c *Client, msg *protocol.Message) {
	var payload protocol.UserJoinedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	user := protocol.UserFromDTO(payload.User)
	c.replica.AddUser(user.UserID, user.Profile)
}

func handleUserLeft(c *Client, msg *protocol.Message) {
	var payload protocol.UserLeftPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.replica.RemoveUser(payload.UserID)
}

func handleUserKicked(c *Client, msg *protocol.Message) {
	var payload protocol.UserKickedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.replica.KickUser(payload.UserID)
}

func handleUserStateChanged(c *Client, msg *protocol.Message) {
	var payload protocol.UserStateChangedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	err := c.replica.ChangeUserState(payload.UserID, multiplayer.UserState(payload.State))
	if err != nil {
		// Stale event racing a leave; the replica is untouched and the
		// server will resync us if it matters.
		log.Warn().Str("module", logModule).Err(err).Msg("stale state change dropped")
	}
}

func handleRoomStateChanged(c *Client, msg *protocol.Message) {
	var payload protocol.RoomStateChangedPayload
	if !decodePayload(msg, &payload) {
		return
	}
	c.replica.ChangeRoomState(multiplayer.RoomState(payload.State))
}

func handleRoomClosed(c *Client, msg *protocol.Message) {
	c.replica.LeaveRoom()
}
