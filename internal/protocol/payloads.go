package protocol

// --- 客户端请求 Payloads ---

// PingPayload 心跳请求
type PingPayload struct {
	Timestamp int64 `json:"timestamp"` // 客户端时间戳（毫秒）
}

// ReconnectPayload 断线重连请求
type ReconnectPayload struct {
	Token  string `json:"token"`   // 重连令牌
	UserID int64  `json:"user_id"` // 用户 ID
}

// JoinRoomPayload 加入房间请求
type JoinRoomPayload struct {
	RoomID int64 `json:"room_id"`
}

// ChangeStatePayload 修改自己状态的请求
type ChangeStatePayload struct {
	State int `json:"state"`
}

// --- 服务端响应 Payloads ---

// ConnectedPayload 连接成功响应
type ConnectedPayload struct {
	UserID         int64  `json:"user_id"`
	ReconnectToken string `json:"reconnect_token"` // 重连令牌
}

// ReconnectedPayload 重连成功响应
type ReconnectedPayload struct {
	UserID int64    `json:"user_id"`
	Room   *RoomDTO `json:"room,omitempty"` // 如果在房间中
}

// PongPayload 心跳响应
type PongPayload struct {
	ClientTimestamp int64 `json:"client_timestamp"` // 客户端发送的时间戳
	ServerTimestamp int64 `json:"server_timestamp"` // 服务器时间戳（毫秒）
}

// RoomChangedPayload 整房同步（加入房间或服务端主动 resync）
type RoomChangedPayload struct {
	Room RoomDTO `json:"room"`
}

// UserJoinedPayload 用户加入通知
type UserJoinedPayload struct {
	User UserDTO `json:"user"`
}

// UserLeftPayload 用户离开通知
type UserLeftPayload struct {
	UserID int64 `json:"user_id"`
}

// UserKickedPayload 用户被踢出通知
type UserKickedPayload struct {
	UserID int64 `json:"user_id"`
}

// UserStateChangedPayload 用户状态变更通知
type UserStateChangedPayload struct {
	UserID int64 `json:"user_id"`
	State  int   `json:"state"`
}

// RoomStateChangedPayload 房间状态变更通知
type RoomStateChangedPayload struct {
	State int `json:"state"`
}

// ErrorPayload 错误响应
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// --- 通用数据结构 ---

// RoomDTO 房间信息
type RoomDTO struct {
	ID    int64     `json:"id"`
	State int       `json:"state"`
	Users []UserDTO `json:"users"`
}

// UserDTO 用户信息
type UserDTO struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	CountryCode string `json:"country_code,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	State       int    `json:"state"`
}
