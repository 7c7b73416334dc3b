package protocol

// 错误码
const (
	ErrCodeUnknownUser  = 1001 // 用户不在房间中
	ErrCodeRoomNotFound = 1002 // 房间不存在
	ErrCodeRoomClosed   = 1003 // 房间已关闭
	ErrCodeNotInRoom    = 1004 // 您不在房间中
	ErrCodeBadToken     = 1005 // 重连令牌无效
)
