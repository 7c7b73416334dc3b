package protocol

import "github.com/openbeat/multiplayer-client/internal/multiplayer"

// RoomFromDTO 将房间 DTO 转换为客户端模型
func RoomFromDTO(dto RoomDTO) multiplayer.Room {
	room := multiplayer.Room{
		ID:    dto.ID,
		State: multiplayer.RoomState(dto.State),
	}
	if len(dto.Users) > 0 {
		room.Users = make([]multiplayer.RoomUser, 0, len(dto.Users))
		for _, u := range dto.Users {
			room.Users = append(room.Users, UserFromDTO(u))
		}
	}
	return room
}

// UserFromDTO 将用户 DTO 转换为客户端模型
func UserFromDTO(dto UserDTO) multiplayer.RoomUser {
	return multiplayer.RoomUser{
		UserID: dto.ID,
		Profile: multiplayer.UserProfile{
			Username:    dto.Username,
			CountryCode: dto.CountryCode,
			AvatarURL:   dto.AvatarURL,
		},
		State: multiplayer.UserState(dto.State),
	}
}

// RoomToDTO 将客户端模型转换为 DTO（测试与 mock 服务端使用）
func RoomToDTO(room multiplayer.Room) RoomDTO {
	dto := RoomDTO{
		ID:    room.ID,
		State: int(room.State),
	}
	for _, u := range room.Users {
		dto.Users = append(dto.Users, UserToDTO(u))
	}
	return dto
}

// UserToDTO 将用户模型转换为 DTO
func UserToDTO(u multiplayer.RoomUser) UserDTO {
	return UserDTO{
		ID:          u.UserID,
		Username:    u.Profile.Username,
		CountryCode: u.Profile.CountryCode,
		AvatarURL:   u.Profile.AvatarURL,
		State:       int(u.State),
	}
}
