package multiplayer

// UserProfile is denormalized display data for a participant. The replica
// owns the copy attached to a RoomUser; it is not refreshed from elsewhere.
type UserProfile struct {
	Username    string
	CountryCode string
	AvatarURL   string
}

// RoomUser is one participant's membership and gameplay state within a room.
type RoomUser struct {
	UserID  int64
	Profile UserProfile
	State   UserState
}
