package multiplayer

import "slices"

// Room is the client-side snapshot of one multiplayer session. The zero
// Room means "not in a room".
//
// Users is kept in insertion order; index-based access ("the i-th user")
// is part of the contract for callers. A given UserID appears at most once.
type Room struct {
	ID    int64
	State RoomState
	Users []RoomUser
}

// Empty reports whether the room represents "no room".
func (r Room) Empty() bool {
	return r.ID == 0 && len(r.Users) == 0
}

// IndexOf returns the position of userID in Users, or -1 if absent.
func (r Room) IndexOf(userID int64) int {
	for i := range r.Users {
		if r.Users[i].UserID == userID {
			return i
		}
	}
	return -1
}

// Clone returns a copy that shares no memory with the receiver. RoomUser
// holds no reference types, so cloning the slice is a deep copy.
func (r Room) Clone() Room {
	c := r
	c.Users = slices.Clone(r.Users)
	return c
}
