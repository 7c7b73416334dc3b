//go:build !production

package testutil

import (
	"sync"

	"github.com/openbeat/multiplayer-client/internal/multiplayer"
)

// StateChange records one user-state-changed notification.
type StateChange struct {
	UserID int64
	State  multiplayer.UserState
}

// RecordingSubscriber captures replica notifications in arrival order, for
// asserting on notification side effects in tests.
type RecordingSubscriber struct {
	mu           sync.Mutex
	events       []string
	joined       []multiplayer.RoomUser
	left         []multiplayer.RoomUser
	kicked       []multiplayer.RoomUser
	stateChanges []StateChange
	rooms        []multiplayer.Room
	roomLeaves   int
}

// Callbacks returns a callback set that records into the subscriber.
func (s *RecordingSubscriber) Callbacks() multiplayer.Callbacks {
	return multiplayer.Callbacks{
		OnRoomChanged: func(room multiplayer.Room) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, "room_changed")
			s.rooms = append(s.rooms, room)
		},
		OnUserJoined: func(user multiplayer.RoomUser) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, "user_joined")
			s.joined = append(s.joined, user)
		},
		OnUserLeft: func(user multiplayer.RoomUser) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, "user_left")
			s.left = append(s.left, user)
		},
		OnUserKicked: func(user multiplayer.RoomUser) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, "user_kicked")
			s.kicked = append(s.kicked, user)
		},
		OnUserStateChanged: func(userID int64, state multiplayer.UserState) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, "user_state_changed")
			s.stateChanges = append(s.stateChanges, StateChange{UserID: userID, State: state})
		},
		OnRoomLeft: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.events = append(s.events, "room_left")
			s.roomLeaves++
		},
	}
}

// Events returns the notification names in the order they fired.
func (s *RecordingSubscriber) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// Joined returns the users reported by user-joined notifications.
func (s *RecordingSubscriber) Joined() []multiplayer.RoomUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]multiplayer.RoomUser(nil), s.joined...)
}

// Left returns the users reported by user-left notifications.
func (s *RecordingSubscriber) Left() []multiplayer.RoomUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]multiplayer.RoomUser(nil), s.left...)
}

// Kicked returns the users reported by user-kicked notifications.
func (s *RecordingSubscriber) Kicked() []multiplayer.RoomUser {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]multiplayer.RoomUser(nil), s.kicked...)
}

// StateChanges returns the recorded user-state-changed notifications.
func (s *RecordingSubscriber) StateChanges() []StateChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StateChange(nil), s.stateChanges...)
}

// Rooms returns the room snapshots from room-changed notifications.
func (s *RecordingSubscriber) Rooms() []multiplayer.Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]multiplayer.Room(nil), s.rooms...)
}

// RoomLeaves returns how many room-left notifications fired.
func (s *RecordingSubscriber) RoomLeaves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomLeaves
}
