// Package multiplayer holds the client-side replica of a multiplayer room.
// The server is the authority; the replica applies the events it is handed,
// in order, and keeps derived aggregates consistent with the member list.
package multiplayer

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

const logModule = "multiplayer.replica"

// Callbacks receive change notifications from a Replica. Nil fields are
// skipped. Handlers run synchronously on the goroutine applying the
// mutation and never concurrently with another mutation; arguments are
// copies, never references into replica-owned state.
type Callbacks struct {
	OnRoomChanged      func(room Room)
	OnUserJoined       func(user RoomUser)
	OnUserLeft         func(user RoomUser)
	OnUserKicked       func(user RoomUser)
	OnUserStateChanged func(userID int64, state UserState)
	OnRoomLeft         func()
}

// Subscription identifies a registered Callbacks set.
type Subscription struct {
	r  *Replica
	id int
}

// Close deregisters the callbacks. Safe to call more than once.
func (s *Subscription) Close() {
	s.r.subMu.Lock()
	delete(s.r.subs, s.id)
	s.r.subMu.Unlock()
}

// Replica mirrors server-authoritative room state on the client. All
// mutation routes through its operations so the playing-user aggregate and
// subscriber notifications can never drift from the member list. External
// readers only ever get snapshots.
type Replica struct {
	localUserID int64

	// opMu serializes mutations and callback fan-out. stateMu guards the
	// state below and is held only for the write itself, so callbacks and
	// concurrent readers can call the read accessors freely.
	opMu    sync.Mutex
	stateMu sync.RWMutex
	room    Room
	playing []int64

	subMu  sync.Mutex
	subs   map[int]*Callbacks
	nextID int
}

// NewReplica creates an empty replica. localUserID identifies the local
// participant: removal of that user is treated as vacating the room.
func NewReplica(localUserID int64) *Replica {
	return &Replica{
		localUserID: localUserID,
		subs:        make(map[int]*Callbacks),
	}
}

// Subscribe registers callbacks for change notifications.
func (r *Replica) Subscribe(cb Callbacks) *Subscription {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	r.nextID++
	r.subs[r.nextID] = &cb
	return &Subscription{r: r, id: r.nextID}
}

// ReplaceRoom installs room wholesale, discarding all prior state and
// rebuilding aggregates from scratch. Used on initial join and when the
// server pushes a full resync. An empty room means "no room".
func (r *Replica) ReplaceRoom(room Room) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	snap := room.Clone()
	r.stateMu.Lock()
	r.room = snap
	r.playing = playingIDs(snap.Users)
	r.stateMu.Unlock()

	log.Debug().Str("module", logModule).
		Int64("room", snap.ID).Int("users", len(snap.Users)).
		Msg("room replaced")
	r.notify(func(cb *Callbacks) {
		if cb.OnRoomChanged != nil {
			cb.OnRoomChanged(snap.Clone())
		}
	})
}

// AddUser adds a participant with the given profile in the Idle state.
// Duplicate joins are tolerated: adding a user that is already present is
// a no-op and fires no notification.
func (r *Replica) AddUser(userID int64, profile UserProfile) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	user := RoomUser{UserID: userID, Profile: profile, State: UserStateIdle}
	r.stateMu.Lock()
	if r.room.IndexOf(userID) >= 0 {
		r.stateMu.Unlock()
		log.Debug().Str("module", logModule).Int64("user", userID).
			Msg("duplicate join ignored")
		return
	}
	r.room.Users = append(r.room.Users, user)
	r.playing = playingIDs(r.room.Users)
	r.stateMu.Unlock()

	log.Info().Str("module", logModule).Int64("user", userID).
		Str("username", profile.Username).Msg("user joined")
	r.notify(func(cb *Callbacks) {
		if cb.OnUserJoined != nil {
			cb.OnUserJoined(user)
		}
	})
}

// RemoveUser removes a participant. Removing a user that is not present is
// a no-op and fires no notification. Removal of the local user vacates the
// room entirely, as if LeaveRoom had been called.
func (r *Replica) RemoveUser(userID int64) {
	r.removeUser(userID, false)
}

// KickUser removes a participant like RemoveUser but fires the user-kicked
// notification instead of user-left.
func (r *Replica) KickUser(userID int64) {
	r.removeUser(userID, true)
}

func (r *Replica) removeUser(userID int64, kicked bool) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.stateMu.Lock()
	i := r.room.IndexOf(userID)
	if i < 0 {
		r.stateMu.Unlock()
		return
	}
	user := r.room.Users[i]
	r.room.Users = append(r.room.Users[:i], r.room.Users[i+1:]...)
	r.playing = playingIDs(r.room.Users)
	r.stateMu.Unlock()

	log.Info().Str("module", logModule).Int64("user", userID).
		Bool("kicked", kicked).Msg("user removed")
	r.notify(func(cb *Callbacks) {
		if kicked {
			if cb.OnUserKicked != nil {
				cb.OnUserKicked(user)
			}
		} else if cb.OnUserLeft != nil {
			cb.OnUserLeft(user)
		}
	})

	if userID == r.localUserID {
		r.leaveLocked()
	}
}

// ChangeUserState sets one user's gameplay state. No transition validation
// is performed; the server is trusted. Returns UnknownUserError, leaving
// room and aggregates untouched, if the user is not present.
func (r *Replica) ChangeUserState(userID int64, state UserState) error {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.stateMu.Lock()
	i := r.room.IndexOf(userID)
	if i < 0 {
		r.stateMu.Unlock()
		log.Warn().Str("module", logModule).Int64("user", userID).
			Stringer("state", state).Msg("state change for unknown user")
		return &UnknownUserError{UserID: userID}
	}
	r.room.Users[i].State = state
	r.playing = playingIDs(r.room.Users)
	r.stateMu.Unlock()

	log.Debug().Str("module", logModule).Int64("user", userID).
		Stringer("state", state).Msg("user state changed")
	r.notify(func(cb *Callbacks) {
		if cb.OnUserStateChanged != nil {
			cb.OnUserStateChanged(userID, state)
		}
	})
	return nil
}

// ChangeRoomState sets the overall room state. No-op when not in a room.
func (r *Replica) ChangeRoomState(state RoomState) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.stateMu.Lock()
	if r.room.Empty() {
		r.stateMu.Unlock()
		return
	}
	r.room.State = state
	snap := r.room.Clone()
	r.stateMu.Unlock()

	log.Debug().Str("module", logModule).Int64("room", snap.ID).
		Stringer("state", state).Msg("room state changed")
	r.notify(func(cb *Callbacks) {
		if cb.OnRoomChanged != nil {
			cb.OnRoomChanged(snap.Clone())
		}
	})
}

// LeaveRoom resets the replica to the empty room and clears all aggregates.
// A true no-op when already out of a room. After it returns, stale events
// for the vacated room's users degrade to UnknownUserError.
func (r *Replica) LeaveRoom() {
	r.opMu.Lock()
	defer r.opMu.Unlock()
	r.leaveLocked()
}

func (r *Replica) leaveLocked() {
	r.stateMu.Lock()
	if r.room.Empty() {
		r.stateMu.Unlock()
		return
	}
	roomID := r.room.ID
	r.room = Room{}
	r.playing = nil
	r.stateMu.Unlock()

	log.Info().Str("module", logModule).Int64("room", roomID).Msg("left room")
	r.notify(func(cb *Callbacks) {
		if cb.OnRoomLeft != nil {
			cb.OnRoomLeft()
		}
	})
}

// Room returns a snapshot of the current room. The snapshot is the
// caller's to keep; it never aliases replica-owned memory and is always
// consistent with the aggregates at the time of the call.
func (r *Replica) Room() Room {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.room.Clone()
}

// InRoom reports whether the replica currently holds a room.
func (r *Replica) InRoom() bool {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return !r.room.Empty()
}

// PlayingUserIDs returns the ids of users currently in gameplay, in room
// insertion order. The set is recomputed on every mutation; readers never
// trigger a recomputation.
func (r *Replica) PlayingUserIDs() []int64 {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return slices.Clone(r.playing)
}

// PlayingUserCount returns the number of users currently in gameplay.
func (r *Replica) PlayingUserCount() int {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return len(r.playing)
}

// LocalUserID returns the id the replica treats as the local participant.
func (r *Replica) LocalUserID() int64 {
	return r.localUserID
}

// LocalUser returns the local participant's entry, if currently in a room.
func (r *Replica) LocalUser() (RoomUser, bool) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	if i := r.room.IndexOf(r.localUserID); i >= 0 {
		return r.room.Users[i], true
	}
	return RoomUser{}, false
}

// notify invokes fn for every registered subscriber. Runs with opMu held,
// so callbacks never interleave with mutations, but stateMu is free.
func (r *Replica) notify(fn func(cb *Callbacks)) {
	r.subMu.Lock()
	cbs := make([]*Callbacks, 0, len(r.subs))
	for _, cb := range r.subs {
		cbs = append(cbs, cb)
	}
	r.subMu.Unlock()

	for _, cb := range cbs {
		fn(cb)
	}
}

// playingIDs rescans the whole user list rather than patching the previous
// aggregate; rooms are tens of users at most and the rescan removes the
// entire class of partial-update drift bugs.
func playingIDs(users []RoomUser) []int64 {
	var ids []int64
	for _, u := range users {
		if u.State.IsPlaying() {
			ids = append(ids, u.UserID)
		}
	}
	return ids
}
