package multiplayer

// UserState is a participant's gameplay state within a room. The server is
// authoritative; the replica records whatever state it is told without
// validating transitions.
type UserState int

const (
	UserStateIdle UserState = iota
	UserStateReady
	UserStateWaitingForLoad
	UserStateLoaded
	UserStatePlaying
	UserStateFinishedPlay
	UserStateResults
	UserStateSpectating
)

// IsPlaying reports whether the state counts as actively in gameplay for
// the playing-user aggregate.
func (s UserState) IsPlaying() bool {
	return s == UserStateWaitingForLoad || s == UserStatePlaying
}

func (s UserState) String() string {
	switch s {
	case UserStateIdle:
		return "idle"
	case UserStateReady:
		return "ready"
	case UserStateWaitingForLoad:
		return "waiting_for_load"
	case UserStateLoaded:
		return "loaded"
	case UserStatePlaying:
		return "playing"
	case UserStateFinishedPlay:
		return "finished_play"
	case UserStateResults:
		return "results"
	case UserStateSpectating:
		return "spectating"
	default:
		return "unknown"
	}
}

// RoomState is the overall state of a room.
type RoomState int

const (
	RoomStateOpen RoomState = iota
	RoomStatePlaying
	RoomStateClosed
)

func (s RoomState) String() string {
	switch s {
	case RoomStateOpen:
		return "open"
	case RoomStatePlaying:
		return "playing"
	case RoomStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
