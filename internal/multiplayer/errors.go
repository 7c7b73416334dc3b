package multiplayer

import "fmt"

// UnknownUserError reports an operation that referenced a user not present
// in the current room, e.g. a state change racing a leave. The operation is
// a complete no-op; the caller decides whether to request a full resync.
type UnknownUserError struct {
	UserID int64
}

func (e *UnknownUserError) Error() string {
	return fmt.Sprintf("user %d is not in the room", e.UserID)
}
