package multiplayer_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openbeat/multiplayer-client/internal/multiplayer"
	"github.com/openbeat/multiplayer-client/internal/testutil"
)

const localUserID int64 = 1

// newJoinedReplica returns a replica that has joined a room containing only
// the local user.
func newJoinedReplica() *multiplayer.Replica {
	r := multiplayer.NewReplica(localUserID)
	r.ReplaceRoom(multiplayer.Room{
		ID: 100,
		Users: []multiplayer.RoomUser{
			{UserID: localUserID, Profile: multiplayer.UserProfile{Username: "local"}},
		},
	})
	return r
}

// playingFrom recomputes the expected aggregate straight from a snapshot.
func playingFrom(room multiplayer.Room) []int64 {
	var ids []int64
	for _, u := range room.Users {
		if u.State.IsPlaying() {
			ids = append(ids, u.UserID)
		}
	}
	return ids
}

func TestReplica_UserAddedOnJoin(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	// Duplicate deliveries of the same join must not duplicate membership
	for i := 0; i < 3; i++ {
		r.AddUser(33, multiplayer.UserProfile{Username: "peppy"})
	}

	room := r.Room()
	require.Len(t, room.Users, 2, "room should have exactly 2 users")
	assert.Equal(t, int64(33), room.Users[1].UserID)
	assert.Equal(t, multiplayer.UserStateIdle, room.Users[1].State, "new users join idle")
	assert.Len(t, sub.Joined(), 1, "user-joined should fire only on actual insertion")
}

func TestReplica_UserRemovedOnLeave(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(44, multiplayer.UserProfile{Username: "guest"})
	require.Len(t, r.Room().Users, 2)

	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	for i := 0; i < 3; i++ {
		r.RemoveUser(44)
	}

	assert.Len(t, r.Room().Users, 1, "room should be back to the local user only")
	assert.Len(t, sub.Left(), 1, "user-left should fire only on actual removal")
	assert.True(t, r.InRoom(), "removing another user must not vacate the room")
}

func TestReplica_PlayingUserTracking(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	for id := int64(2000); id < 2005; id++ {
		r.AddUser(id, multiplayer.UserProfile{})
	}
	require.Len(t, r.Room().Users, 6)
	assert.Equal(t, 0, r.PlayingUserCount())

	// changeFirst sets the first n users (in room order) to state
	changeFirst := func(n int, state multiplayer.UserState) {
		room := r.Room()
		for i := 0; i < n; i++ {
			require.NoError(t, r.ChangeUserState(room.Users[i].UserID, state))
		}
	}

	changeFirst(3, multiplayer.UserStateWaitingForLoad)
	assert.Equal(t, 3, r.PlayingUserCount())

	changeFirst(3, multiplayer.UserStatePlaying)
	assert.Equal(t, 3, r.PlayingUserCount())

	changeFirst(3, multiplayer.UserStateResults)
	assert.Equal(t, 0, r.PlayingUserCount())

	changeFirst(6, multiplayer.UserStateWaitingForLoad)
	assert.Equal(t, 6, r.PlayingUserCount())

	// Last-added user leaves
	r.RemoveUser(2004)
	assert.Equal(t, 5, r.PlayingUserCount())

	r.LeaveRoom()
	assert.Equal(t, 0, r.PlayingUserCount())
	assert.Empty(t, r.Room().Users)
}

func TestReplica_PlayingUsersUpdatedOnJoin(t *testing.T) {
	t.Parallel()

	// Joining a room already in gameplay must populate the aggregate
	// without any further state-change events.
	r := multiplayer.NewReplica(localUserID)
	r.ReplaceRoom(multiplayer.Room{
		ID:    200,
		State: multiplayer.RoomStatePlaying,
		Users: []multiplayer.RoomUser{
			{UserID: 55, State: multiplayer.UserStatePlaying},
		},
	})

	assert.Equal(t, 1, r.PlayingUserCount())
	assert.Equal(t, []int64{55}, r.PlayingUserIDs())
}

func TestReplica_UnknownUserStateChange(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	require.NoError(t, r.ChangeUserState(localUserID, multiplayer.UserStatePlaying))

	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	before := r.Room()
	beforePlaying := r.PlayingUserIDs()

	err := r.ChangeUserState(9999, multiplayer.UserStateReady)
	require.Error(t, err)

	var unknown *multiplayer.UnknownUserError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, int64(9999), unknown.UserID)

	// A failed operation must be a complete no-op
	assert.Equal(t, before, r.Room(), "room must be untouched")
	assert.Equal(t, beforePlaying, r.PlayingUserIDs(), "aggregate must be untouched")
	assert.Empty(t, sub.Events(), "no notification may fire")
}

func TestReplica_StateChangeAfterLeaveIsStale(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(70, multiplayer.UserProfile{})
	r.LeaveRoom()

	// In-flight events for the vacated room must be rejected, not reapplied
	err := r.ChangeUserState(70, multiplayer.UserStatePlaying)
	var unknown *multiplayer.UnknownUserError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, 0, r.PlayingUserCount())
}

func TestReplica_LocalUserRemovalVacatesRoom(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(33, multiplayer.UserProfile{})

	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	r.RemoveUser(localUserID)

	assert.False(t, r.InRoom())
	assert.Empty(t, r.Room().Users)
	assert.Equal(t, 0, r.PlayingUserCount())
	assert.Equal(t, []string{"user_left", "room_left"}, sub.Events())
}

func TestReplica_KickUser(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(33, multiplayer.UserProfile{})

	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	r.KickUser(33)
	assert.Len(t, r.Room().Users, 1)
	assert.Len(t, sub.Kicked(), 1)
	assert.Empty(t, sub.Left(), "kick must not fire user-left")

	// Kicking an absent user is a no-op
	r.KickUser(33)
	assert.Len(t, sub.Kicked(), 1)
}

func TestReplica_LeaveRoomWhenAlreadyEmpty(t *testing.T) {
	t.Parallel()

	r := multiplayer.NewReplica(localUserID)
	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	assert.NotPanics(t, func() {
		r.LeaveRoom()
		r.LeaveRoom()
	})
	assert.Equal(t, 0, sub.RoomLeaves(), "leaving an empty replica is a true no-op")
}

func TestReplica_ChangeRoomState(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	sub := &testutil.RecordingSubscriber{}
	r.Subscribe(sub.Callbacks())

	r.ChangeRoomState(multiplayer.RoomStatePlaying)
	assert.Equal(t, multiplayer.RoomStatePlaying, r.Room().State)
	assert.Equal(t, []string{"room_changed"}, sub.Events())

	// No current room: no-op
	r.LeaveRoom()
	r.ChangeRoomState(multiplayer.RoomStateClosed)
	assert.Equal(t, multiplayer.RoomStateOpen, r.Room().State)
}

func TestReplica_DuplicateJoinKeepsState(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(33, multiplayer.UserProfile{Username: "first"})
	require.NoError(t, r.ChangeUserState(33, multiplayer.UserStatePlaying))

	// A re-delivered join must not reset the existing user
	r.AddUser(33, multiplayer.UserProfile{Username: "second"})

	room := r.Room()
	i := room.IndexOf(33)
	require.GreaterOrEqual(t, i, 0)
	assert.Equal(t, multiplayer.UserStatePlaying, room.Users[i].State)
	assert.Equal(t, "first", room.Users[i].Profile.Username)
	assert.Equal(t, 1, r.PlayingUserCount(), "aggregate must not double-count")
}

func TestReplica_AggregateInvariant(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	check := func() {
		t.Helper()
		assert.Equal(t, playingFrom(r.Room()), r.PlayingUserIDs())
	}

	ops := []func(){
		func() { r.AddUser(10, multiplayer.UserProfile{}) },
		func() { _ = r.ChangeUserState(10, multiplayer.UserStateWaitingForLoad) },
		func() { r.AddUser(11, multiplayer.UserProfile{}) },
		func() { _ = r.ChangeUserState(11, multiplayer.UserStatePlaying) },
		func() { _ = r.ChangeUserState(localUserID, multiplayer.UserStatePlaying) },
		func() { r.RemoveUser(10) },
		func() { _ = r.ChangeUserState(11, multiplayer.UserStateResults) },
		func() { _ = r.ChangeUserState(9999, multiplayer.UserStatePlaying) },
		func() { r.AddUser(12, multiplayer.UserProfile{}) },
		func() {
			r.ReplaceRoom(multiplayer.Room{ID: 300, Users: []multiplayer.RoomUser{
				{UserID: 20, State: multiplayer.UserStateWaitingForLoad},
				{UserID: 21, State: multiplayer.UserStateResults},
			}})
		},
		func() { r.KickUser(20) },
		func() { r.LeaveRoom() },
	}
	for _, op := range ops {
		op()
		check()
	}
}

func TestReplica_PlayingIDsFollowRoomOrder(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	for id := int64(2000); id < 2003; id++ {
		r.AddUser(id, multiplayer.UserProfile{})
	}
	require.NoError(t, r.ChangeUserState(2002, multiplayer.UserStatePlaying))
	require.NoError(t, r.ChangeUserState(2000, multiplayer.UserStatePlaying))

	// Aggregate order is insertion order, not mutation order
	assert.Equal(t, []int64{2000, 2002}, r.PlayingUserIDs())
}

func TestReplica_SnapshotIsolation(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(33, multiplayer.UserProfile{Username: "peppy"})

	snap := r.Room()
	snap.Users[0].State = multiplayer.UserStatePlaying
	snap.Users = snap.Users[:0]

	room := r.Room()
	require.Len(t, room.Users, 2, "external mutation of a snapshot must not reach the replica")
	assert.Equal(t, multiplayer.UserStateIdle, room.Users[0].State)
}

func TestReplica_CallbacksSeeCompletedState(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	var sawUsers int
	var sawPlaying int
	r.Subscribe(multiplayer.Callbacks{
		OnUserJoined: func(user multiplayer.RoomUser) {
			// Read accessors must be usable from inside a handler
			sawUsers = len(r.Room().Users)
		},
		OnUserStateChanged: func(userID int64, state multiplayer.UserState) {
			sawPlaying = r.PlayingUserCount()
		},
	})

	r.AddUser(33, multiplayer.UserProfile{})
	assert.Equal(t, 2, sawUsers, "handler must observe the completed mutation")

	require.NoError(t, r.ChangeUserState(33, multiplayer.UserStatePlaying))
	assert.Equal(t, 1, sawPlaying)
}

func TestReplica_SubscriptionClose(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	sub := &testutil.RecordingSubscriber{}
	handle := r.Subscribe(sub.Callbacks())

	r.AddUser(33, multiplayer.UserProfile{})
	require.Len(t, sub.Events(), 1)

	handle.Close()
	r.AddUser(34, multiplayer.UserProfile{})
	assert.Len(t, sub.Events(), 1, "closed subscription must not receive events")

	assert.NotPanics(t, func() { handle.Close() })
}

func TestReplica_ReplaceRoomDiscardsPriorState(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	r.AddUser(33, multiplayer.UserProfile{})
	require.NoError(t, r.ChangeUserState(33, multiplayer.UserStatePlaying))

	r.ReplaceRoom(multiplayer.Room{})

	assert.False(t, r.InRoom())
	assert.Empty(t, r.Room().Users)
	assert.Equal(t, 0, r.PlayingUserCount())
}

func TestReplica_LocalUser(t *testing.T) {
	t.Parallel()

	r := multiplayer.NewReplica(localUserID)
	_, ok := r.LocalUser()
	assert.False(t, ok)

	r = newJoinedReplica()
	user, ok := r.LocalUser()
	require.True(t, ok)
	assert.Equal(t, localUserID, user.UserID)
	assert.Equal(t, localUserID, r.LocalUserID())
}

func TestReplica_ConcurrentReaders(t *testing.T) {
	t.Parallel()

	r := newJoinedReplica()
	done := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				// Every snapshot must be internally consistent
				room := r.Room()
				seen := make(map[int64]bool, len(room.Users))
				for _, u := range room.Users {
					if seen[u.UserID] {
						t.Error("duplicate user in snapshot")
						return
					}
					seen[u.UserID] = true
				}
				if n := r.PlayingUserCount(); n > len(room.Users)+16 {
					t.Errorf("implausible playing count %d", n)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		id := int64(1000 + i%8)
		r.AddUser(id, multiplayer.UserProfile{})
		_ = r.ChangeUserState(id, multiplayer.UserStatePlaying)
		_ = r.ChangeUserState(id, multiplayer.UserStateResults)
		r.RemoveUser(id)
	}
	close(done)
	wg.Wait()

	assert.Len(t, r.Room().Users, 1, "all transient users should be gone")
}
