package roomsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinBroadcastsSnapshotToEveryMember(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()
	y, ys := h.connect()

	require.True(t, h.ctl.CreateOrJoin(x, "party"))
	require.True(t, h.ctl.CreateOrJoin(y, "party"))

	want := []ConnID{x, y}
	assert.ElementsMatch(t, want, xs.snapshots()[1])
	assert.ElementsMatch(t, want, ys.snapshots()[0])
	assert.Len(t, xs.snapshots(), 2)
	assert.Len(t, ys.snapshots(), 1)
}

func TestCreateAndJoinAreTheSame(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()

	h.ctl.CreateOrJoin(x, "party")
	members, ok := h.store.Members("party")
	require.True(t, ok)
	assert.Equal(t, []ConnID{x}, members)
	assert.Equal(t, []string{"party"}, h.registry.RoomsOf(x))
}

func TestJoinTwiceIsIdempotentButStillBroadcasts(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()

	assert.True(t, h.ctl.CreateOrJoin(x, "party"))
	assert.False(t, h.ctl.CreateOrJoin(x, "party"))

	members, _ := h.store.Members("party")
	assert.Equal(t, []ConnID{x}, members)
	assert.Equal(t, [][]ConnID{{x}, {x}}, xs.snapshots())
}

func TestEmptyRoomNameIsAccepted(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()

	h.ctl.CreateOrJoin(x, "")
	assert.True(t, h.store.Has(""))
	assert.Equal(t, [][]ConnID{{x}}, xs.snapshots())
}

func TestLeaveOnlyNotifiesRemainingMembers(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()
	y, ys := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")
	xs.reset()
	ys.reset()

	require.True(t, h.ctl.Leave(y, "party"))

	assert.Equal(t, [][]ConnID{{x}}, xs.snapshots())
	assert.Empty(t, ys.messages())
	assert.Empty(t, h.registry.RoomsOf(y))
}

func TestLeaveTwiceChangesOnce(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()
	y, _ := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")
	xs.reset()

	assert.True(t, h.ctl.Leave(y, "party"))
	assert.False(t, h.ctl.Leave(y, "party"))
	assert.Len(t, xs.snapshots(), 1)
}

func TestLeaveMissingRoomIsNoop(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()

	assert.False(t, h.ctl.Leave(x, "nowhere"))
	assert.False(t, h.store.Has("nowhere"))
	assert.Empty(t, xs.messages())
}

func TestLeaveByNonMemberIsNoop(t *testing.T) {
	h := newHarness()
	x, xs := h.connect()
	y, _ := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	xs.reset()

	assert.False(t, h.ctl.Leave(y, "party"))
	assert.Empty(t, xs.messages())
	assert.True(t, h.store.Has("party"))
}

func TestLastLeaveDeletesRoomAndRejoinStartsFresh(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	y, _ := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")

	h.ctl.Leave(x, "party")
	h.ctl.Leave(y, "party")
	assert.False(t, h.store.Has("party"))
	assert.Zero(t, h.store.Len())

	z, zs := h.connect()
	h.ctl.CreateOrJoin(z, "party")
	members, ok := h.store.Members("party")
	require.True(t, ok)
	assert.Equal(t, []ConnID{z}, members)
	assert.Equal(t, [][]ConnID{{z}}, zs.snapshots())
}

func TestJoinFromUnregisteredConnectionIsIgnored(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	h.registry.Unregister(x)

	assert.False(t, h.ctl.CreateOrJoin(x, "party"))
	assert.False(t, h.store.Has("party"))
	assert.Zero(t, h.store.Len())
}

func TestObserverSeesEveryMembershipChange(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	y, _ := h.connect()

	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")
	h.ctl.Leave(x, "party")
	h.ctl.Leave(x, "party")
	h.ctl.Leave(y, "party")

	assert.Equal(t, []observation{
		{"party", 1},
		{"party", 2},
		{"party", 1},
		{"party", 0},
	}, h.observed.all())
}

func TestRoomsListsNonEmptyRoomsSorted(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	y, _ := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")
	h.ctl.CreateOrJoin(y, "lobby")

	assert.Equal(t, []RoomInfo{
		{Name: "lobby", Members: 1},
		{Name: "party", Members: 2},
	}, h.store.Rooms())
}
