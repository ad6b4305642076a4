package roomsync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectLeavesEveryRoomOnce(t *testing.T) {
	h := newHarness()
	c, cs := h.connect()
	a, as := h.connect()
	b, bs := h.connect()
	h.ctl.CreateOrJoin(c, "party")
	h.ctl.CreateOrJoin(a, "party")
	h.ctl.CreateOrJoin(c, "lobby")
	h.ctl.CreateOrJoin(b, "lobby")
	cs.reset()
	as.reset()
	bs.reset()

	assert.Equal(t, 2, h.sweeper.Disconnect(c))

	assert.Equal(t, [][]ConnID{{a}}, as.snapshots())
	assert.Equal(t, [][]ConnID{{b}}, bs.snapshots())
	assert.Empty(t, cs.messages())
	assert.Equal(t, 2, h.registry.Len())
}

func TestDisconnectDeletesRoomsLeftEmpty(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(x, "lobby")

	h.sweeper.Disconnect(x)
	assert.False(t, h.store.Has("party"))
	assert.False(t, h.store.Has("lobby"))

	z, zs := h.connect()
	h.ctl.CreateOrJoin(z, "party")
	members, ok := h.store.Members("party")
	require.True(t, ok)
	assert.Equal(t, []ConnID{z}, members)
	assert.Equal(t, [][]ConnID{{z}}, zs.snapshots())
}

func TestDisconnectTwiceIsNoop(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	y, ys := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")
	ys.reset()

	assert.Equal(t, 1, h.sweeper.Disconnect(x))
	assert.Zero(t, h.sweeper.Disconnect(x))
	assert.Len(t, ys.snapshots(), 1)
}

func TestDisconnectAfterLeaveIsNoop(t *testing.T) {
	h := newHarness()
	x, _ := h.connect()
	y, ys := h.connect()
	h.ctl.CreateOrJoin(x, "party")
	h.ctl.CreateOrJoin(y, "party")
	ys.reset()

	h.ctl.Leave(x, "party")
	assert.Zero(t, h.sweeper.Disconnect(x))
	assert.Len(t, ys.snapshots(), 1)
}

func TestDisconnectRacesLeave(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := newHarness()
		x, _ := h.connect()
		y, ys := h.connect()
		h.ctl.CreateOrJoin(x, "party")
		h.ctl.CreateOrJoin(y, "party")
		ys.reset()

		var wg sync.WaitGroup
		var left bool
		var swept int
		wg.Add(2)
		go func() { defer wg.Done(); left = h.ctl.Leave(x, "party") }()
		go func() { defer wg.Done(); swept = h.sweeper.Disconnect(x) }()
		wg.Wait()

		// exactly one of the two removed x
		assert.NotEqual(t, left, swept == 1)
		assert.Equal(t, [][]ConnID{{y}}, ys.snapshots())
		members, _ := h.store.Members("party")
		assert.Equal(t, []ConnID{y}, members)
	}
}

func TestDisconnectRacesJoin(t *testing.T) {
	for i := 0; i < 200; i++ {
		h := newHarness()
		x, _ := h.connect()

		var wg sync.WaitGroup
		wg.Add(2)
		go func() { defer wg.Done(); h.ctl.CreateOrJoin(x, "party") }()
		go func() { defer wg.Done(); h.sweeper.Disconnect(x) }()
		wg.Wait()

		// whatever the interleaving, x never outlives its sweep
		assert.False(t, h.store.Has("party"))
		assert.Zero(t, h.store.Len())
	}
}
