package roomsync

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembershipMatchesReferenceModel(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		h := newHarness()
		ids := make([]ConnID, 5)
		for i := range ids {
			ids[i], _ = h.connect()
		}
		model := map[ConnID]bool{}

		for step := 0; step < 100; step++ {
			id := ids[rng.Intn(len(ids))]
			if rng.Intn(2) == 0 {
				h.ctl.CreateOrJoin(id, "party")
				model[id] = true
			} else {
				h.ctl.Leave(id, "party")
				delete(model, id)
			}

			want := make([]ConnID, 0, len(model))
			for id := range model {
				want = append(want, id)
			}
			got, exists := h.store.Members("party")
			assert.ElementsMatch(t, want, got, "round %d step %d", round, step)
			// a room exists exactly when it has members
			assert.Equal(t, len(model) > 0, exists, "round %d step %d", round, step)
			for _, id := range ids {
				assert.Equal(t, model[id], len(h.registry.RoomsOf(id)) == 1)
			}
		}
	}
}

func TestConcurrentJoinsLoseNothing(t *testing.T) {
	h := newHarness()
	const n = 64
	ids := make([]ConnID, n)
	sinks := make([]*recordingSink, n)
	for i := range ids {
		ids[i], sinks[i] = h.connect()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id ConnID) {
			defer wg.Done()
			h.ctl.CreateOrJoin(id, "party")
		}(id)
	}
	wg.Wait()

	members, ok := h.store.Members("party")
	require.True(t, ok)
	assert.ElementsMatch(t, ids, members)

	// every snapshot a member saw is a strict superset of the one before it
	for _, s := range sinks {
		snaps := s.snapshots()
		for i := 1; i < len(snaps); i++ {
			assert.Len(t, snaps[i], len(snaps[i-1])+1)
			assert.Subset(t, snaps[i], snaps[i-1])
		}
		assert.Len(t, snaps[len(snaps)-1], n)
	}
}

func TestConcurrentJoinLeaveAcrossRooms(t *testing.T) {
	h := newHarness()
	const workers = 16

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		id, _ := h.connect()
		wg.Add(1)
		go func(id ConnID, w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				name := fmt.Sprintf("room-%d", (w+i)%4)
				h.ctl.CreateOrJoin(id, name)
				h.ctl.Leave(id, name)
			}
		}(id, w)
	}
	wg.Wait()

	assert.Zero(t, h.store.Len())
	assert.Empty(t, h.store.Rooms())
}

func TestAcquireRetriesDeadRoom(t *testing.T) {
	s := NewStore()
	r := s.acquire("party", true)
	// empty on release, so it is deleted and marked dead
	assert.True(t, s.release(r))
	assert.True(t, r.dead)

	again := s.acquire("party", true)
	assert.NotSame(t, r, again)
	again.members["x"] = struct{}{}
	assert.False(t, s.release(again))
	assert.True(t, s.Has("party"))
}
