package roomsync

import (
	"sync"
)

type recordingSink struct {
	mu     sync.Mutex
	msgs   []Message
	closed bool
	err    error
}

func (s *recordingSink) TrySend(msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *recordingSink) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *recordingSink) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.msgs...)
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	s.msgs = nil
	s.mu.Unlock()
}

func (s *recordingSink) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// snapshots returns the bodies of every room-users message received.
func (s *recordingSink) snapshots() [][]ConnID {
	var out [][]ConnID
	for _, m := range s.messages() {
		if m.Event == EventRoomUsers {
			out = append(out, m.Body.([]ConnID))
		}
	}
	return out
}

type harness struct {
	registry *Registry
	store    *Store
	ctl      *Controller
	relay    *Relay
	sweeper  *Sweeper
	observed *recordingObserver
}

func newHarness() *harness {
	obs := &recordingObserver{}
	registry := NewRegistry()
	store := NewStore()
	ctl := NewController(store, registry, obs)
	return &harness{
		registry: registry,
		store:    store,
		ctl:      ctl,
		relay:    NewRelay(store, registry),
		sweeper:  NewSweeper(ctl),
		observed: obs,
	}
}

func (h *harness) connect() (ConnID, *recordingSink) {
	s := &recordingSink{}
	return h.registry.Register(s), s
}

type observation struct {
	room string
	size int
}

type recordingObserver struct {
	mu  sync.Mutex
	obs []observation
}

func (o *recordingObserver) RoomChanged(room string, size int) {
	o.mu.Lock()
	o.obs = append(o.obs, observation{room, size})
	o.mu.Unlock()
}

func (o *recordingObserver) all() []observation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]observation(nil), o.obs...)
}
