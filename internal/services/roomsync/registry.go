package roomsync

import (
	"errors"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBackpressure is returned by a Sink whose outbound queue is full.
var ErrBackpressure = errors.New("send queue full")

// Sink is the outbound side of one live connection.
type Sink interface {
	// TrySend queues msg for delivery. It must never block.
	TrySend(msg Message) error
	Close()
}

type connEntry struct {
	sink  Sink
	rooms map[string]struct{} // index of rooms this connection is a member of
}

// Registry owns the lifecycle of live connections. The per-connection room
// index is only touched while the caller holds the matching room lock.
type Registry struct {
	mu    sync.RWMutex
	conns map[ConnID]*connEntry
	newID func() ConnID
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[ConnID]*connEntry),
		newID: func() ConnID { return ConnID(uuid.NewString()) },
	}
}

// Register assigns a fresh identity to sink.
func (r *Registry) Register(sink Sink) ConnID {
	id := r.newID()
	r.mu.Lock()
	r.conns[id] = &connEntry{sink: sink, rooms: make(map[string]struct{})}
	r.mu.Unlock()
	zap.L().Debug("roomsync.register", zap.String("conn", string(id)))
	return id
}

// Unregister forgets id and returns the rooms it was still recorded in.
func (r *Registry) Unregister(id ConnID) ([]string, bool) {
	r.mu.Lock()
	e, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	delete(r.conns, id)
	r.mu.Unlock()

	rooms := make([]string, 0, len(e.rooms))
	for name := range e.rooms {
		rooms = append(rooms, name)
	}
	slices.Sort(rooms)
	return rooms, true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// RoomsOf returns the rooms recorded against id, sorted.
func (r *Registry) RoomsOf(id ConnID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(e.rooms))
	for name := range e.rooms {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// track records room in id's index. It reports false when id is not registered.
func (r *Registry) track(id ConnID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return false
	}
	e.rooms[room] = struct{}{}
	return true
}

func (r *Registry) untrack(id ConnID, room string) {
	r.mu.Lock()
	if e, ok := r.conns[id]; ok {
		delete(e.rooms, room)
	}
	r.mu.Unlock()
}

// deliver hands msg to every registered recipient and returns how many accepted
// it. Unknown ids are skipped. A failing recipient never affects the others; a
// recipient that cannot keep up is closed so its sweep can run.
func (r *Registry) deliver(ids []ConnID, msg Message) int {
	r.mu.RLock()
	sinks := make([]Sink, 0, len(ids))
	for _, id := range ids {
		if e, ok := r.conns[id]; ok {
			sinks = append(sinks, e.sink)
		}
	}
	r.mu.RUnlock()

	sent := 0
	for _, s := range sinks {
		err := s.TrySend(msg)
		if err == nil {
			sent++
			continue
		}
		zap.L().Warn("roomsync.deliver", zap.String("event", msg.Event), zap.Error(err))
		if errors.Is(err, ErrBackpressure) {
			s.Close()
		}
	}
	return sent
}
