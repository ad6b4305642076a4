package roomsync

import (
	"cmp"
	"slices"
	"sync"
)

type room struct {
	name    string
	mu      sync.Mutex
	members map[ConnID]struct{}
	dead    bool // removed from the store; lockers must look it up again
}

func (r *room) snapshot() []ConnID {
	out := make([]ConnID, 0, len(r.members))
	for id := range r.members {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Store maps room names to member sets. Each room has its own lock; the map
// lock is only held for lookup, insert and delete, never while taking a room lock.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewStore() *Store {
	return &Store{rooms: make(map[string]*room)}
}

// acquire returns the named room locked. With create set a missing room is
// inserted, otherwise nil is returned for it.
func (s *Store) acquire(name string, create bool) *room {
	for {
		s.mu.Lock()
		r, ok := s.rooms[name]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil
			}
			r = &room{name: name, members: make(map[ConnID]struct{})}
			s.rooms[name] = r
		}
		s.mu.Unlock()

		r.mu.Lock()
		if !r.dead {
			return r
		}
		// lost a race with the last member leaving
		r.mu.Unlock()
	}
}

// release unlocks r, deleting it first when it has no members. It reports
// whether the room was deleted.
func (s *Store) release(r *room) bool {
	deleted := false
	if len(r.members) == 0 {
		r.dead = true
		s.mu.Lock()
		if s.rooms[r.name] == r {
			delete(s.rooms, r.name)
		}
		s.mu.Unlock()
		deleted = true
	}
	r.mu.Unlock()
	return deleted
}

// Members returns the sorted member set of name and whether the room exists.
func (s *Store) Members(name string) ([]ConnID, bool) {
	r := s.acquire(name, false)
	if r == nil {
		return nil, false
	}
	defer r.mu.Unlock()
	return r.snapshot(), true
}

func (s *Store) Has(name string) bool {
	_, ok := s.Members(name)
	return ok
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

// Rooms lists every non-empty room sorted by name.
func (s *Store) Rooms() []RoomInfo {
	s.mu.Lock()
	rs := make([]*room, 0, len(s.rooms))
	for _, r := range s.rooms {
		rs = append(rs, r)
	}
	s.mu.Unlock()

	out := make([]RoomInfo, 0, len(rs))
	for _, r := range rs {
		r.mu.Lock()
		if !r.dead && len(r.members) > 0 {
			out = append(out, RoomInfo{Name: r.name, Members: len(r.members)})
		}
		r.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b RoomInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out
}
