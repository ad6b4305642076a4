package roomsync

import "go.uber.org/zap"

// RoomObserver is told about every membership change, while the room is still
// locked, so calls for one room arrive in mutation order. It must not block.
type RoomObserver interface {
	RoomChanged(room string, size int)
}

// Controller applies create/join/leave to the store and broadcasts the
// resulting member snapshot.
type Controller struct {
	store    *Store
	registry *Registry
	observer RoomObserver
}

func NewController(store *Store, registry *Registry, observer RoomObserver) *Controller {
	return &Controller{store: store, registry: registry, observer: observer}
}

// CreateOrJoin adds id to the room, creating it if needed, and sends the
// snapshot to every member including id. Joining twice is not an error; the
// snapshot is sent again. It reports whether id was newly added. A connection
// that is no longer registered is ignored.
func (c *Controller) CreateOrJoin(id ConnID, name string) bool {
	r := c.store.acquire(name, true)
	if !c.registry.track(id, name) {
		c.store.release(r)
		zap.L().Debug("roomsync.join_unknown_conn", zap.String("conn", string(id)), zap.String("room", name))
		return false
	}

	_, present := r.members[id]
	r.members[id] = struct{}{}
	snap := r.snapshot()
	c.registry.deliver(snap, roomUsers(snap))
	c.notify(name, len(snap))
	c.store.release(r)

	zap.L().Debug("roomsync.join",
		zap.String("conn", string(id)),
		zap.String("room", name),
		zap.Int("members", len(snap)),
	)
	return !present
}

// Leave removes id from the room and sends the snapshot to the remaining
// members. Leaving a missing room or a room id is not in is a no-op.
func (c *Controller) Leave(id ConnID, name string) bool {
	r := c.store.acquire(name, false)
	if r == nil {
		return false
	}
	changed := c.removeLocked(r, id)
	deleted := c.store.release(r)

	if changed {
		zap.L().Debug("roomsync.leave",
			zap.String("conn", string(id)),
			zap.String("room", name),
			zap.Bool("room_deleted", deleted),
		)
	}
	return changed
}

// removeLocked must be called with r locked.
func (c *Controller) removeLocked(r *room, id ConnID) bool {
	if _, ok := r.members[id]; !ok {
		return false
	}
	delete(r.members, id)
	c.registry.untrack(id, r.name)

	snap := r.snapshot()
	if len(snap) > 0 {
		c.registry.deliver(snap, roomUsers(snap))
	}
	c.notify(r.name, len(snap))
	return true
}

func (c *Controller) notify(name string, size int) {
	if c.observer != nil {
		c.observer.RoomChanged(name, size)
	}
}
