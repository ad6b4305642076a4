package roomsync

import "go.uber.org/zap"

// Relay forwards playback intents to a room's current members. It keeps no
// playback state; a member joining later sees nothing until the next intent.
type Relay struct {
	store    *Store
	registry *Registry
}

func NewRelay(store *Store, registry *Registry) *Relay {
	return &Relay{store: store, registry: registry}
}

// Relay sends in to every member of in.Room, the sender included. The sender
// does not have to be a member. A missing room is a no-op. It returns the
// number of members that accepted the event.
func (p *Relay) Relay(from ConnID, in Intent) (int, error) {
	msg, err := in.message()
	if err != nil {
		return 0, err
	}

	r := p.store.acquire(in.Room, false)
	if r == nil {
		return 0, nil
	}
	// delivery happens under the room lock so members see relays and
	// snapshots of one room in the same order
	snap := r.snapshot()
	sent := p.registry.deliver(snap, msg)
	p.store.release(r)

	zap.L().Debug("roomsync.relay",
		zap.String("conn", string(from)),
		zap.String("room", in.Room),
		zap.String("event", msg.Event),
		zap.Int("sent", sent),
	)
	return sent, nil
}
