package roomsync

import "go.uber.org/zap"

// Sweeper cleans up after a connection whose transport has closed.
type Sweeper struct {
	ctl *Controller
}

func NewSweeper(ctl *Controller) *Sweeper {
	return &Sweeper{ctl: ctl}
}

// Disconnect unregisters id and removes it from every room it belonged to,
// broadcasting each room's new snapshot to the remaining members. The
// connection is unregistered first, so nothing is ever delivered to it. Calling
// it again, or racing an explicit Leave, is harmless. It returns the number of
// rooms id was removed from.
func (s *Sweeper) Disconnect(id ConnID) int {
	rooms, ok := s.ctl.registry.Unregister(id)
	if !ok {
		return 0
	}

	swept := 0
	for _, name := range rooms {
		r := s.ctl.store.acquire(name, false)
		if r == nil {
			continue
		}
		if s.ctl.removeLocked(r, id) {
			swept++
		}
		s.ctl.store.release(r)
	}

	zap.L().Debug("roomsync.disconnect", zap.String("conn", string(id)), zap.Int("rooms", swept))
	return swept
}
