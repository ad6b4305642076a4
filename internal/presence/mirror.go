// Package presence mirrors this instance's room sizes into Redis so that a
// room directory can be served across instances. The mirror is never read by
// the room core; the in-memory store stays the only source of truth.
package presence

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"time"

	"songsyncgo/internal/services/roomsync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix   = "rooms:presence:"
	scanCount   = 100
	queueSize   = 1024
	pipeTimeout = 1500 * time.Millisecond
)

// RoomLister is the part of the room service the mirror resyncs from.
type RoomLister interface {
	Rooms() []roomsync.RoomInfo
}

type update struct {
	room string
	size int
}

type Mirror struct {
	rdc      *redis.Client
	key      string
	interval time.Duration
	ttl      time.Duration
	updates  chan update
}

var _ roomsync.RoomObserver = (*Mirror)(nil)

func NewMirror(rdc *redis.Client, instanceID string, interval, ttl time.Duration) *Mirror {
	return &Mirror{
		rdc:      rdc,
		key:      keyPrefix + instanceID,
		interval: interval,
		ttl:      ttl,
		updates:  make(chan update, queueSize),
	}
}

// RoomChanged queues a size update. A full queue drops it; the next resync
// repairs the hash.
func (m *Mirror) RoomChanged(room string, size int) {
	select {
	case m.updates <- update{room: room, size: size}:
	default:
		zap.L().Debug("presence.dropped", zap.String("room", room))
	}
}

// Run applies queued updates and rewrites the whole hash every interval. It
// returns when ctx is done, removing this instance's hash on the way out.
func (m *Mirror) Run(ctx context.Context, rooms RoomLister) {
	tk := time.NewTicker(m.interval)
	defer tk.Stop()

	m.resync(ctx, rooms)
	for {
		select {
		case <-ctx.Done():
			cleanupCtx, cancel := context.WithTimeout(context.Background(), pipeTimeout)
			_ = m.rdc.Del(cleanupCtx, m.key).Err()
			cancel()
			return
		case u := <-m.updates:
			if err := m.apply(ctx, u); err != nil {
				zap.L().Warn("presence.apply", zap.String("room", u.room), zap.Error(err))
			}
		case <-tk.C:
			m.resync(ctx, rooms)
		}
	}
}

func (m *Mirror) apply(ctx context.Context, u update) error {
	ctx, cancel := context.WithTimeout(ctx, pipeTimeout)
	defer cancel()

	if u.size == 0 {
		return m.rdc.HDel(ctx, m.key, u.room).Err()
	}
	if err := m.rdc.HSet(ctx, m.key, u.room, u.size).Err(); err != nil {
		return err
	}
	return m.rdc.Expire(ctx, m.key, m.ttl).Err()
}

func (m *Mirror) resync(ctx context.Context, rooms RoomLister) {
	if err := m.writeAll(ctx, rooms.Rooms()); err != nil {
		zap.L().Warn("presence.resync", zap.Error(err))
	}
}

// writeAll replaces the hash with list in one MULTI/EXEC.
func (m *Mirror) writeAll(ctx context.Context, list []roomsync.RoomInfo) error {
	ctx, cancel := context.WithTimeout(ctx, pipeTimeout)
	defer cancel()

	_, err := m.rdc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, m.key)
		if len(list) == 0 {
			return nil
		}
		fields := make([]any, 0, 2*len(list))
		for _, r := range list {
			fields = append(fields, r.Name, r.Members)
		}
		pipe.HSet(ctx, m.key, fields...)
		pipe.Expire(ctx, m.key, m.ttl)
		return nil
	})
	return err
}

// Directory sums room sizes over every live instance hash.
func (m *Mirror) Directory(ctx context.Context) ([]roomsync.RoomInfo, error) {
	totals := make(map[string]int)
	var cursor uint64
	for {
		keys, next, err := m.rdc.Scan(ctx, cursor, keyPrefix+"*", scanCount).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			vals, err := m.rdc.HGetAll(ctx, k).Result()
			if err != nil {
				return nil, err
			}
			for name, v := range vals {
				n, err := strconv.Atoi(v)
				if err != nil {
					continue
				}
				totals[name] += n
			}
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	out := make([]roomsync.RoomInfo, 0, len(totals))
	for name, n := range totals {
		out = append(out, roomsync.RoomInfo{Name: name, Members: n})
	}
	slices.SortFunc(out, func(a, b roomsync.RoomInfo) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}
