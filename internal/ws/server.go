package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"time"

	"songsyncgo/internal/services/roomsync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Options tunes per-connection limits.
type Options struct {
	SendQueue      int
	ReadLimit      int64
	WriteWait      time.Duration
	PongWait       time.Duration
	AllowedOrigins []string // "*" allows any origin
}

func (o Options) pingPeriod() time.Duration { return o.PongWait * 9 / 10 } // must be < PongWait

type WsServer struct {
	rooms    roomsync.IRoomService
	router   *Router
	upgrader websocket.Upgrader
	opts     Options
}

func NewWsServer(rooms roomsync.IRoomService, opts Options) *WsServer {
	srv := &WsServer{
		rooms:  rooms,
		router: NewRouter(),
		opts:   opts,
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     srv.checkOrigin,
	}
	srv.registerHandlers() // ← all WS events configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry‑point
// ---------------------------------------------------------------------------

// Handle upgrades the request and runs the connection until it closes.
func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}

	conn := newClientConn(rawConn, s.opts.SendQueue, s.opts.WriteWait)
	id := s.rooms.Connect(conn)
	_ = conn.TrySend(roomsync.Message{Event: roomsync.EventConnected, Body: roomsync.ConnectedBody{ID: id}})
	zap.L().Info("ws.connected", zap.String("conn", string(id)), zap.String("remote", ginCtx.ClientIP()))

	go conn.writePump(s.opts.pingPeriod())
	go s.reader(id, conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	// 🔹 membership --------------------------------------------------------
	join := func(_ context.Context, cc *ConnContext, req RoomRef) error {
		if err := req.validate(); err != nil {
			return err
		}
		s.rooms.CreateOrJoin(cc.ID, req.Name)
		return nil
	}
	Register(s.router, "create-room", join)
	Register(s.router, "join-room", join)

	Register(s.router, "leave-room", func(_ context.Context, cc *ConnContext, req RoomRef) error {
		if err := req.validate(); err != nil {
			return err
		}
		s.rooms.Leave(cc.ID, req.Name)
		return nil
	})

	// 🔹 playback ----------------------------------------------------------
	Register(s.router, "play-song", func(_ context.Context, cc *ConnContext, req PlaySongRequest) error {
		room, err := roomOf(req.RoomName)
		if err != nil {
			return err
		}
		return s.relay(cc, roomsync.Intent{Kind: roomsync.IntentPlay, Room: room, URL: req.SongURL, Name: req.FileName})
	})

	Register(s.router, "pause-song", func(_ context.Context, cc *ConnContext, req RoomRequest) error {
		room, err := roomOf(req.RoomName)
		if err != nil {
			return err
		}
		return s.relay(cc, roomsync.Intent{Kind: roomsync.IntentPause, Room: room})
	})

	Register(s.router, "resume-song", func(_ context.Context, cc *ConnContext, req RoomRequest) error {
		room, err := roomOf(req.RoomName)
		if err != nil {
			return err
		}
		return s.relay(cc, roomsync.Intent{Kind: roomsync.IntentResume, Room: room})
	})

	Register(s.router, "seek-song", func(_ context.Context, cc *ConnContext, req SeekSongRequest) error {
		room, err := roomOf(req.RoomName)
		if err != nil {
			return err
		}
		if req.Time == nil {
			return ErrMissingTime
		}
		return s.relay(cc, roomsync.Intent{Kind: roomsync.IntentSeek, Room: room, Elapsed: *req.Time})
	})
}

func (s *WsServer) relay(cc *ConnContext, in roomsync.Intent) error {
	_, err := s.rooms.Relay(cc.ID, in)
	return err
}

func (s *WsServer) reader(id roomsync.ConnID, conn *clientConn) {
	defer func() {
		n := s.rooms.Disconnect(id)
		conn.Close()
		zap.L().Info("ws.disconnected", zap.String("conn", string(id)), zap.Int("rooms_swept", n))
	}()

	raw := conn.rawConn
	raw.SetReadLimit(s.opts.ReadLimit)
	_ = raw.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})

	cc := &ConnContext{ID: id, Server: s}

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws.read", zap.String("conn", string(id)), zap.Error(err))
			}
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.reject(conn, id, err)
			continue
		}
		if err := s.router.dispatch(context.Background(), cc, env); err != nil {
			s.reject(conn, id, err)
		}
	}
}

// reject reports a bad frame back to its sender only; the connection stays up.
func (s *WsServer) reject(conn *clientConn, id roomsync.ConnID, err error) {
	zap.L().Warn("ws.bad_frame", zap.String("conn", string(id)), zap.Error(err))
	_ = conn.TrySend(roomsync.Message{Event: roomsync.EventError, Body: ErrorBody{Error: err.Error()}})
}

func (s *WsServer) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(s.opts.AllowedOrigins, "*") {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, origin)
}
