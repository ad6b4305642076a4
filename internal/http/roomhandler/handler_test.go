package roomhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"songsyncgo/internal/services/roomsync"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopSink struct{}

func (nopSink) TrySend(roomsync.Message) error { return nil }
func (nopSink) Close()                         {}

type fakeDirectory struct {
	rooms []roomsync.RoomInfo
	err   error
}

func (d fakeDirectory) Directory(context.Context) ([]roomsync.RoomInfo, error) {
	return d.rooms, d.err
}

func newEngine(svc roomsync.IRoomService, dir Directory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	New(svc, dir).Register(r)
	return r
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListAndInfo(t *testing.T) {
	svc := roomsync.NewRoomService(nil)
	a := svc.Connect(nopSink{})
	b := svc.Connect(nopSink{})
	svc.CreateOrJoin(a, "party")
	svc.CreateOrJoin(b, "party")
	svc.CreateOrJoin(b, "lobby")
	r := newEngine(svc, nil)

	w := get(r, "/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	var rooms []roomsync.RoomInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rooms))
	assert.Equal(t, []roomsync.RoomInfo{{Name: "lobby", Members: 1}, {Name: "party", Members: 2}}, rooms)

	w = get(r, "/rooms/party")
	require.Equal(t, http.StatusOK, w.Code)
	var info RoomMembers
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "party", info.Name)
	assert.ElementsMatch(t, []roomsync.ConnID{a, b}, info.Members)

	assert.Equal(t, http.StatusNotFound, get(r, "/rooms/nowhere").Code)
}

func TestEmptyRoomListIsArray(t *testing.T) {
	w := get(newEngine(roomsync.NewRoomService(nil), nil), "/rooms")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestCluster(t *testing.T) {
	svc := roomsync.NewRoomService(nil)

	t.Run("disabled", func(t *testing.T) {
		assert.Equal(t, http.StatusServiceUnavailable, get(newEngine(svc, nil), "/rooms/cluster").Code)
	})

	t.Run("ok", func(t *testing.T) {
		dir := fakeDirectory{rooms: []roomsync.RoomInfo{{Name: "party", Members: 7}}}
		w := get(newEngine(svc, dir), "/rooms/cluster")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"name":"party","members":7}]`, w.Body.String())
	})

	t.Run("redis error", func(t *testing.T) {
		dir := fakeDirectory{err: errors.New("connection refused")}
		assert.Equal(t, http.StatusBadGateway, get(newEngine(svc, dir), "/rooms/cluster").Code)
	})
}
