package roomhandler

import (
	"context"
	"net/http"

	"songsyncgo/internal/services/roomsync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Directory answers for rooms across every instance.
type Directory interface {
	Directory(ctx context.Context) ([]roomsync.RoomInfo, error)
}

type Handler struct {
	svc roomsync.IRoomService
	dir Directory // nil without Redis
}

func New(svc roomsync.IRoomService, dir Directory) *Handler { return &Handler{svc: svc, dir: dir} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/rooms", h.list)
	r.GET("/rooms/cluster", h.cluster)
	r.GET("/rooms/:name", h.info)
}

type RoomMembers struct {
	Name    string            `json:"name"    example:"party"`
	Members []roomsync.ConnID `json:"members"`
} // @name RoomMembers

type ErrorResponse struct {
	Error string `json:"error"`
} // @name ErrorResponse

// @Summary		List rooms
// @Description	Non-empty rooms on this instance with their member counts.
// @Tags			Rooms
// @Success		200	{array}	roomsync.RoomInfo
// @Router			/rooms [get]
func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Rooms())
}

// @Summary		Get room members
// @Tags			Rooms
// @Param			name	path		string	true	"Room name"	default(party)
// @Success		200		{object}	RoomMembers
// @Failure		404		{object}	ErrorResponse
// @Router			/rooms/{name} [get]
func (h *Handler) info(c *gin.Context) {
	name := c.Param("name")
	members, ok := h.svc.Members(name)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, RoomMembers{Name: name, Members: members})
}

// @Summary		List rooms across instances
// @Description	Room sizes summed over every instance's presence hash in Redis.
// @Tags			Rooms
// @Success		200	{array}		roomsync.RoomInfo
// @Failure		502	{object}	ErrorResponse
// @Failure		503	{object}	ErrorResponse
// @Router			/rooms/cluster [get]
func (h *Handler) cluster(c *gin.Context) {
	if h.dir == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "presence directory disabled"})
		return
	}
	out, err := h.dir.Directory(c.Request.Context())
	if err != nil {
		zap.L().Error("rooms.cluster", zap.Error(err))
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}
