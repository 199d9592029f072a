package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"umap/backend/internal/dto"
	"umap/backend/internal/service"
	"umap/backend/pkg/response"
)

// RoomHandler 楼层与房间 HTTP 处理器
type RoomHandler struct {
	roomSvc service.RoomService
}

// NewRoomHandler 创建 RoomHandler
func NewRoomHandler(roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

// ListFloors 楼层列表
// GET /api/v1/floors
func (h *RoomHandler) ListFloors(c *gin.Context) {
	floors, err := h.roomSvc.ListFloors(c.Request.Context())
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, gin.H{"list": floors})
}

// CreateFloor 创建楼层（管理员）
// POST /api/v1/floors
func (h *RoomHandler) CreateFloor(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateFloorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14000, "参数校验失败")
		return
	}

	floor, err := h.roomSvc.CreateFloor(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.Created(c, floor)
}

// ListRooms 楼层下的房间
// GET /api/v1/floors/:id/rooms
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.ListRooms(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, gin.H{"list": rooms})
}

// GetRoom 按房间号查询
// GET /api/v1/rooms/:number
func (h *RoomHandler) GetRoom(c *gin.Context) {
	room, err := h.roomSvc.GetRoomByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, room)
}

// DeleteRoom 删除房间（管理员）；仍被课表引用时返回 409
// DELETE /api/v1/admin/rooms/:id
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	if err := h.roomSvc.DeleteRoom(c.Request.Context(), c.Param("id")); err != nil {
		h.handleRoomError(c, err)
		return
	}
	response.OK(c, gin.H{"id": c.Param("id")})
}

func (h *RoomHandler) handleRoomError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFloorNotFound):
		response.NotFound(c, 14001, err.Error())
	case errors.Is(err, service.ErrFloorExists):
		response.Conflict(c, 14002, err.Error())
	case errors.Is(err, service.ErrRoomNotFound):
		response.NotFound(c, 14003, err.Error())
	case errors.Is(err, service.ErrRoomInUse):
		response.Conflict(c, 14004, err.Error())
	case errors.Is(err, service.ErrRoomProtected):
		response.Forbidden(c, 14005, err.Error())
	default:
		response.InternalError(c)
	}
}
