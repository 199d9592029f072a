package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"umap/backend/internal/dto"
	"umap/backend/internal/roomref"
	"umap/backend/internal/service"
	"umap/backend/pkg/response"
)

// AdminHandler 运维接口 HTTP 处理器
type AdminHandler struct {
	maintenanceSvc service.MaintenanceService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(maintenanceSvc service.MaintenanceService) *AdminHandler {
	return &AdminHandler{maintenanceSvc: maintenanceSvc}
}

// ReloadRoomRef 重新加载房间名称参考表
// POST /api/v1/admin/roomref/reload
func (h *AdminHandler) ReloadRoomRef(c *gin.Context) {
	result, err := h.maintenanceSvc.ReloadRoomRef(c.Request.Context())
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, result)
}

// RunMaintenance 执行房间数据批处理
// POST /api/v1/admin/maintenance/:command?dry_run=true&floor_name=...
func (h *AdminHandler) RunMaintenance(c *gin.Context) {
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	if err != nil {
		response.BadRequest(c, 17000, "dry_run 必须是布尔值")
		return
	}

	ctx := c.Request.Context()
	var report *dto.MaintenanceReport
	switch c.Param("command") {
	case service.CmdFixRoomNumbers:
		report, err = h.maintenanceSvc.FixRoomNumbers(ctx, dryRun)
	case service.CmdUpdateRoomNames:
		report, err = h.maintenanceSvc.UpdateRoomNames(ctx, c.Query("floor_name"), dryRun)
	case service.CmdFixSpecialRooms:
		report, err = h.maintenanceSvc.FixSpecialRooms(ctx, dryRun)
	default:
		response.BadRequest(c, 17000, "未知的批处理命令")
		return
	}
	if err != nil {
		h.handleAdminError(c, err)
		return
	}
	response.OK(c, report)
}

func (h *AdminHandler) handleAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoomRefEmpty):
		response.Conflict(c, 17001, err.Error())
	case errors.Is(err, roomref.ErrSourceMissing):
		response.NotFound(c, 17002, err.Error())
	default:
		response.InternalError(c)
	}
}
